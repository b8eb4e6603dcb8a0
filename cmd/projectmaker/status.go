package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the generation service and storage configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("Gateway:  %s\n", viper.GetString("ollama.url"))
		if a.gateway.IsAvailable(cmd.Context()) {
			fmt.Println("          reachable")
		} else {
			fmt.Println("          UNREACHABLE - is ollama running?")
		}
		fmt.Printf("Model:    %s\n", viper.GetString("ollama.model"))
		fmt.Printf("Storage:  %s (%s)\n", viper.GetString("db.type"), viper.GetString("db.connection"))
		fmt.Printf("Executor: %s\n", viper.GetString("shell.mode"))

		projects, err := a.store.ListProjects()
		if err != nil {
			return err
		}
		fmt.Printf("Projects: %d\n", len(projects))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
