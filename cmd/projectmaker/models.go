package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models installed on the generation service",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		models, err := a.gateway.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		if len(models) == 0 {
			fmt.Println("No models installed. Pull one with 'ollama pull <model>'.")
			return nil
		}
		for _, m := range models {
			fmt.Printf("%-30s %10d bytes\n", m.Name, m.Size)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
