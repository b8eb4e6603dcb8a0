package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ASHUVINAYAK1/project-maker/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local board API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		srv := web.NewServer(a.store, a.orch, a.controller, a.gateway, viper.GetInt("web.port"))
		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().Int("port", 8321, "Port to listen on (overrides config)")
	viper.BindPFlag("web.port", serveCmd.Flags().Lookup("port"))
	rootCmd.AddCommand(serveCmd)
}
