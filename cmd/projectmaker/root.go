package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ASHUVINAYAK1/project-maker/internal/config"
	"github.com/ASHUVINAYAK1/project-maker/internal/telemetry"
)

var exit = os.Exit
var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "projectmaker",
	Short: "AI-assisted feature board and automation runner",
	Long: `projectmaker breaks a project down into features with a local LLM,
tracks them on a kanban board, and automates implementation by planning
and executing shell commands per feature.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Called once from main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("model", "", "Model to use (overrides config and PROJECTMAKER_OLLAMA_MODEL)")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("ollama.model", rootCmd.PersistentFlags().Lookup("model"))
}

// initConfig reads config and sets up logging before any subcommand runs.
func initConfig() {
	config.Load(cfgFile)
	telemetry.InitLogger(viper.GetBool("verbose"), viper.GetString("log.file"))

	if err := config.ValidateConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		exit(1)
	}
}
