package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <feature-id>",
	Short: "Run automation for a feature",
	Long: `Run asks the model for an implementation plan and executes its shell
commands one by one in the project directory. Progress streams into the
feature's automation log; the run stops at the first failing step.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		// Ctrl-C cancels the in-flight step.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		featureID := args[0]
		if err := a.orch.RunFeature(ctx, featureID); err != nil {
			printLogs(a, featureID)
			return err
		}

		printLogs(a, featureID)
		fmt.Println("Automation completed successfully")
		return nil
	},
}

func printLogs(a *app, featureID string) {
	feature, err := a.store.Get(featureID)
	if err != nil {
		return
	}
	for _, entry := range feature.AutomationLogs {
		fmt.Printf("%s [%-7s] %s: %s\n",
			entry.Timestamp.Format("15:04:05"), entry.Type, entry.Step, entry.Message)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
}
