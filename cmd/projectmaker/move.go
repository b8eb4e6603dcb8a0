package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ASHUVINAYAK1/project-maker/internal/db"
)

var moveOrder int

var moveCmd = &cobra.Command{
	Use:   "move <feature-id> <status>",
	Short: "Move a feature to a board column",
	Long: `Move changes a feature's board column. Moving a feature into todo
triggers an automation run, same as dropping it there on the board.
Valid columns: backlog, todo, in_progress, in_review, done.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		featureID, status := args[0], db.Status(args[1])
		if !db.ValidStatus(status) {
			return fmt.Errorf("invalid status %q", args[1])
		}

		var order *int
		if cmd.Flags().Changed("order") {
			order = &moveOrder
		}

		feature, err := a.store.Get(featureID)
		if err != nil {
			return err
		}
		previous := feature.Status

		// The board trigger is asynchronous; in the CLI we want the run in
		// the foreground, so move first and run explicitly.
		if err := a.store.MoveToStatus(featureID, status, order); err != nil {
			return err
		}
		fmt.Printf("Moved %s to %s\n", shortID(featureID), status)

		if status == db.StatusTodo && previous != db.StatusTodo {
			fmt.Println("Starting automation...")
			if err := a.orch.RunFeature(cmd.Context(), featureID); err != nil {
				printLogs(a, featureID)
				return err
			}
			printLogs(a, featureID)
		}
		return nil
	},
}

func init() {
	moveCmd.Flags().IntVar(&moveOrder, "order", 0, "Position within the target column (default: append)")
	rootCmd.AddCommand(moveCmd)
}
