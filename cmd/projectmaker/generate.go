package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ASHUVINAYAK1/project-maker/internal/db"
)

var (
	generateName        string
	generateDescription string
	generatePath        string
)

var generateCmd = &cobra.Command{
	Use:   "generate [project-id]",
	Short: "Generate a feature breakdown for a project with the LLM",
	Long: `Generate asks the configured model for a feature breakdown and imports
the result into the project's backlog. Pass an existing project id, or use
--name to create a new project first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var project *db.Project
		switch {
		case len(args) == 1:
			project, err = a.store.GetProject(args[0])
			if err != nil {
				return fmt.Errorf("project %q: %w", args[0], err)
			}
		case generateName != "":
			project, err = a.store.CreateProject(generateName, generateDescription, generatePath)
			if err != nil {
				return err
			}
			fmt.Printf("Created project %s (%s)\n", project.Name, project.ID)
		default:
			return fmt.Errorf("pass a project id or --name to create one")
		}

		features, err := a.orch.GenerateFeatures(cmd.Context(), project.ID)
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d features into the backlog:\n", len(features))
		for _, f := range features {
			fmt.Printf("  [%s] %-10s %s\n", shortID(f.ID), f.EstimatedComplexity, f.Title)
		}
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	generateCmd.Flags().StringVar(&generateName, "name", "", "Name for a new project")
	generateCmd.Flags().StringVar(&generateDescription, "description", "", "Description for a new project")
	generateCmd.Flags().StringVar(&generatePath, "path", "", "Working directory automation runs in")
	rootCmd.AddCommand(generateCmd)
}
