package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [project-id]",
	Short: "List projects, or a project's features by board column",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			projects, err := a.store.ListProjects()
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No projects yet. Create one with 'projectmaker generate --name <name>'.")
				return nil
			}
			for _, p := range projects {
				features, err := a.store.ListByProject(p.ID)
				if err != nil {
					return err
				}
				fmt.Printf("%s  %-20s %d features  %s\n", shortID(p.ID), p.Name, len(features), p.Path)
			}
			return nil
		}

		features, err := a.store.ListByProject(args[0])
		if err != nil {
			return err
		}

		column := ""
		for _, f := range features {
			if string(f.Status) != column {
				column = string(f.Status)
				fmt.Printf("\n== %s ==\n", column)
			}
			marker := " "
			switch f.AutomationStatus {
			case "running":
				marker = "~"
			case "success":
				marker = "+"
			case "failed":
				marker = "!"
			}
			fmt.Printf(" %s [%s] %s\n", marker, shortID(f.ID), f.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
