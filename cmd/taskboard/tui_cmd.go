package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskboard/taskboard/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	if apiToken == "" {
		return fmt.Errorf("token required: run 'taskboard auth login' and set TASKBOARD_TOKEN")
	}
	if projectID == "" {
		return fmt.Errorf("project ID required: set --project or TASKBOARD_PROJECT")
	}

	if health, err := CheckHealth(); err != nil || !health.OK {
		return fmt.Errorf("API not reachable at %s: run 'taskboard serve' first", apiAddr)
	}

	app := tui.New(apiAddr, apiToken, projectID)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
