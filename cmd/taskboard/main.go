package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "Taskboard - project task management",
	Long:  `Taskboard is a project task management backend with a JSON API, per-project dashboards, and role-based task authorization.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr   string
	apiToken  string
	projectID string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:8970", "API server address")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("TASKBOARD_TOKEN"), "Bearer token for API requests")
	rootCmd.PersistentFlags().StringVar(&projectID, "project", os.Getenv("TASKBOARD_PROJECT"), "Project ID for task and dashboard commands")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(dashCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
