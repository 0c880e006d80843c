package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskboard/taskboard/internal/update"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update taskboard to the latest version",
	Run:   runUpdate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the taskboard version",
	Run:   runVersion,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	if err := update.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Update failed: %v\n", err)
		os.Exit(1)
	}
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("taskboard version %s\n", update.Version)
}
