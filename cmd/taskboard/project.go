package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskboard/taskboard/internal/config"
	"github.com/taskboard/taskboard/internal/store"
)

// Project commands operate directly on the database: bootstrapping a first
// project has to work before anyone can authenticate against the API.
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects (direct database access)",
}

var projectAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a project",
	RunE:  runProjectAdd,
}

var projectMemberCmd = &cobra.Command{
	Use:   "member [project-id] [user-id]",
	Short: "Add a user to a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectMember,
}

var (
	projectName  string
	projectOwner string
)

func init() {
	projectCmd.AddCommand(projectAddCmd, projectMemberCmd)
	projectCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides TASKBOARD_DB)")

	projectAddCmd.Flags().StringVar(&projectName, "name", "", "Project name (required)")
	projectAddCmd.Flags().StringVar(&projectOwner, "owner", "", "Owner user ID (required, becomes a member)")
	projectAddCmd.MarkFlagRequired("name")
	projectAddCmd.MarkFlagRequired("owner")
}

func openStore() (*store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return store.New(cfg.DBPath)
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	project, err := s.CreateProject(projectName)
	if err != nil {
		return err
	}
	if err := s.AddMember(project.ID, projectOwner); err != nil {
		return err
	}

	fmt.Printf("Created project: %s\n", project.ID)
	return nil
}

func runProjectMember(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.AddMember(args[0], args[1]); err != nil {
		return err
	}

	fmt.Printf("Added %s to project %s\n", args[1], args[0])
	return nil
}
