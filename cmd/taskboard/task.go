package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new task",
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update [task-id]",
	Short: "Update task fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUpdate,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete a task (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var (
	taskTitle    string
	taskDesc     string
	taskStatus   string
	taskPriority string
	taskDue      string
	taskAssignee string
	clearDue     bool
	unassign     bool
	listOverdue  bool
	listPage     int
	listLimit    int
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskUpdateCmd, taskDeleteCmd)

	taskAddCmd.Flags().StringVar(&taskTitle, "title", "", "Task title (required)")
	taskAddCmd.Flags().StringVar(&taskDesc, "desc", "", "Task description")
	taskAddCmd.Flags().StringVar(&taskStatus, "status", "", "Initial status (pending, in-progress, completed, cancelled)")
	taskAddCmd.Flags().StringVar(&taskPriority, "priority", "", "Priority (low, medium, high, urgent)")
	taskAddCmd.Flags().StringVar(&taskDue, "due", "", "Due date (RFC 3339)")
	taskAddCmd.Flags().StringVar(&taskAssignee, "assign", "", "Assignee user ID")
	taskAddCmd.MarkFlagRequired("title")

	taskListCmd.Flags().StringVar(&taskStatus, "status", "", "Filter by status (pending, in-progress, completed, cancelled)")
	taskListCmd.Flags().StringVar(&taskPriority, "priority", "", "Filter by priority (low, medium, high, urgent)")
	taskListCmd.Flags().StringVar(&taskAssignee, "assignee", "", "Filter by assignee user ID")
	taskListCmd.Flags().BoolVar(&listOverdue, "overdue", false, "Only overdue tasks")
	taskListCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	taskListCmd.Flags().IntVar(&listLimit, "limit", 50, "Page size")

	taskUpdateCmd.Flags().StringVar(&taskTitle, "title", "", "New title")
	taskUpdateCmd.Flags().StringVar(&taskDesc, "desc", "", "New description")
	taskUpdateCmd.Flags().StringVar(&taskStatus, "status", "", "New status")
	taskUpdateCmd.Flags().StringVar(&taskPriority, "priority", "", "New priority")
	taskUpdateCmd.Flags().StringVar(&taskDue, "due", "", "New due date (RFC 3339)")
	taskUpdateCmd.Flags().StringVar(&taskAssignee, "assign", "", "New assignee user ID")
	taskUpdateCmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	taskUpdateCmd.Flags().BoolVar(&unassign, "unassign", false, "Remove the assignee")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	path, err := projectPath("/tasks")
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"title":       taskTitle,
		"description": taskDesc,
	}
	if taskStatus != "" {
		body["status"] = taskStatus
	}
	if taskPriority != "" {
		body["priority"] = taskPriority
	}
	if taskDue != "" {
		body["due_date"] = taskDue
	}
	if taskAssignee != "" {
		body["assigned_to"] = taskAssignee
	}

	resp, err := apiPost(path, body)
	if err != nil {
		return err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Created task: %s\n", result["id"])
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	path, err := projectPath("/tasks")
	if err != nil {
		return err
	}

	query := fmt.Sprintf("?page=%d&limit=%d", listPage, listLimit)
	if taskStatus != "" {
		query += "&status=" + taskStatus
	}
	if taskPriority != "" {
		query += "&priority=" + taskPriority
	}
	if taskAssignee != "" {
		query += "&assigned_to=" + taskAssignee
	}
	if listOverdue {
		query += "&overdue=true"
	}

	resp, err := apiGet(path + query)
	if err != nil {
		return err
	}

	var result struct {
		Tasks []map[string]interface{} `json:"tasks"`
		Pagination struct {
			Page  int `json:"page"`
			Pages int `json:"pages"`
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	if len(result.Tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tASSIGNED TO\tDUE")
	for _, t := range result.Tasks {
		id := truncateID(stringField(t, "id"))
		title := truncate(stringField(t, "title"), 40)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			id, title,
			stringField(t, "status"),
			stringField(t, "priority"),
			truncateID(stringField(t, "assigned_to")),
			stringField(t, "due_date"))
	}
	w.Flush()

	fmt.Printf("\nPage %d of %d (%d tasks)\n", result.Pagination.Page, result.Pagination.Pages, result.Pagination.Total)
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	path, err := projectPath("/tasks/" + args[0])
	if err != nil {
		return err
	}

	resp, err := apiGet(path)
	if err != nil {
		return err
	}

	var task map[string]interface{}
	if err := json.Unmarshal(resp, &task); err != nil {
		return err
	}

	fmt.Printf("ID:          %s\n", task["id"])
	fmt.Printf("Title:       %s\n", task["title"])
	fmt.Printf("Description: %s\n", task["description"])
	fmt.Printf("Status:      %s\n", task["status"])
	fmt.Printf("Priority:    %s\n", task["priority"])
	if assignee := stringField(task, "assigned_to"); assignee != "" {
		fmt.Printf("Assigned To: %s\n", assignee)
	}
	if due := stringField(task, "due_date"); due != "" {
		fmt.Printf("Due:         %s\n", due)
	}
	fmt.Printf("Created By:  %s\n", task["created_by"])
	fmt.Printf("Created:     %s\n", task["created_at"])
	fmt.Printf("Updated:     %s\n", task["updated_at"])

	return nil
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	path, err := projectPath("/tasks/" + args[0])
	if err != nil {
		return err
	}

	body := map[string]interface{}{}
	if cmd.Flags().Changed("title") {
		body["title"] = taskTitle
	}
	if cmd.Flags().Changed("desc") {
		body["description"] = taskDesc
	}
	if cmd.Flags().Changed("status") {
		body["status"] = taskStatus
	}
	if cmd.Flags().Changed("priority") {
		body["priority"] = taskPriority
	}
	if clearDue {
		body["due_date"] = nil
	} else if cmd.Flags().Changed("due") {
		body["due_date"] = taskDue
	}
	if unassign {
		body["assigned_to"] = nil
	} else if cmd.Flags().Changed("assign") {
		body["assigned_to"] = taskAssignee
	}

	if len(body) == 0 {
		return fmt.Errorf("nothing to update: pass at least one field flag")
	}

	if _, err := apiPut(path, body); err != nil {
		return err
	}

	fmt.Printf("Updated task %s\n", args[0])
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	path, err := projectPath("/tasks/" + args[0])
	if err != nil {
		return err
	}

	if _, err := apiDelete(path); err != nil {
		return err
	}

	fmt.Printf("Deleted task %s\n", args[0])
	return nil
}

// --- Helpers ---

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
