package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Show the project dashboard",
	RunE:  runDash,
}

var dashRange string

func init() {
	dashCmd.Flags().StringVar(&dashRange, "range", "30days", "Time series window (7days, 30days, 12months)")
}

// dashStats mirrors the dashboard endpoint's payload.
type dashStats struct {
	Summary struct {
		Total      int            `json:"total"`
		ByStatus   map[string]int `json:"by_status"`
		ByPriority map[string]int `json:"by_priority"`
		Overdue    struct {
			Count int `json:"count"`
			Tasks []struct {
				Title   string `json:"title"`
				DueDate string `json:"due_date"`
			} `json:"tasks"`
		} `json:"overdue"`
		DueSoon struct {
			Count int `json:"count"`
		} `json:"due_soon"`
		CompletionRate struct {
			Total     int     `json:"total"`
			Completed int     `json:"completed"`
			Rate      float64 `json:"rate"`
		} `json:"completion_rate"`
		AverageCompletionTime struct {
			AvgDays float64 `json:"avg_days"`
			Count   int     `json:"count"`
		} `json:"average_completion_time"`
	} `json:"summary"`
	ByAssignee struct {
		Unassigned int `json:"unassigned"`
		Assigned   []struct {
			AssigneeID string `json:"assignee_id"`
			Count      int    `json:"count"`
		} `json:"assigned"`
	} `json:"by_assignee"`
	CreatedOverTime []struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	} `json:"tasks_created_over_time"`
	RecentTasks []struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Status   string `json:"status"`
		Priority string `json:"priority"`
	} `json:"recent_tasks"`
}

func runDash(cmd *cobra.Command, args []string) error {
	path, err := projectPath("/dashboard")
	if err != nil {
		return err
	}

	resp, err := apiGet(path + "?range=" + dashRange)
	if err != nil {
		return err
	}

	var stats dashStats
	if err := json.Unmarshal(resp, &stats); err != nil {
		return err
	}

	s := stats.Summary
	fmt.Printf("Project %s — %d tasks\n\n", truncateID(projectID), s.Total)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tCOUNT\tPRIORITY\tCOUNT")
	statuses := []string{"pending", "in-progress", "completed", "cancelled"}
	priorities := []string{"low", "medium", "high", "urgent"}
	for i := range statuses {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\n", statuses[i], s.ByStatus[statuses[i]], priorities[i], s.ByPriority[priorities[i]])
	}
	w.Flush()

	fmt.Printf("\nOverdue: %d   Due within 7 days: %d\n", s.Overdue.Count, s.DueSoon.Count)
	fmt.Printf("Completion rate: %.2f%% (%d of %d)\n", s.CompletionRate.Rate, s.CompletionRate.Completed, s.CompletionRate.Total)
	if s.AverageCompletionTime.Count > 0 {
		fmt.Printf("Average completion: %.2f days over %d completed tasks\n", s.AverageCompletionTime.AvgDays, s.AverageCompletionTime.Count)
	}

	if len(stats.ByAssignee.Assigned) > 0 || stats.ByAssignee.Unassigned > 0 {
		fmt.Println("\nBy assignee:")
		aw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, g := range stats.ByAssignee.Assigned {
			fmt.Fprintf(aw, "  %s\t%d\n", truncateID(g.AssigneeID), g.Count)
		}
		if stats.ByAssignee.Unassigned > 0 {
			fmt.Fprintf(aw, "  (unassigned)\t%d\n", stats.ByAssignee.Unassigned)
		}
		aw.Flush()
	}

	if len(stats.CreatedOverTime) > 0 {
		fmt.Printf("\nTasks created (%s):\n", dashRange)
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, b := range stats.CreatedOverTime {
			fmt.Fprintf(tw, "  %s\t%d\n", b.Date, b.Count)
		}
		tw.Flush()
	}

	if len(stats.RecentTasks) > 0 {
		fmt.Println("\nRecent tasks:")
		rw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(rw, "  ID\tTITLE\tSTATUS\tPRIORITY")
		for _, t := range stats.RecentTasks {
			fmt.Fprintf(rw, "  %s\t%s\t%s\t%s\n", truncateID(t.ID), truncate(t.Title, 40), t.Status, t.Priority)
		}
		rw.Flush()
	}

	return nil
}
