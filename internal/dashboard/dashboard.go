// Package dashboard computes project analytics over the live task set.
//
// Every computation is relative to a single caller-supplied instant so the
// sub-computations that run concurrently stay mutually consistent. Nothing
// here reads the wall clock.
package dashboard

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/models"
)

// dueSoonHorizon is how far ahead a due date counts as "due soon".
const dueSoonHorizon = 7 * 24 * time.Hour

// recentTaskLimit caps the recent-tasks slice.
const recentTaskLimit = 10

// TaskSource is the read interface the engine scans. The store satisfies it.
type TaskSource interface {
	ProjectExists(projectID string) (bool, error)
	ListLiveTasks(projectID string) ([]models.Task, error)
}

// Window selects the time-series range.
type Window string

const (
	Window7Days    Window = "7days"
	Window30Days   Window = "30days"
	Window12Months Window = "12months"
)

// ParseWindow maps a query value to a Window, defaulting to 30 days.
func ParseWindow(s string) Window {
	switch Window(s) {
	case Window7Days, Window30Days, Window12Months:
		return Window(s)
	default:
		return Window30Days
	}
}

// start returns the lower bound of the window relative to now.
func (w Window) start(now time.Time) time.Time {
	switch w {
	case Window7Days:
		return now.Add(-7 * 24 * time.Hour)
	case Window12Months:
		return now.Add(-365 * 24 * time.Hour)
	default:
		return now.Add(-30 * 24 * time.Hour)
	}
}

// label formats a creation time into the window's bucket label: daily
// YYYY-MM-DD buckets, or YYYY-MM for the 12-month window.
func (w Window) label(t time.Time) string {
	if w == Window12Months {
		return t.UTC().Format("2006-01")
	}
	return t.UTC().Format("2006-01-02")
}

// Stats is the full dashboard bundle, computed fresh per request.
type Stats struct {
	Summary         Summary           `json:"summary"`
	ByAssignee      AssigneeBreakdown `json:"by_assignee"`
	CreatedOverTime []TimeBucket      `json:"tasks_created_over_time"`
	RecentTasks     []TaskSummary     `json:"recent_tasks"`
}

// Summary holds the headline numbers.
type Summary struct {
	Total                 int                          `json:"total"`
	ByStatus              map[models.TaskStatus]int    `json:"by_status"`
	ByPriority            map[models.TaskPriority]int  `json:"by_priority"`
	Overdue               DueGroup                     `json:"overdue"`
	DueSoon               DueGroup                     `json:"due_soon"`
	CompletionRate        CompletionRate               `json:"completion_rate"`
	AverageCompletionTime CompletionTime               `json:"average_completion_time"`
}

// DueGroup is the overdue or due-soon subset.
type DueGroup struct {
	Count int       `json:"count"`
	Tasks []DueTask `json:"tasks"`
}

// DueTask is the reduced projection used in due groups.
type DueTask struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	DueDate  time.Time           `json:"due_date"`
	Status   models.TaskStatus   `json:"status"`
	Priority models.TaskPriority `json:"priority"`
}

// CompletionRate is completed/total expressed as a percentage.
type CompletionRate struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Rate      float64 `json:"rate"`
}

// CompletionTime is the average time from creation to completion.
type CompletionTime struct {
	AvgMilliseconds float64 `json:"avg_milliseconds"`
	AvgDays         float64 `json:"avg_days"`
	Count           int     `json:"count"`
}

// TimeBucket is one point of the creation time series.
type TimeBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TaskSummary is the reduced projection used for recent tasks.
type TaskSummary struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Status     models.TaskStatus   `json:"status"`
	Priority   models.TaskPriority `json:"priority"`
	AssignedTo string              `json:"assigned_to,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	DueDate    *time.Time          `json:"due_date,omitempty"`
}

// AssigneeBreakdown groups tasks by assignee with an explicit unassigned
// bucket. Assigned groups are sorted by count descending; ties keep
// first-seen order.
type AssigneeBreakdown struct {
	Unassigned      int             `json:"unassigned"`
	UnassignedTasks []AssigneeTask  `json:"unassigned_tasks"`
	Assigned        []AssigneeGroup `json:"assigned"`
}

// AssigneeGroup is one assignee's slice of the breakdown.
type AssigneeGroup struct {
	AssigneeID string         `json:"assignee_id"`
	Count      int            `json:"count"`
	Tasks      []AssigneeTask `json:"tasks"`
}

// AssigneeTask is the lightweight task projection inside assignee groups.
type AssigneeTask struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Status   models.TaskStatus   `json:"status"`
	Priority models.TaskPriority `json:"priority"`
}

// StatusBucket is one point of the status-over-time series.
type StatusBucket struct {
	Date     string        `json:"date"`
	Statuses []StatusCount `json:"statuses"`
}

// StatusCount pairs a status with its count inside a bucket.
type StatusCount struct {
	Status models.TaskStatus `json:"status"`
	Count  int               `json:"count"`
}

// Engine computes dashboard aggregates. It is stateless; every call reads a
// fresh snapshot from its source.
type Engine struct {
	src TaskSource
}

// NewEngine creates an Engine over the given task source.
func NewEngine(src TaskSource) *Engine {
	return &Engine{src: src}
}

// Stats computes the full dashboard bundle for a project at the given
// instant. The live-task snapshot is read once; the sub-computations then
// run concurrently over it and merge at a single join point, so a failure
// in any of them fails the whole request instead of zeroing a section.
func (e *Engine) Stats(ctx context.Context, projectID string, now time.Time, window Window) (*Stats, error) {
	tasks, err := e.snapshot(projectID)
	if err != nil {
		return nil, err
	}

	var stats Stats
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats.Summary.Total, stats.Summary.ByStatus = countByStatus(tasks)
		return nil
	})
	g.Go(func() error {
		stats.Summary.ByPriority = countByPriority(tasks)
		return nil
	})
	g.Go(func() error {
		stats.ByAssignee = groupByAssignee(tasks)
		return nil
	})
	g.Go(func() error {
		stats.Summary.Overdue = overdue(tasks, now)
		return nil
	})
	g.Go(func() error {
		stats.Summary.DueSoon = dueSoon(tasks, now)
		return nil
	})
	g.Go(func() error {
		stats.Summary.CompletionRate = completionRate(tasks)
		return nil
	})
	g.Go(func() error {
		stats.CreatedOverTime = createdOverTime(tasks, now, window)
		return nil
	})
	g.Go(func() error {
		stats.Summary.AverageCompletionTime = averageCompletionTime(tasks)
		return nil
	})
	g.Go(func() error {
		stats.RecentTasks = recentTasks(tasks)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, apperr.Infrastructure("compute dashboard", err)
	}
	return &stats, nil
}

// StatusOverTime computes a per-bucket status breakdown of task creation
// within the window.
func (e *Engine) StatusOverTime(ctx context.Context, projectID string, now time.Time, window Window) ([]StatusBucket, error) {
	tasks, err := e.snapshot(projectID)
	if err != nil {
		return nil, err
	}

	start := window.start(now)
	type key struct {
		date   string
		status models.TaskStatus
	}
	counts := make(map[key]int)
	for i := range tasks {
		t := &tasks[i]
		if t.CreatedAt.Before(start) {
			continue
		}
		counts[key{window.label(t.CreatedAt), t.Status}]++
	}

	byDate := make(map[string][]StatusCount)
	for k, n := range counts {
		byDate[k.date] = append(byDate[k.date], StatusCount{Status: k.status, Count: n})
	}

	buckets := make([]StatusBucket, 0, len(byDate))
	for date, statuses := range byDate {
		sort.Slice(statuses, func(i, j int) bool { return statuses[i].Status < statuses[j].Status })
		buckets = append(buckets, StatusBucket{Date: date, Statuses: statuses})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Date < buckets[j].Date })
	return buckets, nil
}

// snapshot validates the project and reads its live tasks once.
func (e *Engine) snapshot(projectID string) ([]models.Task, error) {
	exists, err := e.src.ProjectExists(projectID)
	if err != nil {
		return nil, apperr.Infrastructure("check project", err)
	}
	if !exists {
		return nil, apperr.NotFound("Project")
	}

	tasks, err := e.src.ListLiveTasks(projectID)
	if err != nil {
		return nil, apperr.Infrastructure("read tasks", err)
	}
	return tasks, nil
}

// countByStatus zero-fills every canonical status so empty buckets still
// appear in the result.
func countByStatus(tasks []models.Task) (int, map[models.TaskStatus]int) {
	byStatus := make(map[models.TaskStatus]int, len(models.Statuses))
	for _, s := range models.Statuses {
		byStatus[s] = 0
	}
	for i := range tasks {
		byStatus[tasks[i].Status]++
	}
	return len(tasks), byStatus
}

func countByPriority(tasks []models.Task) map[models.TaskPriority]int {
	byPriority := make(map[models.TaskPriority]int, len(models.Priorities))
	for _, p := range models.Priorities {
		byPriority[p] = 0
	}
	for i := range tasks {
		byPriority[tasks[i].Priority]++
	}
	return byPriority
}

func groupByAssignee(tasks []models.Task) AssigneeBreakdown {
	breakdown := AssigneeBreakdown{
		UnassignedTasks: []AssigneeTask{},
		Assigned:        []AssigneeGroup{},
	}

	index := make(map[string]int)
	for i := range tasks {
		t := &tasks[i]
		item := AssigneeTask{ID: t.ID, Title: t.Title, Status: t.Status, Priority: t.Priority}
		if t.AssignedTo == "" {
			breakdown.Unassigned++
			breakdown.UnassignedTasks = append(breakdown.UnassignedTasks, item)
			continue
		}
		pos, ok := index[t.AssignedTo]
		if !ok {
			pos = len(breakdown.Assigned)
			index[t.AssignedTo] = pos
			breakdown.Assigned = append(breakdown.Assigned, AssigneeGroup{AssigneeID: t.AssignedTo})
		}
		breakdown.Assigned[pos].Count++
		breakdown.Assigned[pos].Tasks = append(breakdown.Assigned[pos].Tasks, item)
	}

	// Stable sort keeps first-seen order on equal counts; no tie-break rule
	// is promised beyond that.
	sort.SliceStable(breakdown.Assigned, func(i, j int) bool {
		return breakdown.Assigned[i].Count > breakdown.Assigned[j].Count
	})
	return breakdown
}

func overdue(tasks []models.Task, now time.Time) DueGroup {
	group := DueGroup{Tasks: []DueTask{}}
	for i := range tasks {
		t := &tasks[i]
		if t.DueDate == nil || t.Status == models.TaskStatusCompleted {
			continue
		}
		if t.DueDate.Before(now) {
			group.Count++
			group.Tasks = append(group.Tasks, DueTask{ID: t.ID, Title: t.Title, DueDate: *t.DueDate, Status: t.Status, Priority: t.Priority})
		}
	}
	return group
}

func dueSoon(tasks []models.Task, now time.Time) DueGroup {
	horizon := now.Add(dueSoonHorizon)
	group := DueGroup{Tasks: []DueTask{}}
	for i := range tasks {
		t := &tasks[i]
		if t.DueDate == nil || t.Status == models.TaskStatusCompleted {
			continue
		}
		// Inclusive on both ends: now <= due <= now+7d.
		if !t.DueDate.Before(now) && !t.DueDate.After(horizon) {
			group.Count++
			group.Tasks = append(group.Tasks, DueTask{ID: t.ID, Title: t.Title, DueDate: *t.DueDate, Status: t.Status, Priority: t.Priority})
		}
	}
	return group
}

func completionRate(tasks []models.Task) CompletionRate {
	rate := CompletionRate{Total: len(tasks)}
	for i := range tasks {
		if tasks[i].Status == models.TaskStatusCompleted {
			rate.Completed++
		}
	}
	if rate.Total > 0 {
		rate.Rate = round2(float64(rate.Completed) / float64(rate.Total) * 100)
	}
	return rate
}

func createdOverTime(tasks []models.Task, now time.Time, window Window) []TimeBucket {
	start := window.start(now)
	counts := make(map[string]int)
	for i := range tasks {
		if tasks[i].CreatedAt.Before(start) {
			continue
		}
		counts[window.label(tasks[i].CreatedAt)]++
	}

	buckets := make([]TimeBucket, 0, len(counts))
	for date, n := range counts {
		buckets = append(buckets, TimeBucket{Date: date, Count: n})
	}
	// Labels are zero-padded, so lexicographic order is chronological.
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Date < buckets[j].Date })
	return buckets
}

func averageCompletionTime(tasks []models.Task) CompletionTime {
	var sumMs float64
	var count int
	for i := range tasks {
		t := &tasks[i]
		if t.Status != models.TaskStatusCompleted {
			continue
		}
		sumMs += float64(t.UpdatedAt.Sub(t.CreatedAt).Milliseconds())
		count++
	}
	if count == 0 {
		return CompletionTime{}
	}
	avgMs := sumMs / float64(count)
	return CompletionTime{
		AvgMilliseconds: avgMs,
		AvgDays:         round2(avgMs / float64(24*time.Hour/time.Millisecond)),
		Count:           count,
	}
}

func recentTasks(tasks []models.Task) []TaskSummary {
	sorted := make([]models.Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > recentTaskLimit {
		sorted = sorted[:recentTaskLimit]
	}

	recent := make([]TaskSummary, len(sorted))
	for i := range sorted {
		t := &sorted[i]
		recent[i] = TaskSummary{
			ID:         t.ID,
			Title:      t.Title,
			Status:     t.Status,
			Priority:   t.Priority,
			AssignedTo: t.AssignedTo,
			CreatedAt:  t.CreatedAt,
			DueDate:    t.DueDate,
		}
	}
	return recent
}

// round2 rounds half away from zero to two decimal places, matching the
// upstream dashboard's rounding.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
