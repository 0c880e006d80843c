package dashboard

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/models"
)

type fakeSource struct {
	exists bool
	tasks  []models.Task
	err    error
}

func (f *fakeSource) ProjectExists(projectID string) (bool, error) {
	return f.exists, f.err
}

func (f *fakeSource) ListLiveTasks(projectID string) ([]models.Task, error) {
	return f.tasks, f.err
}

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func task(id string, status models.TaskStatus, opts ...func(*models.Task)) models.Task {
	t := models.Task{
		ID:        id,
		ProjectID: "p1",
		Title:     "Task " + id,
		Status:    status,
		Priority:  models.PriorityMedium,
		CreatedBy: "u1",
		CreatedAt: testNow.Add(-24 * time.Hour),
		UpdatedAt: testNow.Add(-24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

func withDue(d time.Time) func(*models.Task) {
	return func(t *models.Task) { t.DueDate = &d }
}

func withAssignee(id string) func(*models.Task) {
	return func(t *models.Task) { t.AssignedTo = id }
}

func withCreated(at time.Time) func(*models.Task) {
	return func(t *models.Task) {
		t.CreatedAt = at
		t.UpdatedAt = at
	}
}

func withCompletedAfter(d time.Duration) func(*models.Task) {
	return func(t *models.Task) { t.UpdatedAt = t.CreatedAt.Add(d) }
}

func TestStats_MissingProject(t *testing.T) {
	engine := NewEngine(&fakeSource{exists: false})

	_, err := engine.Stats(context.Background(), "nope", testNow, Window30Days)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("Expected not-found error, got %v", err)
	}
}

func TestStats_EmptyProject(t *testing.T) {
	engine := NewEngine(&fakeSource{exists: true})

	stats, err := engine.Stats(context.Background(), "p1", testNow, Window30Days)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.Summary.Total != 0 {
		t.Errorf("Expected total 0, got %d", stats.Summary.Total)
	}
	for _, s := range models.Statuses {
		if n, ok := stats.Summary.ByStatus[s]; !ok || n != 0 {
			t.Errorf("Expected zero-filled status bucket for %s, got %d (present: %v)", s, n, ok)
		}
	}
	for _, p := range models.Priorities {
		if n, ok := stats.Summary.ByPriority[p]; !ok || n != 0 {
			t.Errorf("Expected zero-filled priority bucket for %s, got %d (present: %v)", p, n, ok)
		}
	}
	if stats.Summary.CompletionRate.Rate != 0 {
		t.Errorf("Expected completion rate 0, got %v", stats.Summary.CompletionRate.Rate)
	}
	if stats.Summary.AverageCompletionTime.Count != 0 {
		t.Errorf("Expected avg completion count 0, got %d", stats.Summary.AverageCompletionTime.Count)
	}
	if stats.Summary.Overdue.Count != 0 || stats.Summary.DueSoon.Count != 0 {
		t.Error("Expected no overdue or due-soon tasks")
	}
	if len(stats.RecentTasks) != 0 {
		t.Errorf("Expected no recent tasks, got %d", len(stats.RecentTasks))
	}
	if len(stats.CreatedOverTime) != 0 {
		t.Errorf("Expected no time buckets, got %d", len(stats.CreatedOverTime))
	}
}

func TestStats_CountsRateAndAverage(t *testing.T) {
	// Four tasks, one completed 2 days after creation: rate 25%, avg 2 days.
	src := &fakeSource{exists: true, tasks: []models.Task{
		task("t1", models.TaskStatusCompleted, withCompletedAfter(48*time.Hour)),
		task("t2", models.TaskStatusPending),
		task("t3", models.TaskStatusInProgress),
		task("t4", models.TaskStatusCancelled),
	}}
	engine := NewEngine(src)

	stats, err := engine.Stats(context.Background(), "p1", testNow, Window30Days)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.Summary.Total != 4 {
		t.Errorf("Expected total 4, got %d", stats.Summary.Total)
	}
	for _, s := range models.Statuses {
		if stats.Summary.ByStatus[s] != 1 {
			t.Errorf("Expected 1 task with status %s, got %d", s, stats.Summary.ByStatus[s])
		}
	}

	rate := stats.Summary.CompletionRate
	if rate.Total != 4 || rate.Completed != 1 {
		t.Errorf("Expected 1/4 completed, got %d/%d", rate.Completed, rate.Total)
	}
	if rate.Rate != 25.0 {
		t.Errorf("Expected rate 25.0, got %v", rate.Rate)
	}

	avg := stats.Summary.AverageCompletionTime
	if avg.Count != 1 {
		t.Errorf("Expected avg count 1, got %d", avg.Count)
	}
	if avg.AvgDays != 2.0 {
		t.Errorf("Expected avg 2.0 days, got %v", avg.AvgDays)
	}
	wantMs := float64(48 * time.Hour / time.Millisecond)
	if avg.AvgMilliseconds != wantMs {
		t.Errorf("Expected avg %v ms, got %v", wantMs, avg.AvgMilliseconds)
	}
}

func TestStats_RateRounding(t *testing.T) {
	// 1 of 3 completed: 33.333...% rounds to 33.33.
	src := &fakeSource{exists: true, tasks: []models.Task{
		task("t1", models.TaskStatusCompleted),
		task("t2", models.TaskStatusPending),
		task("t3", models.TaskStatusPending),
	}}
	engine := NewEngine(src)

	stats, err := engine.Stats(context.Background(), "p1", testNow, Window30Days)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if got := stats.Summary.CompletionRate.Rate; got != 33.33 {
		t.Errorf("Expected rate 33.33, got %v", got)
	}
}

func TestStats_OverdueAndDueSoonDisjoint(t *testing.T) {
	src := &fakeSource{exists: true, tasks: []models.Task{
		// Past due, still open: overdue only.
		task("late", models.TaskStatusPending, withDue(testNow.Add(-time.Hour))),
		// Due in 3 days: due-soon only.
		task("soon", models.TaskStatusPending, withDue(testNow.Add(3*24*time.Hour))),
		// Due exactly at the 7-day horizon: inclusive upper bound.
		task("edge", models.TaskStatusPending, withDue(testNow.Add(7*24*time.Hour))),
		// Due in 8 days: neither.
		task("far", models.TaskStatusPending, withDue(testNow.Add(8*24*time.Hour))),
		// Past due but completed: neither.
		task("done", models.TaskStatusCompleted, withDue(testNow.Add(-time.Hour))),
		// No due date: neither.
		task("nodate", models.TaskStatusPending),
	}}
	engine := NewEngine(src)

	stats, err := engine.Stats(context.Background(), "p1", testNow, Window30Days)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.Summary.Overdue.Count != 1 {
		t.Errorf("Expected 1 overdue task, got %d", stats.Summary.Overdue.Count)
	}
	if stats.Summary.Overdue.Tasks[0].ID != "late" {
		t.Errorf("Expected overdue task 'late', got %s", stats.Summary.Overdue.Tasks[0].ID)
	}

	if stats.Summary.DueSoon.Count != 2 {
		t.Fatalf("Expected 2 due-soon tasks, got %d", stats.Summary.DueSoon.Count)
	}
	for _, dt := range stats.Summary.DueSoon.Tasks {
		if dt.ID == "late" {
			t.Error("Overdue task leaked into due-soon: the sets must be disjoint")
		}
	}
}

func TestStats_AssigneeBreakdownSortedByCount(t *testing.T) {
	src := &fakeSource{exists: true, tasks: []models.Task{
		task("t1", models.TaskStatusPending, withAssignee("alice")),
		task("t2", models.TaskStatusPending, withAssignee("bob")),
		task("t3", models.TaskStatusPending, withAssignee("bob")),
		task("t4", models.TaskStatusPending),
		task("t5", models.TaskStatusPending, withAssignee("carol")),
	}}
	engine := NewEngine(src)

	stats, err := engine.Stats(context.Background(), "p1", testNow, Window30Days)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	b := stats.ByAssignee
	if b.Unassigned != 1 {
		t.Errorf("Expected 1 unassigned task, got %d", b.Unassigned)
	}
	if len(b.Assigned) != 3 {
		t.Fatalf("Expected 3 assignee groups, got %d", len(b.Assigned))
	}
	if b.Assigned[0].AssigneeID != "bob" || b.Assigned[0].Count != 2 {
		t.Errorf("Expected bob first with 2 tasks, got %s with %d", b.Assigned[0].AssigneeID, b.Assigned[0].Count)
	}
	// Ties keep first-seen order: alice appeared before carol.
	if b.Assigned[1].AssigneeID != "alice" || b.Assigned[2].AssigneeID != "carol" {
		t.Errorf("Expected tie order alice, carol; got %s, %s", b.Assigned[1].AssigneeID, b.Assigned[2].AssigneeID)
	}
}

func TestStats_CreatedOverTimeBuckets(t *testing.T) {
	day := func(offset int) time.Time {
		return time.Date(2026, 3, 15-offset, 9, 0, 0, 0, time.UTC)
	}
	src := &fakeSource{exists: true, tasks: []models.Task{
		task("t1", models.TaskStatusPending, withCreated(day(0))),
		task("t2", models.TaskStatusPending, withCreated(day(0))),
		task("t3", models.TaskStatusPending, withCreated(day(2))),
		// Outside the 7-day window, excluded.
		task("t4", models.TaskStatusPending, withCreated(day(10))),
	}}
	engine := NewEngine(src)

	stats, err := engine.Stats(context.Background(), "p1", testNow, Window7Days)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	want := []TimeBucket{
		{Date: "2026-03-13", Count: 1},
		{Date: "2026-03-15", Count: 2},
	}
	if !reflect.DeepEqual(stats.CreatedOverTime, want) {
		t.Errorf("Expected buckets %v, got %v", want, stats.CreatedOverTime)
	}
}

func TestStats_MonthlyBuckets(t *testing.T) {
	src := &fakeSource{exists: true, tasks: []models.Task{
		task("t1", models.TaskStatusPending, withCreated(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))),
		task("t2", models.TaskStatusPending, withCreated(time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC))),
		task("t3", models.TaskStatusPending, withCreated(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))),
	}}
	engine := NewEngine(src)

	stats, err := engine.Stats(context.Background(), "p1", testNow, Window12Months)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	want := []TimeBucket{
		{Date: "2026-01", Count: 2},
		{Date: "2026-03", Count: 1},
	}
	if !reflect.DeepEqual(stats.CreatedOverTime, want) {
		t.Errorf("Expected monthly buckets %v, got %v", want, stats.CreatedOverTime)
	}
}

func TestStats_RecentTasksCappedAtTen(t *testing.T) {
	var tasks []models.Task
	for i := 0; i < 15; i++ {
		tasks = append(tasks, task(
			fmt.Sprintf("t%02d", i),
			models.TaskStatusPending,
			withCreated(testNow.Add(-time.Duration(i)*time.Hour)),
		))
	}
	engine := NewEngine(&fakeSource{exists: true, tasks: tasks})

	stats, err := engine.Stats(context.Background(), "p1", testNow, Window30Days)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if len(stats.RecentTasks) != 10 {
		t.Fatalf("Expected 10 recent tasks, got %d", len(stats.RecentTasks))
	}
	// Newest first.
	if stats.RecentTasks[0].ID != "t00" || stats.RecentTasks[9].ID != "t09" {
		t.Errorf("Expected t00..t09 newest-first, got %s..%s", stats.RecentTasks[0].ID, stats.RecentTasks[9].ID)
	}
}

func TestStats_Idempotent(t *testing.T) {
	src := &fakeSource{exists: true, tasks: []models.Task{
		task("t1", models.TaskStatusCompleted, withCompletedAfter(48*time.Hour)),
		task("t2", models.TaskStatusPending, withDue(testNow.Add(time.Hour))),
		task("t3", models.TaskStatusInProgress, withAssignee("alice")),
	}}
	engine := NewEngine(src)

	first, err := engine.Stats(context.Background(), "p1", testNow, Window30Days)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	second, err := engine.Stats(context.Background(), "p1", testNow, Window30Days)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical results for identical snapshot and instant")
	}
}

func TestStatusOverTime(t *testing.T) {
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{exists: true, tasks: []models.Task{
		task("t1", models.TaskStatusPending, withCreated(day)),
		task("t2", models.TaskStatusCompleted, withCreated(day)),
		task("t3", models.TaskStatusCompleted, withCreated(day)),
		task("t4", models.TaskStatusPending, withCreated(day.Add(24*time.Hour))),
	}}
	engine := NewEngine(src)

	buckets, err := engine.StatusOverTime(context.Background(), "p1", testNow, Window7Days)
	if err != nil {
		t.Fatalf("StatusOverTime failed: %v", err)
	}

	if len(buckets) != 2 {
		t.Fatalf("Expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Date != "2026-03-14" || buckets[1].Date != "2026-03-15" {
		t.Errorf("Expected chronological dates, got %s, %s", buckets[0].Date, buckets[1].Date)
	}

	counts := make(map[models.TaskStatus]int)
	for _, sc := range buckets[0].Statuses {
		counts[sc.Status] = sc.Count
	}
	if counts[models.TaskStatusCompleted] != 2 || counts[models.TaskStatusPending] != 1 {
		t.Errorf("Expected 2 completed and 1 pending on 2026-03-14, got %v", counts)
	}
}

func TestParseWindow(t *testing.T) {
	cases := map[string]Window{
		"7days":    Window7Days,
		"30days":   Window30Days,
		"12months": Window12Months,
		"":         Window30Days,
		"bogus":    Window30Days,
	}
	for in, want := range cases {
		if got := ParseWindow(in); got != want {
			t.Errorf("ParseWindow(%q) = %q, want %q", in, got, want)
		}
	}
}
