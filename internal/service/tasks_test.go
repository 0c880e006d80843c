package service

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/taskboard/taskboard/internal/activity"
	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/models"
	"github.com/taskboard/taskboard/internal/store"
)

type taskFixture struct {
	store     *store.Store
	tasks     *Tasks
	projectID string
	admin     models.Requester
	member    models.Requester
	outsider  models.Requester
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	project, err := s.CreateProject("Test Project")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	for _, id := range []string{"u-admin", "u-member"} {
		if err := s.AddMember(project.ID, id); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
	}

	return &taskFixture{
		store:     s,
		tasks:     NewTasks(s, activity.NewLogger(s)),
		projectID: project.ID,
		admin:     models.Requester{ID: "u-admin", Role: models.RoleAdmin},
		member:    models.Requester{ID: "u-member", Role: models.RoleMember},
		outsider:  models.Requester{ID: "u-outsider", Role: models.RoleMember},
	}
}

func (f *taskFixture) create(t *testing.T, in CreateTaskInput) *models.Task {
	t.Helper()
	task, err := f.tasks.Create(f.projectID, "u-admin", in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return task
}

func TestCreate_Defaults(t *testing.T) {
	f := newTaskFixture(t)

	task := f.create(t, CreateTaskInput{Title: "  Ship it  "})

	if task.Title != "Ship it" {
		t.Errorf("Expected trimmed title, got %q", task.Title)
	}
	if task.Status != models.TaskStatusPending {
		t.Errorf("Expected default status pending, got %s", task.Status)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("Expected default priority medium, got %s", task.Priority)
	}
	if task.CreatedBy != "u-admin" {
		t.Errorf("Expected created_by u-admin, got %s", task.CreatedBy)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newTaskFixture(t)

	cases := []struct {
		name string
		in   CreateTaskInput
	}{
		{"empty title", CreateTaskInput{Title: "   "}},
		{"title too long", CreateTaskInput{Title: strings.Repeat("x", models.MaxTitleLen+1)}},
		{"description too long", CreateTaskInput{Title: "ok", Description: strings.Repeat("x", models.MaxDescriptionLen+1)}},
		{"bad status", CreateTaskInput{Title: "ok", Status: "done"}},
		{"bad priority", CreateTaskInput{Title: "ok", Priority: "critical"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tasks.Create(f.projectID, "u-admin", tc.in)
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestCreate_MissingProject(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.tasks.Create("nope", "u-admin", CreateTaskInput{Title: "x"})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

func TestCreate_RequiresMembership(t *testing.T) {
	f := newTaskFixture(t)

	// Creator must be a member
	_, err := f.tasks.Create(f.projectID, "u-outsider", CreateTaskInput{Title: "x"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("Expected validation error for non-member creator, got %v", err)
	}

	// So must the assignee
	_, err = f.tasks.Create(f.projectID, "u-admin", CreateTaskInput{Title: "x", AssignedTo: "u-outsider"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("Expected validation error for non-member assignee, got %v", err)
	}
}

func TestUpdate_AdminAnyField(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, CreateTaskInput{Title: "Original"})

	title := "Renamed"
	priority := models.PriorityUrgent
	due := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	assignee := "u-member"
	updated, err := f.tasks.Update(task.ID, f.projectID, f.admin, TaskUpdate{
		Title:      &title,
		Priority:   &priority,
		DueDate:    &due,
		AssignedTo: &assignee,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "Renamed" || updated.Priority != models.PriorityUrgent {
		t.Errorf("Expected fields applied, got title %q priority %s", updated.Title, updated.Priority)
	}
	if updated.AssignedTo != "u-member" {
		t.Errorf("Expected assignee u-member, got %q", updated.AssignedTo)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) {
		t.Errorf("Expected due date %v, got %v", due, updated.DueDate)
	}
}

func TestUpdate_AssigneeStatusOnly(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, CreateTaskInput{Title: "Assigned work", AssignedTo: "u-member"})

	status := models.TaskStatusCompleted
	updated, err := f.tasks.Update(task.ID, f.projectID, f.member, TaskUpdate{Status: &status})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Status != models.TaskStatusCompleted {
		t.Errorf("Expected status completed, got %s", updated.Status)
	}
}

func TestUpdate_AssigneeMixedFieldsRejected(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, CreateTaskInput{Title: "Assigned work", AssignedTo: "u-member"})

	status := models.TaskStatusCompleted
	title := "sneaky rename"
	_, err := f.tasks.Update(task.ID, f.projectID, f.member, TaskUpdate{Status: &status, Title: &title})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("Expected forbidden error, got %v", err)
	}

	// Nothing was applied: the rejection is all-or-nothing.
	got, err := f.tasks.Get(task.ID, f.projectID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != models.TaskStatusPending || got.Title != "Assigned work" {
		t.Errorf("Expected task unchanged, got status %s title %q", got.Status, got.Title)
	}
}

func TestUpdate_NonAssigneeForbidden(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, CreateTaskInput{Title: "Someone else's", AssignedTo: "u-admin"})

	status := models.TaskStatusCompleted
	_, err := f.tasks.Update(task.ID, f.projectID, f.member, TaskUpdate{Status: &status})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("Expected forbidden error, got %v", err)
	}
}

func TestUpdate_MissingTask(t *testing.T) {
	f := newTaskFixture(t)

	status := models.TaskStatusCompleted
	_, err := f.tasks.Update("nope", f.projectID, f.admin, TaskUpdate{Status: &status})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, CreateTaskInput{Title: "Doomed"})

	// Members cannot delete, even the assignee
	if err := f.tasks.Delete(task.ID, f.projectID, f.member); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("Expected forbidden error for member delete, got %v", err)
	}

	if err := f.tasks.Delete(task.ID, f.projectID, f.admin); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// The task is gone from reads
	if _, err := f.tasks.Get(task.ID, f.projectID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Expected not-found after delete, got %v", err)
	}

	// Deleting again is not-found
	if err := f.tasks.Delete(task.ID, f.projectID, f.admin); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Expected not-found for repeated delete, got %v", err)
	}
}

func TestList_ValidatesFilters(t *testing.T) {
	f := newTaskFixture(t)

	_, _, err := f.tasks.List(f.projectID, ListOptions{Status: "done"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("Expected validation error for bad status filter, got %v", err)
	}

	_, _, err = f.tasks.List("nope", ListOptions{})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Expected not-found for unknown project, got %v", err)
	}
}

func TestList_Pagination(t *testing.T) {
	f := newTaskFixture(t)
	for i := 0; i < 5; i++ {
		f.create(t, CreateTaskInput{Title: "Task"})
	}

	tasks, page, err := f.tasks.List(f.projectID, ListOptions{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("Expected 2 tasks, got %d", len(tasks))
	}
	if page.Total != 5 || page.Pages != 3 {
		t.Errorf("Expected total 5 across 3 pages, got %d across %d", page.Total, page.Pages)
	}
}

func TestUpdate_RecordsActivity(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, CreateTaskInput{Title: "Audited"})

	status := models.TaskStatusInProgress
	if _, err := f.tasks.Update(task.ID, f.projectID, f.admin, TaskUpdate{Status: &status}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	entries, err := f.store.ListActivity(f.projectID, 10)
	if err != nil {
		t.Fatalf("ListActivity failed: %v", err)
	}
	// create + update
	if len(entries) != 2 {
		t.Fatalf("Expected 2 activity entries, got %d", len(entries))
	}
	var update *models.ActivityEntry
	for i := range entries {
		if entries[i].Action == activity.ActionTaskUpdated {
			update = &entries[i]
		}
	}
	if update == nil {
		t.Fatal("Expected a task.updated entry")
	}
	if update.Metadata["new_status"] != "in-progress" {
		t.Errorf("Expected new_status in-progress, got %v", update.Metadata)
	}
}
