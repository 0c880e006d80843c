// Package service provides the business logic between the HTTP layer and
// the store: validation, authorization, and activity recording.
package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/taskboard/taskboard/internal/activity"
	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/models"
	"github.com/taskboard/taskboard/internal/policy"
	"github.com/taskboard/taskboard/internal/store"
)

// Tasks implements task CRUD over the store with the mutation policy
// applied.
type Tasks struct {
	store    *store.Store
	activity *activity.Logger
}

// NewTasks creates the task service.
func NewTasks(s *store.Store, log *activity.Logger) *Tasks {
	return &Tasks{store: s, activity: log}
}

// CreateTaskInput holds the fields of a task creation request.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	AssignedTo  string
}

// Create validates and creates a task. The creator must be a member of the
// project; so must the assignee when one is given.
func (t *Tasks) Create(projectID, creatorID string, in CreateTaskInput) (*models.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = models.TaskStatusPending
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if err := validateTaskFields(in.Title, true, in.Description, in.Status, in.Priority); err != nil {
		return nil, err
	}

	exists, err := t.store.ProjectExists(projectID)
	if err != nil {
		return nil, apperr.Infrastructure("check project", err)
	}
	if !exists {
		return nil, apperr.NotFound("Project")
	}

	creatorIsMember, err := t.store.IsProjectMember(projectID, creatorID)
	if err != nil {
		return nil, apperr.Infrastructure("check membership", err)
	}
	if !creatorIsMember {
		return nil, apperr.Validation("You must be a member of the project to create tasks", map[string]string{
			"created_by": "User is not a member of this project",
		})
	}

	if err := t.checkAssignable(projectID, in.AssignedTo); err != nil {
		return nil, err
	}

	task, err := t.store.CreateTask(store.NewTask{
		ProjectID:   projectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   creatorID,
	})
	if err != nil {
		return nil, apperr.Infrastructure("create task", err)
	}

	t.activity.Record(activity.ActionTaskCreated, creatorID, projectID, task.ID, map[string]string{
		"title":       task.Title,
		"status":      string(task.Status),
		"assigned_to": task.AssignedTo,
	})
	return task, nil
}

// Get returns a live task scoped to a project.
func (t *Tasks) Get(taskID, projectID string) (*models.Task, error) {
	task, err := t.store.GetTask(taskID, projectID)
	if err != nil {
		return nil, apperr.Infrastructure("get task", err)
	}
	if task == nil {
		return nil, apperr.NotFound("Task")
	}
	return task, nil
}

// ListOptions narrows and paginates a task listing.
type ListOptions struct {
	Status     string
	Priority   string
	AssignedTo string
	Overdue    bool
	Now        time.Time
	Page       int
	Limit      int
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// List returns live tasks for a project with filters and pagination.
func (t *Tasks) List(projectID string, opts ListOptions) ([]models.Task, Pagination, error) {
	if opts.Status != "" && !models.ValidStatus(models.TaskStatus(opts.Status)) {
		return nil, Pagination{}, apperr.Validation("Invalid status filter", map[string]string{
			"status": "Status must be one of: pending, in-progress, completed, cancelled",
		})
	}
	if opts.Priority != "" && !models.ValidPriority(models.TaskPriority(opts.Priority)) {
		return nil, Pagination{}, apperr.Validation("Invalid priority filter", map[string]string{
			"priority": "Priority must be one of: low, medium, high, urgent",
		})
	}

	exists, err := t.store.ProjectExists(projectID)
	if err != nil {
		return nil, Pagination{}, apperr.Infrastructure("check project", err)
	}
	if !exists {
		return nil, Pagination{}, apperr.NotFound("Project")
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	tasks, total, err := t.store.ListTasks(projectID, store.TaskFilter{
		Status:     models.TaskStatus(opts.Status),
		Priority:   models.TaskPriority(opts.Priority),
		AssignedTo: opts.AssignedTo,
		Overdue:    opts.Overdue,
		Now:        opts.Now,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return nil, Pagination{}, apperr.Infrastructure("list tasks", err)
	}

	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	return tasks, Pagination{Page: page, Limit: limit, Total: total, Pages: pages}, nil
}

// TaskUpdate holds the fields present in an update request. Nil pointers
// were absent from the request; ClearDueDate marks an explicit null due
// date.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	AssignedTo   *string
}

// Fields lists the names of the fields the update touches, in a fixed
// order. The policy decides on these names.
func (u TaskUpdate) Fields() []string {
	var fields []string
	if u.Title != nil {
		fields = append(fields, "title")
	}
	if u.Description != nil {
		fields = append(fields, "description")
	}
	if u.Status != nil {
		fields = append(fields, "status")
	}
	if u.Priority != nil {
		fields = append(fields, "priority")
	}
	if u.DueDate != nil || u.ClearDueDate {
		fields = append(fields, "due_date")
	}
	if u.AssignedTo != nil {
		fields = append(fields, "assigned_to")
	}
	return fields
}

// Update applies a policy-gated update to a task. Rejections are
// all-or-nothing: a request the requester may not make in full is not
// partially applied.
func (t *Tasks) Update(taskID, projectID string, requester models.Requester, u TaskUpdate) (*models.Task, error) {
	existing, err := t.Get(taskID, projectID)
	if err != nil {
		return nil, err
	}

	decision := policy.AuthorizeUpdate(requester, existing, u.Fields())
	if !decision.Allowed {
		return nil, apperr.Forbidden(decision.Reason)
	}

	if err := validateUpdate(u); err != nil {
		return nil, err
	}

	if u.AssignedTo != nil && *u.AssignedTo != "" {
		if err := t.checkAssignable(projectID, *u.AssignedTo); err != nil {
			return nil, err
		}
	}

	ok, err := t.store.UpdateTask(taskID, projectID, store.TaskPatch{
		Title:        u.Title,
		Description:  u.Description,
		Status:       u.Status,
		Priority:     u.Priority,
		DueDate:      u.DueDate,
		ClearDueDate: u.ClearDueDate,
		AssignedTo:   u.AssignedTo,
	})
	if err != nil {
		return nil, apperr.Infrastructure("update task", err)
	}
	if !ok {
		return nil, apperr.NotFound("Task")
	}

	updated, err := t.Get(taskID, projectID)
	if err != nil {
		return nil, err
	}

	t.activity.Record(activity.ActionTaskUpdated, requester.ID, projectID, taskID, map[string]string{
		"updated_fields":  strings.Join(u.Fields(), ","),
		"previous_status": string(existing.Status),
		"new_status":      string(updated.Status),
	})
	return updated, nil
}

// Delete soft-deletes a task. Admin only; a delete against an
// already-deleted task is not-found.
func (t *Tasks) Delete(taskID, projectID string, requester models.Requester) error {
	decision := policy.AuthorizeDelete(requester)
	if !decision.Allowed {
		return apperr.Forbidden(decision.Reason)
	}

	existing, err := t.Get(taskID, projectID)
	if err != nil {
		return err
	}

	ok, err := t.store.SoftDeleteTask(taskID, projectID)
	if err != nil {
		return apperr.Infrastructure("delete task", err)
	}
	if !ok {
		return apperr.NotFound("Task")
	}

	t.activity.Record(activity.ActionTaskDeleted, requester.ID, projectID, taskID, map[string]string{
		"title": existing.Title,
	})
	return nil
}

// checkAssignable rejects assignment to a non-member. An empty assignee is
// always valid.
func (t *Tasks) checkAssignable(projectID, assigneeID string) error {
	if assigneeID == "" {
		return nil
	}
	isMember, err := t.store.IsProjectMember(projectID, assigneeID)
	if err != nil {
		return apperr.Infrastructure("check membership", err)
	}
	if !policy.CanAssign(assigneeID, isMember) {
		return apperr.Validation("User is not a member of this project", map[string]string{
			"assigned_to": "User must be a member of the project",
		})
	}
	return nil
}

func validateTaskFields(title string, titleRequired bool, description string, status models.TaskStatus, priority models.TaskPriority) error {
	details := make(map[string]string)
	if titleRequired && title == "" {
		details["title"] = "Title is required"
	}
	if len(title) > models.MaxTitleLen {
		details["title"] = "Title cannot exceed " + strconv.Itoa(models.MaxTitleLen) + " characters"
	}
	if len(description) > models.MaxDescriptionLen {
		details["description"] = "Description cannot exceed " + strconv.Itoa(models.MaxDescriptionLen) + " characters"
	}
	if status != "" && !models.ValidStatus(status) {
		details["status"] = "Status must be one of: pending, in-progress, completed, cancelled"
	}
	if priority != "" && !models.ValidPriority(priority) {
		details["priority"] = "Priority must be one of: low, medium, high, urgent"
	}
	if len(details) > 0 {
		return apperr.Validation("Invalid task fields", details)
	}
	return nil
}

func validateUpdate(u TaskUpdate) error {
	title := ""
	titleRequired := false
	if u.Title != nil {
		title = strings.TrimSpace(*u.Title)
		titleRequired = true
		*u.Title = title
	}
	description := ""
	if u.Description != nil {
		description = strings.TrimSpace(*u.Description)
		*u.Description = description
	}
	status := models.TaskStatus("")
	if u.Status != nil {
		status = *u.Status
	}
	priority := models.TaskPriority("")
	if u.Priority != nil {
		priority = *u.Priority
	}
	return validateTaskFields(title, titleRequired, description, status, priority)
}
