// Package models defines the core domain types for Taskboard.
package models

import (
	"strings"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Statuses lists every canonical task status. Aggregations enumerate this
// set explicitly so empty buckets still appear with a zero count.
var Statuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

// ValidStatus reports whether s is a canonical task status.
func ValidStatus(s TaskStatus) bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// TaskPriority represents the urgency of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Priorities lists every canonical task priority, zero-filled in aggregates
// the same way Statuses is.
var Priorities = []TaskPriority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityUrgent,
}

// ValidPriority reports whether p is a canonical task priority.
func ValidPriority(p TaskPriority) bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// Role is a user's role within the system.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

const (
	// MaxTitleLen is the maximum task title length.
	MaxTitleLen = 200
	// MaxDescriptionLen is the maximum task description length.
	MaxDescriptionLen = 5000
)

// Task is a unit of work inside a project. A non-nil DeletedAt marks the
// task as soft-deleted; every read path filters those out.
type Task struct {
	ID          string       `json:"id"`
	ProjectID   string       `json:"project_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	AssignedTo  string       `json:"assigned_to,omitempty"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	DeletedAt   *time.Time   `json:"-"`
}

// Live reports whether the task is visible, i.e. not soft-deleted.
func (t *Task) Live() bool {
	return t.DeletedAt == nil
}

// User is an account that can authenticate and act on tasks.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	Role         Role       `json:"role"`
	Active       bool       `json:"active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Requester is the identity an authorization decision is made for.
type Requester struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the requester holds the Admin role.
func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}

// Project is the tenancy boundary for tasks. Membership gates task creation
// and assignment.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityEntry records a task mutation for the project audit trail.
type ActivityEntry struct {
	ID        string            `json:"id"`
	Action    string            `json:"action"`
	UserID    string            `json:"user_id"`
	ProjectID string            `json:"project_id"`
	TaskID    string            `json:"task_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
