// Package activity records task mutations for the project audit trail.
package activity

import (
	"log"

	"github.com/taskboard/taskboard/internal/models"
	"github.com/taskboard/taskboard/internal/store"
)

// Canonical activity actions.
const (
	ActionTaskCreated = "task.created"
	ActionTaskUpdated = "task.updated"
	ActionTaskDeleted = "task.deleted"
)

// Logger writes activity entries for state-mutating actions.
type Logger struct {
	store *store.Store
}

// NewLogger creates a new activity logger.
func NewLogger(s *store.Store) *Logger {
	return &Logger{store: s}
}

// Record writes an activity entry. A failed write is logged and swallowed:
// the audit trail is best-effort and must never fail the request it
// describes.
func (l *Logger) Record(action, userID, projectID, taskID string, metadata map[string]string) *models.ActivityEntry {
	entry, err := l.store.WriteActivity(action, userID, projectID, taskID, metadata)
	if err != nil {
		log.Printf("activity log error: %v", err)
		return nil
	}
	return entry
}

// Recent returns the newest entries for a project.
func (l *Logger) Recent(projectID string, limit int) ([]models.ActivityEntry, error) {
	return l.store.ListActivity(projectID, limit)
}
