// Package policy implements the task mutation authorization rules. Every
// function here is a pure decision over its inputs: no I/O, no clock, no
// store access. Callers fetch the task and membership facts first and hand
// them in.
package policy

import (
	"github.com/taskboard/taskboard/internal/models"
)

// FieldStatus is the one task field an assigned non-admin may change.
const FieldStatus = "status"

// Decision is the outcome of an authorization check. On success Fields
// holds the field set actually allowed through; on rejection Reason carries
// a human-readable explanation.
type Decision struct {
	Allowed bool
	Fields  []string
	Reason  string
}

// Allow returns a permitting decision for the given effective fields.
func Allow(fields []string) Decision {
	return Decision{Allowed: true, Fields: fields}
}

// Deny returns a rejecting decision with a reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// AuthorizeUpdate decides whether the requester may apply the requested
// field changes to the task.
//
// Admins may change any field. The assigned user may change status and
// nothing else: a request touching any other field is rejected in full
// rather than partially applied. Everyone else is rejected. Disallowed
// fields are never silently stripped.
func AuthorizeUpdate(requester models.Requester, task *models.Task, requestedFields []string) Decision {
	if requester.IsAdmin() {
		return Allow(requestedFields)
	}

	if task.AssignedTo == "" || task.AssignedTo != requester.ID {
		return Deny("you do not have permission to update this task")
	}

	for _, f := range requestedFields {
		if f != FieldStatus {
			return Deny("you can only update the status of tasks assigned to you")
		}
	}
	return Allow(requestedFields)
}

// AuthorizeDelete decides whether the requester may delete a task. Only
// admins may, regardless of assignment.
func AuthorizeDelete(requester models.Requester) Decision {
	if requester.IsAdmin() {
		return Allow(nil)
	}
	return Deny("only project administrators can delete tasks")
}

// CanAssign decides whether a task may be assigned to assigneeID given the
// membership answer for that user. An empty assignee is always valid and
// produces an unassigned task.
func CanAssign(assigneeID string, isMember bool) bool {
	if assigneeID == "" {
		return true
	}
	return isMember
}
