package policy

import (
	"testing"

	"github.com/taskboard/taskboard/internal/models"
)

func TestAuthorizeUpdate_AdminAllowsAllFields(t *testing.T) {
	admin := models.Requester{ID: "u-admin", Role: models.RoleAdmin}
	task := &models.Task{ID: "t1", AssignedTo: "someone-else"}

	fields := []string{"title", "description", "status", "priority", "due_date", "assigned_to"}
	decision := AuthorizeUpdate(admin, task, fields)

	if !decision.Allowed {
		t.Fatalf("Expected admin update to be allowed, got denied: %s", decision.Reason)
	}
	if len(decision.Fields) != len(fields) {
		t.Errorf("Expected %d fields, got %d", len(fields), len(decision.Fields))
	}
}

func TestAuthorizeUpdate_AssigneeStatusOnly(t *testing.T) {
	member := models.Requester{ID: "u-member", Role: models.RoleMember}
	task := &models.Task{ID: "t1", AssignedTo: "u-member"}

	decision := AuthorizeUpdate(member, task, []string{"status"})
	if !decision.Allowed {
		t.Fatalf("Expected status-only update by assignee to be allowed, got: %s", decision.Reason)
	}
}

func TestAuthorizeUpdate_AssigneeOtherFieldRejectedInFull(t *testing.T) {
	member := models.Requester{ID: "u-member", Role: models.RoleMember}
	task := &models.Task{ID: "t1", AssignedTo: "u-member"}

	// status plus title must reject the whole request, not strip title
	decision := AuthorizeUpdate(member, task, []string{"status", "title"})
	if decision.Allowed {
		t.Fatal("Expected mixed-field update by assignee to be denied")
	}
	if decision.Reason == "" {
		t.Error("Expected a denial reason")
	}
}

func TestAuthorizeUpdate_NonAssigneeDenied(t *testing.T) {
	member := models.Requester{ID: "u-other", Role: models.RoleMember}
	task := &models.Task{ID: "t1", AssignedTo: "u-member"}

	decision := AuthorizeUpdate(member, task, []string{"status"})
	if decision.Allowed {
		t.Fatal("Expected non-assignee update to be denied")
	}
}

func TestAuthorizeUpdate_UnassignedTaskDeniesMember(t *testing.T) {
	member := models.Requester{ID: "u-member", Role: models.RoleMember}
	task := &models.Task{ID: "t1"}

	decision := AuthorizeUpdate(member, task, []string{"status"})
	if decision.Allowed {
		t.Fatal("Expected update on unassigned task by member to be denied")
	}
}

func TestAuthorizeDelete(t *testing.T) {
	admin := models.Requester{ID: "u-admin", Role: models.RoleAdmin}
	member := models.Requester{ID: "u-member", Role: models.RoleMember}

	if d := AuthorizeDelete(admin); !d.Allowed {
		t.Errorf("Expected admin delete to be allowed, got: %s", d.Reason)
	}
	if d := AuthorizeDelete(member); d.Allowed {
		t.Error("Expected member delete to be denied")
	}
}

func TestCanAssign(t *testing.T) {
	if !CanAssign("", false) {
		t.Error("Expected empty assignee to always be valid")
	}
	if !CanAssign("u1", true) {
		t.Error("Expected member assignee to be valid")
	}
	if CanAssign("u1", false) {
		t.Error("Expected non-member assignee to be invalid")
	}
}
