package token

import (
	"testing"
	"time"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("test-secret", "", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

var testUser = &models.User{
	ID:    "u1",
	Email: "alice@example.com",
	Role:  models.RoleAdmin,
}

func TestNewManager_RequiresSecret(t *testing.T) {
	if _, err := NewManager("", "", time.Hour, time.Hour); err == nil {
		t.Error("Expected error for empty secret")
	}
}

func TestIssueAndVerify(t *testing.T) {
	m := newTestManager(t)

	raw, err := m.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := m.Verify(raw)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "u1" {
		t.Errorf("Expected subject u1, got %s", claims.Subject)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Expected email alice@example.com, got %s", claims.Email)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("Expected role Admin, got %s", claims.Role)
	}
}

func TestVerify_RejectsGarbage(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Verify("not-a-token")
	if !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("Expected unauthorized error, got %v", err)
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	m := newTestManager(t)
	other, _ := NewManager("different-secret", "", time.Hour, time.Hour)

	raw, _ := other.Issue(testUser)
	if _, err := m.Verify(raw); err == nil {
		t.Error("Expected token signed with a different secret to be rejected")
	}
}

func TestVerify_RejectsExpired(t *testing.T) {
	m := newTestManager(t)

	raw, err := m.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Jump the clock past the access TTL.
	m.SetNow(func() time.Time { return time.Now().Add(2 * time.Hour) })

	_, err = m.Verify(raw)
	if !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("Expected unauthorized error, got %v", err)
	}
}

func TestVerify_RejectsRefreshToken(t *testing.T) {
	// Same secret for both so only the type claim distinguishes them.
	m, err := NewManager("test-secret", "test-secret", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	refresh, err := m.IssueRefresh(testUser)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	if _, err := m.Verify(refresh); err == nil {
		t.Error("Expected refresh token to be rejected for access")
	}
}

func TestVerifyRefresh(t *testing.T) {
	m := newTestManager(t)

	refresh, err := m.IssueRefresh(testUser)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	claims, err := m.VerifyRefresh(refresh)
	if err != nil {
		t.Fatalf("VerifyRefresh failed: %v", err)
	}
	if claims.Subject != "u1" {
		t.Errorf("Expected subject u1, got %s", claims.Subject)
	}

	// An access token is not a refresh token.
	access, _ := m.Issue(testUser)
	if _, err := m.VerifyRefresh(access); err == nil {
		t.Error("Expected access token to be rejected for refresh")
	}
}
