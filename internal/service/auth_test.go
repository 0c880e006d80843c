package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/models"
	"github.com/taskboard/taskboard/internal/store"
	"github.com/taskboard/taskboard/internal/token"
)

func newAuthService(t *testing.T) (*Auth, *store.Store) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	tokens, err := token.NewManager("test-secret", "", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return NewAuth(s, tokens), s
}

func TestSignupAndLogin(t *testing.T) {
	a, _ := newAuthService(t)

	res, err := a.Signup(SignupInput{
		Email:     "Alice@Example.com",
		Password:  "correct horse",
		FirstName: "Alice",
		LastName:  "Ng",
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if res.User.Email != "alice@example.com" {
		t.Errorf("Expected normalized email, got %s", res.User.Email)
	}
	if res.User.Role != models.RoleMember {
		t.Errorf("Expected default role Member, got %s", res.User.Role)
	}
	if res.Token == "" || res.RefreshToken == "" {
		t.Error("Expected a token pair")
	}

	login, err := a.Login("alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.User.ID != res.User.ID {
		t.Errorf("Expected same user, got %s and %s", login.User.ID, res.User.ID)
	}
}

func TestSignup_Validation(t *testing.T) {
	a, _ := newAuthService(t)

	cases := []struct {
		name string
		in   SignupInput
	}{
		{"missing email", SignupInput{Password: "long enough"}},
		{"short password", SignupInput{Email: "a@b.com", Password: "short"}},
		{"bad role", SignupInput{Email: "a@b.com", Password: "long enough", Role: "Owner"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := a.Signup(tc.in); !apperr.IsKind(err, apperr.KindValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	a, _ := newAuthService(t)

	in := SignupInput{Email: "dup@example.com", Password: "long enough"}
	if _, err := a.Signup(in); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if _, err := a.Signup(in); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("Expected conflict error, got %v", err)
	}
}

func TestLogin_WrongCredentials(t *testing.T) {
	a, _ := newAuthService(t)
	if _, err := a.Signup(SignupInput{Email: "bob@example.com", Password: "long enough"}); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	if _, err := a.Login("bob@example.com", "wrong password"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("Expected unauthorized for wrong password, got %v", err)
	}
	if _, err := a.Login("nobody@example.com", "long enough"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("Expected unauthorized for unknown email, got %v", err)
	}
}

func TestRefresh(t *testing.T) {
	a, _ := newAuthService(t)

	res, err := a.Signup(SignupInput{Email: "carol@example.com", Password: "long enough"})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	access, err := a.Refresh(res.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if access == "" {
		t.Fatal("Expected a new access token")
	}

	// An access token cannot be used to refresh.
	if _, err := a.Refresh(res.Token); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("Expected unauthorized when refreshing with access token, got %v", err)
	}
}

func TestCurrentUser(t *testing.T) {
	a, _ := newAuthService(t)

	res, err := a.Signup(SignupInput{Email: "dave@example.com", Password: "long enough"})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	user, err := a.CurrentUser(res.User.ID)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.Email != "dave@example.com" {
		t.Errorf("Expected dave@example.com, got %s", user.Email)
	}

	if _, err := a.CurrentUser("missing"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("Expected unauthorized for unknown user, got %v", err)
	}
}
