package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/models"
	"github.com/taskboard/taskboard/internal/store"
	"github.com/taskboard/taskboard/internal/token"
)

// Auth implements signup, login, and token refresh.
type Auth struct {
	store  *store.Store
	tokens *token.Manager
}

// NewAuth creates the auth service.
func NewAuth(s *store.Store, tokens *token.Manager) *Auth {
	return &Auth{store: s, tokens: tokens}
}

// SignupInput holds the fields of a signup request.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
}

// AuthResult is returned from signup and login: the user plus a token pair.
type AuthResult struct {
	User         *models.User `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
}

// Signup registers a new user and returns a token pair.
func (a *Auth) Signup(in SignupInput) (*AuthResult, error) {
	email := models.NormalizeEmail(in.Email)
	if email == "" {
		return nil, apperr.Validation("Email is required", map[string]string{"email": "Email is required"})
	}
	if len(in.Password) < 8 {
		return nil, apperr.Validation("Password too short", map[string]string{"password": "Password must be at least 8 characters"})
	}
	role := in.Role
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, apperr.Validation("Invalid role", map[string]string{"role": "Role must be Admin or Member"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Infrastructure("hash password", err)
	}

	user, err := a.store.CreateUser(email, string(hash), in.FirstName, in.LastName, role)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, apperr.Conflict("User with this email already exists", map[string]string{
				"email": "Email is already registered",
			})
		}
		return nil, apperr.Infrastructure("create user", err)
	}

	return a.tokenPair(user)
}

// Login authenticates a user by email and password.
func (a *Auth) Login(email, password string) (*AuthResult, error) {
	user, err := a.store.GetUserByEmail(models.NormalizeEmail(email))
	if err != nil {
		return nil, apperr.Infrastructure("get user", err)
	}
	if user == nil {
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	if !user.Active {
		return nil, apperr.Unauthorized("Account is deactivated")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	if err := a.store.TouchLastLogin(user.ID); err != nil {
		return nil, apperr.Infrastructure("update last login", err)
	}
	return a.tokenPair(user)
}

// Refresh exchanges a valid refresh token for a new access token.
func (a *Auth) Refresh(refreshToken string) (string, error) {
	claims, err := a.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}

	user, err := a.store.GetUser(claims.Subject)
	if err != nil {
		return "", apperr.Infrastructure("get user", err)
	}
	if user == nil || !user.Active {
		return "", apperr.Unauthorized("User not found or inactive")
	}
	return a.tokens.Issue(user)
}

// CurrentUser returns the active user for an authenticated subject.
func (a *Auth) CurrentUser(userID string) (*models.User, error) {
	user, err := a.store.GetUser(userID)
	if err != nil {
		return nil, apperr.Infrastructure("get user", err)
	}
	if user == nil || !user.Active {
		return nil, apperr.Unauthorized("User not found or inactive")
	}
	return user, nil
}

func (a *Auth) tokenPair(user *models.User) (*AuthResult, error) {
	access, err := a.tokens.Issue(user)
	if err != nil {
		return nil, apperr.Infrastructure("sign token", err)
	}
	refresh, err := a.tokens.IssueRefresh(user)
	if err != nil {
		return nil, apperr.Infrastructure("sign refresh token", err)
	}
	return &AuthResult{User: user, Token: access, RefreshToken: refresh}, nil
}
