package httpapi

import (
	"net/http"
	"strings"

	"github.com/taskboard/taskboard/internal/models"
	"github.com/taskboard/taskboard/internal/service"
)

// handleAuth dispatches /api/auth/* routes.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/auth/"), "/")

	switch {
	case action == "signup" && r.Method == http.MethodPost:
		s.signup(w, r)
	case action == "login" && r.Method == http.MethodPost:
		s.login(w, r)
	case action == "refresh" && r.Method == http.MethodPost:
		s.refresh(w, r)
	case action == "me" && r.Method == http.MethodGet:
		s.me(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.auth.Signup(service.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.Role(req.Role),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	Token string `json:"token"`
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	access, err := s.auth.Refresh(req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Token: access})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	requester, err := s.requester(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := s.auth.CurrentUser(requester.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
