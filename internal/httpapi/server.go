// Package httpapi provides the JSON REST API for Taskboard.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/dashboard"
	"github.com/taskboard/taskboard/internal/models"
	"github.com/taskboard/taskboard/internal/service"
	"github.com/taskboard/taskboard/internal/store"
	"github.com/taskboard/taskboard/internal/token"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Server provides the HTTP API for Taskboard.
type Server struct {
	tasks  *service.Tasks
	auth   *service.Auth
	engine *dashboard.Engine
	tokens *token.Manager
	store  *store.Store
	addr   string
	server *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(tasks *service.Tasks, auth *service.Auth, engine *dashboard.Engine, tokens *token.Manager, st *store.Store, addr string) *Server {
	return &Server{
		tasks:  tasks,
		auth:   auth,
		engine: engine,
		tokens: tokens,
		store:  st,
		addr:   addr,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/", s.handleAuth)
	mux.HandleFunc("/api/projects/", s.handleProjects)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("Starting Taskboard API on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		health.OK = false
		health.DB = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}
	writeJSON(w, http.StatusOK, health)
}

// handleProjects dispatches /api/projects/{projectId}/... routes.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	requester, err := s.requester(r)
	if err != nil {
		writeError(w, err)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	projectID := parts[0]
	resource := parts[1]
	rest := parts[2:]

	switch resource {
	case "tasks":
		s.handleTasks(w, r, requester, projectID, rest)
	case "dashboard":
		s.handleDashboard(w, r, projectID, rest)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// requester authenticates the request from its bearer token.
func (s *Server) requester(r *http.Request) (models.Requester, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return models.Requester{}, apperr.Unauthorized("Authentication required")
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == header {
		return models.Requester{}, apperr.Unauthorized("Authorization header must use the Bearer scheme")
	}

	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return models.Requester{}, err
	}
	return models.Requester{ID: claims.Subject, Role: claims.Role}, nil
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// writeError maps an error to its HTTP status and envelope.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindConflict:
		status = http.StatusConflict
	}

	body := errorBody{Error: errorDetail{Message: err.Error(), Code: string(kind)}}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		body.Error.Message = ae.Message
		body.Error.Details = ae.Details
	}
	if status == http.StatusInternalServerError {
		// Infrastructure details stay in the log, not the response.
		log.Printf("internal error: %v", err)
		body.Error.Message = "internal error"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("Invalid JSON body", nil)
	}
	return nil
}
