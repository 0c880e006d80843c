package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/models"
	"github.com/taskboard/taskboard/internal/service"
)

// handleTasks dispatches /api/projects/{projectId}/tasks routes.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request, requester models.Requester, projectID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodPost:
		s.createTask(w, r, requester, projectID)
	case len(rest) == 0 && r.Method == http.MethodGet:
		s.listTasks(w, r, projectID)
	case len(rest) == 1 && r.Method == http.MethodGet:
		s.getTask(w, projectID, rest[0])
	case len(rest) == 1 && r.Method == http.MethodPut:
		s.updateTask(w, r, requester, projectID, rest[0])
	case len(rest) == 1 && r.Method == http.MethodDelete:
		s.deleteTask(w, requester, projectID, rest[0])
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  string     `json:"assigned_to"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request, requester models.Requester, projectID string) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	task, err := s.tasks.Create(projectID, requester.ID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

type taskListResponse struct {
	Tasks      []models.Task      `json:"tasks"`
	Pagination service.Pagination `json:"pagination"`
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request, projectID string) {
	q := r.URL.Query()
	opts := service.ListOptions{
		Status:     q.Get("status"),
		Priority:   q.Get("priority"),
		AssignedTo: q.Get("assigned_to"),
		Overdue:    q.Get("overdue") == "true",
		Now:        time.Now().UTC(),
	}
	if page := q.Get("page"); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			writeError(w, apperr.Validation("Invalid page", map[string]string{"page": "Page must be a positive integer"}))
			return
		}
		opts.Page = n
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			writeError(w, apperr.Validation("Invalid limit", map[string]string{"limit": "Limit must be a positive integer"}))
			return
		}
		opts.Limit = n
	}

	tasks, pagination, err := s.tasks.List(projectID, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, taskListResponse{Tasks: tasks, Pagination: pagination})
}

func (s *Server) getTask(w http.ResponseWriter, projectID, taskID string) {
	task, err := s.tasks.Get(taskID, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, requester models.Requester, projectID, taskID string) {
	update, err := parseTaskUpdate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := s.tasks.Update(taskID, projectID, requester, update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, requester models.Requester, projectID, taskID string) {
	if err := s.tasks.Delete(taskID, projectID, requester); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseTaskUpdate decodes an update body preserving field presence: absent
// fields stay nil, an explicit null due date clears it, an explicit null
// assignee unassigns.
func parseTaskUpdate(r *http.Request) (service.TaskUpdate, error) {
	var raw map[string]json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		return service.TaskUpdate{}, err
	}

	var update service.TaskUpdate
	for field, value := range raw {
		switch field {
		case "title":
			update.Title = new(string)
			if err := json.Unmarshal(value, update.Title); err != nil {
				return service.TaskUpdate{}, fieldError(field)
			}
		case "description":
			update.Description = new(string)
			if err := json.Unmarshal(value, update.Description); err != nil {
				return service.TaskUpdate{}, fieldError(field)
			}
		case "status":
			update.Status = new(models.TaskStatus)
			if err := json.Unmarshal(value, update.Status); err != nil {
				return service.TaskUpdate{}, fieldError(field)
			}
		case "priority":
			update.Priority = new(models.TaskPriority)
			if err := json.Unmarshal(value, update.Priority); err != nil {
				return service.TaskUpdate{}, fieldError(field)
			}
		case "due_date":
			if string(value) == "null" {
				update.ClearDueDate = true
				continue
			}
			update.DueDate = new(time.Time)
			if err := json.Unmarshal(value, update.DueDate); err != nil {
				return service.TaskUpdate{}, fieldError(field)
			}
		case "assigned_to":
			update.AssignedTo = new(string)
			if string(value) == "null" {
				continue
			}
			if err := json.Unmarshal(value, update.AssignedTo); err != nil {
				return service.TaskUpdate{}, fieldError(field)
			}
		default:
			return service.TaskUpdate{}, apperr.Validation("Unknown field", map[string]string{field: "Unknown field"})
		}
	}
	return update, nil
}

func fieldError(field string) error {
	return apperr.Validation("Invalid field value", map[string]string{field: "Invalid value"})
}
