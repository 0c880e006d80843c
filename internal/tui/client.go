package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the Taskboard API
type Client struct {
	baseURL    string
	token      string
	projectID  string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout
func NewClient(baseURL, token, projectID string) *Client {
	return &Client{
		baseURL:   baseURL,
		token:     token,
		projectID: projectID,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// ListTasks fetches tasks for the project
func (c *Client) ListTasks(status string) ([]TaskItem, error) {
	path := "/api/projects/" + c.projectID + "/tasks"
	if status != "" {
		path += "?status=" + status
	}

	body, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Tasks []struct {
			ID         string `json:"id"`
			Title      string `json:"title"`
			Status     string `json:"status"`
			Priority   string `json:"priority"`
			AssignedTo string `json:"assigned_to"`
			DueDate    string `json:"due_date"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	items := make([]TaskItem, len(result.Tasks))
	for i, t := range result.Tasks {
		items[i] = TaskItem{
			ID:         t.ID,
			TaskTitle:  t.Title,
			Status:     t.Status,
			Priority:   t.Priority,
			AssignedTo: t.AssignedTo,
			DueDate:    t.DueDate,
		}
	}
	return items, nil
}

// GetTask fetches a single task
func (c *Client) GetTask(id string) (*TaskDetail, error) {
	body, err := c.do(http.MethodGet, "/api/projects/"+c.projectID+"/tasks/"+id, nil)
	if err != nil {
		return nil, err
	}

	var task struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
		Priority    string `json:"priority"`
		AssignedTo  string `json:"assigned_to"`
		CreatedBy   string `json:"created_by"`
		DueDate     string `json:"due_date"`
		CreatedAt   string `json:"created_at"`
		UpdatedAt   string `json:"updated_at"`
	}
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, err
	}

	return &TaskDetail{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		AssignedTo:  task.AssignedTo,
		CreatedBy:   task.CreatedBy,
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}, nil
}

// CreateTask creates a new task
func (c *Client) CreateTask(title, description string) (string, error) {
	body := map[string]string{
		"title":       title,
		"description": description,
	}
	resp, err := c.do(http.MethodPost, "/api/projects/"+c.projectID+"/tasks", body)
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// SetStatus updates the status of a task
func (c *Client) SetStatus(taskID, status string) error {
	body := map[string]string{"status": status}
	_, err := c.do(http.MethodPut, "/api/projects/"+c.projectID+"/tasks/"+taskID, body)
	return err
}

// AssignTask assigns a task to a user; an empty userID unassigns
func (c *Client) AssignTask(taskID, userID string) error {
	body := map[string]interface{}{"assigned_to": userID}
	if userID == "" {
		body["assigned_to"] = nil
	}
	_, err := c.do(http.MethodPut, "/api/projects/"+c.projectID+"/tasks/"+taskID, body)
	return err
}

// DeleteTask deletes a task
func (c *Client) DeleteTask(taskID string) error {
	_, err := c.do(http.MethodDelete, "/api/projects/"+c.projectID+"/tasks/"+taskID, nil)
	return err
}

// Dashboard fetches the project dashboard
func (c *Client) Dashboard(window string) (*DashboardView, error) {
	path := "/api/projects/" + c.projectID + "/dashboard"
	if window != "" {
		path += "?range=" + window
	}
	body, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var stats struct {
		Summary struct {
			Total      int            `json:"total"`
			ByStatus   map[string]int `json:"by_status"`
			ByPriority map[string]int `json:"by_priority"`
			Overdue    struct {
				Count int `json:"count"`
			} `json:"overdue"`
			DueSoon struct {
				Count int `json:"count"`
			} `json:"due_soon"`
			CompletionRate struct {
				Rate float64 `json:"rate"`
			} `json:"completion_rate"`
			AverageCompletionTime struct {
				AvgDays float64 `json:"avg_days"`
				Count   int     `json:"count"`
			} `json:"average_completion_time"`
		} `json:"summary"`
		RecentTasks []struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			Status   string `json:"status"`
			Priority string `json:"priority"`
		} `json:"recent_tasks"`
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, err
	}

	view := &DashboardView{
		Total:          stats.Summary.Total,
		ByStatus:       stats.Summary.ByStatus,
		ByPriority:     stats.Summary.ByPriority,
		OverdueCount:   stats.Summary.Overdue.Count,
		DueSoonCount:   stats.Summary.DueSoon.Count,
		CompletionRate: stats.Summary.CompletionRate.Rate,
		AvgDays:        stats.Summary.AverageCompletionTime.AvgDays,
		CompletedCount: stats.Summary.AverageCompletionTime.Count,
	}
	for _, t := range stats.RecentTasks {
		view.Recent = append(view.Recent, TaskItem{
			ID:        t.ID,
			TaskTitle: t.Title,
			Status:    t.Status,
			Priority:  t.Priority,
		})
	}
	return view, nil
}

// CheckHealth checks if the API server is healthy
func (c *Client) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var health struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false, err
	}

	return health.OK, nil
}

func (c *Client) do(method, path string, data interface{}) ([]byte, error) {
	var reader io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
			return nil, fmt.Errorf("API error: %s", envelope.Error.Message)
		}
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	return body, nil
}
