package tui

// TaskItem is a summary of a task for the list view
type TaskItem struct {
	ID         string
	TaskTitle  string
	Status     string
	Priority   string
	AssignedTo string
	DueDate    string
}

// TaskDetail is the full task information
type TaskDetail struct {
	ID          string
	Title       string
	Description string
	Status      string
	Priority    string
	AssignedTo  string
	CreatedBy   string
	DueDate     string
	CreatedAt   string
	UpdatedAt   string
}

// DashboardView holds the dashboard numbers the TUI renders
type DashboardView struct {
	Total          int
	ByStatus       map[string]int
	ByPriority     map[string]int
	OverdueCount   int
	DueSoonCount   int
	CompletionRate float64
	AvgDays        float64
	CompletedCount int
	Recent         []TaskItem
}
