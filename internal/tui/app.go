// Package tui provides the interactive terminal UI for Taskboard.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#2563EB")
	secondaryColor = lipgloss.Color("#0EA5E9")
	successColor   = lipgloss.Color("#22C55E")
	warningColor   = lipgloss.Color("#EAB308")
	errorColor     = lipgloss.Color("#DC2626")
	mutedColor     = lipgloss.Color("#64748B")
	fgColor        = lipgloss.Color("#F8FAFC")
	cyanColor      = lipgloss.Color("#14B8A6")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	serverOnlineStyle = lipgloss.NewStyle().
				Foreground(successColor).
				Bold(true)

	serverOfflineStyle = lipgloss.NewStyle().
				Foreground(errorColor)
)

// App is the main TUI application model.
type App struct {
	client       *Client
	tasks        []TaskItem
	selectedIdx  int
	input        textinput.Model
	viewport     viewport.Model
	width        int
	height       int
	mode         string // "list", "detail", "dashboard"
	currentTask  *TaskDetail
	dash         *DashboardView
	message      string
	filter       string
	filterIdx    int
	loading      bool
	serverOnline bool
	suggestions  *Suggestions
}

var filters = []string{"", "pending", "in-progress", "completed", "cancelled"}
var filterNames = []string{"ALL", "PENDING", "IN PROGRESS", "COMPLETED", "CANCELLED"}

// New creates a new TUI application.
func New(apiAddr, token, projectID string) *App {
	ti := textinput.New()
	ti.Placeholder = "Type: add <title> | status <value> | assign <user-id> | dash"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 80

	vp := viewport.New(80, 20)

	return &App{
		client:      NewClient(apiAddr, token, projectID),
		input:       ti,
		viewport:    vp,
		mode:        "list",
		suggestions: NewSuggestions(),
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.fetchTasks(),
		a.checkServer(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit

		case "esc":
			if a.mode == "detail" || a.mode == "dashboard" {
				a.mode = "list"
				a.currentTask = nil
				return a, a.fetchTasks()
			}

		case "up", "k":
			if a.suggestions.IsVisible() {
				a.suggestions.Prev()
			} else if a.mode == "list" && a.input.Value() == "" && a.selectedIdx > 0 {
				a.selectedIdx--
			}

		case "down", "j":
			if a.suggestions.IsVisible() {
				a.suggestions.Next()
			} else if a.mode == "list" && a.input.Value() == "" && a.selectedIdx < len(a.tasks)-1 {
				a.selectedIdx++
			}

		case "tab":
			// If suggestions visible, accept selection
			if a.suggestions.IsVisible() {
				if selected := a.suggestions.Selected(); selected != nil {
					a.input.SetValue(selected.Text + " ")
					a.suggestions.Update("")
				}
				return a, nil
			}
			// Cycle through status filters
			if a.mode == "list" {
				a.filterIdx = (a.filterIdx + 1) % len(filters)
				a.filter = filters[a.filterIdx]
				return a, a.fetchTasks()
			}

		case "enter":
			if a.suggestions.IsVisible() {
				if selected := a.suggestions.Selected(); selected != nil {
					a.input.SetValue(selected.Text + " ")
					a.suggestions.Update("")
				}
				return a, nil
			}
			cmd := strings.TrimSpace(a.input.Value())
			if cmd != "" {
				a.input.SetValue("")
				return a, a.executeCommand(cmd)
			} else if a.mode == "list" && len(a.tasks) > 0 {
				task := a.tasks[a.selectedIdx]
				a.mode = "detail"
				return a, a.fetchTaskDetail(task.ID)
			}

		case "r":
			// Plain letters belong to the input while a command is typed
			if a.input.Value() != "" {
				break
			}
			if a.mode == "list" {
				return a, a.fetchTasks()
			} else if a.mode == "dashboard" {
				return a, a.fetchDashboard()
			}

		case "d":
			if a.input.Value() != "" {
				break
			}
			a.mode = "dashboard"
			return a, a.fetchDashboard()
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 10

	case tasksLoadedMsg:
		a.loading = false
		a.tasks = msg.tasks
		if a.selectedIdx >= len(a.tasks) {
			a.selectedIdx = max(0, len(a.tasks)-1)
		}

	case taskDetailLoadedMsg:
		a.currentTask = msg.task

	case dashboardLoadedMsg:
		a.mode = "dashboard"
		a.dash = msg.view

	case serverStatusMsg:
		a.serverOnline = msg.online

	case commandResultMsg:
		a.message = msg.message
		return a, a.fetchTasks()

	case errMsg:
		a.message = "Error: " + msg.err.Error()
	}

	// Update input
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	// Update suggestions based on input
	a.suggestions.Update(a.input.Value())

	// Populate task references for @
	if strings.HasPrefix(a.input.Value(), "@") {
		a.suggestions.SetTasks(a.tasks)
	}

	return a, tea.Batch(cmds...)
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	// Header with server status
	serverStatus := serverOnlineStyle.Render("● API")
	if !a.serverOnline {
		serverStatus = serverOfflineStyle.Render("○ API")
	}

	header := titleStyle.Render("TASKBOARD")
	header += "  " + serverStatus
	header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(fmt.Sprintf("[%d tasks]", len(a.tasks)))

	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", a.width) + "\n")

	// Main content area
	contentHeight := a.height - 8
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch a.mode {
	case "list":
		filterLabel := fmt.Sprintf(" Filter: [%s]", filterNames[a.filterIdx])
		b.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Render(filterLabel) + "\n")
		b.WriteString(a.renderTaskList(contentHeight - 1))
	case "detail":
		b.WriteString(a.renderTaskDetail())
	case "dashboard":
		b.WriteString(a.renderDashboard())
	}

	// Message bar
	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	// Input box
	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.input.View()))

	// Suggestions dropdown renders below the input
	if a.suggestions.IsVisible() {
		b.WriteString("\n")
		b.WriteString(a.suggestions.Render(a.width))
	}
	b.WriteString("\n")

	// Status bar
	var status string
	switch a.mode {
	case "list":
		status = fmt.Sprintf(" Tasks: %d | ↑↓:nav | Tab:filter | d:dashboard | r:refresh | Ctrl+C:quit", len(a.tasks))
	case "dashboard":
		status = " Dashboard | r:refresh | Esc:back"
	default:
		status = " Esc:back | Enter:command | Ctrl+C:quit"
	}
	b.WriteString(statusBarStyle.Width(a.width).Render(status))

	return b.String()
}

func (a *App) renderTaskList(height int) string {
	if a.loading {
		return "\n  Loading tasks...\n"
	}
	if len(a.tasks) == 0 {
		return "\n  No tasks found. Type: add <title> to create one.\n"
	}

	var lines []string
	for i, task := range a.tasks {
		status := a.formatStatus(task.Status)
		priority := a.formatPriority(task.Priority)

		if i == a.selectedIdx {
			line := selectedStyle.Render(fmt.Sprintf("▶ %s %s  %s", a.formatStatusPlain(task.Status), task.Priority, task.TaskTitle))
			lines = append(lines, line)
		} else {
			line := taskItemStyle.Render(fmt.Sprintf("  %s %s  %s", status, priority, task.TaskTitle))
			lines = append(lines, line)
		}
	}

	// Limit visible lines
	if len(lines) > height {
		start := a.selectedIdx - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}

func (a *App) renderTaskDetail() string {
	if a.currentTask == nil {
		return "\n  Loading...\n"
	}

	var b strings.Builder
	t := a.currentTask

	b.WriteString(fmt.Sprintf("\n  %s\n", lipgloss.NewStyle().Bold(true).Render(t.Title)))
	b.WriteString(fmt.Sprintf("  ID: %s\n", shortID(t.ID)))
	b.WriteString(fmt.Sprintf("  Status: %s\n", a.formatStatus(t.Status)))
	b.WriteString(fmt.Sprintf("  Priority: %s\n", a.formatPriority(t.Priority)))
	if t.Description != "" {
		b.WriteString(fmt.Sprintf("  Description: %s\n", t.Description))
	}
	if t.AssignedTo != "" {
		b.WriteString(fmt.Sprintf("  Assigned to: %s\n", t.AssignedTo))
	}
	if t.DueDate != "" {
		b.WriteString(fmt.Sprintf("  Due: %s\n", t.DueDate))
	}
	b.WriteString(fmt.Sprintf("  Created: %s\n", t.CreatedAt))
	b.WriteString(fmt.Sprintf("  Updated: %s\n", t.UpdatedAt))

	return b.String()
}

func (a *App) renderDashboard() string {
	var b strings.Builder

	b.WriteString("\n  Project Dashboard\n")
	b.WriteString("  " + strings.Repeat("─", 50) + "\n\n")

	if a.dash == nil {
		b.WriteString("  Loading...\n")
		return b.String()
	}

	d := a.dash
	totalStyle := lipgloss.NewStyle().Foreground(cyanColor).Bold(true)
	b.WriteString(fmt.Sprintf("  Total tasks: %s\n\n", totalStyle.Render(fmt.Sprintf("%d", d.Total))))

	b.WriteString("  By status:\n")
	for _, status := range filters[1:] {
		b.WriteString(fmt.Sprintf("    %s %d\n", a.formatStatus(status), d.ByStatus[status]))
	}

	b.WriteString("\n  By priority:\n")
	for _, priority := range []string{"low", "medium", "high", "urgent"} {
		b.WriteString(fmt.Sprintf("    %s %d\n", a.formatPriority(priority), d.ByPriority[priority]))
	}

	overdueStyle := lipgloss.NewStyle().Foreground(errorColor)
	dueSoonStyle := lipgloss.NewStyle().Foreground(warningColor)
	b.WriteString(fmt.Sprintf("\n  Overdue: %s   Due soon: %s\n",
		overdueStyle.Render(fmt.Sprintf("%d", d.OverdueCount)),
		dueSoonStyle.Render(fmt.Sprintf("%d", d.DueSoonCount))))

	b.WriteString(fmt.Sprintf("  Completion rate: %.2f%%\n", d.CompletionRate))
	if d.CompletedCount > 0 {
		b.WriteString(fmt.Sprintf("  Avg completion: %.2f days over %d tasks\n", d.AvgDays, d.CompletedCount))
	}

	if len(d.Recent) > 0 {
		b.WriteString("\n  Recent tasks:\n")
		for _, t := range d.Recent {
			b.WriteString(fmt.Sprintf("    • %s %s\n", a.formatStatusPlain(t.Status), t.TaskTitle))
		}
	}

	b.WriteString("\n  " + helpStyle.Render("Press Esc to go back, r to refresh") + "\n")

	return b.String()
}

func (a *App) formatStatus(status string) string {
	switch status {
	case "pending":
		return lipgloss.NewStyle().Foreground(warningColor).Render("○ PENDING")
	case "in-progress":
		return lipgloss.NewStyle().Foreground(secondaryColor).Render("◐ IN PROGRESS")
	case "completed":
		return lipgloss.NewStyle().Foreground(successColor).Render("● COMPLETED")
	case "cancelled":
		return lipgloss.NewStyle().Foreground(mutedColor).Render("✗ CANCELLED")
	default:
		return status
	}
}

func (a *App) formatStatusPlain(status string) string {
	switch status {
	case "pending":
		return "○"
	case "in-progress":
		return "◐"
	case "completed":
		return "●"
	case "cancelled":
		return "✗"
	default:
		return "?"
	}
}

func (a *App) formatPriority(priority string) string {
	switch priority {
	case "low":
		return lipgloss.NewStyle().Foreground(mutedColor).Render("low")
	case "medium":
		return lipgloss.NewStyle().Foreground(cyanColor).Render("med")
	case "high":
		return lipgloss.NewStyle().Foreground(warningColor).Render("high")
	case "urgent":
		return lipgloss.NewStyle().Foreground(errorColor).Bold(true).Render("URG")
	default:
		return priority
	}
}

func (a *App) fetchTasks() tea.Cmd {
	a.loading = true
	return func() tea.Msg {
		tasks, err := a.client.ListTasks(a.filter)
		if err != nil {
			return errMsg{err}
		}
		return tasksLoadedMsg{tasks}
	}
}

func (a *App) fetchTaskDetail(taskID string) tea.Cmd {
	return func() tea.Msg {
		task, err := a.client.GetTask(taskID)
		if err != nil {
			return errMsg{err}
		}
		return taskDetailLoadedMsg{task}
	}
}

func (a *App) fetchDashboard() tea.Cmd {
	return func() tea.Msg {
		view, err := a.client.Dashboard("")
		if err != nil {
			return errMsg{err}
		}
		return dashboardLoadedMsg{view}
	}
}

func (a *App) checkServer() tea.Cmd {
	return func() tea.Msg {
		ok, err := a.client.CheckHealth()
		return serverStatusMsg{online: err == nil && ok}
	}
}

func (a *App) executeCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	return func() tea.Msg {
		switch cmd {
		case "add":
			if len(args) < 1 {
				return commandResultMsg{"Usage: add <title>"}
			}
			title := strings.Join(args, " ")
			id, err := a.client.CreateTask(title, "")
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ Created task: %s", shortID(id))}

		case "status":
			if len(a.tasks) == 0 {
				return commandResultMsg{"No task selected"}
			}
			if len(args) < 1 {
				return commandResultMsg{"Usage: status <pending|in-progress|completed|cancelled>"}
			}
			taskID := a.tasks[a.selectedIdx].ID
			if err := a.client.SetStatus(taskID, args[0]); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ Status set to %s", args[0])}

		case "assign":
			if len(a.tasks) == 0 {
				return commandResultMsg{"No task selected"}
			}
			if len(args) < 1 {
				return commandResultMsg{"Usage: assign <user-id>"}
			}
			taskID := a.tasks[a.selectedIdx].ID
			if err := a.client.AssignTask(taskID, args[0]); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Task assigned"}

		case "unassign":
			if len(a.tasks) == 0 {
				return commandResultMsg{"No task selected"}
			}
			taskID := a.tasks[a.selectedIdx].ID
			if err := a.client.AssignTask(taskID, ""); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Task unassigned"}

		case "del":
			if len(a.tasks) == 0 {
				return commandResultMsg{"No task selected"}
			}
			taskID := a.tasks[a.selectedIdx].ID
			if err := a.client.DeleteTask(taskID); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Task deleted"}

		case "dash", "dashboard":
			view, err := a.client.Dashboard("")
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return dashboardLoadedMsg{view}

		case "refresh":
			return commandResultMsg{"✓ Refreshed"}

		case "q", "quit", "exit":
			return tea.Quit()

		default:
			return commandResultMsg{fmt.Sprintf("Unknown: %s (try: add, status, assign, dash)", cmd)}
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}

type tasksLoadedMsg struct {
	tasks []TaskItem
}

type taskDetailLoadedMsg struct {
	task *TaskDetail
}

type dashboardLoadedMsg struct {
	view *DashboardView
}

type serverStatusMsg struct {
	online bool
}
