// Package store provides SQLite-backed persistence for Taskboard.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskboard/taskboard/internal/models"
	_ "modernc.org/sqlite"
)

// Store provides access to the Taskboard SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT,
		last_name TEXT,
		role TEXT NOT NULL DEFAULT 'Member',
		active INTEGER NOT NULL DEFAULT 1,
		last_login DATETIME,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS project_members (
		project_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		PRIMARY KEY (project_id, user_id),
		FOREIGN KEY (project_id) REFERENCES projects(id)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		priority TEXT NOT NULL DEFAULT 'medium',
		due_date DATETIME,
		assigned_to TEXT,
		created_by TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		deleted_at DATETIME,
		FOREIGN KEY (project_id) REFERENCES projects(id)
	);

	CREATE TABLE IF NOT EXISTS activity_log (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		user_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		task_id TEXT,
		metadata TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_project_status ON tasks(project_id, status);
	CREATE INDEX IF NOT EXISTS idx_tasks_project_deleted ON tasks(project_id, deleted_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_project_assignee ON tasks(project_id, assigned_to);
	CREATE INDEX IF NOT EXISTS idx_tasks_project_created ON tasks(project_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_project_due ON tasks(project_id, due_date);
	CREATE INDEX IF NOT EXISTS idx_activity_project ON activity_log(project_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Task Operations ---

// taskColumns is the select list shared by every task read.
const taskColumns = `id, project_id, title, description, status, priority, due_date, assigned_to, created_by, created_at, updated_at, deleted_at`

// NewTask holds the fields for task creation.
type NewTask struct {
	ProjectID   string
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	AssignedTo  string
	CreatedBy   string
}

// CreateTask inserts a new task.
func (s *Store) CreateTask(nt NewTask) (*models.Task, error) {
	now := time.Now().UTC()
	task := &models.Task{
		ID:          uuid.New().String(),
		ProjectID:   nt.ProjectID,
		Title:       nt.Title,
		Description: nt.Description,
		Status:      nt.Status,
		Priority:    nt.Priority,
		DueDate:     nt.DueDate,
		AssignedTo:  nt.AssignedTo,
		CreatedBy:   nt.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var due interface{}
	if task.DueDate != nil {
		due = task.DueDate.UTC()
	}
	var assignee interface{}
	if task.AssignedTo != "" {
		assignee = task.AssignedTo
	}

	_, err := s.db.Exec(
		`INSERT INTO tasks (id, project_id, title, description, status, priority, due_date, assigned_to, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.ProjectID, task.Title, task.Description, task.Status, task.Priority, due, assignee, task.CreatedBy, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// GetTask retrieves a live task by ID within a project. Soft-deleted tasks
// are invisible; callers get nil as if the task never existed.
func (s *Store) GetTask(taskID, projectID string) (*models.Task, error) {
	row := s.db.QueryRow(
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND project_id = ? AND deleted_at IS NULL`,
		taskID, projectID,
	)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// TaskFilter narrows ListTasks results. Zero values mean "no filter".
type TaskFilter struct {
	Status     models.TaskStatus
	Priority   models.TaskPriority
	AssignedTo string
	Overdue    bool
	Now        time.Time
	Page       int
	Limit      int
}

// ListTasks returns live tasks for a project matching the filter, newest
// first, plus the total match count for pagination.
func (s *Store) ListTasks(projectID string, f TaskFilter) ([]models.Task, int, error) {
	where := `WHERE project_id = ? AND deleted_at IS NULL`
	args := []interface{}{projectID}

	if f.Status != "" {
		where += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where += ` AND priority = ?`
		args = append(args, f.Priority)
	}
	if f.AssignedTo != "" {
		where += ` AND assigned_to = ?`
		args = append(args, f.AssignedTo)
	}
	if f.Overdue {
		where += ` AND due_date IS NOT NULL AND due_date < ? AND status != ?`
		args = append(args, f.Now.UTC(), models.TaskStatusCompleted)
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	query := `SELECT ` + taskColumns + ` FROM tasks ` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// ListLiveTasks returns every non-deleted task in a project. The dashboard
// engine scans this as its one consistent snapshot per request.
func (s *Store) ListLiveTasks(projectID string) ([]models.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? AND deleted_at IS NULL ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query live tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// TaskPatch holds the optional fields of a task update. A nil pointer means
// "leave unchanged". ClearDueDate clears the due date explicitly since a nil
// DueDate already means "unchanged".
type TaskPatch struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	AssignedTo   *string
}

// UpdateTask applies a patch to a live task and advances updated_at. It
// reports whether a row was updated (false when the task is missing or
// soft-deleted).
func (s *Store) UpdateTask(taskID, projectID string, p TaskPatch) (bool, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *p.Status)
	}
	if p.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *p.Priority)
	}
	if p.ClearDueDate {
		sets = append(sets, "due_date = NULL")
	} else if p.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, p.DueDate.UTC())
	}
	if p.AssignedTo != nil {
		if *p.AssignedTo == "" {
			sets = append(sets, "assigned_to = NULL")
		} else {
			sets = append(sets, "assigned_to = ?")
			args = append(args, *p.AssignedTo)
		}
	}

	args = append(args, taskID, projectID)
	result, err := s.db.Exec(
		`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ? AND project_id = ? AND deleted_at IS NULL`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("update task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return n > 0, nil
}

// SoftDeleteTask marks a live task as deleted. Deleting an already-deleted
// task reports false, which callers surface as not-found.
func (s *Store) SoftDeleteTask(taskID, projectID string) (bool, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE id = ? AND project_id = ? AND deleted_at IS NULL`,
		now, now, taskID, projectID,
	)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return n > 0, nil
}

func scanTask(row *sql.Row) (*models.Task, error) {
	task := &models.Task{}
	var desc, assignee sql.NullString
	var due, deleted sql.NullTime

	err := row.Scan(&task.ID, &task.ProjectID, &task.Title, &desc, &task.Status, &task.Priority, &due, &assignee, &task.CreatedBy, &task.CreatedAt, &task.UpdatedAt, &deleted)
	if err != nil {
		return nil, err
	}
	applyNullables(task, desc, assignee, due, deleted)
	return task, nil
}

func collectTasks(rows *sql.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		var desc, assignee sql.NullString
		var due, deleted sql.NullTime
		if err := rows.Scan(&task.ID, &task.ProjectID, &task.Title, &desc, &task.Status, &task.Priority, &due, &assignee, &task.CreatedBy, &task.CreatedAt, &task.UpdatedAt, &deleted); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		applyNullables(&task, desc, assignee, due, deleted)
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func applyNullables(task *models.Task, desc, assignee sql.NullString, due, deleted sql.NullTime) {
	if desc.Valid {
		task.Description = desc.String
	}
	if assignee.Valid {
		task.AssignedTo = assignee.String
	}
	if due.Valid {
		d := due.Time
		task.DueDate = &d
	}
	if deleted.Valid {
		d := deleted.Time
		task.DeletedAt = &d
	}
}

// --- Project Operations ---

// CreateProject inserts a new project.
func (s *Store) CreateProject(name string) (*models.Project, error) {
	project := &models.Project{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)`,
		project.ID, project.Name, project.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return project, nil
}

// ProjectExists reports whether a project with the given ID exists.
func (s *Store) ProjectExists(projectID string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM projects WHERE id = ?`, projectID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query project: %w", err)
	}
	return true, nil
}

// AddMember adds a user to a project. Adding an existing member is a no-op.
func (s *Store) AddMember(projectID, userID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO project_members (project_id, user_id) VALUES (?, ?)`,
		projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// IsProjectMember reports whether the user belongs to the project.
func (s *Store) IsProjectMember(projectID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query membership: %w", err)
	}
	return true, nil
}

// --- User Operations ---

// ErrEmailTaken indicates a signup attempt with an already-registered email.
var ErrEmailTaken = fmt.Errorf("email already registered")

const userColumns = `id, email, password_hash, first_name, last_name, role, active, last_login, created_at`

// CreateUser inserts a new user. The email must already be normalized.
func (s *Store) CreateUser(email, passwordHash, firstName, lastName string, role models.Role) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO users (id, email, password_hash, first_name, last_name, role, active, created_at) VALUES (?, ?, ?, ?, ?, ?, 1, ?)`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role, user.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "unique constraint") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by normalized email.
func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	return s.getUser(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(id string) (*models.User, error) {
	return s.getUser(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *Store) getUser(query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	var firstName, lastName sql.NullString
	var lastLogin sql.NullTime
	var active int

	err := s.db.QueryRow(query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &firstName, &lastName, &user.Role, &active, &lastLogin, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if firstName.Valid {
		user.FirstName = firstName.String
	}
	if lastName.Valid {
		user.LastName = lastName.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	user.Active = active != 0
	return user, nil
}

// TouchLastLogin stamps the user's last successful login.
func (s *Store) TouchLastLogin(userID string) error {
	_, err := s.db.Exec(`UPDATE users SET last_login = ? WHERE id = ?`, time.Now().UTC(), userID)
	return err
}

// --- Activity Log Operations ---

// WriteActivity appends an entry to the project activity log.
func (s *Store) WriteActivity(action, userID, projectID, taskID string, metadata map[string]string) (*models.ActivityEntry, error) {
	entry := &models.ActivityEntry{
		ID:        uuid.New().String(),
		Action:    action,
		UserID:    userID,
		ProjectID: projectID,
		TaskID:    taskID,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	var meta interface{}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		meta = string(raw)
	}

	_, err := s.db.Exec(
		`INSERT INTO activity_log (id, action, user_id, project_id, task_id, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.UserID, entry.ProjectID, entry.TaskID, meta, entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return entry, nil
}

// ListActivity returns the newest activity entries for a project.
func (s *Store) ListActivity(projectID string, limit int) ([]models.ActivityEntry, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, action, user_id, project_id, task_id, metadata, created_at FROM activity_log WHERE project_id = ? ORDER BY created_at DESC LIMIT ?`,
		projectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var entry models.ActivityEntry
		var taskID, meta sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.UserID, &entry.ProjectID, &taskID, &meta, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if taskID.Valid {
			entry.TaskID = taskID.String
		}
		if meta.Valid && meta.String != "" {
			json.Unmarshal([]byte(meta.String), &entry.Metadata)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
