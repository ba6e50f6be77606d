package services

import (
	"database/sql"
	"errors"

	"github.com/taskdeck/taskdeck-be/internal/models"
)

// ErrTaskNotFound covers both a missing task id and a task owned by a
// different user. Handlers surface the two identically so one user
// cannot probe for the existence of another user's tasks.
var ErrTaskNotFound = errors.New("task not found")

// TaskUpdate describes a partial update. Nil fields are left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
}

// TaskServiceProvider defines the interface for task services. Every
// method takes the owning user's id and scopes its queries to it.
type TaskServiceProvider interface {
	GetTasksForUser(userID int64) ([]models.Task, error)
	GetTask(id, userID int64) (models.Task, error)
	CreateTask(userID int64, title, description, status string) (models.Task, error)
	UpdateTask(id, userID int64, update TaskUpdate) (models.Task, error)
	DeleteTask(id, userID int64) error
}

// TaskService provides business logic for task management.
type TaskService struct {
	db *sql.DB
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sql.DB) *TaskService {
	return &TaskService{db: db}
}

// scanTask is a helper to scan a task from a row or rows object.
func scanTask(scanner interface{ Scan(...interface{}) error }) (models.Task, error) {
	var task models.Task
	err := scanner.Scan(&task.ID, &task.UserID, &task.Title, &task.Description,
		&task.Status, &task.CreatedAt, &task.UpdatedAt)
	return task, err
}

const taskColumns = "id, user_id, title, description, status, created_at, updated_at"

// GetTasksForUser retrieves all tasks owned by the given user, newest
// first.
func (s *TaskService) GetTasksForUser(userID int64) ([]models.Task, error) {
	rows, err := s.db.Query("SELECT "+taskColumns+" FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetTask retrieves a single task. The id and owner are matched in one
// predicate; a task under a different owner is indistinguishable from a
// missing one.
func (s *TaskService) GetTask(id, userID int64) (models.Task, error) {
	row := s.db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?", id, userID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

// CreateTask persists a new task owned by userID. The owner always
// comes from the authenticated identity, never from client input.
func (s *TaskService) CreateTask(userID int64, title, description, status string) (models.Task, error) {
	if status == "" {
		status = models.TaskStatusPending
	}

	res, err := s.db.Exec("INSERT INTO tasks(user_id, title, description, status) VALUES(?, ?, ?, ?)",
		userID, title, description, status)
	if err != nil {
		return models.Task{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(id, userID)
}

// UpdateTask applies a partial update to a task the user owns and
// returns the updated row.
func (s *TaskService) UpdateTask(id, userID int64, update TaskUpdate) (models.Task, error) {
	res, err := s.db.Exec(`
		UPDATE tasks
		SET title = COALESCE(?, title),
		    description = COALESCE(?, description),
		    status = COALESCE(?, status),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`,
		update.Title, update.Description, update.Status, id, userID)
	if err != nil {
		return models.Task{}, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, ErrTaskNotFound
	}
	return s.GetTask(id, userID)
}

// DeleteTask removes a task the user owns.
func (s *TaskService) DeleteTask(id, userID int64) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
