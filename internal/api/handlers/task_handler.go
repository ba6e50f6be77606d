package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/rs/zerolog/log"
	"github.com/taskdeck/taskdeck-be/internal/auth"
	"github.com/taskdeck/taskdeck-be/internal/models"
	"github.com/taskdeck/taskdeck-be/internal/services"
)

// TaskHandler handles HTTP requests for task management. Every route it
// serves sits behind the auth middleware, so a resolved user is always
// available from the request context.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// TaskCreatePayload defines the structure for task creation requests.
// There is deliberately no owner field; ownership always comes from the
// authenticated identity.
type TaskCreatePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Validate checks the creation payload field by field.
func (p TaskCreatePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Description, validation.Length(0, 2000)),
		validation.Field(&p.Status, validation.In(models.TaskStatusPending, models.TaskStatusCompleted)),
	)
}

// TaskUpdatePayload defines the structure for partial updates. Nil
// fields were not supplied and stay untouched.
type TaskUpdatePayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// Validate checks only the fields the client supplied.
func (p TaskUpdatePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&p.Description, validation.Length(0, 2000)),
		validation.Field(&p.Status, validation.NilOrNotEmpty, validation.In(models.TaskStatusPending, models.TaskStatusCompleted)),
	)
}

// GetAll handles the request to list the authenticated user's tasks.
func (h *TaskHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	tasks, err := h.service.GetTasksForUser(user.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to list tasks")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve tasks")
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// Create handles the request to create a new task for the authenticated
// user.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var payload TaskCreatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := payload.Validate(); err != nil {
		respondValidationError(w, err)
		return
	}

	task, err := h.service.CreateTask(user.ID, payload.Title, payload.Description, payload.Status)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to create task")
		respondError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

// Get handles the request to get a single task the user owns.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := taskID(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}

	task, err := h.service.GetTask(id, user.ID)
	if err != nil {
		h.respondTaskError(w, err, id, user.ID)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// Update handles the request to partially update a task the user owns.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := taskID(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}

	var payload TaskUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := payload.Validate(); err != nil {
		respondValidationError(w, err)
		return
	}

	task, err := h.service.UpdateTask(id, user.ID, services.TaskUpdate{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      payload.Status,
	})
	if err != nil {
		h.respondTaskError(w, err, id, user.ID)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// Delete handles the request to delete a task the user owns.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := taskID(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.service.DeleteTask(id, user.ID); err != nil {
		h.respondTaskError(w, err, id, user.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respondTaskError maps service failures to responses. Missing and
// not-owned tasks share one body.
func (h *TaskHandler) respondTaskError(w http.ResponseWriter, err error, id, userID int64) {
	if errors.Is(err, services.ErrTaskNotFound) {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}
	log.Error().Err(err).Int64("task_id", id).Int64("user_id", userID).Msg("Task operation failed")
	respondError(w, http.StatusInternalServerError, "Internal server error")
}

// taskID parses the {id} route parameter.
func taskID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
