package handlers

import (
	"net/http"
	"time"

	"github.com/chepyr/task-scheduler/internal/models"
	"github.com/chepyr/task-scheduler/internal/tasks"
	"github.com/go-chi/chi/v5"
)

type taskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
}

type taskResponse struct {
	Task    models.Task `json:"task"`
	Message string      `json:"message"`
}

type taskListResponse struct {
	Tasks   []models.Task `json:"tasks"`
	Message string        `json:"message,omitempty"`
}

// ListTasks handles GET /tasks?status=&sort=.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := tasks.ParseFilter(query.Get("status"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sortBy, err := tasks.ParseSort(query.Get("sort"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, res := h.App.ListTasks(sessionFrom(r.Context()), filter, sortBy)
	if !res.OK {
		sendResultError(w, res)
		return
	}
	sendJSON(w, http.StatusOK, taskListResponse{Tasks: list, Message: res.Message})
}

// CreateTask handles POST /tasks.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var input taskInput
	if !decodeJSON(w, r, &input) {
		return
	}

	in, err := tasks.ParseNewTask(input.Title, input.Description, input.DueDate, input.Priority, time.Now())
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, res := h.App.AddTask(r.Context(), sessionFrom(r.Context()), in)
	if !res.OK {
		sendResultError(w, res)
		return
	}
	sendJSON(w, http.StatusCreated, taskResponse{Task: task, Message: res.Message})
}

// ToggleTask handles POST /tasks/{id}/toggle.
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	res := h.App.ToggleTask(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"))
	if !res.OK {
		sendResultError(w, res)
		return
	}
	sendJSON(w, http.StatusOK, messageResponse{Message: res.Message})
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	res := h.App.DeleteTask(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"))
	if !res.OK {
		sendResultError(w, res)
		return
	}
	sendJSON(w, http.StatusOK, messageResponse{Message: res.Message})
}
