package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/todo-api/internal/api/middleware"
	"github.com/dom/todo-api/internal/api/respond"
	"github.com/dom/todo-api/internal/domain"
	"github.com/dom/todo-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

type CreateTaskRequest struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type UpdateTaskRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func ownerID(r *http.Request) (uuid.UUID, bool) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok || identity.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return identity.UserID, true
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		respond.Error(w, r, domain.ErrUnauthorized)
		return
	}

	tasks, err := h.taskService.List(r.Context(), owner)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		respond.Error(w, r, domain.ErrUnauthorized)
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, errInvalidBody)
		return
	}

	task, err := h.taskService.Create(r.Context(), owner, service.CreateTaskInput{
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		respond.Error(w, r, domain.ErrUnauthorized)
		return
	}

	task, err := h.taskService.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		respond.Error(w, r, domain.ErrUnauthorized)
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, errInvalidBody)
		return
	}

	task, err := h.taskService.Update(r.Context(), owner, chi.URLParam(r, "id"), service.UpdateTaskInput{
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		respond.Error(w, r, domain.ErrUnauthorized)
		return
	}

	task, err := h.taskService.Toggle(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		respond.Error(w, r, domain.ErrUnauthorized)
		return
	}

	if err := h.taskService.Delete(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, MessageResponse{Message: "Task deleted successfully"})
}
