// Package api implements the HTTP handlers for the task API.
package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daybookhq/daybook-api/internal/api/middleware"
	"github.com/daybookhq/daybook-api/internal/api/shared"
	"github.com/daybookhq/daybook-api/internal/domain"
	"github.com/daybookhq/daybook-api/internal/recommend"
	"github.com/daybookhq/daybook-api/internal/service"
)

// defaultRelatedLimit caps how many related tasks the recommendation
// endpoint returns when the client does not ask for a specific count.
const defaultRelatedLimit = 5

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	ranker      *recommend.Scorer
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler. The ranker may be nil, in which
// case the related tasks endpoint reports the feature as unavailable.
func NewTaskHandler(taskService service.TaskService, ranker *recommend.Scorer, log *slog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		ranker:      ranker,
		logger:      log.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload TaskPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, payload.ToDomain())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	taskID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), userID, taskID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// ListTasks handles GET /tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	tasks, err := h.taskService.ListByUser(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// UpdateTask handles PUT /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	taskID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var payload TaskPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	incoming := payload.ToDomain()
	incoming.ID = taskID

	task, err := h.taskService.Update(r.Context(), userID, incoming)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// StartTask handles POST /tasks/{id}/start.
func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	taskID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	// The body is optional; an absent or empty body starts the task now.
	var req StartTaskRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
	}

	task, err := h.taskService.Start(r.Context(), userID, taskID, req.StartDate)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// CompleteTask handles POST /tasks/{id}/complete.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	taskID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Complete(r.Context(), userID, taskID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	taskID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, taskID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusNoContent, nil)
}

// GetSummary handles GET /tasks/summary.
func (h *TaskHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	summary, err := h.taskService.Summary(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// GetRelatedTasks handles GET /tasks/{id}/related.
func (h *TaskHandler) GetRelatedTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if h.ranker == nil {
		shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Related tasks are not available")
		return
	}

	taskID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	limit := defaultRelatedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	target, err := h.taskService.Get(r.Context(), userID, taskID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	candidates, err := h.taskService.ListByUser(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	ranked, err := h.ranker.RankRelated(r.Context(), target, candidates, limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadGateway,
			"Failed to rank related tasks", err)
		return
	}

	resp := RelatedTasksResponse{TaskID: taskID, Related: make([]RelatedItem, 0, len(ranked))}
	for _, item := range ranked {
		resp.Related = append(resp.Related, RelatedItem{Task: item.Task, Score: item.Score})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// pathID parses the {id} path parameter. On failure it writes a 400 and
// returns false.
func (h *TaskHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps a service error to its status code and safe
// message, logging the original.
func (h *TaskHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
