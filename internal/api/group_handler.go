package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daybookhq/daybook-api/internal/api/middleware"
	"github.com/daybookhq/daybook-api/internal/api/shared"
	"github.com/daybookhq/daybook-api/internal/domain"
	"github.com/daybookhq/daybook-api/internal/service"
)

// GroupHandler handles task group HTTP requests.
type GroupHandler struct {
	groupService service.TaskGroupService
	logger       *slog.Logger
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService service.TaskGroupService, log *slog.Logger) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		logger:       log.With(slog.String("component", "group_handler")),
	}
}

// CreateGroup handles POST /groups.
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateGroupRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	group, err := h.groupService.Create(r.Context(), userID, req.Name, req.Color)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, group)
}

// ListGroups handles GET /groups.
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	groups, err := h.groupService.ListByUser(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if groups == nil {
		groups = []*domain.TaskGroup{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, groups)
}

// GetGroup handles GET /groups/{id}.
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	groupID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	group, err := h.groupService.Get(r.Context(), userID, groupID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, group)
}

// UpdateGroup handles PUT /groups/{id}.
func (h *GroupHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	groupID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req UpdateGroupRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	group, err := h.groupService.Update(r.Context(), userID, &domain.TaskGroup{
		ID:       groupID,
		Name:     req.Name,
		Color:    req.Color,
		Position: req.Position,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, group)
}

// DeleteGroup handles DELETE /groups/{id}. Member tasks survive the delete;
// only their group reference is cleared.
func (h *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	groupID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.groupService.Delete(r.Context(), userID, groupID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusNoContent, nil)
}

func (h *GroupHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid group ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *GroupHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
