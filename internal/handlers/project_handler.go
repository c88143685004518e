package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/middleware"
	"github.com/skillshare/backend/internal/models"
)

type ProjectBoard interface {
	Create(ctx context.Context, creatorID uuid.UUID, title, description string, maxVolunteers int) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	Join(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error)
}

// ProjectHandler serves /api/projects.
type ProjectHandler struct {
	Projects ProjectBoard
	Logger   *slog.Logger
}

type createProjectRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	MaxVolunteers int    `json:"max_volunteers"`
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Projects.List(r.Context())
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		apperr.Write(w, h.Logger, apperr.ErrUnauthorized)
		return
	}
	var req createProjectRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	p, err := h.Projects.Create(r.Context(), caller, req.Title, req.Description, req.MaxVolunteers)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProjectHandler) Join(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		apperr.Write(w, h.Logger, apperr.ErrUnauthorized)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	p, err := h.Projects.Join(r.Context(), id, caller)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
