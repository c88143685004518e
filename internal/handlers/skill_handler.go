package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/google/uuid"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/middleware"
	"github.com/skillshare/backend/internal/models"
	"github.com/skillshare/backend/internal/services"
)

type SkillCatalog interface {
	Create(ctx context.Context, in services.CreateSkillInput) (*models.Skill, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Skill, error)
	Deactivate(ctx context.Context, id, caller uuid.UUID) (*models.Skill, error)
}

type SkillSearch interface {
	Nearby(ctx context.Context, opts services.SearchOptions) ([]services.RankedSkill, error)
	List(ctx context.Context, opts services.ListOptions) ([]services.RankedSkill, error)
}

type ReviewBook interface {
	Create(ctx context.Context, req services.ReviewRequest) (*models.Review, error)
	ListForSkill(ctx context.Context, skillID uuid.UUID) ([]*models.Review, error)
}

// SkillHandler serves /api/skills.
type SkillHandler struct {
	Catalog SkillCatalog
	Search  SkillSearch
	Reviews ReviewBook
	Logger  *slog.Logger
}

type createSkillRequest struct {
	OwnerID      *uuid.UUID `json:"owner_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	PriceCredits int        `json:"price_credits"`
	Lat          float64    `json:"lat"`
	Lng          float64    `json:"lng"`
}

type createReviewRequest struct {
	BookingID uuid.UUID `json:"booking_id"`
	Stars     int       `json:"stars"`
	Comment   string    `json:"comment"`
}

// List handles GET /api/skills?category&lat&lng&radius&limit.
func (h *SkillHandler) List(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	lng, err := queryFloat(r, "lng")
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	radius, err := queryFloat(r, "radius")
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	opts := services.ListOptions{Category: r.URL.Query().Get("category"), Lat: lat, Lng: lng, Limit: limit}
	if radius != nil {
		if *radius <= 0 || math.IsNaN(*radius) || math.IsInf(*radius, 0) {
			apperr.Write(w, h.Logger, apperr.Invalid("radius must be a positive number"))
			return
		}
		opts.RadiusKm = *radius
	}
	skills, err := h.Search.List(r.Context(), opts)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, skills)
}

// Nearby handles GET /api/skills/nearby.
func (h *SkillHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	opts, err := searchOptionsFromQuery(r)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	skills, err := h.Search.Nearby(r.Context(), opts)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, skills)
}

func searchOptionsFromQuery(r *http.Request) (services.SearchOptions, error) {
	var opts services.SearchOptions
	lat, err := queryFloat(r, "lat")
	if err != nil {
		return opts, err
	}
	lng, err := queryFloat(r, "lng")
	if err != nil {
		return opts, err
	}
	if lat == nil || lng == nil {
		return opts, apperr.Invalid("valid latitude and longitude are required")
	}
	opts = services.DefaultSearchOptions(*lat, *lng)
	q := r.URL.Query()
	if c := q.Get("category"); c != "" {
		opts.Category = c
	}
	if s := q.Get("sortBy"); s != "" {
		opts.SortBy = s
	}
	if radius, err := queryFloat(r, "radius"); err != nil {
		return opts, err
	} else if radius != nil {
		opts.RadiusKm = *radius
	}
	if minRating, err := queryFloat(r, "minRating"); err != nil {
		return opts, err
	} else if minRating != nil {
		opts.MinRating = *minRating
	}
	if opts.MaxPrice, err = queryInt(r, "maxPrice", math.MaxInt); err != nil {
		return opts, err
	}
	if opts.Limit, err = queryInt(r, "limit", 0); err != nil {
		return opts, err
	}
	return opts, nil
}

// Create handles POST /api/skills. The owner defaults to the signed-in user.
func (h *SkillHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSkillRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	owner, err := actingUser(r, req.OwnerID)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	skill, err := h.Catalog.Create(r.Context(), services.CreateSkillInput{
		OwnerID:      owner,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		PriceCredits: req.PriceCredits,
		Lat:          req.Lat,
		Lng:          req.Lng,
	})
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

// Get handles GET /api/skills/{id}.
func (h *SkillHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	skill, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

// Deactivate handles DELETE /api/skills/{id}.
func (h *SkillHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
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
	skill, err := h.Catalog.Deactivate(r.Context(), id, caller)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

// ListReviews handles GET /api/skills/{id}/reviews.
func (h *SkillHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	reviews, err := h.Reviews.ListForSkill(r.Context(), id)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// CreateReview handles POST /api/skills/{id}/reviews.
func (h *SkillHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
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
	var req createReviewRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	rv, err := h.Reviews.Create(r.Context(), services.ReviewRequest{
		SkillID:    id,
		ReviewerID: caller,
		BookingID:  req.BookingID,
		Stars:      req.Stars,
		Comment:    req.Comment,
	})
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

// actingUser resolves who a write is made for: the explicit id from the
// body, the signed-in user, or both when they agree.
func actingUser(r *http.Request, explicit *uuid.UUID) (uuid.UUID, error) {
	caller, authed := middleware.UserIDFromCtx(r.Context())
	switch {
	case explicit != nil && authed && *explicit != caller:
		return uuid.Nil, fmt.Errorf("cannot act for another user: %w", apperr.ErrAccessDenied)
	case explicit != nil:
		return *explicit, nil
	case authed:
		return caller, nil
	}
	return uuid.Nil, apperr.ErrUnauthorized
}
