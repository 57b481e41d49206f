package memory

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/neuraplay/recall/internal/api"
	"github.com/neuraplay/recall/internal/auth"
)

// StoreMemoryRequest is the payload for storing one memory.
type StoreMemoryRequest struct {
	Key      string         `json:"key" validate:"required,min=1,max=255"`
	Content  string         `json:"content" validate:"required,min=1,max=8192"`
	Metadata map[string]any `json:"metadata"`
}

// SearchMemoryRequest is the payload for a semantic search.
type SearchMemoryRequest struct {
	Query     string  `json:"query" validate:"required,min=1,max=2048"`
	Limit     int     `json:"limit" validate:"omitempty,min=1,max=50"`
	Threshold float64 `json:"threshold" validate:"omitempty,min=0,max=1"`
	Filters   Filters `json:"filters"`

	// caller intent signals for the scorer
	QueryType       string `json:"query_type" validate:"omitempty,oneof=greeting recall chat dashboard learning"`
	Category        string `json:"category"`
	ResolvedPronoun string `json:"resolved_pronoun"`
	CurrentCourse   string `json:"current_course"`
}

// Handler handles memory HTTP endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler creates a new memory handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// Store persists one memory for the authenticated user.
func (h *Handler) Store(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req StoreMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	rec, err := h.svc.Store(r.Context(), claims.UserID, req.Key, req.Content, req.Metadata)
	if err != nil {
		slog.Error("storing memory", "user_id", claims.UserID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	rec.Embedding = nil
	api.JSON(w, http.StatusCreated, rec)
}

// Search runs a semantic search over the user's memories.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req SearchMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	qctx := NewQueryContext(req.QueryType, req.Query)
	qctx.Category = req.Category
	qctx.ResolvedPronoun = req.ResolvedPronoun
	qctx.CurrentCourse = req.CurrentCourse
	qctx.IsDashboardQuery = req.QueryType == "dashboard"

	resp := h.svc.Search(r.Context(), claims.UserID, req.Query, req.Filters, req.Limit, req.Threshold, qctx)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// List returns paginated memories for the authenticated user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	page := 1
	pageSize := 20
	if p := r.URL.Query().Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	records, totalCount, err := h.svc.List(r.Context(), claims.UserID, page, pageSize)
	if err != nil {
		slog.Error("listing memories", "user_id", claims.UserID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	for i := range records {
		records[i].Embedding = nil
	}

	api.JSONPaginated(w, http.StatusOK, records, totalCount, page, pageSize)
}

// Delete removes one memory owned by the authenticated user.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "memoryID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid memory id"))
		return
	}

	if err := h.svc.Delete(r.Context(), claims.UserID, id); err != nil {
		api.HandleError(w, api.NewNotFoundError("memory not found"))
		return
	}

	api.JSONMessage(w, http.StatusOK, "memory deleted")
}

// Capabilities reports which search tiers the deployment can serve from.
func (h *Handler) Capabilities(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, h.svc.Capabilities(r.Context()))
}
