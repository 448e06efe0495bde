package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"egresados/internal/history/models"
	"egresados/internal/platform/middleware"
	id "egresados/pkg/domain"
	dErrors "egresados/pkg/domain-errors"
	"egresados/pkg/platform/httputil"
	"egresados/pkg/requestcontext"
)

type Service interface {
	UserHistory(ctx context.Context, userID id.UserID) ([]models.EnrichedEntry, error)
	RecentChanges(ctx context.Context, limit int) ([]models.EnrichedEntry, error)
}

// Handler exposes the change audit log to administrators.
type Handler struct {
	history Service
	logger  *slog.Logger
}

func New(history Service, logger *slog.Logger) *Handler {
	return &Handler{history: history, logger: logger}
}

// Register registers the admin history routes. r must already authenticate callers.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(h.logger, requestcontext.RoleAdmin))
		admin.Get("/admin/users/{id}/history", h.handleUserHistory)
		admin.Get("/admin/history", h.handleRecent)
	})
}

func (h *Handler) handleUserHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid user id in path", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.history.UserHistory(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get user history", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.logger.WarnContext(ctx, "invalid history limit", "request_id", requestID, "limit", raw)
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.history.RecentChanges(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get global history", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}
