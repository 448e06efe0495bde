package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"egresados/internal/platform/middleware"
	"egresados/internal/profile/models"
	id "egresados/pkg/domain"
	dErrors "egresados/pkg/domain-errors"
	"egresados/pkg/platform/httputil"
	"egresados/pkg/requestcontext"
)

// Service defines the profile operations exposed over HTTP.
type Service interface {
	Get(ctx context.Context, userID id.UserID) (*models.Profile, error)
	ApplyUpdate(ctx context.Context, userID, changedBy id.UserID, patch models.Patch) (*models.Profile, error)
	CountRecentlyUpdated(ctx context.Context) (int, error)
}

// MetricsResponse is the admin dashboard summary.
type MetricsResponse struct {
	RecentlyUpdated int `json:"recently_updated"`
}

// Handler serves the self-service and admin profile endpoints.
type Handler struct {
	profiles Service
	logger   *slog.Logger
}

// New creates a new profile Handler.
func New(profiles Service, logger *slog.Logger) *Handler {
	return &Handler{profiles: profiles, logger: logger}
}

// Register registers the profile routes. r must already authenticate callers.
func (h *Handler) Register(r chi.Router) {
	r.Get("/profile", h.handleGetOwn)
	r.Put("/profile", h.handleUpdateOwn)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(h.logger, requestcontext.RoleAdmin))
		admin.Get("/admin/users/{id}/profile", h.handleGetUser)
		admin.Put("/admin/users/{id}/profile", h.handleUpdateUser)
		admin.Get("/admin/metrics", h.handleMetrics)
	})
}

func (h *Handler) handleGetOwn(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	h.get(w, r, userID)
}

func (h *Handler) handleUpdateOwn(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	h.update(w, r, userID, userID)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUser(w, r)
	if !ok {
		return
	}
	h.get(w, r, userID)
}

// handleUpdateUser lets an administrator edit a profile on the owner's behalf.
// The audit entries name the administrator as the actor.
func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.caller(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathUser(w, r)
	if !ok {
		return
	}
	h.update(w, r, userID, adminID)
}

// handleMetrics reports how many profiles were written in the last 30 days.
func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.profiles.CountRecentlyUpdated(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to compute metrics", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MetricsResponse{RecentlyUpdated: n})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, userID id.UserID) {
	ctx := r.Context()
	p, err := h.profiles.Get(ctx, userID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, userID, changedBy id.UserID) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpdateProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.profiles.ApplyUpdate(ctx, userID, changedBy, req.Patch())
	if err != nil {
		h.writeServiceError(ctx, w, "failed to update profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return userID, true
}

func (h *Handler) pathUser(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid user id in path",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return id.UserID{}, false
	}
	return userID, true
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if de, ok := dErrors.As(err); ok && dErrors.ToHTTPStatus(de.Code) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
	} else {
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
	}
	httputil.WriteError(w, err)
}
