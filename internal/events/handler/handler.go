package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"egresados/internal/events/models"
	"egresados/internal/platform/blob"
	"egresados/internal/platform/middleware"
	id "egresados/pkg/domain"
	dErrors "egresados/pkg/domain-errors"
	"egresados/pkg/platform/httputil"
	"egresados/pkg/requestcontext"
)

// Service defines the event operations exposed over HTTP.
type Service interface {
	ListForUser(ctx context.Context, userID id.UserID) ([]models.EventView, error)
	Get(ctx context.Context, eventID id.EventID, viewer id.UserID) (*models.EventView, error)
	Create(ctx context.Context, d models.Draft) (*models.Event, error)
	Update(ctx context.Context, eventID id.EventID, d models.Draft) (*models.Event, error)
	Delete(ctx context.Context, eventID id.EventID) error
	Register(ctx context.Context, eventID id.EventID, userID id.UserID, responses map[string]string) (*models.Registration, bool, error)
	ListParticipants(ctx context.Context, eventID id.EventID) ([]models.Participant, error)
	SetAttendance(ctx context.Context, eventID id.EventID, userID id.UserID, attended bool) (*models.Registration, error)
	Image(ctx context.Context, eventID id.EventID) (blob.Object, error)
}

// Handler serves the event catalog and registration endpoints.
type Handler struct {
	events Service
	logger *slog.Logger
}

// New creates a new events Handler.
func New(events Service, logger *slog.Logger) *Handler {
	return &Handler{events: events, logger: logger}
}

// Register registers the event routes. r must already authenticate callers.
func (h *Handler) Register(r chi.Router) {
	r.Get("/events", h.handleList)
	r.Get("/events/{id}", h.handleGet)
	r.Get("/events/{id}/image", h.handleImage)
	r.Post("/events/{id}/register", h.handleRegister)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(h.logger, requestcontext.RoleAdmin))
		admin.Post("/events", h.handleCreate)
		admin.Put("/events/{id}", h.handleUpdate)
		admin.Delete("/events/{id}", h.handleDelete)
		admin.Get("/events/{id}/participants", h.handleParticipants)
		admin.Post("/events/{id}/attendance/{userId}", h.handleAttendance)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	views, err := h.events.ListForUser(ctx, userID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list events", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	eventID, ok := h.pathEvent(w, r)
	if !ok {
		return
	}
	view, err := h.events.Get(ctx, eventID, userID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get event", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// handleImage streams the stored image bytes rather than JSON.
func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, ok := h.pathEvent(w, r)
	if !ok {
		return
	}
	obj, err := h.events.Image(ctx, eventID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load event image", err)
		return
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Data)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	eventID, ok := h.pathEvent(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	reg, created, err := h.events.Register(ctx, eventID, userID, req.FormResponses)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to register for event", err)
		return
	}
	if !created {
		httputil.WriteJSON(w, http.StatusOK, RegisterResponse{Message: "Already registered", Registration: reg})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{Message: "Registered successfully", Registration: reg})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[EventRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	e, err := h.events.Create(ctx, req.Draft())
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create event", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, ok := h.pathEvent(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[EventRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	e, err := h.events.Update(ctx, eventID, req.Draft())
	if err != nil {
		h.writeServiceError(ctx, w, "failed to update event", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, ok := h.pathEvent(w, r)
	if !ok {
		return
	}
	if err := h.events.Delete(ctx, eventID); err != nil {
		h.writeServiceError(ctx, w, "failed to delete event", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Event deleted successfully"})
}

func (h *Handler) handleParticipants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, ok := h.pathEvent(w, r)
	if !ok {
		return
	}
	participants, err := h.events.ListParticipants(ctx, eventID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list participants", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, participants)
}

func (h *Handler) handleAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, ok := h.pathEvent(w, r)
	if !ok {
		return
	}
	userID, err := id.ParseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		h.writeServiceError(ctx, w, "invalid user id in path", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AttendanceRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	reg, err := h.events.SetAttendance(ctx, eventID, userID, *req.Attended)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to set attendance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
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

func (h *Handler) pathEvent(w http.ResponseWriter, r *http.Request) (id.EventID, bool) {
	eventID, err := id.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(r.Context(), w, "invalid event id in path", err)
		return id.EventID{}, false
	}
	return eventID, true
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
