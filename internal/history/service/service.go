// Package service serves the profile change audit log to administrators.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	dirmodels "egresados/internal/directory/models"
	"egresados/internal/history/models"
	id "egresados/pkg/domain"
	dErrors "egresados/pkg/domain-errors"
	"egresados/pkg/requestcontext"
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 200
)

type Store interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]models.Entry, error)
	ListRecent(ctx context.Context, limit int) ([]models.Entry, error)
}

// Directory resolves user ids to their current identity.
type Directory interface {
	Lookup(ctx context.Context, ids []id.UserID) (map[id.UserID]dirmodels.Identity, error)
}

type Service struct {
	entries   Store
	directory Directory
	logger    *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(entries Store, directory Directory, opts ...Option) *Service {
	s := &Service{
		entries:   entries,
		directory: directory,
		logger:    slog.Default(),
		tracer:    otel.Tracer("egresados/history"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserHistory returns every change recorded for userID, newest first,
// with the actor's email resolved.
func (s *Service) UserHistory(ctx context.Context, userID id.UserID) ([]models.EnrichedEntry, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	ctx, span := s.tracer.Start(ctx, "history.UserHistory", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
	))
	defer span.End()

	entries, err := s.entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load history")
	}
	return s.enrich(ctx, entries, false), nil
}

// RecentChanges returns the latest changes across all users. A non-positive
// limit selects DefaultRecentLimit; larger values are capped at MaxRecentLimit.
func (s *Service) RecentChanges(ctx context.Context, limit int) ([]models.EnrichedEntry, error) {
	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}
	ctx, span := s.tracer.Start(ctx, "history.RecentChanges", trace.WithAttributes(
		attribute.Int("limit", limit),
	))
	defer span.End()

	entries, err := s.entries.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load history")
	}
	return s.enrich(ctx, entries, true), nil
}

// enrich attaches directory emails. A directory failure leaves emails blank
// rather than failing the read.
func (s *Service) enrich(ctx context.Context, entries []models.Entry, withSubject bool) []models.EnrichedEntry {
	out := make([]models.EnrichedEntry, len(entries))
	if len(entries) == 0 {
		return out
	}

	seen := make(map[id.UserID]struct{})
	var ids []id.UserID
	add := func(u id.UserID) {
		if _, ok := seen[u]; !ok {
			seen[u] = struct{}{}
			ids = append(ids, u)
		}
	}
	for _, e := range entries {
		add(e.ChangedBy)
		if withSubject {
			add(e.UserID)
		}
	}

	identities, err := s.directory.Lookup(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "directory lookup failed, returning history without emails",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		identities = nil
	}

	for i, e := range entries {
		out[i] = models.EnrichedEntry{Entry: e, ChangedByEmail: identities[e.ChangedBy].Email}
		if withSubject {
			out[i].UserEmail = identities[e.UserID].Email
		}
	}
	return out
}
