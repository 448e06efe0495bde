package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	histmodels "egresados/internal/history/models"
	"egresados/internal/platform/metrics"
	"egresados/internal/profile/models"
	id "egresados/pkg/domain"
	dErrors "egresados/pkg/domain-errors"
	"egresados/pkg/platform/sentinel"
	"egresados/pkg/platform/tx"
	"egresados/pkg/requestcontext"
)

// RecentWindow is the look-back period of CountRecentlyUpdated.
const RecentWindow = 30 * 24 * time.Hour

type ProfileStore interface {
	FindByUserID(ctx context.Context, userID id.UserID) (*models.Profile, error)
	FindByUserIDForUpdate(ctx context.Context, userID id.UserID) (*models.Profile, error)
	Create(ctx context.Context, p *models.Profile) error
	Update(ctx context.Context, p *models.Profile) error
	CountUpdatedSince(ctx context.Context, since time.Time) (int, error)
}

type AuditLog interface {
	Append(ctx context.Context, entry *histmodels.Entry) error
}

// Notifier receives a notice after each committed profile write.
type Notifier interface {
	ProfileChanged(ctx context.Context, notice models.ChangeNotice) error
}

// Tracker applies partial profile updates and records one audit entry per changed field.
type Tracker struct {
	profiles ProfileStore
	audit    AuditLog
	tx       tx.Runner
	logger   *slog.Logger
	metrics  *metrics.Metrics
	notifier Notifier
	tracer   trace.Tracer
}

type Option func(t *Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(t *Tracker) {
		t.notifier = n
	}
}

// New constructs a Tracker. profiles and audit must take part in runner's transactions.
func New(profiles ProfileStore, audit AuditLog, runner tx.Runner, opts ...Option) *Tracker {
	t := &Tracker{
		profiles: profiles,
		audit:    audit,
		tx:       runner,
		logger:   slog.Default(),
		tracer:   otel.Tracer("egresados/profile"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ApplyUpdate applies patch to the profile of userID on behalf of changedBy.
//
// The first write for a user creates the profile and records a single synthetic
// "perfil/Creado" entry. Later writes record one entry per supplied field whose
// normalized value differs and stamp UpdatedAt only when something changed.
// The profile write and its entries commit atomically.
func (t *Tracker) ApplyUpdate(ctx context.Context, userID, changedBy id.UserID, patch models.Patch) (*models.Profile, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	if changedBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "changed_by is required")
	}

	ctx, span := t.tracer.Start(ctx, "profile.ApplyUpdate", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
		attribute.Int("patch_size", len(patch)),
	))
	defer span.End()

	now := requestcontext.Now(ctx)
	var (
		result  *models.Profile
		created bool
		changes []models.FieldChange
	)
	err := t.tx.RunInTx(ctx, func(ctx context.Context) error {
		// A concurrent first write may insert the row between our read and insert;
		// the second pass then takes the update path against the committed row.
		for range 2 {
			current, err := t.profiles.FindByUserIDForUpdate(ctx, userID)
			if errors.Is(err, sentinel.ErrNotFound) {
				p := &models.Profile{UserID: userID, UpdatedAt: now}
				models.Apply(p, patch)
				err := t.profiles.Create(ctx, p)
				if errors.Is(err, sentinel.ErrAlreadyUsed) {
					continue
				}
				if err != nil {
					return err
				}
				if err := t.audit.Append(ctx, histmodels.NewCreatedEntry(userID, changedBy, now)); err != nil {
					return err
				}
				result, created = p, true
				return nil
			}
			if err != nil {
				return err
			}

			changes = models.Diff(current, patch)
			if len(changes) == 0 {
				result = current
				return nil
			}
			for _, c := range changes {
				entry := histmodels.NewFieldEntry(userID, changedBy, c.Field, c.OldValue, c.NewValue, now)
				if err := t.audit.Append(ctx, entry); err != nil {
					return err
				}
			}
			models.ApplyChanges(current, changes)
			current.UpdatedAt = now
			if err := t.profiles.Update(ctx, current); err != nil {
				return err
			}
			result = current
			return nil
		}
		return sentinel.ErrAlreadyUsed
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply update failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}

	fields := make([]string, 0, len(changes))
	for _, c := range changes {
		fields = append(fields, c.Field)
	}
	span.SetAttributes(attribute.Bool("created", created), attribute.Int("changed_fields", len(fields)))

	switch {
	case created:
		t.incrementProfilesCreated()
		t.logAudit(ctx, "profile_created", "user_id", userID, "changed_by", changedBy)
	case len(fields) > 0:
		t.observeFieldChanges(fields)
		t.logAudit(ctx, "profile_updated", "user_id", userID, "changed_by", changedBy, "fields", fields)
	default:
		return result, nil
	}

	t.notify(ctx, models.ChangeNotice{
		UserID:    userID,
		ChangedBy: changedBy,
		Created:   created,
		Fields:    fields,
		At:        now,
	})
	return result, nil
}

// Get returns the profile of userID.
func (t *Tracker) Get(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	p, err := t.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return p, nil
}

// CountRecentlyUpdated counts profiles written within RecentWindow of the request time.
func (t *Tracker) CountRecentlyUpdated(ctx context.Context) (int, error) {
	n, err := t.profiles.CountUpdatedSince(ctx, requestcontext.Now(ctx).Add(-RecentWindow))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count updated profiles")
	}
	return n, nil
}

func (t *Tracker) notify(ctx context.Context, notice models.ChangeNotice) {
	if t.notifier == nil {
		return
	}
	if err := t.notifier.ProfileChanged(ctx, notice); err != nil {
		t.logger.WarnContext(ctx, "profile change notification failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", notice.UserID,
			"error", err,
		)
	}
}

func (t *Tracker) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	t.logger.InfoContext(ctx, event, args...)
}

func (t *Tracker) incrementProfilesCreated() {
	if t.metrics != nil {
		t.metrics.IncrementProfilesCreated()
	}
}

func (t *Tracker) observeFieldChanges(fields []string) {
	if t.metrics != nil {
		t.metrics.ObserveFieldChanges(fields)
	}
}
