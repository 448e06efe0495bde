package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	dirmodels "egresados/internal/directory/models"
	"egresados/internal/events/models"
	"egresados/internal/platform/blob"
	"egresados/internal/platform/metrics"
	profilemodels "egresados/internal/profile/models"
	id "egresados/pkg/domain"
	dErrors "egresados/pkg/domain-errors"
	"egresados/pkg/email"
	"egresados/pkg/platform/dataurl"
	"egresados/pkg/platform/sentinel"
	"egresados/pkg/platform/tx"
	"egresados/pkg/requestcontext"
)

// Registration outcomes reported to metrics.
const (
	outcomeCreated  = "created"
	outcomeExisting = "existing"
	outcomeRejected = "rejected"
)

type Catalog interface {
	List(ctx context.Context) ([]*models.Event, error)
	FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error)
	FindByIDForUpdate(ctx context.Context, eventID id.EventID) (*models.Event, error)
	Insert(ctx context.Context, e *models.Event) error
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, eventID id.EventID) error
}

type Ledger interface {
	Insert(ctx context.Context, r *models.Registration) error
	Find(ctx context.Context, eventID id.EventID, userID id.UserID) (*models.Registration, error)
	ListByEvent(ctx context.Context, eventID id.EventID) ([]*models.Registration, error)
	EventIDsForUser(ctx context.Context, userID id.UserID) (map[id.EventID]struct{}, error)
	CountByEvent(ctx context.Context, eventID id.EventID) (int, error)
	SetAttended(ctx context.Context, eventID id.EventID, userID id.UserID, attended bool) error
	DeleteByEvent(ctx context.Context, eventID id.EventID) error
}

type Directory interface {
	Lookup(ctx context.Context, ids []id.UserID) (map[id.UserID]dirmodels.Identity, error)
}

type Profiles interface {
	FindByUserIDs(ctx context.Context, ids []id.UserID) (map[id.UserID]*profilemodels.Profile, error)
}

// ImageStore holds uploaded event images. Without one, images are kept inline with the event.
type ImageStore interface {
	Put(ctx context.Context, key string, obj blob.Object) error
	Get(ctx context.Context, key string) (blob.Object, error)
	Delete(ctx context.Context, key string) error
}

// Service gates and records event registrations.
type Service struct {
	catalog   Catalog
	ledger    Ledger
	tx        tx.Runner
	directory Directory
	profiles  Profiles
	images    ImageStore
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithImageStore(images ImageStore) Option {
	return func(s *Service) {
		s.images = images
	}
}

// New constructs a Service. catalog and ledger must take part in runner's transactions.
func New(catalog Catalog, ledger Ledger, runner tx.Runner, directory Directory, profiles Profiles, opts ...Option) *Service {
	s := &Service{
		catalog:   catalog,
		ledger:    ledger,
		tx:        runner,
		directory: directory,
		profiles:  profiles,
		logger:    slog.Default(),
		tracer:    otel.Tracer("egresados/events"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errEventNotFound = dErrors.New(dErrors.CodeNotFound, "Event not found")

// ListForUser returns every event, date ascending, flagged with whether userID is registered.
// Past events stay listed.
func (s *Service) ListForUser(ctx context.Context, userID id.UserID) ([]models.EventView, error) {
	ctx, span := s.tracer.Start(ctx, "events.ListForUser")
	defer span.End()

	var (
		events     []*models.Event
		registered map[id.EventID]struct{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = s.catalog.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		registered, err = s.ledger.EventIDsForUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(span, err, "failed to list events")
	}

	views := make([]models.EventView, len(events))
	for i, e := range events {
		_, ok := registered[e.ID]
		views[i] = models.EventView{Event: e, IsRegistered: ok}
	}
	return views, nil
}

// Get returns one event as seen by viewer.
func (s *Service) Get(ctx context.Context, eventID id.EventID, viewer id.UserID) (*models.EventView, error) {
	e, err := s.catalog.FindByID(ctx, eventID)
	if err != nil {
		return nil, translateEventErr(err, "failed to get event")
	}
	_, err = s.ledger.Find(ctx, eventID, viewer)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get event")
	}
	e.HasImage = e.HasStoredImage()
	return &models.EventView{Event: e, IsRegistered: err == nil}, nil
}

// Create validates and stores a new event. The date must not be before the request time.
func (s *Service) Create(ctx context.Context, d models.Draft) (*models.Event, error) {
	ctx, span := s.tracer.Start(ctx, "events.Create")
	defer span.End()

	now := requestcontext.Now(ctx)
	date, err := validateDraft(d, now, "Cannot create event in the past")
	if err != nil {
		return nil, err
	}
	questions, err := models.NormalizeQuestions(d.FormQuestions)
	if err != nil {
		return nil, err
	}

	e := &models.Event{
		ID:            id.NewEventID(),
		Title:         strings.TrimSpace(d.Title),
		Description:   strings.TrimSpace(d.Description),
		Date:          date,
		Location:      strings.TrimSpace(d.Location),
		ImageURL:      strings.TrimSpace(d.ImageURL),
		FormQuestions: questions,
		CreatedAt:     now,
	}
	span.SetAttributes(attribute.String("event_id", e.ID.String()))

	if d.Image != "" {
		if err := s.attachImage(ctx, e, d.Image); err != nil {
			return nil, err
		}
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.catalog.Insert(ctx, e)
	})
	if err != nil {
		s.discardImage(ctx, e.ImageKey)
		return nil, s.fail(span, err, "failed to create event")
	}

	s.incrementEventsCreated()
	s.logAudit(ctx, "event_created", "event_id", e.ID, "event_date", e.Date)
	e.HasImage = e.HasStoredImage()
	return e, nil
}

// Update edits an event that has not started yet. Questions are frozen once
// anyone has registered because answers are keyed by question text. The image
// is replaced only when a new one is supplied.
func (s *Service) Update(ctx context.Context, eventID id.EventID, d models.Draft) (*models.Event, error) {
	ctx, span := s.tracer.Start(ctx, "events.Update", trace.WithAttributes(
		attribute.String("event_id", eventID.String()),
	))
	defer span.End()

	now := requestcontext.Now(ctx)
	date, err := validateDraft(d, now, "Cannot move an event into the past")
	if err != nil {
		return nil, err
	}
	var questions []models.Question
	if d.FormQuestions != nil {
		if questions, err = models.NormalizeQuestions(d.FormQuestions); err != nil {
			return nil, err
		}
	}

	staged := &models.Event{ID: eventID}
	if d.Image != "" {
		if err := s.attachImage(ctx, staged, d.Image); err != nil {
			return nil, err
		}
	}

	var (
		result   *models.Event
		oldImage string
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.catalog.FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if current.Started(now) {
			return dErrors.New(dErrors.CodeValidation, "Cannot edit an event that has already started")
		}
		if questions != nil && !models.SameQuestions(current.FormQuestions, questions) {
			n, err := s.ledger.CountByEvent(ctx, eventID)
			if err != nil {
				return err
			}
			if n > 0 {
				return dErrors.New(dErrors.CodeConflict, "Form questions cannot change once participants have registered")
			}
			current.FormQuestions = questions
		}

		current.Title = strings.TrimSpace(d.Title)
		current.Description = strings.TrimSpace(d.Description)
		current.Date = date
		current.Location = strings.TrimSpace(d.Location)
		if d.ImageURL != "" {
			current.ImageURL = strings.TrimSpace(d.ImageURL)
		}
		if staged.HasStoredImage() {
			oldImage = current.ImageKey
			current.ImageKey = staged.ImageKey
			current.ImageData = staged.ImageData
			current.ImageContentType = staged.ImageContentType
		}
		if err := s.catalog.Update(ctx, current); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		s.discardImage(ctx, staged.ImageKey)
		if _, ok := dErrors.As(err); ok {
			return nil, err
		}
		return nil, s.fail(span, err, "failed to update event")
	}

	s.discardImage(ctx, oldImage)
	s.logAudit(ctx, "event_updated", "event_id", eventID)
	result.HasImage = result.HasStoredImage()
	return result, nil
}

// Delete removes an event together with its registrations.
func (s *Service) Delete(ctx context.Context, eventID id.EventID) error {
	ctx, span := s.tracer.Start(ctx, "events.Delete", trace.WithAttributes(
		attribute.String("event_id", eventID.String()),
	))
	defer span.End()

	var imageKey string
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		e, err := s.catalog.FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		imageKey = e.ImageKey
		if err := s.ledger.DeleteByEvent(ctx, eventID); err != nil {
			return err
		}
		return s.catalog.Delete(ctx, eventID)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return errEventNotFound
		}
		return s.fail(span, err, "failed to delete event")
	}

	s.discardImage(ctx, imageKey)
	s.logAudit(ctx, "event_deleted", "event_id", eventID)
	return nil
}

// Register enrolls userID in an event that has not passed, after checking the
// answers against the event's questions. Repeating the call returns the stored
// registration; created reports whether this call made it.
func (s *Service) Register(ctx context.Context, eventID id.EventID, userID id.UserID, responses map[string]string) (reg *models.Registration, created bool, err error) {
	if userID.IsNil() {
		return nil, false, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	ctx, span := s.tracer.Start(ctx, "events.Register", trace.WithAttributes(
		attribute.String("event_id", eventID.String()),
		attribute.String("user_id", userID.String()),
	))
	defer span.End()
	defer func() {
		switch {
		case err != nil:
			s.observeRegistration(outcomeRejected)
		case created:
			s.observeRegistration(outcomeCreated)
		default:
			s.observeRegistration(outcomeExisting)
		}
	}()

	now := requestcontext.Now(ctx)
	e, err := s.catalog.FindByID(ctx, eventID)
	if err != nil {
		return nil, false, translateEventErr(err, "failed to register")
	}
	if e.Date.Before(now) {
		return nil, false, dErrors.New(dErrors.CodeValidation, "Cannot register for past events")
	}
	// A repeated attempt returns the existing registration whatever answers it carries.
	existing, err := s.ledger.Find(ctx, eventID, userID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, s.fail(span, err, "failed to register")
	}
	answers, err := models.CheckResponses(e.FormQuestions, responses)
	if err != nil {
		return nil, false, err
	}

	r := &models.Registration{
		EventID:       eventID,
		UserID:        userID,
		RegisteredAt:  now,
		FormResponses: answers,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		err := s.ledger.Insert(ctx, r)
		if !errors.Is(err, sentinel.ErrAlreadyUsed) {
			created = err == nil
			return err
		}
		r, err = s.ledger.Find(ctx, eventID, userID)
		return err
	})
	if err != nil {
		return nil, false, s.fail(span, err, "failed to register")
	}
	if !created {
		return r, false, nil
	}

	s.logAudit(ctx, "event_registration_created", "event_id", eventID, "user_id", userID)
	return r, true, nil
}

// ListParticipants returns the event's registrations, newest first, joined
// with each registrant's email, name, phone and academic program.
func (s *Service) ListParticipants(ctx context.Context, eventID id.EventID) ([]models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "events.ListParticipants", trace.WithAttributes(
		attribute.String("event_id", eventID.String()),
	))
	defer span.End()

	if _, err := s.catalog.FindByID(ctx, eventID); err != nil {
		return nil, translateEventErr(err, "failed to list participants")
	}
	regs, err := s.ledger.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, s.fail(span, err, "failed to list participants")
	}
	out := make([]models.Participant, 0, len(regs))
	if len(regs) == 0 {
		return out, nil
	}

	ids := make([]id.UserID, len(regs))
	for i, r := range regs {
		ids[i] = r.UserID
	}
	var (
		identities map[id.UserID]dirmodels.Identity
		profiles   map[id.UserID]*profilemodels.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		identities, err = s.directory.Lookup(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		profiles, err = s.profiles.FindByUserIDs(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(span, err, "failed to list participants")
	}

	for _, r := range regs {
		p := models.Participant{
			UserID:        r.UserID,
			RegisteredAt:  r.RegisteredAt,
			Email:         identities[r.UserID].Email,
			Attended:      r.Attended,
			FormResponses: r.FormResponses,
		}
		if prof, ok := profiles[r.UserID]; ok {
			p.Nombre = prof.Nombre
			p.Telefono = prof.Telefono
			p.ProgramaAcademico = prof.ProgramaAcademico
		}
		if p.Nombre == "" {
			p.Nombre = email.DisplayNameFromEmail(p.Email)
		}
		out = append(out, p)
	}
	return out, nil
}

// SetAttendance records whether a registrant attended. Setting the current
// value again is a no-op. No time window is enforced.
func (s *Service) SetAttendance(ctx context.Context, eventID id.EventID, userID id.UserID, attended bool) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "events.SetAttendance", trace.WithAttributes(
		attribute.String("event_id", eventID.String()),
		attribute.String("user_id", userID.String()),
		attribute.Bool("attended", attended),
	))
	defer span.End()

	var r *models.Registration
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.ledger.SetAttended(ctx, eventID, userID, attended); err != nil {
			return err
		}
		var err error
		r, err = s.ledger.Find(ctx, eventID, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Registration not found")
		}
		return nil, s.fail(span, err, "failed to set attendance")
	}

	s.incrementAttendanceMarked()
	s.logAudit(ctx, "event_attendance_set", "event_id", eventID, "user_id", userID, "attended", attended)
	return r, nil
}

// Image returns the uploaded image of an event.
func (s *Service) Image(ctx context.Context, eventID id.EventID) (blob.Object, error) {
	e, err := s.catalog.FindByID(ctx, eventID)
	if err != nil {
		return blob.Object{}, translateEventErr(err, "failed to load image")
	}
	noImage := dErrors.New(dErrors.CodeNotFound, "Event has no image")
	switch {
	case e.ImageKey != "":
		if s.images == nil {
			return blob.Object{}, dErrors.New(dErrors.CodeInternal, "image storage is not configured")
		}
		obj, err := s.images.Get(ctx, e.ImageKey)
		if errors.Is(err, sentinel.ErrNotFound) {
			return blob.Object{}, noImage
		}
		if err != nil {
			return blob.Object{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load image")
		}
		return obj, nil
	case len(e.ImageData) > 0:
		return blob.Object{ContentType: e.ImageContentType, Data: e.ImageData}, nil
	default:
		return blob.Object{}, noImage
	}
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// validateDraft checks the required fields and parses the date. pastMessage
// is reported when the date is before now.
func validateDraft(d models.Draft, now time.Time, pastMessage string) (time.Time, error) {
	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Date) == "" {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "Title and Date are required")
	}
	date, ok := parseDate(d.Date)
	if !ok {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "Invalid Date")
	}
	if date.Before(now) {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, pastMessage)
	}
	return date, nil
}

// attachImage decodes an uploaded image and stores it, in the image store when
// one is configured and inline otherwise.
func (s *Service) attachImage(ctx context.Context, e *models.Event, raw string) error {
	img, err := dataurl.Parse(raw)
	if err != nil || !strings.HasPrefix(img.ContentType, "image/") || len(img.Data) == 0 {
		return dErrors.New(dErrors.CodeValidation, "Image must be an image data URL")
	}
	e.ImageContentType = img.ContentType
	if s.images == nil {
		e.ImageData = img.Data
		return nil
	}
	key := "events/" + e.ID.String() + "/" + uuid.NewString()
	if err := s.images.Put(ctx, key, blob.Object{ContentType: img.ContentType, Data: img.Data}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store image")
	}
	e.ImageKey = key
	return nil
}

func (s *Service) discardImage(ctx context.Context, key string) {
	if key == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete event image",
			"request_id", requestcontext.RequestID(ctx),
			"key", key,
			"error", err,
		)
	}
}

func translateEventErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return errEventNotFound
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) fail(span trace.Span, err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return errEventNotFound
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if actor := requestcontext.UserID(ctx); !actor.IsNil() {
		attributes = append(attributes, "actor", actor)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) incrementEventsCreated() {
	if s.metrics != nil {
		s.metrics.IncrementEventsCreated()
	}
}

func (s *Service) observeRegistration(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveRegistration(outcome)
	}
}

func (s *Service) incrementAttendanceMarked() {
	if s.metrics != nil {
		s.metrics.IncrementAttendanceMarked()
	}
}
