package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"egresados/internal/events/models"
	"egresados/internal/platform/postgres"
	id "egresados/pkg/domain"
	"egresados/pkg/platform/sentinel"
	"egresados/pkg/platform/tx"
)

// PostgresCatalog persists events in the events table.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// Listing skips the inline image bytes; FindByID loads them.
const (
	eventColumns = `id, title, description, date, location, image_url, image_key, image_content_type,
		form_questions, created_at, (image_key <> '' OR COALESCE(octet_length(image_data), 0) > 0)`
	listEvents = `SELECT ` + eventColumns + ` FROM events ORDER BY date ASC, created_at ASC`
	findEvent  = `SELECT ` + eventColumns + `, image_data FROM events WHERE id = $1`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner, withData bool) (*models.Event, error) {
	var (
		e         models.Event
		eventID   uuid.UUID
		questions []byte
	)
	dest := []any{&eventID, &e.Title, &e.Description, &e.Date, &e.Location, &e.ImageURL,
		&e.ImageKey, &e.ImageContentType, &questions, &e.CreatedAt, &e.HasImage}
	if withData {
		dest = append(dest, &e.ImageData)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.ID = id.EventID(eventID)
	if err := json.Unmarshal(questions, &e.FormQuestions); err != nil {
		return nil, fmt.Errorf("decode form questions: %w", err)
	}
	return &e, nil
}

func encodeQuestions(qs []models.Question) ([]byte, error) {
	if qs == nil {
		qs = []models.Question{}
	}
	return json.Marshal(qs)
}

func (s *PostgresCatalog) List(ctx context.Context) ([]*models.Event, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, listEvents)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func (s *PostgresCatalog) find(ctx context.Context, query string, eventID id.EventID) (*models.Event, error) {
	e, err := scanEvent(tx.Conn(ctx, s.db).QueryRowContext(ctx, query, eventID.String()), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find event: %w", err)
	}
	return e, nil
}

func (s *PostgresCatalog) FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	return s.find(ctx, findEvent, eventID)
}

// FindByIDForUpdate locks the event row until the surrounding transaction ends.
// New registrations for the event wait on the lock through their foreign key.
func (s *PostgresCatalog) FindByIDForUpdate(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	return s.find(ctx, findEvent+` FOR UPDATE`, eventID)
}

func (s *PostgresCatalog) Insert(ctx context.Context, e *models.Event) error {
	questions, err := encodeQuestions(e.FormQuestions)
	if err != nil {
		return err
	}
	_, err = tx.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO events (id, title, description, date, location, image_url, image_data,
			image_content_type, image_key, form_questions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID.String(), e.Title, e.Description, e.Date, e.Location, e.ImageURL, nullBytes(e.ImageData),
		e.ImageContentType, e.ImageKey, string(questions), e.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *PostgresCatalog) Update(ctx context.Context, e *models.Event) error {
	questions, err := encodeQuestions(e.FormQuestions)
	if err != nil {
		return err
	}
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE events SET title = $2, description = $3, date = $4, location = $5, image_url = $6,
			image_data = $7, image_content_type = $8, image_key = $9, form_questions = $10
		WHERE id = $1`,
		e.ID.String(), e.Title, e.Description, e.Date, e.Location, e.ImageURL, nullBytes(e.ImageData),
		e.ImageContentType, e.ImageKey, string(questions),
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return expectOneRow(res, "update event")
}

// Delete removes the event. Registrations go with it through ON DELETE CASCADE.
func (s *PostgresCatalog) Delete(ctx context.Context, eventID id.EventID) error {
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, eventID.String())
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return expectOneRow(res, "delete event")
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// PostgresLedger persists registrations in event_registrations. The primary
// key on (event_id, user_id) is the authoritative uniqueness guard.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const selectRegistrations = `SELECT event_id, user_id, registered_at, form_responses, attended FROM event_registrations`

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var (
		r               models.Registration
		eventID, userID uuid.UUID
		responses       []byte
	)
	if err := row.Scan(&eventID, &userID, &r.RegisteredAt, &responses, &r.Attended); err != nil {
		return nil, err
	}
	r.EventID = id.EventID(eventID)
	r.UserID = id.UserID(userID)
	if err := json.Unmarshal(responses, &r.FormResponses); err != nil {
		return nil, fmt.Errorf("decode form responses: %w", err)
	}
	return &r, nil
}

// Insert adds a registration. Returns sentinel.ErrAlreadyUsed when the pair is
// already registered, without aborting the surrounding transaction.
func (s *PostgresLedger) Insert(ctx context.Context, r *models.Registration) error {
	responses := r.FormResponses
	if responses == nil {
		responses = map[string]string{}
	}
	payload, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("encode form responses: %w", err)
	}
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO event_registrations (event_id, user_id, registered_at, form_responses, attended)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, user_id) DO NOTHING`,
		r.EventID.String(), r.UserID.String(), r.RegisteredAt, string(payload), r.Attended,
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	if n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresLedger) Find(ctx context.Context, eventID id.EventID, userID id.UserID) (*models.Registration, error) {
	r, err := scanRegistration(tx.Conn(ctx, s.db).QueryRowContext(ctx,
		selectRegistrations+` WHERE event_id = $1 AND user_id = $2`, eventID.String(), userID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return r, nil
}

func (s *PostgresLedger) ListByEvent(ctx context.Context, eventID id.EventID) ([]*models.Registration, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx,
		selectRegistrations+` WHERE event_id = $1 ORDER BY registered_at DESC, user_id`, eventID.String())
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return out, nil
}

func (s *PostgresLedger) EventIDsForUser(ctx context.Context, userID id.UserID) (map[id.EventID]struct{}, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT event_id FROM event_registrations WHERE user_id = $1`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list user registrations: %w", err)
	}
	defer rows.Close()

	out := make(map[id.EventID]struct{})
	for rows.Next() {
		var eventID uuid.UUID
		if err := rows.Scan(&eventID); err != nil {
			return nil, fmt.Errorf("scan user registration: %w", err)
		}
		out[id.EventID(eventID)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user registrations: %w", err)
	}
	return out, nil
}

func (s *PostgresLedger) CountByEvent(ctx context.Context, eventID id.EventID) (int, error) {
	var n int
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`, eventID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

func (s *PostgresLedger) SetAttended(ctx context.Context, eventID id.EventID, userID id.UserID, attended bool) error {
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE event_registrations SET attended = $3 WHERE event_id = $1 AND user_id = $2`,
		eventID.String(), userID.String(), attended)
	if err != nil {
		return fmt.Errorf("set attendance: %w", err)
	}
	return expectOneRow(res, "set attendance")
}

// DeleteByEvent removes the event's registrations. Deleting the event already
// cascades; this keeps the service independent of the schema's foreign keys.
func (s *PostgresLedger) DeleteByEvent(ctx context.Context, eventID id.EventID) error {
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM event_registrations WHERE event_id = $1`, eventID.String())
	if err != nil {
		return fmt.Errorf("delete registrations: %w", err)
	}
	return nil
}
