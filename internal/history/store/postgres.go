package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"egresados/internal/history/models"
	id "egresados/pkg/domain"
	"egresados/pkg/platform/tx"
)

// PostgresStore persists entries in profile_modifications.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectEntries = `
	SELECT id, user_id, changed_by, field_name, old_value, new_value, change_type, created_at
	FROM profile_modifications`

// Append writes an entry on the transaction carried by ctx, if any.
func (s *PostgresStore) Append(ctx context.Context, entry *models.Entry) error {
	query := `
		INSERT INTO profile_modifications (id, user_id, changed_by, field_name, old_value, new_value, change_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx, query,
		entry.ID.String(),
		entry.UserID.String(),
		entry.ChangedBy.String(),
		entry.FieldName,
		entry.OldValue,
		entry.NewValue,
		entry.ChangeType,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile modification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]models.Entry, error) {
	return s.list(ctx, selectEntries+` WHERE user_id = $1 ORDER BY created_at DESC, seq DESC`, userID.String())
}

// ListRecent returns the most recent limit entries across all users (admin-only operation).
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]models.Entry, error) {
	return s.list(ctx, selectEntries+` ORDER BY created_at DESC, seq DESC LIMIT $1`, limit)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]models.Entry, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profile modifications: %w", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var (
			e                          models.Entry
			entryID, userID, changedBy uuid.UUID
			oldValue                   sql.NullString
		)
		if err := rows.Scan(&entryID, &userID, &changedBy, &e.FieldName, &oldValue, &e.NewValue, &e.ChangeType, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile modification: %w", err)
		}
		e.ID = id.EntryID(entryID)
		e.UserID = id.UserID(userID)
		e.ChangedBy = id.UserID(changedBy)
		if oldValue.Valid {
			e.OldValue = &oldValue.String
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile modifications: %w", err)
	}
	return entries, nil
}
