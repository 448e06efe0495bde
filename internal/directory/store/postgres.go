package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"egresados/internal/directory/models"
	id "egresados/pkg/domain"
)

// PostgresStore reads identities from the users table owned by the identity service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Lookup(ctx context.Context, ids []id.UserID) (map[id.UserID]models.Identity, error) {
	out := make(map[id.UserID]models.Identity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(ids))
	for _, userID := range ids {
		keys = append(keys, userID.String())
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, role FROM users WHERE id = ANY($1::uuid[])`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("lookup users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rawID    uuid.UUID
			identity models.Identity
		)
		if err := rows.Scan(&rawID, &identity.Email, &identity.Role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		identity.UserID = id.UserID(rawID)
		out[identity.UserID] = identity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}
