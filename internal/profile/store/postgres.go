package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"egresados/internal/platform/postgres"
	"egresados/internal/profile/models"
	id "egresados/pkg/domain"
	"egresados/pkg/platform/sentinel"
	"egresados/pkg/platform/tx"
)

// PostgresStore persists profiles in egresados_profiles. Statements run on the
// transaction carried by ctx when present.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var (
	columnList = func() string {
		cols := make([]string, 0, len(models.TrackedFields))
		for _, f := range models.TrackedFields {
			cols = append(cols, f.Name)
		}
		return strings.Join(cols, ", ")
	}()

	selectProfile = `SELECT user_id, ` + columnList + `, fecha_actualizacion FROM egresados_profiles`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p      models.Profile
		userID uuid.UUID
	)
	err := row.Scan(&userID,
		&p.Nombre, &p.Telefono, &p.Profesion, &p.Empresa, &p.CorreoPersonal,
		&p.Identificacion, &p.CiudadResidencia, &p.DireccionDomicilio, &p.Barrio,
		&p.ProgramaAcademico, &p.Sede, &p.LaboralmenteActivo, &p.CargoActual,
		&p.SectorEconomico, &p.NombreEmpresa, &p.RangoSalarial,
		&p.EjercePerfilProfesional, &p.Reconocimientos, &p.TratamientoDatos,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.UserID = id.UserID(userID)
	return &p, nil
}

func columnValues(p *models.Profile) []any {
	return []any{
		p.Nombre, p.Telefono, p.Profesion, p.Empresa, p.CorreoPersonal,
		p.Identificacion, p.CiudadResidencia, p.DireccionDomicilio, p.Barrio,
		p.ProgramaAcademico, p.Sede, p.LaboralmenteActivo, p.CargoActual,
		p.SectorEconomico, p.NombreEmpresa, p.RangoSalarial,
		p.EjercePerfilProfesional, p.Reconocimientos, p.TratamientoDatos,
	}
}

func (s *PostgresStore) findOne(ctx context.Context, query string, userID id.UserID) (*models.Profile, error) {
	p, err := scanProfile(tx.Conn(ctx, s.db).QueryRowContext(ctx, query, userID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindByUserID(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	return s.findOne(ctx, selectProfile+` WHERE user_id = $1`, userID)
}

// FindByUserIDForUpdate locks the row until the surrounding transaction ends.
func (s *PostgresStore) FindByUserIDForUpdate(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	return s.findOne(ctx, selectProfile+` WHERE user_id = $1 FOR UPDATE`, userID)
}

func (s *PostgresStore) FindByUserIDs(ctx context.Context, ids []id.UserID) (map[id.UserID]*models.Profile, error) {
	out := make(map[id.UserID]*models.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, userID := range ids {
		keys[i] = userID.String()
	}

	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx,
		selectProfile+` WHERE user_id = ANY($1::uuid[])`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out[p.UserID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

// Create inserts a profile. Returns sentinel.ErrAlreadyUsed if the user already has one;
// the conflict does not abort the surrounding transaction.
func (s *PostgresStore) Create(ctx context.Context, p *models.Profile) error {
	placeholders := make([]string, len(models.TrackedFields))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
	}
	query := fmt.Sprintf(`INSERT INTO egresados_profiles (user_id, %s, fecha_actualizacion) VALUES ($1, %s, $%d)
		ON CONFLICT (user_id) DO NOTHING`,
		columnList, strings.Join(placeholders, ", "), len(placeholders)+2)

	args := append([]any{p.UserID.String()}, columnValues(p)...)
	args = append(args, p.UpdatedAt)
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	if n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

// Update overwrites every tracked column of an existing profile.
func (s *PostgresStore) Update(ctx context.Context, p *models.Profile) error {
	sets := make([]string, len(models.TrackedFields))
	for i, f := range models.TrackedFields {
		sets[i] = fmt.Sprintf("%s = $%d", f.Name, i+2)
	}
	query := fmt.Sprintf(`UPDATE egresados_profiles SET %s, fecha_actualizacion = $%d WHERE user_id = $1`,
		strings.Join(sets, ", "), len(sets)+2)

	args := append([]any{p.UserID.String()}, columnValues(p)...)
	args = append(args, p.UpdatedAt)
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountUpdatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM egresados_profiles WHERE fecha_actualizacion > $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count updated profiles: %w", err)
	}
	return n, nil
}
