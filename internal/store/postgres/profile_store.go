package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tahminpazari/marketd/internal/domain"
)

// ProfileStore implements domain.ProfileStore using PostgreSQL.
type ProfileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore creates a new ProfileStore backed by the given connection pool.
func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

const profileCols = `id, username, balance, created_at`

// Ensure fetches the profile for id, creating it with the starting balance
// on first touch. The username is only written on creation; later identity
// changes do not rewrite it.
func (s *ProfileStore) Ensure(ctx context.Context, id, username string) (domain.Profile, error) {
	const query = `
		INSERT INTO profiles (id, username, balance, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING ` + profileCols

	var p domain.Profile
	err := s.pool.QueryRow(ctx, query, id, username, domain.StartingBalance).
		Scan(&p.ID, &p.Username, &p.Balance, &p.CreatedAt)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("postgres: ensure profile %s: %w", id, err)
	}
	return p, nil
}

// GetByID retrieves a profile by user ID.
func (s *ProfileStore) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	var p domain.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT `+profileCols+` FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.Username, &p.Balance, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("postgres: get profile %s: %w", id, err)
	}
	return p, nil
}

// ListTop returns up to limit profiles ordered by balance descending with
// the deterministic tiebreak (older account first, then id).
func (s *ProfileStore) ListTop(ctx context.Context, limit int) ([]domain.Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+profileCols+` FROM profiles
		 ORDER BY balance DESC, created_at ASC, id ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list top profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Balance, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list top profiles rows: %w", err)
	}
	return profiles, nil
}

// Compile-time interface check.
var _ domain.ProfileStore = (*ProfileStore)(nil)
