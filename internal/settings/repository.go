package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("settings not found")

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Upsert(ctx context.Context, s *Settings) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Get(ctx context.Context) (*Settings, error) {
	var (
		doc       Settings
		updatedAt time.Time
	)
	err := r.db.QueryRow(ctx, `SELECT document, updated_at FROM settings WHERE id = 1`).Scan(&doc, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select settings: %w", err)
	}
	doc.UpdatedAt = updatedAt
	return &doc, nil
}

func (r *postgresRepository) Upsert(ctx context.Context, s *Settings) error {
	s.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO settings (id, document, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Exec(ctx, query, s, s.UpdatedAt); err != nil {
		return fmt.Errorf("repository: failed to upsert settings: %w", err)
	}
	return nil
}
