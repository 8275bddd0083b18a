package address

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrAddressNotFound     = errors.New("address not found")
	ErrDefaultAddressInUse = errors.New("default address cannot be deleted while other addresses exist")
)

type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]Address, error)
	Add(ctx context.Context, addr *Address) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const addressColumns = `id, user_id, label, name, phone, address, city, country, is_default, created_at`

func (r *postgresRepository) List(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]Address, 0)
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Label, &a.Name, &a.Phone, &a.Address, &a.City, &a.Country, &a.IsDefault, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating addresses: %w", err)
	}

	return addresses, nil
}

// inTx runs fn in a transaction, committing when fn returns nil.
func (r *postgresRepository) inTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Str("op", op).Msg("Panic recovered during address transaction, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("op", op).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("op", op).Msg("Failed to rollback transaction")
			}
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(tx)
}

// lockUser serializes address-book writes of one user so that "first address"
// and "sole default" are decided against a stable set of rows.
func lockUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
		return fmt.Errorf("repository: failed to lock user: %w", err)
	}
	return nil
}

// Add stores addr. The user's first address, or one flagged default, becomes
// the only default.
func (r *postgresRepository) Add(ctx context.Context, addr *Address) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate address ID: %w", err)
	}

	return r.inTx(ctx, "add", func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, addr.UserID); err != nil {
			return err
		}
		var existing int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM addresses WHERE user_id = $1`, addr.UserID).Scan(&existing); err != nil {
			return fmt.Errorf("repository: failed to count addresses: %w", err)
		}

		makeDefault := existing == 0 || addr.IsDefault
		if makeDefault && existing > 0 {
			if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default = false WHERE user_id = $1 AND is_default`, addr.UserID); err != nil {
				return fmt.Errorf("repository: failed to clear default address: %w", err)
			}
		}

		addr.ID = id
		addr.IsDefault = makeDefault
		addr.CreatedAt = time.Now().UTC()

		query := `INSERT INTO addresses (` + addressColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		_, err := tx.Exec(ctx, query,
			addr.ID, addr.UserID, addr.Label, addr.Name, addr.Phone, addr.Address, addr.City, addr.Country, addr.IsDefault, addr.CreatedAt)
		if err != nil {
			return fmt.Errorf("repository: failed to insert address: %w", err)
		}
		return nil
	})
}

func (r *postgresRepository) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	return r.inTx(ctx, "set_default", func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		var exists bool
		err := tx.QueryRow(ctx, `SELECT true FROM addresses WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID).Scan(&exists)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAddressNotFound
			}
			return fmt.Errorf("repository: failed to select address: %w", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default = false WHERE user_id = $1 AND is_default`, userID); err != nil {
			return fmt.Errorf("repository: failed to clear default address: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default = true WHERE id = $1`, id); err != nil {
			return fmt.Errorf("repository: failed to set default address: %w", err)
		}
		return nil
	})
}

func (r *postgresRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return r.inTx(ctx, "delete", func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		var isDefault bool
		err := tx.QueryRow(ctx, `SELECT is_default FROM addresses WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID).Scan(&isDefault)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAddressNotFound
			}
			return fmt.Errorf("repository: failed to select address: %w", err)
		}

		if isDefault {
			var total int
			if err := tx.QueryRow(ctx, `SELECT count(*) FROM addresses WHERE user_id = $1`, userID).Scan(&total); err != nil {
				return fmt.Errorf("repository: failed to count addresses: %w", err)
			}
			if total > 1 {
				return ErrDefaultAddressInUse
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id); err != nil {
			return fmt.Errorf("repository: failed to delete address: %w", err)
		}
		return nil
	})
}
