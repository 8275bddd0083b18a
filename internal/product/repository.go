package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, filter Filter) ([]Product, error)
}

type sqlRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) Create(ctx context.Context, p *Product) error {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate product ID: %w", err)
		}
		p.ID = id
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	query := `
		INSERT INTO products (id, name, description, image_urls, price, old_price, category, sizes, colors, stock, is_new, featured, created_at, updated_at)
		VALUES (:id, :name, :description, :image_urls, :price, :old_price, :category, :sizes, :colors, :stock, :is_new, :featured, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("repository: failed to insert product: %w", err)
	}
	return nil
}

func (r *sqlRepository) Update(ctx context.Context, p *Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products SET
			name = :name, description = :description, image_urls = :image_urls, price = :price,
			old_price = :old_price, category = :category, sizes = :sizes, colors = :colors,
			stock = :stock, is_new = :is_new, featured = :featured, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %s: %w", p.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *sqlRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *sqlRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	var p Product
	if err := r.db.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %s: %w", id, err)
	}
	return &p, nil
}

func (r *sqlRepository) List(ctx context.Context, f Filter) ([]Product, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.Category != "" {
		add("category = $%d", string(f.Category))
	}
	if f.Featured != nil {
		add("featured = $%d", *f.Featured)
	}
	if f.IsNew != nil {
		add("is_new = $%d", *f.IsNew)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("(name ILIKE '%%' || $%[1]d || '%%' OR description ILIKE '%%' || $%[1]d || '%%')", s)
	}
	if f.StockAtMost != nil {
		add("stock <= $%d", *f.StockAtMost)
	}

	query := `SELECT * FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	products := make([]Product, 0)
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("repository: failed to list products: %w", err)
	}
	return products, nil
}
