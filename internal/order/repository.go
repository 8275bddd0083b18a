package order

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

var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	CreateOrder(ctx context.Context, order *Order) (uuid.UUID, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListOrders(ctx context.Context, status OrderStatus) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) error
	SetPaymentID(ctx context.Context, orderID uuid.UUID, paymentID string) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `id, user_id, user_email, subtotal, delivery_fee, discount, total, status,
	payment_method, payment_id, delivery_address, created_at, updated_at`

func (r *postgresRepository) CreateOrder(ctx context.Context, orderInput *Order) (orderID uuid.UUID, err error) {
	finalOrderID := orderInput.ID
	if finalOrderID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		}
		finalOrderID = genID
	}
	orderInput.ID = finalOrderID

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Stringer("order_id_attempted", finalOrderID).Msg("Panic recovered during CreateOrder, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", finalOrderID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Stringer("order_id_attempted", finalOrderID).Msg("Transaction for CreateOrder failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", finalOrderID).Msg("Failed to rollback transaction")
			}
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			log.Error().Err(commitErr).Stringer("order_id", finalOrderID).Msg("Failed to commit transaction")
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			orderID = uuid.Nil
		}
	}()

	createdAt := time.Now().UTC()

	queryOrder := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = tx.Exec(ctx, queryOrder,
		finalOrderID,
		orderInput.UserID,
		orderInput.UserEmail,
		orderInput.Subtotal,
		orderInput.DeliveryFee,
		orderInput.Discount,
		orderInput.Total,
		string(orderInput.Status),
		string(orderInput.PaymentMethod),
		orderInput.PaymentID,
		orderInput.DeliveryAddress,
		createdAt,
		createdAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to insert order: %w", err)
	}
	orderInput.CreatedAt = createdAt
	orderInput.UpdatedAt = createdAt

	queryItem := `
		INSERT INTO order_items (id, order_id, position, product_id, product_name, product_image, price, quantity, size, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for i := range orderInput.Items {
		item := &orderInput.Items[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
			return uuid.Nil, err
		}
		item.ID = itemID
		item.OrderID = finalOrderID

		_, err = tx.Exec(ctx, queryItem,
			item.ID,
			finalOrderID,
			i,
			item.ProductID,
			item.ProductName,
			item.ProductImage,
			item.Price,
			item.Quantity,
			item.Size,
			item.Color,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to insert order item for order %s: %w", finalOrderID, err)
		}
	}

	return finalOrderID, nil
}

func scanOrder(row pgx.Row, order *Order) error {
	return row.Scan(
		&order.ID,
		&order.UserID,
		&order.UserEmail,
		&order.Subtotal,
		&order.DeliveryFee,
		&order.Discount,
		&order.Total,
		&order.Status,
		&order.PaymentMethod,
		&order.PaymentID,
		&order.DeliveryAddress,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order Order
	if err := scanOrder(r.db.QueryRow(ctx, query, orderID), &order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", orderID, err)
	}

	orders := []Order{order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

func (r *postgresRepository) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, userID)
}

func (r *postgresRepository) ListOrders(ctx context.Context, status OrderStatus) ([]Order, error) {
	if status == "" {
		return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	}
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at DESC`, string(status))
}

func (r *postgresRepository) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var order Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *postgresRepository) attachItems(ctx context.Context, orders []Order) error {
	index := make(map[uuid.UUID]int, len(orders))
	ids := make([]string, 0, len(orders))
	for i := range orders {
		orders[i].Items = make([]OrderItem, 0)
		index[orders[i].ID] = i
		ids = append(ids, orders[i].ID.String())
	}

	query := `
		SELECT id, order_id, product_id, product_name, product_image, price, quantity, size, color
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.ProductImage,
			&item.Price,
			&item.Quantity,
			&item.Size,
			&item.Color,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: failed iterating order items: %w", err)
	}

	return nil
}

func (r *postgresRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	cmdTag, err := r.db.Exec(ctx, query, string(newStatus), time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		log.Warn().Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("repository: order not found for status update")
		return ErrOrderNotFound
	}

	return nil
}

func (r *postgresRepository) SetPaymentID(ctx context.Context, orderID uuid.UUID, paymentID string) error {
	query := `UPDATE orders SET payment_id = $1, updated_at = $2 WHERE id = $3`

	cmdTag, err := r.db.Exec(ctx, query, paymentID, time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to set payment id for order %s: %w", orderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}
