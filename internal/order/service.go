package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

const (
	TopicCreated       = "order:created"
	TopicStatusChanged = "order:status_changed"
)

// allowedTransitions is the full status graph. Delivered and cancelled are terminal.
var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPending: {
		StatusPaid:       true,
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusPaid: {
		StatusProcessing: true,
	},
	StatusProcessing: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusCancelled: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

var (
	ErrInvalidStatus           = errors.New("unknown order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrEmptyOrder              = errors.New("order must contain at least one item")
	ErrInvalidOrder            = errors.New("invalid order")
)

// TransitionError describes a rejected status change.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidStatusTransition
}

// CanTransition reports whether an order in status from may move to status to.
func CanTransition(from, to OrderStatus) bool {
	return allowedTransitions[from][to]
}

// Publisher is the subset of the event bus the service needs.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

type Service interface {
	CreateOrder(ctx context.Context, orderInput *Order) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListOrders(ctx context.Context, status OrderStatus) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) (*Order, error)
	SetPaymentID(ctx context.Context, orderID uuid.UUID, paymentID string) error
}

type service struct {
	orderRepo Repository
	events    Publisher
}

func NewService(orderRepo Repository, events Publisher) Service {
	return &service{
		orderRepo: orderRepo,
		events:    events,
	}
}

// CreateOrder validates the snapshot, fixes subtotal and total from the
// items and stores the order as pending.
func (s *service) CreateOrder(ctx context.Context, orderInput *Order) (*Order, error) {
	if len(orderInput.Items) == 0 {
		log.Warn().Msg("service: attempt to create order with no items")
		return nil, ErrEmptyOrder
	}

	if orderInput.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidOrder)
	}

	if orderInput.DeliveryFee < 0 || orderInput.Discount < 0 {
		return nil, fmt.Errorf("%w: delivery fee and discount cannot be negative", ErrInvalidOrder)
	}

	switch orderInput.PaymentMethod {
	case PaymentCashOnDelivery, PaymentOnline:
	case "":
		orderInput.PaymentMethod = PaymentCashOnDelivery
	default:
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidOrder, orderInput.PaymentMethod)
	}

	var subtotal int64
	for i := range orderInput.Items {
		item := &orderInput.Items[i]

		if item.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: product id in order item cannot be nil", ErrInvalidOrder)
		}

		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: order item quantity for product %s must be greater than zero", ErrInvalidOrder, item.ProductID)
		}

		if item.Price < 0 {
			return nil, fmt.Errorf("%w: order item price for product %s cannot be negative", ErrInvalidOrder, item.ProductID)
		}

		item.ID = uuid.Nil
		item.OrderID = uuid.Nil

		subtotal += item.LineTotal()
	}

	orderInput.ID = uuid.Nil
	orderInput.Status = StatusPending
	orderInput.Subtotal = subtotal
	orderInput.Total = subtotal + orderInput.DeliveryFee - orderInput.Discount
	if orderInput.Total < 0 {
		return nil, fmt.Errorf("%w: discount exceeds order amount", ErrInvalidOrder)
	}

	if _, err := s.orderRepo.CreateOrder(ctx, orderInput); err != nil {
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", orderInput.ID).Stringer("user_id", orderInput.UserID).Int64("total", orderInput.Total).Msg("service: order created")

	s.events.Publish(TopicCreated, *orderInput)

	return orderInput, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}

		log.Error().Err(err).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return order, nil
}

func (s *service) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders in repository")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	return orders, nil
}

func (s *service) ListOrders(ctx context.Context, status OrderStatus) ([]Order, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}

	orders, err := s.orderRepo.ListOrders(ctx, status)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders in repository")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}

	return orders, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) (*Order, error) {
	if !newStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	currentOrder, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: order not found, cannot update status")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order for status update")
		return nil, fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if currentOrder.Status == newStatus {
		log.Info().Stringer("order_id", orderID).Stringer("status", newStatus).Msg("service: order status is already the same, no update needed")
		return currentOrder, nil
	}

	if !CanTransition(currentOrder.Status, newStatus) {
		log.Warn().
			Stringer("order_id", currentOrder.ID).
			Stringer("current_status", currentOrder.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return nil, &TransitionError{From: currentOrder.Status, To: newStatus}
	}

	err = s.orderRepo.UpdateOrderStatus(ctx, orderID, newStatus)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: failed to update order status in repository")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	previous := currentOrder.Status
	currentOrder.Status = newStatus

	log.Info().Stringer("order_id", orderID).Stringer("old_status", previous).Stringer("new_status", newStatus).Msg("service: order status updated successfully")

	s.events.Publish(TopicStatusChanged, StatusChanged{Order: *currentOrder, From: previous})

	return currentOrder, nil
}

func (s *service) SetPaymentID(ctx context.Context, orderID uuid.UUID, paymentID string) error {
	if err := s.orderRepo.SetPaymentID(ctx, orderID, paymentID); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("service: failed to set payment id: %w", err)
	}

	return nil
}
