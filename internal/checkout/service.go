package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GabrielMhv/D-Market-sub000/internal/cart"
	"github.com/GabrielMhv/D-Market-sub000/internal/order"
	"github.com/GabrielMhv/D-Market-sub000/internal/settings"
)

var (
	ErrWrongStep        = errors.New("checkout is not at the expected step")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrSubmitInProgress = errors.New("order submission already in progress")
	ErrPaymentFailed    = errors.New("payment could not be started")
)

type Orders interface {
	CreateOrder(ctx context.Context, orderInput *order.Order) (*order.Order, error)
	SetPaymentID(ctx context.Context, orderID uuid.UUID, paymentID string) error
}

type SettingsProvider interface {
	Get(ctx context.Context) settings.Settings
}

type PaymentStarter interface {
	StartPayment(ctx context.Context, ord *order.Order) (transactionID, checkoutURL string, err error)
}

// Customer is the signed-in user placing the order.
type Customer struct {
	UserID uuid.UUID
	Email  string
}

type Result struct {
	OrderID          uuid.UUID `json:"order_id"`
	Total            int64     `json:"total"`
	ConfirmationPath string    `json:"confirmation_path"`
	CheckoutURL      string    `json:"checkout_url,omitempty"`
}

type Service struct {
	carts    *cart.Service
	orders   Orders
	settings SettingsProvider
	payments PaymentStarter

	mu   sync.Mutex
	busy map[string]struct{}
}

func NewService(carts *cart.Service, orders Orders, shop SettingsProvider, payments PaymentStarter) *Service {
	return &Service{
		carts:    carts,
		orders:   orders,
		settings: shop,
		payments: payments,
		busy:     make(map[string]struct{}),
	}
}

func flowKey(sessionID string) string {
	return "checkout:" + sessionID
}

// State returns the stored flow of sessionID, or a fresh one.
func (s *Service) State(ctx context.Context, sessionID string) *Flow {
	data, err := s.carts.Slot().Load(ctx, flowKey(sessionID))
	if err != nil {
		if !errors.Is(err, cart.ErrSlotEmpty) {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("checkout: failed to load flow, starting over")
		}
		return NewFlow()
	}

	var flow Flow
	if err := json.Unmarshal(data, &flow); err != nil || (flow.Step != StepDeliveryDetails && flow.Step != StepPaymentConfirmation) {
		log.Debug().Str("session_id", sessionID).Msg("checkout: discarding unreadable flow")
		return NewFlow()
	}
	return &flow
}

func (s *Service) save(ctx context.Context, sessionID string, flow *Flow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("checkout: failed to encode flow: %w", err)
	}
	if err := s.carts.Slot().Save(ctx, flowKey(sessionID), data); err != nil {
		return fmt.Errorf("checkout: failed to persist flow: %w", err)
	}
	return nil
}

func (s *Service) SubmitDetails(ctx context.Context, sessionID string, d Details) (*Flow, error) {
	flow := s.State(ctx, sessionID)
	if err := flow.SubmitDetails(d); err != nil {
		return flow, err
	}
	if err := s.save(ctx, sessionID, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

func (s *Service) Back(ctx context.Context, sessionID string) (*Flow, error) {
	flow := s.State(ctx, sessionID)
	if err := flow.Back(); err != nil {
		return flow, err
	}
	if err := s.save(ctx, sessionID, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

func (s *Service) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.busy[sessionID]; ok {
		return false
	}
	s.busy[sessionID] = struct{}{}
	return true
}

func (s *Service) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, sessionID)
}

// SubmitOrder turns the session's cart and confirmed details into a pending
// order. For online payment a gateway failure is returned together with the
// stored order's result.
func (s *Service) SubmitOrder(ctx context.Context, sessionID string, customer Customer, method order.PaymentMethod) (*Result, error) {
	if !s.acquire(sessionID) {
		return nil, ErrSubmitInProgress
	}
	defer s.release(sessionID)

	flow := s.State(ctx, sessionID)
	if flow.Step != StepPaymentConfirmation {
		return nil, ErrWrongStep
	}

	store := s.carts.Open(ctx, sessionID)
	items := store.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	subtotal := cart.Total(items)
	shop := s.settings.Get(ctx)

	orderItems := make([]order.OrderItem, 0, len(items))
	for _, it := range items {
		orderItems = append(orderItems, order.OrderItem{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImage,
			Price:        it.Price,
			Quantity:     it.Quantity,
			Size:         it.Size,
			Color:        it.Color,
		})
	}

	created, err := s.orders.CreateOrder(ctx, &order.Order{
		UserID:          customer.UserID,
		UserEmail:       customer.Email,
		Items:           orderItems,
		DeliveryFee:     shop.DeliveryFeeFor(subtotal),
		PaymentMethod:   method,
		DeliveryAddress: flow.Details.DeliveryAddress(),
	})
	if err != nil {
		return nil, err
	}

	if err := store.Clear(ctx); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Stringer("order_id", created.ID).Msg("checkout: order stored but cart could not be cleared")
	}
	flow.Reset()
	if err := s.save(ctx, sessionID, flow); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("checkout: failed to reset flow")
	}

	result := &Result{
		OrderID:          created.ID,
		Total:            created.Total,
		ConfirmationPath: fmt.Sprintf("/orders/%s/confirmation", created.ID),
	}

	log.Info().Str("session_id", sessionID).Stringer("order_id", created.ID).Str("payment_method", string(created.PaymentMethod)).Msg("checkout: order submitted")

	if created.PaymentMethod != order.PaymentOnline {
		return result, nil
	}

	transactionID, checkoutURL, err := s.payments.StartPayment(ctx, created)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}
	if err := s.orders.SetPaymentID(ctx, created.ID, transactionID); err != nil {
		log.Error().Err(err).Stringer("order_id", created.ID).Str("transaction_id", transactionID).Msg("checkout: failed to record payment id")
	}
	result.CheckoutURL = checkoutURL

	return result, nil
}
