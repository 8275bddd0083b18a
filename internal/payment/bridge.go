package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GabrielMhv/D-Market-sub000/internal/order"
	"github.com/GabrielMhv/D-Market-sub000/internal/settings"
)

// Redirect error codes appended to the storefront checkout URL.
const (
	CodeMissingParams           = "missing_params"
	CodeTransactionLookupFailed = "transaction_lookup_failed"
	CodePaymentDeclined         = "payment_declined"
	CodePaymentCancelled        = "payment_cancelled"
	CodeOrderUpdateFailed       = "order_update_failed"
)

// OrderStatusFor maps a gateway status to the order status it implies.
// ok is false when the order must be left as it is.
func OrderStatusFor(status TransactionStatus) (next order.OrderStatus, ok bool) {
	switch status {
	case StatusApproved:
		return order.StatusPaid, true
	case StatusDeclined, StatusCancelled:
		return order.StatusCancelled, true
	default:
		return "", false
	}
}

type OrderUpdater interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus order.OrderStatus) (*order.Order, error)
}

type SettingsProvider interface {
	Get(ctx context.Context) settings.Settings
}

// Bridge runs the create-transaction and callback halves of online payment.
type Bridge struct {
	gateway       Gateway
	orders        OrderUpdater
	settings      SettingsProvider
	publicURL     string
	storefrontURL string
}

func NewBridge(gateway Gateway, orders OrderUpdater, shop SettingsProvider, publicURL, storefrontURL string) *Bridge {
	return &Bridge{
		gateway:       gateway,
		orders:        orders,
		settings:      shop,
		publicURL:     strings.TrimRight(publicURL, "/"),
		storefrontURL: strings.TrimRight(storefrontURL, "/"),
	}
}

// CallbackURL is where the gateway sends the customer back for orderID.
func (b *Bridge) CallbackURL(orderID string) string {
	return b.publicURL + "/payment/callback?orderId=" + url.QueryEscape(orderID)
}

// CreateTransaction requests a gateway transaction for an order reference.
func (b *Bridge) CreateTransaction(ctx context.Context, amount int64, description, orderID string, customer Customer) (*Transaction, error) {
	tx, err := b.gateway.CreateTransaction(ctx, TransactionRequest{
		Amount:      amount,
		Currency:    b.settings.Get(ctx).Currency,
		Description: description,
		Reference:   orderID,
		CallbackURL: b.CallbackURL(orderID),
		Customer:    customer,
	})
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("payment: failed to create transaction")
		return nil, err
	}

	log.Info().Str("order_id", orderID).Str("transaction_id", tx.ID).Msg("payment: transaction created")
	return tx, nil
}

// StartPayment creates the transaction for a freshly stored order.
func (b *Bridge) StartPayment(ctx context.Context, ord *order.Order) (transactionID, checkoutURL string, err error) {
	tx, err := b.CreateTransaction(ctx, ord.Total, fmt.Sprintf("Order %s", ord.ID), ord.ID.String(), Customer{
		Name:  ord.DeliveryAddress.Name,
		Email: ord.UserEmail,
		Phone: ord.DeliveryAddress.Phone,
	})
	if err != nil {
		return "", "", err
	}
	return tx.ID, tx.CheckoutURL, nil
}

// Callback resolves a gateway redirect and returns the storefront URL the
// customer should land on. The transaction must reference the order and, once
// the order has recorded a transaction, be that transaction.
func (b *Bridge) Callback(ctx context.Context, transactionID, orderID string) string {
	if transactionID == "" || orderID == "" {
		return b.checkoutError(CodeMissingParams)
	}

	id, err := uuid.FromString(orderID)
	if err != nil {
		return b.checkoutError(CodeMissingParams)
	}

	tx, err := b.gateway.GetTransaction(ctx, transactionID)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", transactionID).Stringer("order_id", id).Msg("payment: transaction lookup failed")
		return b.checkoutError(CodeTransactionLookupFailed)
	}

	ord, err := b.orders.GetOrderByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", id).Msg("payment: failed to load order for callback")
		return b.checkoutError(CodeOrderUpdateFailed)
	}

	if tx.Reference != ord.ID.String() || (ord.PaymentID != "" && ord.PaymentID != transactionID) {
		log.Warn().
			Str("transaction_id", transactionID).
			Str("reference", tx.Reference).
			Str("recorded_payment_id", ord.PaymentID).
			Stringer("order_id", id).
			Msg("payment: transaction does not belong to order")
		return b.checkoutError(CodeTransactionLookupFailed)
	}

	next, ok := OrderStatusFor(tx.Status)
	if !ok {
		log.Info().Str("transaction_id", transactionID).Str("status", string(tx.Status)).Stringer("order_id", id).Msg("payment: transaction not settled, order unchanged")
		return b.confirmation(id, string(order.StatusPending))
	}

	if _, err := b.orders.UpdateOrderStatus(ctx, id, next); err != nil {
		log.Error().Err(err).Stringer("order_id", id).Stringer("new_status", next).Msg("payment: failed to apply transaction status")
		return b.checkoutError(CodeOrderUpdateFailed)
	}

	switch tx.Status {
	case StatusDeclined:
		return b.checkoutError(CodePaymentDeclined)
	case StatusCancelled:
		return b.checkoutError(CodePaymentCancelled)
	}
	return b.confirmation(id, string(next))
}

func (b *Bridge) confirmation(orderID uuid.UUID, status string) string {
	return fmt.Sprintf("%s/orders/%s/confirmation?status=%s", b.storefrontURL, orderID, url.QueryEscape(status))
}

func (b *Bridge) checkoutError(code string) string {
	return b.storefrontURL + "/checkout?error=" + code
}
