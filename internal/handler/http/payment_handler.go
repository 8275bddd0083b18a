package http

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GabrielMhv/D-Market-sub000/internal/order"
	"github.com/GabrielMhv/D-Market-sub000/internal/payment"
)

type PaymentBridge interface {
	CreateTransaction(ctx context.Context, amount int64, description, orderID string, customer payment.Customer) (*payment.Transaction, error)
	Callback(ctx context.Context, transactionID, orderID string) string
}

type OrderLookup interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	SetPaymentID(ctx context.Context, orderID uuid.UUID, paymentID string) error
}

// CreateTransactionRequest keeps the camelCase field names the storefront
// client already sends.
type CreateTransactionRequest struct {
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Description   string `json:"description" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	CustomerPhone string `json:"customerPhone"`
	CustomerName  string `json:"customerName" validate:"required"`
	OrderID       string `json:"orderId" validate:"required,uuid"`
}

type CreateTransactionResponse struct {
	TransactionID string `json:"transactionId"`
	CheckoutURL   string `json:"checkoutUrl"`
}

type PaymentHandler struct {
	bridge   PaymentBridge
	orders   OrderLookup
	validate *validator.Validate
}

func NewPaymentHandler(bridge PaymentBridge, orders OrderLookup) *PaymentHandler {
	return &PaymentHandler{bridge: bridge, orders: orders, validate: newValidator()}
}

// RegisterRoutes mounts the gateway callback, which carries no credentials.
func (h *PaymentHandler) RegisterRoutes(router chi.Router) {
	router.Get("/payment/callback", h.handleCallback)
}

// RegisterAuthenticatedRoutes expects an authenticated router.
func (h *PaymentHandler) RegisterAuthenticatedRoutes(router chi.Router) {
	router.Post("/payment/create-transaction", h.handleCreateTransaction)
}

func (h *PaymentHandler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
			return
		}
		fields := make([]string, 0, len(validationErrors))
		for field := range formatValidationErrors(validationErrors) {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		respondWithError(w, http.StatusBadRequest, "Missing or invalid fields: "+strings.Join(fields, ", "))
		return
	}

	orderID := uuid.FromStringOrNil(req.OrderID)
	ord, err := h.orders.GetOrderByID(r.Context(), orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load order")
		return
	}

	claims := claimsFrom(r.Context())
	if ord.UserID != claims.UserID() {
		log.Warn().Stringer("order_id", orderID).Stringer("user_id", claims.UserID()).Msg("Payment requested by non-owner")
		respondWithError(w, http.StatusNotFound, order.ErrOrderNotFound.Error())
		return
	}
	if ord.Status != order.StatusPending {
		respondWithError(w, http.StatusConflict, "Order is not awaiting payment")
		return
	}
	// Orders are charged their stored total, never a client-chosen amount.
	if ord.Total != req.Amount {
		respondWithError(w, http.StatusBadRequest, "Amount does not match order total")
		return
	}

	tx, err := h.bridge.CreateTransaction(r.Context(), req.Amount, req.Description, req.OrderID, payment.Customer{
		Name:  req.CustomerName,
		Email: req.CustomerEmail,
		Phone: req.CustomerPhone,
	})
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create transaction")
		return
	}

	if err := h.orders.SetPaymentID(r.Context(), orderID, tx.ID); err != nil {
		log.Warn().Err(err).Stringer("order_id", orderID).Str("transaction_id", tx.ID).Msg("Failed to record transaction on order")
	}

	respondWithJSON(w, http.StatusOK, CreateTransactionResponse{TransactionID: tx.ID, CheckoutURL: tx.CheckoutURL})
}

func (h *PaymentHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	transactionID := q.Get("transaction_id")
	if transactionID == "" {
		transactionID = q.Get("id")
	}

	target := h.bridge.Callback(r.Context(), transactionID, q.Get("orderId"))
	http.Redirect(w, r, target, http.StatusFound)
}
