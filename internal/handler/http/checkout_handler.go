package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"

	"github.com/GabrielMhv/D-Market-sub000/internal/cart"
	"github.com/GabrielMhv/D-Market-sub000/internal/checkout"
	"github.com/GabrielMhv/D-Market-sub000/internal/order"
	"github.com/GabrielMhv/D-Market-sub000/internal/settings"
	"github.com/GabrielMhv/D-Market-sub000/internal/user"
)

type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type SettingsReader interface {
	Get(ctx context.Context) settings.Settings
}

type SubmitOrderRequest struct {
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=cash_on_delivery online"`
}

type CheckoutResponse struct {
	Step        checkout.Step    `json:"step"`
	Details     checkout.Details `json:"details"`
	Cart        cart.Snapshot    `json:"cart"`
	DeliveryFee int64            `json:"delivery_fee"`
	Total       int64            `json:"total"`
}

type SubmitOrderErrorResponse struct {
	Error   string    `json:"error"`
	OrderID uuid.UUID `json:"order_id"`
}

type CheckoutHandler struct {
	checkout *checkout.Service
	carts    *cart.Service
	users    UserReader
	settings SettingsReader
	validate *validator.Validate
}

func NewCheckoutHandler(svc *checkout.Service, carts *cart.Service, users UserReader, shop SettingsReader) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, carts: carts, users: users, settings: shop, validate: newValidator()}
}

// RegisterRoutes mounts the open steps; submit is mounted separately behind auth.
func (h *CheckoutHandler) RegisterRoutes(router chi.Router) {
	router.Get("/checkout", h.handleGetCheckout)
	router.Post("/checkout/details", h.handleSubmitDetails)
	router.Post("/checkout/back", h.handleBack)
}

func (h *CheckoutHandler) respondWithFlow(w http.ResponseWriter, r *http.Request, code int, flow *checkout.Flow) {
	snap := h.carts.Open(r.Context(), sessionFrom(r.Context())).Snapshot()
	fee := h.settings.Get(r.Context()).DeliveryFeeFor(snap.Total)
	if snap.Count == 0 {
		fee = 0
	}
	respondWithJSON(w, code, CheckoutResponse{
		Step:        flow.Step,
		Details:     flow.Details,
		Cart:        snap,
		DeliveryFee: fee,
		Total:       snap.Total + fee,
	})
}

func (h *CheckoutHandler) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	h.respondWithFlow(w, r, http.StatusOK, h.checkout.State(r.Context(), sessionFrom(r.Context())))
}

func (h *CheckoutHandler) handleSubmitDetails(w http.ResponseWriter, r *http.Request) {
	// Field rules live in checkout.Details.Validate.
	var details checkout.Details
	if err := decodeJSON(r, &details); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	flow, err := h.checkout.SubmitDetails(r.Context(), sessionFrom(r.Context()), details)
	if err != nil {
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			respondValidation(w, verr.Fields)
			return
		}
		respondWithServiceError(w, err, "Failed to save delivery details")
		return
	}

	h.respondWithFlow(w, r, http.StatusOK, flow)
}

func (h *CheckoutHandler) handleBack(w http.ResponseWriter, r *http.Request) {
	flow, err := h.checkout.Back(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		respondWithServiceError(w, err, "Failed to update checkout")
		return
	}
	h.respondWithFlow(w, r, http.StatusOK, flow)
}

func (h *CheckoutHandler) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	claims := claimsFrom(r.Context())
	if claims == nil {
		respondWithError(w, http.StatusUnauthorized, errUnauthorized.Error())
		return
	}
	buyer, err := h.users.GetByID(r.Context(), claims.UserID())
	if err != nil {
		respondWithServiceError(w, err, "Failed to load account")
		return
	}

	method := order.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = order.PaymentCashOnDelivery
	}

	result, err := h.checkout.SubmitOrder(r.Context(), sessionFrom(r.Context()), checkout.Customer{UserID: buyer.ID, Email: buyer.Email}, method)
	if err != nil {
		if result != nil {
			respondWithJSON(w, mapErrorToStatusCode(err), SubmitOrderErrorResponse{
				Error:   "Order saved but payment could not be started",
				OrderID: result.OrderID,
			})
			return
		}
		respondWithServiceError(w, err, "Failed to submit order")
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}
