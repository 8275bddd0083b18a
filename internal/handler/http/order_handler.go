package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/GabrielMhv/D-Market-sub000/internal/order"
	"github.com/GabrielMhv/D-Market-sub000/internal/user"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid processing shipped delivered cancelled"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(s order.Service) *OrderHandler {
	return &OrderHandler{service: s, validate: newValidator()}
}

// RegisterRoutes expects an authenticated router.
func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Get("/orders", h.handleListMyOrders)
	router.Get("/orders/{orderID}", h.handleGetOrder)
}

// RegisterAdminRoutes expects a router that already enforces the admin role.
func (h *OrderHandler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/admin/orders", h.handleListOrders)
	router.Patch("/admin/orders/{orderID}/status", h.handleUpdateStatus)
}

func (h *OrderHandler) handleListMyOrders(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	orders, err := h.service.GetOrdersByUserID(r.Context(), claims.UserID())
	if err != nil {
		respondWithServiceError(w, err, "Failed to get orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

// handleGetOrder answers 404 for orders the caller does not own so that
// order ids cannot be probed.
func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r, "orderID")
	if !ok {
		return
	}

	ord, err := h.service.GetOrderByID(r.Context(), orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}

	claims := claimsFrom(r.Context())
	if ord.UserID != claims.UserID() && claims.Role != user.RoleAdmin {
		log.Warn().Stringer("order_id", orderID).Stringer("user_id", claims.UserID()).Msg("Order requested by non-owner")
		respondWithError(w, http.StatusNotFound, order.ErrOrderNotFound.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, ord)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	status := order.OrderStatus(r.URL.Query().Get("status"))
	orders, err := h.service.ListOrders(r.Context(), status)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r, "orderID")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.UpdateOrderStatus(r.Context(), orderID, order.OrderStatus(req.Status))
	if err != nil {
		var transitionErr *order.TransitionError
		if errors.As(err, &transitionErr) {
			respondWithError(w, http.StatusConflict, transitionErr.Error())
			return
		}
		respondWithServiceError(w, err, "Failed to update order status")
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}
