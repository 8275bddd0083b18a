package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GabrielMhv/D-Market-sub000/internal/cart"
	"github.com/GabrielMhv/D-Market-sub000/internal/product"
)

type ProductReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
}

type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type UpdateCartItemRequest struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type CartHandler struct {
	carts    *cart.Service
	products ProductReader
	validate *validator.Validate
}

func NewCartHandler(carts *cart.Service, products ProductReader) *CartHandler {
	return &CartHandler{carts: carts, products: products, validate: newValidator()}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Get("/cart", h.handleGetCart)
	router.Post("/cart/items", h.handleAddItem)
	router.Patch("/cart/items/{productID}", h.handleUpdateItem)
	router.Delete("/cart/items/{productID}", h.handleRemoveItem)
	router.Delete("/cart", h.handleClear)
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Open(r.Context(), sessionFrom(r.Context()))
	respondWithJSON(w, http.StatusOK, store.Snapshot())
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	p, err := h.products.GetByID(r.Context(), uuid.FromStringOrNil(req.ProductID))
	if err != nil {
		respondWithServiceError(w, err, "Failed to load product")
		return
	}

	if len(p.Sizes) > 0 && !contains(p.Sizes, req.Size) {
		respondValidation(w, map[string]string{"size": "Size is not available for this product"})
		return
	}

	store := h.carts.Open(r.Context(), sessionFrom(r.Context()))
	if err := store.Add(r.Context(), p.CartProduct(), req.Quantity, req.Size, req.Color); err != nil {
		respondWithServiceError(w, err, "Failed to add item to cart")
		return
	}

	respondWithJSON(w, http.StatusOK, store.Snapshot())
}

func (h *CartHandler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, r, "productID")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	store := h.carts.Open(r.Context(), sessionFrom(r.Context()))
	if err := store.UpdateQuantity(r.Context(), productID, req.Size, req.Quantity); err != nil {
		respondWithServiceError(w, err, "Failed to update cart")
		return
	}

	respondWithJSON(w, http.StatusOK, store.Snapshot())
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, r, "productID")
	if !ok {
		return
	}

	store := h.carts.Open(r.Context(), sessionFrom(r.Context()))
	if err := store.Remove(r.Context(), productID, r.URL.Query().Get("size")); err != nil {
		respondWithServiceError(w, err, "Failed to update cart")
		return
	}

	respondWithJSON(w, http.StatusOK, store.Snapshot())
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Open(r.Context(), sessionFrom(r.Context()))
	if err := store.Clear(r.Context()); err != nil {
		respondWithServiceError(w, err, "Failed to clear cart")
		return
	}

	respondWithJSON(w, http.StatusOK, store.Snapshot())
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, name)
	id, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str(name, idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
