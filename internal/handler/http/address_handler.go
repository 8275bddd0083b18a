package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/GabrielMhv/D-Market-sub000/internal/address"
)

type AddAddressRequest struct {
	Label     string `json:"label" validate:"max=50"`
	Name      string `json:"name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	Country   string `json:"country"`
	IsDefault bool   `json:"is_default"`
}

type AddressHandler struct {
	service  address.Service
	validate *validator.Validate
}

func NewAddressHandler(s address.Service) *AddressHandler {
	return &AddressHandler{service: s, validate: newValidator()}
}

// RegisterRoutes expects an authenticated router.
func (h *AddressHandler) RegisterRoutes(router chi.Router) {
	router.Route("/addresses", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleAdd)
		r.Put("/{addressID}/default", h.handleSetDefault)
		r.Delete("/{addressID}", h.handleDelete)
	})
}

func (h *AddressHandler) handleList(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.service.List(r.Context(), claimsFrom(r.Context()).UserID())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list addresses")
		return
	}
	respondWithJSON(w, http.StatusOK, addresses)
}

func (h *AddressHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req AddAddressRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.Add(r.Context(), &address.Address{
		UserID:    claimsFrom(r.Context()).UserID(),
		Label:     req.Label,
		Name:      req.Name,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to add address")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *AddressHandler) handleSetDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "addressID")
	if !ok {
		return
	}

	if err := h.service.SetDefault(r.Context(), claimsFrom(r.Context()).UserID(), id); err != nil {
		respondWithServiceError(w, err, "Failed to set default address")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AddressHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "addressID")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), claimsFrom(r.Context()).UserID(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete address")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
