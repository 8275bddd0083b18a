package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/GabrielMhv/D-Market-sub000/internal/settings"
)

type SettingsHandler struct {
	service  settings.Service
	validate *validator.Validate
}

func NewSettingsHandler(s settings.Service) *SettingsHandler {
	return &SettingsHandler{service: s, validate: newValidator()}
}

func (h *SettingsHandler) RegisterRoutes(router chi.Router) {
	router.Get("/settings", h.handleGet)
}

func (h *SettingsHandler) RegisterAdminRoutes(router chi.Router) {
	router.Put("/admin/settings", h.handleUpdate)
}

func (h *SettingsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.Get(r.Context()))
}

func (h *SettingsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req settings.Settings
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update settings")
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}
