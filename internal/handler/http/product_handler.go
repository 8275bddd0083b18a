package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"

	"github.com/GabrielMhv/D-Market-sub000/internal/product"
)

type ProductRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description"`
	ImageURLs   []string `json:"image_urls" validate:"dive,url"`
	Price       int64    `json:"price" validate:"gte=0"`
	OldPrice    *int64   `json:"old_price" validate:"omitempty,gte=0"`
	Category    string   `json:"category" validate:"required,oneof=men women kids shoes accessories"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	Stock       int      `json:"stock" validate:"gte=0"`
	IsNew       bool     `json:"is_new"`
	Featured    bool     `json:"featured"`
}

func (req ProductRequest) toProduct(id uuid.UUID) *product.Product {
	return &product.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		ImageURLs:   req.ImageURLs,
		Price:       req.Price,
		OldPrice:    req.OldPrice,
		Category:    product.Category(req.Category),
		Sizes:       req.Sizes,
		Colors:      req.Colors,
		Stock:       req.Stock,
		IsNew:       req.IsNew,
		Featured:    req.Featured,
	}
}

type ProductHandler struct {
	service  product.Service
	settings SettingsReader
	validate *validator.Validate
}

func NewProductHandler(s product.Service, shop SettingsReader) *ProductHandler {
	return &ProductHandler{service: s, settings: shop, validate: newValidator()}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Get("/products", h.handleList)
	router.Get("/products/{productID}", h.handleGet)
}

func (h *ProductHandler) RegisterAdminRoutes(router chi.Router) {
	router.Route("/admin/products", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/low-stock", h.handleLowStock)
		r.Put("/{productID}", h.handleUpdate)
		r.Delete("/{productID}", h.handleDelete)
	})
}

func parseBoolQuery(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseIntQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func (h *ProductHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := product.Filter{
		Category: product.Category(q.Get("category")),
		Search:   q.Get("q"),
	}

	var err error
	if filter.Featured, err = parseBoolQuery(r, "featured"); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid featured parameter")
		return
	}
	if filter.IsNew, err = parseBoolQuery(r, "new"); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid new parameter")
		return
	}
	if filter.Limit, err = parseIntQuery(r, "limit"); err != nil || filter.Limit < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
		return
	}
	if filter.Offset, err = parseIntQuery(r, "offset"); err != nil || filter.Offset < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid offset parameter")
		return
	}

	products, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list products")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "productID")
	if !ok {
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get product")
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := h.settings.Get(r.Context()).LowStockThreshold
	products, err := h.service.List(r.Context(), product.Filter{StockAtMost: &threshold})
	if err != nil {
		respondWithServiceError(w, err, "Failed to list products")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), req.toProduct(uuid.Nil))
	if err != nil {
		respondWithServiceError(w, err, "Failed to create product")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "productID")
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), req.toProduct(id))
	if err != nil {
		respondWithServiceError(w, err, "Failed to update product")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "productID")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
