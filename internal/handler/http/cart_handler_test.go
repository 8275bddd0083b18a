package http_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielMhv/D-Market-sub000/internal/cart"
	handler "github.com/GabrielMhv/D-Market-sub000/internal/handler/http"
	"github.com/GabrielMhv/D-Market-sub000/internal/product"
)

type stubProducts map[uuid.UUID]*product.Product

func (s stubProducts) GetByID(_ context.Context, id uuid.UUID) (*product.Product, error) {
	p, ok := s[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return p, nil
}

func newCartRouter(products stubProducts) (chi.Router, *cart.Service) {
	carts := cart.NewService(cart.NewMemorySlot())
	router := chi.NewRouter()
	router.Use(handler.CartSession(time.Hour))
	handler.NewCartHandler(carts, products).RegisterRoutes(router)
	return router, carts
}

func shirt() *product.Product {
	return &product.Product{
		ID:        uuid.Must(uuid.NewV4()),
		Name:      "Linen shirt",
		Price:     8500,
		ImageURLs: []string{"https://cdn.example.com/shirt.jpg"},
		Sizes:     []string{"S", "M", "L"},
		Category:  product.CategoryMen,
	}
}

func TestCartHandler_AddItem(t *testing.T) {
	p := shirt()
	router, _ := newCartRouter(stubProducts{p.ID: p})
	session := uuid.Must(uuid.NewV4()).String()

	add := func(body interface{}) *http.Request {
		req := newJSONRequest(t, http.MethodPost, "/cart/items", body)
		req.Header.Set(handler.SessionHeader, session)
		return req
	}

	rr := serve(router, add(handler.AddCartItemRequest{ProductID: p.ID.String(), Quantity: 1, Size: "M", Color: "white"}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = serve(router, add(handler.AddCartItemRequest{ProductID: p.ID.String(), Quantity: 1, Size: "M"}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var snap cart.Snapshot
	decodeBody(t, rr, &snap)

	want := cart.Snapshot{
		Items: []cart.Item{{
			ProductID:    p.ID,
			ProductName:  "Linen shirt",
			ProductImage: "https://cdn.example.com/shirt.jpg",
			Price:        8500,
			Quantity:     2,
			Size:         "M",
			Color:        "white",
		}},
		Count: 2,
		Total: 17000,
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("cart snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestCartHandler_AddItem_Rejects(t *testing.T) {
	p := shirt()
	router, _ := newCartRouter(stubProducts{p.ID: p})

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
	}{
		{
			name:     "unavailable_size",
			body:     handler.AddCartItemRequest{ProductID: p.ID.String(), Quantity: 1, Size: "XXL"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "zero_quantity",
			body:     handler.AddCartItemRequest{ProductID: p.ID.String(), Quantity: 0, Size: "M"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown_product",
			body:     handler.AddCartItemRequest{ProductID: uuid.Must(uuid.NewV4()).String(), Quantity: 1, Size: "M"},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "unknown_field",
			body:     `{"product_id":"` + p.ID.String() + `","quantity":1,"discount":50}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(router, newJSONRequest(t, http.MethodPost, "/cart/items", tt.body))
			assert.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
		})
	}
}

func TestCartHandler_UpdateRemoveClear(t *testing.T) {
	p := shirt()
	router, carts := newCartRouter(stubProducts{p.ID: p})
	session := uuid.Must(uuid.NewV4()).String()
	ctx := context.Background()

	store := carts.Open(ctx, session)
	require.NoError(t, store.Add(ctx, p.CartProduct(), 1, "M", ""))
	require.NoError(t, store.Add(ctx, p.CartProduct(), 1, "L", ""))

	withSession := func(req *http.Request) *http.Request {
		req.Header.Set(handler.SessionHeader, session)
		return req
	}

	rr := serve(router, withSession(newJSONRequest(t, http.MethodPatch, "/cart/items/"+p.ID.String(), handler.UpdateCartItemRequest{Size: "M", Quantity: 3})))
	require.Equal(t, http.StatusOK, rr.Code)
	var snap cart.Snapshot
	decodeBody(t, rr, &snap)
	assert.Equal(t, 4, snap.Count)

	rr = serve(router, withSession(newJSONRequest(t, http.MethodPatch, "/cart/items/"+p.ID.String(), handler.UpdateCartItemRequest{Size: "M", Quantity: 0})))
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &snap)
	assert.Equal(t, 4, snap.Count, "quantities below one are ignored")

	rr = serve(router, withSession(newJSONRequest(t, http.MethodDelete, "/cart/items/"+p.ID.String()+"?size=L", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &snap)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "M", snap.Items[0].Size)

	rr = serve(router, withSession(newJSONRequest(t, http.MethodDelete, "/cart/items/not-a-uuid", nil)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(router, withSession(newJSONRequest(t, http.MethodDelete, "/cart", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &snap)
	assert.Zero(t, snap.Count)
	assert.Zero(t, carts.Open(ctx, session).Count())
}
