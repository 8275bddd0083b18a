package product_test

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/GabrielMhv/D-Market-sub000/internal/product"
)

func int64Ptr(v int64) *int64 { return &v }

func validProduct() product.Product {
	return product.Product{
		Name:      "Linen shirt",
		Price:     8500,
		Category:  product.CategoryMen,
		Stock:     10,
		Sizes:     pq.StringArray{"S", "M"},
		ImageURLs: pq.StringArray{"a.jpg"},
	}
}

func TestProduct_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *product.Product)
		wantErr bool
	}{
		{name: "valid", mutate: func(p *product.Product) {}},
		{name: "free_item", mutate: func(p *product.Product) { p.Price = 0 }},
		{name: "discounted", mutate: func(p *product.Product) { p.OldPrice = int64Ptr(9900) }},
		{name: "no_name", mutate: func(p *product.Product) { p.Name = "" }, wantErr: true},
		{name: "negative_price", mutate: func(p *product.Product) { p.Price = -1 }, wantErr: true},
		{name: "negative_stock", mutate: func(p *product.Product) { p.Stock = -3 }, wantErr: true},
		{name: "old_price_equal", mutate: func(p *product.Product) { p.OldPrice = int64Ptr(8500) }, wantErr: true},
		{name: "old_price_lower", mutate: func(p *product.Product) { p.OldPrice = int64Ptr(100) }, wantErr: true},
		{name: "unknown_category", mutate: func(p *product.Product) { p.Category = "pets" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProduct()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, product.ErrInvalidProduct)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProduct_Normalize(t *testing.T) {
	p := product.Product{
		Name:   "  Cap ",
		Sizes:  pq.StringArray{"M", "S", "M", " ", "L", "S"},
		Colors: pq.StringArray{"red", "red", "blue"},
	}
	p.Normalize()

	assert.Equal(t, "Cap", p.Name)
	if diff := cmp.Diff(pq.StringArray{"M", "S", "L"}, p.Sizes); diff != "" {
		t.Errorf("sizes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(pq.StringArray{"red", "blue"}, p.Colors); diff != "" {
		t.Errorf("colors mismatch (-want +got):\n%s", diff)
	}
}

func TestProduct_CartProduct(t *testing.T) {
	p := validProduct()
	p.ID = uuid.Must(uuid.NewV4())
	p.ImageURLs = pq.StringArray{"front.jpg", "back.jpg"}

	cp := p.CartProduct()
	assert.Equal(t, p.ID, cp.ID)
	assert.Equal(t, "front.jpg", cp.Image)
	assert.Equal(t, int64(8500), cp.Price)

	p.ImageURLs = nil
	assert.Empty(t, p.CartProduct().Image)
}
