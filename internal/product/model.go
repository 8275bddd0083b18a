package product

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/lib/pq"

	"github.com/GabrielMhv/D-Market-sub000/internal/cart"
)

type Category string

const (
	CategoryMen         Category = "men"
	CategoryWomen       Category = "women"
	CategoryKids        Category = "kids"
	CategoryShoes       Category = "shoes"
	CategoryAccessories Category = "accessories"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMen, CategoryWomen, CategoryKids, CategoryShoes, CategoryAccessories:
		return true
	}
	return false
}

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
)

type Product struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description" db:"description"`
	ImageURLs   pq.StringArray `json:"image_urls" db:"image_urls"`
	Price       int64          `json:"price" db:"price"`
	OldPrice    *int64         `json:"old_price,omitempty" db:"old_price"`
	Category    Category       `json:"category" db:"category"`
	Sizes       pq.StringArray `json:"sizes" db:"sizes"`
	Colors      pq.StringArray `json:"colors" db:"colors"`
	Stock       int            `json:"stock" db:"stock"`
	IsNew       bool           `json:"is_new" db:"is_new"`
	Featured    bool           `json:"featured" db:"featured"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// PrimaryImage is the first image URL, or "" when there is none.
func (p Product) PrimaryImage() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

// CartProduct is the snapshot a cart line keeps of p.
func (p Product) CartProduct() cart.Product {
	return cart.Product{ID: p.ID, Name: p.Name, Image: p.PrimaryImage(), Price: p.Price}
}

// Normalize trims text fields and collapses duplicate sizes and colors,
// keeping first occurrences.
func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.ImageURLs = dedupe(p.ImageURLs)
	p.Sizes = dedupe(p.Sizes)
	p.Colors = dedupe(p.Colors)
}

func (p Product) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case !p.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidProduct, p.Category)
	case p.Price < 0:
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidProduct)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	case p.OldPrice != nil && *p.OldPrice <= p.Price:
		return fmt.Errorf("%w: old price must be greater than price", ErrInvalidProduct)
	}
	return nil
}

func dedupe(values []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Filter narrows List. Zero values mean "any".
type Filter struct {
	Category    Category
	Featured    *bool
	IsNew       *bool
	Search      string
	StockAtMost *int
	Limit       int
	Offset      int
}
