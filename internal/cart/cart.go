package cart

import (
	"errors"

	"github.com/gofrs/uuid"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Product is the part of a catalog product copied into a cart line.
type Product struct {
	ID    uuid.UUID
	Name  string
	Image string
	Price int64
}

// Item is one cart line. Lines are keyed by product and size; color rides
// along with the first line added for that key.
type Item struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	ProductImage string    `json:"product_image,omitempty"`
	Price        int64     `json:"price"`
	Quantity     int       `json:"quantity"`
	Size         string    `json:"size,omitempty"`
	Color        string    `json:"color,omitempty"`
}

func (i Item) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

func (i Item) matches(productID uuid.UUID, size string) bool {
	return i.ProductID == productID && i.Size == size
}

// Snapshot is a read-only view of a cart with its derived values.
type Snapshot struct {
	Items []Item `json:"items"`
	Count int    `json:"count"`
	Total int64  `json:"total"`
}

func snapshotOf(items []Item) Snapshot {
	return Snapshot{Items: cloneItems(items), Count: Count(items), Total: Total(items)}
}

// Count is the sum of quantities.
func Count(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Total is the sum of price times quantity. Delivery is added at checkout.
func Total(items []Item) int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func addItem(items []Item, p Product, quantity int, size, color string) []Item {
	next := cloneItems(items)
	for i := range next {
		if next[i].matches(p.ID, size) {
			next[i].Quantity += quantity
			return next
		}
	}

	return append(next, Item{
		ProductID:    p.ID,
		ProductName:  p.Name,
		ProductImage: p.Image,
		Price:        p.Price,
		Quantity:     quantity,
		Size:         size,
		Color:        color,
	})
}

func removeItem(items []Item, productID uuid.UUID, size string) ([]Item, bool) {
	for i := range items {
		if items[i].matches(productID, size) {
			next := make([]Item, 0, len(items)-1)
			next = append(next, items[:i]...)
			return append(next, items[i+1:]...), true
		}
	}
	return items, false
}

func setQuantity(items []Item, productID uuid.UUID, size string, quantity int) ([]Item, bool) {
	for i := range items {
		if items[i].matches(productID, size) {
			if items[i].Quantity == quantity {
				return items, false
			}
			next := cloneItems(items)
			next[i].Quantity = quantity
			return next, true
		}
	}
	return items, false
}
