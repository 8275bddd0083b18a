package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusPaid       OrderStatus = "paid"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

func (os OrderStatus) String() string {
	return string(os)
}

// Valid reports whether the status is one of the known values.
func (os OrderStatus) Valid() bool {
	_, ok := allowedTransitions[os]
	return ok
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentOnline         PaymentMethod = "online"
)

// DeliveryAddress is the frozen copy of the shipping destination stored with an order.
type DeliveryAddress struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country,omitempty"`
}

// OrderItem snapshots the product at order time. Later product edits never touch it.
type OrderItem struct {
	ID           uuid.UUID `json:"id"`
	OrderID      uuid.UUID `json:"order_id"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	ProductImage string    `json:"product_image,omitempty"`
	Price        int64     `json:"price"`
	Quantity     int       `json:"quantity"`
	Size         string    `json:"size,omitempty"`
	Color        string    `json:"color,omitempty"`
}

func (i OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	UserEmail       string          `json:"user_email"`
	Items           []OrderItem     `json:"items"`
	Subtotal        int64           `json:"subtotal"`
	DeliveryFee     int64           `json:"delivery_fee"`
	Discount        int64           `json:"discount"`
	Total           int64           `json:"total"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentID       string          `json:"payment_id,omitempty"`
	DeliveryAddress DeliveryAddress `json:"delivery_address"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// StatusChanged is published after a status update has been persisted.
type StatusChanged struct {
	Order Order
	From  OrderStatus
}
