package settings

import "time"

// Settings is the single configuration document shared by every storefront session.
type Settings struct {
	ShopName              string    `json:"shop_name" validate:"required"`
	ContactEmail          string    `json:"contact_email" validate:"omitempty,email"`
	ContactPhone          string    `json:"contact_phone"`
	Currency              string    `json:"currency" validate:"required,len=3"`
	DeliveryFee           int64     `json:"delivery_fee" validate:"gte=0"`
	FreeDeliveryThreshold int64     `json:"free_delivery_threshold" validate:"gte=0"`
	LowStockThreshold     int       `json:"low_stock_threshold" validate:"gte=0"`
	NotifyOnNewOrder      bool      `json:"notify_on_new_order"`
	NotifyOnStatusChange  bool      `json:"notify_on_status_change"`
	AdminEmail            string    `json:"admin_email" validate:"omitempty,email"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Defaults is served whenever the stored document cannot be read.
func Defaults() Settings {
	return Settings{
		ShopName:             "D-Market",
		Currency:             "XOF",
		DeliveryFee:          1000,
		LowStockThreshold:    5,
		NotifyOnNewOrder:     true,
		NotifyOnStatusChange: true,
	}
}

// DeliveryFeeFor returns the fee charged for a cart subtotal.
func (s Settings) DeliveryFeeFor(subtotal int64) int64 {
	if s.FreeDeliveryThreshold > 0 && subtotal >= s.FreeDeliveryThreshold {
		return 0
	}
	return s.DeliveryFee
}
