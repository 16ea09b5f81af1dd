package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryOption is one admin-configured delivery tier. Position fixes the
// order the options appear in; quote requests address them by index.
type DeliveryOption struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string          `gorm:"column:name;not null"`
	DaysToDeliver        int             `gorm:"column:days_to_deliver;not null"`
	ShippingPrice        decimal.Decimal `gorm:"column:shipping_price;type:numeric(12,2);not null"`
	FreeShippingMinPrice decimal.Decimal `gorm:"column:free_shipping_min_price;type:numeric(12,2);not null;default:0"`
	Position             int             `gorm:"column:position;not null"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
