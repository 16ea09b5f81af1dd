package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopora/storefront-backend/pkg/enums"
)

// Setting is the storefront's singleton configuration row.
type Setting struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SiteName             string              `gorm:"column:site_name;not null"`
	TaxRate              decimal.Decimal     `gorm:"column:tax_rate;type:numeric(5,4);not null;default:0.15"`
	PageSize             int                 `gorm:"column:page_size;not null;default:9"`
	DefaultPaymentMethod enums.PaymentMethod `gorm:"column:default_payment_method;type:text;not null;default:'paypal'"`
	Currency             string              `gorm:"column:currency;not null;default:'USD'"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
