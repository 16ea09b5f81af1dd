package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopora/storefront-backend/pkg/db/models"
	"github.com/shopora/storefront-backend/pkg/enums"
	"github.com/shopora/storefront-backend/pkg/types"
)

// CreateItemInput is one cart line handed over at commit time. Quantities
// come from the client; prices never do.
type CreateItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateInput carries everything needed to commit an order.
type CreateInput struct {
	UserID            uuid.UUID
	Items             []CreateItemInput
	ShippingAddress   types.ShippingAddress
	PaymentMethod     enums.PaymentMethod
	DeliveryDateIndex *int
}

// Actor identifies the caller for ownership checks.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// ListResult wraps a page of orders with page bookkeeping.
type ListResult struct {
	Orders     []models.Order `json:"orders"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

// SummaryTotals are the headline back-office aggregates.
type SummaryTotals struct {
	OrdersCount   int64           `json:"ordersCount"`
	UsersCount    int64           `json:"usersCount"`
	ProductsCount int64           `json:"productsCount"`
	TotalSales    decimal.Decimal `json:"totalSales"`
}

// MonthlySales is one month's revenue bucket for the sales chart.
type MonthlySales struct {
	Month      string          `gorm:"column:month" json:"month"`
	TotalSales decimal.Decimal `gorm:"column:total_sales" json:"totalSales"`
}

// Summary is the admin dashboard payload.
type Summary struct {
	SummaryTotals
	MonthlySales []MonthlySales `json:"monthlySales"`
	LatestOrders []models.Order `json:"latestOrders"`
}
