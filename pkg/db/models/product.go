package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a catalog listing.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	Slug         string          `gorm:"column:slug;not null;uniqueIndex"`
	Category     string          `gorm:"column:category;not null"`
	Brand        string          `gorm:"column:brand;not null"`
	Description  string          `gorm:"column:description;type:text;not null"`
	Images       pq.StringArray  `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	Tags         pq.StringArray  `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ListPrice    decimal.Decimal `gorm:"column:list_price;type:numeric(12,2);not null"`
	CountInStock int             `gorm:"column:count_in_stock;not null;default:0"`
	AvgRating    decimal.Decimal `gorm:"column:avg_rating;type:numeric(3,2);not null;default:0"`
	NumReviews   int             `gorm:"column:num_reviews;not null;default:0"`
	NumSales     int             `gorm:"column:num_sales;not null;default:0"`
	IsPublished  bool            `gorm:"column:is_published;not null;default:false"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
