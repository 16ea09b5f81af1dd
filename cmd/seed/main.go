package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopora/storefront-backend/internal/settings"
	"github.com/shopora/storefront-backend/pkg/config"
	"github.com/shopora/storefront-backend/pkg/db"
	"github.com/shopora/storefront-backend/pkg/db/models"
	"github.com/shopora/storefront-backend/pkg/enums"
	"github.com/shopora/storefront-backend/pkg/logger"
	"github.com/shopora/storefront-backend/pkg/security"
)

// Seeds the storefront with its configuration row, delivery tiers, an admin
// account, and a demo catalog. Safe to run repeatedly.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := seedSettings(ctx, tx); err != nil {
			return err
		}
		if err := seedAdmin(ctx, tx, cfg); err != nil {
			return err
		}
		return seedProducts(ctx, tx)
	}); err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}

	logg.Info(ctx, "seed completed")
}

func seedSettings(ctx context.Context, tx *gorm.DB) error {
	repo := settings.NewRepository(tx)

	if _, err := repo.GetSetting(ctx); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		setting := &models.Setting{
			SiteName:             "Storefront",
			TaxRate:              decimal.RequireFromString("0.15"),
			PageSize:             9,
			DefaultPaymentMethod: enums.PaymentMethodPayPal,
			Currency:             "USD",
		}
		if err := repo.SaveSetting(ctx, setting); err != nil {
			return err
		}
	}

	existing, err := repo.ListDeliveryOptions(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return repo.ReplaceDeliveryOptions(ctx, []models.DeliveryOption{
		{
			Name:          "Tomorrow",
			DaysToDeliver: 1,
			ShippingPrice: decimal.RequireFromString("12.9"),
			Position:      0,
		},
		{
			Name:          "Next 3 Days",
			DaysToDeliver: 3,
			ShippingPrice: decimal.RequireFromString("6.9"),
			Position:      1,
		},
		{
			Name:                 "Next 5 Days",
			DaysToDeliver:        5,
			ShippingPrice:        decimal.RequireFromString("4.9"),
			FreeShippingMinPrice: decimal.RequireFromString("35"),
			Position:             2,
		},
	})
}

func seedAdmin(ctx context.Context, tx *gorm.DB, cfg *config.Config) error {
	email := os.Getenv("STOREFRONT_SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}
	password := os.Getenv("STOREFRONT_SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
	}

	hash, err := security.HashPassword(password, cfg.Password)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:         "Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleAdmin,
		IsActive:     true,
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(&admin).Error
}

func seedProducts(ctx context.Context, tx *gorm.DB) error {
	demo := []models.Product{
		{
			Name:         "Wireless Over-Ear Headphones",
			Slug:         "wireless-over-ear-headphones",
			Category:     "Electronics",
			Brand:        "Aural",
			Description:  "Closed-back wireless headphones with 40 hour battery life.",
			Images:       pq.StringArray{"/images/headphones-1.jpg"},
			Tags:         pq.StringArray{"new-arrival", "featured"},
			Price:        decimal.RequireFromString("89.99"),
			ListPrice:    decimal.RequireFromString("119.99"),
			CountInStock: 25,
			IsPublished:  true,
		},
		{
			Name:         "Stainless Steel Water Bottle",
			Slug:         "stainless-steel-water-bottle",
			Category:     "Outdoors",
			Brand:        "Peak",
			Description:  "Vacuum insulated 750ml bottle, keeps drinks cold for 24 hours.",
			Images:       pq.StringArray{"/images/bottle-1.jpg"},
			Tags:         pq.StringArray{"best-seller"},
			Price:        decimal.RequireFromString("24.50"),
			ListPrice:    decimal.RequireFromString("24.50"),
			CountInStock: 120,
			IsPublished:  true,
		},
		{
			Name:         "Mechanical Keyboard",
			Slug:         "mechanical-keyboard",
			Category:     "Electronics",
			Brand:        "Keybright",
			Description:  "Tenkeyless mechanical keyboard with hot-swappable switches.",
			Images:       pq.StringArray{"/images/keyboard-1.jpg"},
			Tags:         pq.StringArray{"featured"},
			Price:        decimal.RequireFromString("74.00"),
			ListPrice:    decimal.RequireFromString("89.00"),
			CountInStock: 40,
			IsPublished:  true,
		},
	}

	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).
		Create(&demo).Error
}
