package settings

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopora/storefront-backend/pkg/db/models"
	"github.com/shopora/storefront-backend/pkg/enums"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Snapshot is the storefront configuration returned to the back office.
type Snapshot struct {
	Setting         models.Setting          `json:"setting"`
	DeliveryOptions []models.DeliveryOption `json:"deliveryOptions"`
}

// UpdateInput carries the admin-editable settings fields.
type UpdateInput struct {
	SiteName             *string
	TaxRate              *decimal.Decimal
	PageSize             *int
	DefaultPaymentMethod *enums.PaymentMethod
	Currency             *string
	DeliveryOptions      *[]DeliveryOptionInput
}

// DeliveryOptionInput is one delivery tier as submitted by the back office.
type DeliveryOptionInput struct {
	Name                 string
	DaysToDeliver        int
	ShippingPrice        decimal.Decimal
	FreeShippingMinPrice decimal.Decimal
}

// Service exposes storefront configuration reads and admin updates.
type Service interface {
	Get(ctx context.Context) (*Snapshot, error)
	Update(ctx context.Context, input UpdateInput) (*Snapshot, error)
	DeliveryOptions(ctx context.Context) ([]models.DeliveryOption, error)
	TaxRate(ctx context.Context) (decimal.Decimal, error)
	Currency(ctx context.Context) (string, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the settings service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Get(ctx context.Context) (*Snapshot, error) {
	setting, err := s.setting(ctx)
	if err != nil {
		return nil, err
	}
	options, err := s.repo.ListDeliveryOptions(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery options")
	}
	return &Snapshot{Setting: *setting, DeliveryOptions: options}, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*Snapshot, error) {
	if input.TaxRate != nil && (input.TaxRate.IsNegative() || input.TaxRate.GreaterThan(decimal.NewFromInt(1))) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be between 0 and 1")
	}
	if input.PageSize != nil && *input.PageSize <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "page size must be positive")
	}
	if input.DefaultPaymentMethod != nil && !input.DefaultPaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.DeliveryOptions != nil {
		for _, option := range *input.DeliveryOptions {
			if option.Name == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery option name required")
			}
			if option.DaysToDeliver <= 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "days to deliver must be positive")
			}
			if option.ShippingPrice.IsNegative() || option.FreeShippingMinPrice.IsNegative() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery prices must not be negative")
			}
		}
	}

	setting, err := s.setting(ctx)
	if err != nil {
		return nil, err
	}

	if input.SiteName != nil {
		setting.SiteName = *input.SiteName
	}
	if input.TaxRate != nil {
		setting.TaxRate = *input.TaxRate
	}
	if input.PageSize != nil {
		setting.PageSize = *input.PageSize
	}
	if input.DefaultPaymentMethod != nil {
		setting.DefaultPaymentMethod = *input.DefaultPaymentMethod
	}
	if input.Currency != nil {
		setting.Currency = *input.Currency
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.SaveSetting(ctx, setting); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save settings")
		}
		if input.DeliveryOptions != nil {
			options := make([]models.DeliveryOption, 0, len(*input.DeliveryOptions))
			for i, option := range *input.DeliveryOptions {
				options = append(options, models.DeliveryOption{
					Name:                 option.Name,
					DaysToDeliver:        option.DaysToDeliver,
					ShippingPrice:        option.ShippingPrice,
					FreeShippingMinPrice: option.FreeShippingMinPrice,
					Position:             i,
				})
			}
			if err := repo.ReplaceDeliveryOptions(ctx, options); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace delivery options")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx)
}

func (s *service) DeliveryOptions(ctx context.Context) ([]models.DeliveryOption, error) {
	options, err := s.repo.ListDeliveryOptions(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery options")
	}
	return options, nil
}

func (s *service) Currency(ctx context.Context) (string, error) {
	setting, err := s.setting(ctx)
	if err != nil {
		return "", err
	}
	return setting.Currency, nil
}

func (s *service) TaxRate(ctx context.Context) (decimal.Decimal, error) {
	setting, err := s.setting(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return setting.TaxRate, nil
}

// setting loads the singleton row, falling back to defaults before the seed
// has run.
func (s *service) setting(ctx context.Context) (*models.Setting, error) {
	setting, err := s.repo.GetSetting(ctx)
	if err == gorm.ErrRecordNotFound {
		return &models.Setting{
			SiteName:             "Storefront",
			TaxRate:              decimal.RequireFromString("0.15"),
			PageSize:             9,
			DefaultPaymentMethod: enums.PaymentMethodPayPal,
			Currency:             "USD",
		}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	return setting, nil
}
