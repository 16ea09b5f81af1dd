package settings

import (
	"context"

	"gorm.io/gorm"

	"github.com/shopora/storefront-backend/pkg/db/models"
)

// Repository exposes persistence for the settings row and delivery options.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetSetting(ctx context.Context) (*models.Setting, error)
	SaveSetting(ctx context.Context, setting *models.Setting) error
	ListDeliveryOptions(ctx context.Context) ([]models.DeliveryOption, error)
	ReplaceDeliveryOptions(ctx context.Context, options []models.DeliveryOption) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a settings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// GetSetting loads the singleton row; callers handle gorm.ErrRecordNotFound.
func (r *repositoryImpl) GetSetting(ctx context.Context) (*models.Setting, error) {
	var setting models.Setting
	if err := r.db.WithContext(ctx).Order("created_at ASC").First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *repositoryImpl) SaveSetting(ctx context.Context, setting *models.Setting) error {
	return r.db.WithContext(ctx).Save(setting).Error
}

func (r *repositoryImpl) ListDeliveryOptions(ctx context.Context) ([]models.DeliveryOption, error) {
	var options []models.DeliveryOption
	err := r.db.WithContext(ctx).Order("position ASC").Find(&options).Error
	if err != nil {
		return nil, err
	}
	return options, nil
}

// ReplaceDeliveryOptions swaps the whole option list. Quote requests address
// options by index, so partial edits are not offered.
func (r *repositoryImpl) ReplaceDeliveryOptions(ctx context.Context, options []models.DeliveryOption) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("1 = 1").Delete(&models.DeliveryOption{}).Error; err != nil {
		return err
	}
	if len(options) == 0 {
		return nil
	}
	return tx.Create(&options).Error
}
