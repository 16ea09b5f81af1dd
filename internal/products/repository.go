package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopora/storefront-backend/pkg/db/models"
	"github.com/shopora/storefront-backend/pkg/enums"
	"github.com/shopora/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for catalog listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Save(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	Browse(ctx context.Context, query browseQuery) ([]models.Product, int64, error)
	List(ctx context.Context, page pagination.Params) ([]models.Product, int64, error)
	Related(ctx context.Context, category string, excludeID uuid.UUID, limit int) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Tags(ctx context.Context) ([]string, error)
}

type browseQuery struct {
	BrowseInput
	Page pagination.Params
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repositoryImpl) Save(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repositoryImpl) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) Browse(ctx context.Context, query browseQuery) ([]models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("is_published = TRUE")

	if query.Query != "" {
		q = q.Where("name ILIKE ?", "%"+query.Query+"%")
	}
	if query.Category != "" {
		q = q.Where("category = ?", query.Category)
	}
	if query.Tag != "" {
		q = q.Where("? = ANY(tags)", query.Tag)
	}
	if query.PriceMin != nil {
		q = q.Where("price >= ?", *query.PriceMin)
	}
	if query.PriceMax != nil {
		q = q.Where("price <= ?", *query.PriceMax)
	}
	if query.RatingMin != nil {
		q = q.Where("avg_rating >= ?", *query.RatingMin)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := q.
		Order(orderClause(query.Sort)).
		Limit(query.Page.Limit).
		Offset(query.Page.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func orderClause(sort enums.ProductSort) string {
	switch sort {
	case enums.ProductSortPriceAsc:
		return "price ASC, id ASC"
	case enums.ProductSortPriceDesc:
		return "price DESC, id ASC"
	case enums.ProductSortRating:
		return "avg_rating DESC, id ASC"
	case enums.ProductSortNewest:
		return "created_at DESC, id ASC"
	default:
		return "num_sales DESC, id ASC"
	}
}

func (r *repositoryImpl) List(ctx context.Context, page pagination.Params) ([]models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := q.
		Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *repositoryImpl) Related(ctx context.Context, category string, excludeID uuid.UUID, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("is_published = TRUE AND category = ? AND id <> ?", category, excludeID).
		Order("num_sales DESC, id ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repositoryImpl) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_published = TRUE").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repositoryImpl) Tags(ctx context.Context) ([]string, error) {
	var tags []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT unnest(tags) AS tag
		FROM products
		WHERE is_published = TRUE
		ORDER BY tag ASC
	`).Scan(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}
