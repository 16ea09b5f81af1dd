package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopora/storefront-backend/internal/pricing"
	"github.com/shopora/storefront-backend/internal/stock"
	"github.com/shopora/storefront-backend/pkg/db/models"
	"github.com/shopora/storefront-backend/pkg/enums"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/logger"
	"github.com/shopora/storefront-backend/pkg/metrics"
	"github.com/shopora/storefront-backend/pkg/pagination"
	"github.com/shopora/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Catalog loads the authoritative product rows behind a cart snapshot.
type Catalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// QuoteConfig supplies the delivery and tax configuration used to re-price.
type QuoteConfig interface {
	DeliveryOptions(ctx context.Context) ([]models.DeliveryOption, error)
	TaxRate(ctx context.Context) (decimal.Decimal, error)
}

// Dispatcher sends the post-transition shopper notifications.
type Dispatcher interface {
	SendOrderReceipt(ctx context.Context, order *models.Order) error
	SendReviewRequest(ctx context.Context, order *models.Order) error
}

// Service defines order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID, page, limit int) (*ListResult, error)
	AdminList(ctx context.Context, page, limit int) (*ListResult, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	MarkPaid(ctx context.Context, orderID uuid.UUID, result *types.PaymentResult) (*models.Order, error)
	MarkDelivered(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Summary(ctx context.Context) (*Summary, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	catalog  Catalog
	config   QuoteConfig
	stock    stock.Ledger
	notifier Dispatcher
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the orders service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	catalog Catalog,
	config QuoteConfig,
	ledger stock.Ledger,
	notifier Dispatcher,
	orderMetrics *metrics.OrderMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if config == nil {
		return nil, fmt.Errorf("quote config required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		catalog:  catalog,
		config:   config,
		stock:    ledger,
		notifier: notifier,
		metrics:  orderMetrics,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	// Duplicate lines for one product collapse into a single quantity.
	quantities := make(map[uuid.UUID]int, len(input.Items))
	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if _, seen := quantities[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}

	products, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	priced := make([]pricing.Item, 0, len(ids))
	snapshot := make([]models.OrderItem, 0, len(ids))
	for _, id := range ids {
		product, ok := byID[id]
		if !ok || !product.IsPublished {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		qty := quantities[id]
		if qty > product.CountInStock {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("insufficient stock for %s", product.Name))
		}

		priced = append(priced, pricing.Item{Price: product.Price, Quantity: qty})
		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0]
		}
		snapshot = append(snapshot, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Slug:      product.Slug,
			Image:     image,
			Category:  product.Category,
			Price:     product.Price,
			Quantity:  qty,
		})
	}

	options, err := s.config.DeliveryOptions(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery options")
	}
	taxRate, err := s.config.TaxRate(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tax rate")
	}

	quote, err := pricing.Compute(pricing.Input{
		Items:             priced,
		DeliveryOptions:   options,
		DeliveryDateIndex: input.DeliveryDateIndex,
		HasAddress:        true,
		TaxRate:           taxRate,
		Now:               s.now(),
	})
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:               input.UserID,
		ShippingAddress:      input.ShippingAddress,
		PaymentMethod:        input.PaymentMethod,
		ItemsPrice:           quote.ItemsPrice,
		ShippingPrice:        *quote.ShippingPrice,
		TaxPrice:             *quote.TaxPrice,
		TotalPrice:           quote.TotalPrice,
		ExpectedDeliveryDate: quote.ExpectedDeliveryDate,
		Items:                snapshot,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCreated()
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order created")
	return order, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != actor.UserID && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, page, limit int) (*ListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	params := pagination.Params{Page: pagination.NormalizePage(page), Limit: pagination.NormalizeLimit(limit)}
	orders, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &ListResult{
		Orders:     orders,
		Total:      total,
		Page:       params.Page,
		TotalPages: pagination.TotalPages(total, params.Limit),
	}, nil
}

func (s *service) AdminList(ctx context.Context, page, limit int) (*ListResult, error) {
	params := pagination.Params{Page: pagination.NormalizePage(page), Limit: pagination.NormalizeLimit(limit)}
	orders, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &ListResult{
		Orders:     orders,
		Total:      total,
		Page:       params.Page,
		TotalPages: pagination.TotalPages(total, params.Limit),
	}, nil
}

func (s *service) Delete(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	rows, err := s.repo.Delete(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

// MarkPaid flips the order to paid and debits stock in one transaction.
// A COMPLETED gateway capture and a manual admin settlement both land here.
func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID, result *types.PaymentResult) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.IsPaid {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
		}

		// The conditional UPDATE is the real guard. The read above can be
		// stale under READ COMMITTED when two settlements race; only the
		// transaction that flips the row gets to debit stock.
		paidAt := s.now()
		rows, err := repo.MarkPaid(ctx, order.ID, paidAt, result)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
		}
		if err := s.stock.DecrementForOrder(ctx, tx, order.Items); err != nil {
			return err
		}

		order.IsPaid = true
		order.PaidAt = &paidAt
		order.PaymentResult = result
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPaid(string(updated.PaymentMethod))
	octx := s.logg.WithOrderID(ctx, updated.ID.String())
	s.logg.Info(octx, "order marked paid")
	if err := s.notifier.SendOrderReceipt(ctx, updated); err != nil {
		s.logg.Error(octx, "dispatch order receipt", err)
	}
	return updated, nil
}

func (s *service) MarkDelivered(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.IsPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid")
		}
		if order.IsDelivered {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already delivered")
		}

		deliveredAt := s.now()
		rows, err := repo.MarkDelivered(ctx, order.ID, deliveredAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order delivered")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already delivered")
		}

		order.IsDelivered = true
		order.DeliveredAt = &deliveredAt
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDelivered()
	octx := s.logg.WithOrderID(ctx, updated.ID.String())
	s.logg.Info(octx, "order marked delivered")
	if err := s.notifier.SendReviewRequest(ctx, updated); err != nil {
		s.logg.Error(octx, "dispatch review request", err)
	}
	return updated, nil
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	totals, err := s.repo.SummaryTotals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load summary totals")
	}
	monthly, err := s.repo.MonthlySales(ctx, 6)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load monthly sales")
	}
	latest, _, err := s.repo.List(ctx, pagination.Params{Page: 1, Limit: 5})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest orders")
	}

	return &Summary{
		SummaryTotals: *totals,
		MonthlySales:  monthly,
		LatestOrders:  latest,
	}, nil
}
