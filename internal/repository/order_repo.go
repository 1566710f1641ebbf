package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/timmy/ordermonitor/internal/domain"
)

// ErrOrderNotFound is returned when no order matches a lookup.
var ErrOrderNotFound = domain.ErrOrderNotFound

// OrderRepository handles customers, suppliers and orders.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new OrderRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *OrderRepository: repository instance bound to db.
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Transaction runs fn with a repository bound to a single database transaction.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - fn: work to run; returning an error rolls back.
// Returns:
//   - error: fn's error or a commit failure.
func (r *OrderRepository) Transaction(ctx context.Context, fn func(tx *OrderRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&OrderRepository{db: tx})
	})
}

// EnsureCustomer returns the customer with name, creating it if needed.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: customer name, unique.
// Returns:
//   - *domain.Customer: existing or new customer.
//   - error: non-nil if the lookup or insert fails.
func (r *OrderRepository) EnsureCustomer(ctx context.Context, name string) (*domain.Customer, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&domain.Customer{ID: uuid.NewString(), Name: name}).Error; err != nil {
		return nil, err
	}

	var c domain.Customer
	if err := db.Where("name = ?", name).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// EnsureSupplier returns the supplier with name, creating it if needed.
func (r *OrderRepository) EnsureSupplier(ctx context.Context, name string) (*domain.Supplier, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&domain.Supplier{ID: uuid.NewString(), Name: name}).Error; err != nil {
		return nil, err
	}

	var s domain.Supplier
	if err := db.Where("name = ?", name).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateOrder inserts a new order, assigning an ID if it has none.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID retrieves an order by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: order ID.
// Returns:
//   - *domain.Order: order if found.
//   - error: ErrOrderNotFound or a query error.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindLatestActive finds the newest active order between the named parties
// for exactly quantity units.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - customer: customer name.
//   - supplier: supplier name.
//   - quantity: ordered quantity.
// Returns:
//   - *domain.Order: matching order.
//   - error: ErrOrderNotFound if nothing matches.
func (r *OrderRepository) FindLatestActive(ctx context.Context, customer, supplier string, quantity int) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Joins("JOIN customers ON customers.id = orders.customer_id").
		Joins("JOIN suppliers ON suppliers.id = orders.supplier_id").
		Where("customers.name = ? AND suppliers.name = ? AND orders.quantity = ? AND orders.status = ?",
			customer, supplier, quantity, domain.OrderStatusActive).
		Order("orders.created_at DESC").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Cancel marks an active order cancelled. It returns false if the order was
// no longer active.
func (r *OrderRepository) Cancel(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, domain.OrderStatusActive).
		Updates(map[string]interface{}{
			"status":       domain.OrderStatusCancelled,
			"cancelled_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountByStatus returns the number of orders in each status.
func (r *OrderRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	var rows []struct {
		Status domain.OrderStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&domain.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[domain.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
