package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/timmy/ordermonitor/internal/domain"
	"github.com/timmy/ordermonitor/internal/logger"
	"github.com/timmy/ordermonitor/internal/repository"
)

// OrderService applies validated order payloads to the order store.
type OrderService struct {
	orders *repository.OrderRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(orders *repository.OrderRepository, log *logger.Logger) *OrderService {
	return &OrderService{orders: orders, logger: log, now: time.Now}
}

// log returns a logger from context if available, otherwise returns the service logger
func (s *OrderService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// ProcessTransaction records t as a new active order, creating the customer
// and supplier on first sight.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - t: validated transaction.
// Returns:
//   - *domain.TransactionResult: created order summary.
//   - error: non-nil if the write fails; nothing is persisted in that case.
func (s *OrderService) ProcessTransaction(ctx context.Context, t domain.OrderTransaction) (*domain.TransactionResult, error) {
	var result *domain.TransactionResult
	err := s.orders.Transaction(ctx, func(tx *repository.OrderRepository) error {
		customer, err := tx.EnsureCustomer(ctx, t.Customer.Name)
		if err != nil {
			return fmt.Errorf("failed to resolve customer %q: %w", t.Customer.Name, err)
		}
		supplier, err := tx.EnsureSupplier(ctx, t.Supplier.Name)
		if err != nil {
			return fmt.Errorf("failed to resolve supplier %q: %w", t.Supplier.Name, err)
		}

		order := &domain.Order{
			CustomerID: customer.ID,
			SupplierID: supplier.ID,
			Quantity:   t.Customer.Quantity,
			Price:      t.Customer.Price,
			Total:      t.Customer.Price.Mul(decimal.NewFromInt(int64(t.Customer.Quantity))),
			Status:     domain.OrderStatusActive,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		result = &domain.TransactionResult{
			OrderID:    order.ID,
			CustomerID: customer.ID,
			SupplierID: supplier.ID,
			Total:      order.Total,
			Status:     order.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).WithFields(logger.Fields{
		"order_id": result.OrderID,
		"total":    result.Total.String(),
	}).Debug("Order created")
	return result, nil
}

// ProcessCancellation cancels the newest active order between the named
// parties for the given quantity.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - c: validated cancellation.
// Returns:
//   - bool: false if no active order matched.
//   - error: non-nil if the lookup or update fails.
func (s *OrderService) ProcessCancellation(ctx context.Context, c domain.OrderCancellation) (bool, error) {
	var cancelled bool
	err := s.orders.Transaction(ctx, func(tx *repository.OrderRepository) error {
		order, err := tx.FindLatestActive(ctx, c.Customer, c.Supplier, c.Quantity)
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up order to cancel: %w", err)
		}

		cancelled, err = tx.Cancel(ctx, order.ID, s.now())
		if err != nil {
			return fmt.Errorf("failed to cancel order %s: %w", order.ID, err)
		}
		if cancelled {
			s.log(ctx).WithField("order_id", order.ID).Debug("Order cancelled")
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return cancelled, nil
}

// GetOrder returns the order with the given ID, or domain.ErrOrderNotFound.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// OrderCounts returns the number of orders per status.
func (s *OrderService) OrderCounts(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	return s.orders.CountByStatus(ctx)
}
