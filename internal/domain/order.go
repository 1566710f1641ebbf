package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Party is one side of an order transaction.
type Party struct {
	Name     string          `json:"Name"`
	Quantity int             `json:"Quantity"`
	Price    decimal.Decimal `json:"Price"`
}

// OrderTransaction is the payload of an order transaction drop file.
// Both sides must agree on quantity and price.
type OrderTransaction struct {
	Supplier Party `json:"Supplier"`
	Customer Party `json:"Customer"`
}

// OrderCancellation is the payload of an order cancellation drop file.
type OrderCancellation struct {
	Customer string `json:"Customer"`
	Supplier string `json:"Supplier"`
	Quantity int    `json:"Quantity"`
}

// ErrOrderNotFound is returned when no order matches a lookup.
var ErrOrderNotFound = errors.New("order not found")

// OrderStatus represents the lifecycle state of a persisted order.
// Values include OrderStatusActive and OrderStatusCancelled.
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Customer is a buyer known to the order store.
type Customer struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:idx_customers_name" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Customer.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Customer) TableName() string {
	return "customers"
}

// Supplier is a seller known to the order store.
type Supplier struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:idx_suppliers_name" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Supplier.
func (Supplier) TableName() string {
	return "suppliers"
}

// Order is a persisted order created from a validated transaction.
type Order struct {
	ID          string          `gorm:"type:text;primaryKey" json:"id"`
	CustomerID  string          `gorm:"type:text;not null;index:idx_orders_parties" json:"customer_id"`
	SupplierID  string          `gorm:"type:text;not null;index:idx_orders_parties" json:"supplier_id"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric;not null" json:"price"`
	Total       decimal.Decimal `gorm:"type:numeric;not null" json:"total"`
	Status      OrderStatus     `gorm:"type:text;index:idx_orders_status;default:active" json:"status"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string {
	return "orders"
}

// TransactionResult is what the command sink reports for an accepted transaction.
type TransactionResult struct {
	OrderID    string          `json:"order_id"`
	CustomerID string          `json:"customer_id"`
	SupplierID string          `json:"supplier_id"`
	Total      decimal.Decimal `json:"total"`
	Status     OrderStatus     `json:"status"`
}
