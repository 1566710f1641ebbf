package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/timmy/ordermonitor/internal/domain"
)

func transaction(supplierQty, customerQty int, supplierPrice, customerPrice string) *domain.OrderTransaction {
	return &domain.OrderTransaction{
		Supplier: domain.Party{Name: "Acme", Quantity: supplierQty, Price: decimal.RequireFromString(supplierPrice)},
		Customer: domain.Party{Name: "Bolt", Quantity: customerQty, Price: decimal.RequireFromString(customerPrice)},
	}
}

func TestValidateTransactionPriceBounds(t *testing.T) {
	rules := DefaultRules()

	testCases := []struct {
		name  string
		price string
		valid bool
	}{
		{name: "lower bound", price: "200.00", valid: true},
		{name: "upper bound", price: "1000.00", valid: true},
		{name: "inside", price: "500", valid: true},
		{name: "just below", price: "199.99", valid: false},
		{name: "just above", price: "1000.01", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := rules.ValidateTransaction(transaction(10, 10, tc.price, tc.price))
			assert.Equal(t, tc.valid, res.Valid, res.Reason)
			if !tc.valid {
				assert.Contains(t, res.Reason, "outside the allowed range")
			}
		})
	}
}

func TestValidateTransactionRuleOrder(t *testing.T) {
	rules := DefaultRules()

	testCases := []struct {
		name   string
		mutate func(*domain.OrderTransaction)
		reason string
	}{
		{
			name:   "supplier name checked first",
			mutate: func(tx *domain.OrderTransaction) { tx.Supplier.Name = " "; tx.Customer.Name = "" },
			reason: "supplier name is required",
		},
		{
			name:   "customer name",
			mutate: func(tx *domain.OrderTransaction) { tx.Customer.Name = ""; tx.Customer.Quantity = 3 },
			reason: "customer name is required",
		},
		{
			name:   "quantity mismatch before price mismatch",
			mutate: func(tx *domain.OrderTransaction) { tx.Customer.Quantity = 30; tx.Customer.Price = decimal.NewFromInt(600) },
			reason: "supplier quantity 10 does not match customer quantity 30",
		},
		{
			name:   "price mismatch",
			mutate: func(tx *domain.OrderTransaction) { tx.Customer.Price = decimal.NewFromInt(600) },
			reason: "does not match customer price",
		},
		{
			name: "non-positive quantity before bounds",
			mutate: func(tx *domain.OrderTransaction) {
				tx.Supplier.Quantity, tx.Customer.Quantity = 0, 0
				tx.Supplier.Price, tx.Customer.Price = decimal.NewFromInt(5), decimal.NewFromInt(5)
			},
			reason: "quantity must be greater than zero",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx := transaction(10, 10, "500", "500")
			tc.mutate(tx)
			res := rules.ValidateTransaction(tx)
			assert.False(t, res.Valid)
			assert.Contains(t, res.Reason, tc.reason)
		})
	}
}

func TestValidateTransactionQuantityMismatch(t *testing.T) {
	res := DefaultRules().ValidateTransaction(transaction(25, 30, "500", "500"))
	assert.False(t, res.Valid)
}

func TestValidateTransactionNil(t *testing.T) {
	assert.False(t, DefaultRules().ValidateTransaction(nil).Valid)
	assert.False(t, DefaultRules().ValidateCancellation(nil).Valid)
}

func TestValidateTransactionIsPure(t *testing.T) {
	rules := DefaultRules()
	for _, tx := range []*domain.OrderTransaction{
		transaction(10, 10, "500", "500"),
		transaction(25, 30, "500", "500"),
		transaction(10, 10, "1000.01", "1000.01"),
	} {
		first := rules.ValidateTransaction(tx)
		second := rules.ValidateTransaction(tx)
		assert.Equal(t, first, second)
	}
}

func TestValidateCancellation(t *testing.T) {
	rules := DefaultRules()

	testCases := []struct {
		name   string
		input  domain.OrderCancellation
		valid  bool
		reason string
	}{
		{name: "valid", input: domain.OrderCancellation{Customer: "B", Supplier: "A", Quantity: 5}, valid: true},
		{name: "customer first", input: domain.OrderCancellation{Quantity: 0}, reason: "customer name is required"},
		{name: "supplier", input: domain.OrderCancellation{Customer: "B", Quantity: 0}, reason: "supplier name is required"},
		{name: "quantity", input: domain.OrderCancellation{Customer: "B", Supplier: "A", Quantity: -1}, reason: "quantity must be greater than zero, got -1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			first := rules.ValidateCancellation(&tc.input)
			second := rules.ValidateCancellation(&tc.input)
			assert.Equal(t, first, second)
			assert.Equal(t, tc.valid, first.Valid)
			if !tc.valid {
				assert.Equal(t, tc.reason, first.Reason)
			}
		})
	}
}
