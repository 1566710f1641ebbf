// Package validation checks drop file payloads against structural and business rules.
// Everything here is pure: no I/O, no shared state.
package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/timmy/ordermonitor/internal/domain"
)

// Result is the verdict of a validation run.
type Result struct {
	Valid  bool
	Reason string
}

// OK returns a passing Result.
func OK() Result {
	return Result{Valid: true}
}

// Fail returns a failing Result with a human-readable reason.
func Fail(format string, args ...interface{}) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Rules holds the configurable business bounds.
type Rules struct {
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
}

// DefaultRules returns the stock price bounds [200, 1000].
func DefaultRules() Rules {
	return Rules{
		MinPrice: decimal.NewFromInt(200),
		MaxPrice: decimal.NewFromInt(1000),
	}
}

// ValidateTransaction checks an order transaction. Rules are evaluated in a
// fixed order and the first failure wins.
// Parameters:
//   - t: parsed transaction; nil is reported as invalid.
// Returns:
//   - Result: verdict with the violated rule on failure.
func (r Rules) ValidateTransaction(t *domain.OrderTransaction) Result {
	if t == nil {
		return Fail("transaction is empty")
	}
	switch {
	case isBlank(t.Supplier.Name):
		return Fail("supplier name is required")
	case isBlank(t.Customer.Name):
		return Fail("customer name is required")
	case t.Supplier.Quantity != t.Customer.Quantity:
		return Fail("supplier quantity %d does not match customer quantity %d",
			t.Supplier.Quantity, t.Customer.Quantity)
	case !t.Supplier.Price.Equal(t.Customer.Price):
		return Fail("supplier price %s does not match customer price %s",
			t.Supplier.Price.String(), t.Customer.Price.String())
	case t.Supplier.Quantity <= 0:
		return Fail("quantity must be greater than zero, got %d", t.Supplier.Quantity)
	case t.Supplier.Price.LessThan(r.MinPrice) || t.Supplier.Price.GreaterThan(r.MaxPrice):
		return Fail("price %s is outside the allowed range [%s, %s]",
			t.Supplier.Price.String(), r.MinPrice.String(), r.MaxPrice.String())
	}
	return OK()
}

// ValidateCancellation checks an order cancellation.
func (r Rules) ValidateCancellation(c *domain.OrderCancellation) Result {
	if c == nil {
		return Fail("cancellation is empty")
	}
	switch {
	case isBlank(c.Customer):
		return Fail("customer name is required")
	case isBlank(c.Supplier):
		return Fail("supplier name is required")
	case c.Quantity <= 0:
		return Fail("quantity must be greater than zero, got %d", c.Quantity)
	}
	return OK()
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
