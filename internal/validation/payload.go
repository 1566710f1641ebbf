package validation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/timmy/ordermonitor/internal/domain"
)

// ErrMalformed wraps input that is not well-formed JSON.
var ErrMalformed = errors.New("malformed JSON")

// Payload is the parsed content of one drop file; exactly one field is set.
type Payload struct {
	Transaction  *domain.OrderTransaction
	Cancellation *domain.OrderCancellation
}

// Validator runs the structural schema and then the business rules.
type Validator struct {
	schema *Schema
	rules  Rules
}

// NewValidator combines a compiled schema set with business rules.
func NewValidator(schema *Schema, rules Rules) *Validator {
	return &Validator{schema: schema, rules: rules}
}

// Parse decodes content as kind and validates it.
// Parameters:
//   - kind: payload kind the content should carry.
//   - content: raw file bytes.
// Returns:
//   - *Payload: decoded payload, nil if the schema check failed.
//   - Result: verdict of the schema and rule checks.
//   - error: ErrMalformed if content is not well-formed JSON.
func (v *Validator) Parse(kind domain.Kind, content []byte) (*Payload, Result, error) {
	doc, err := Decode(content)
	if err != nil {
		return nil, Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if res := v.schema.Check(kind, doc); !res.Valid {
		return nil, res, nil
	}

	switch kind {
	case domain.KindTransaction:
		var t domain.OrderTransaction
		if err := json.Unmarshal(content, &t); err != nil {
			return nil, Fail("payload does not fit an order transaction: %v", err), nil
		}
		return &Payload{Transaction: &t}, v.rules.ValidateTransaction(&t), nil
	case domain.KindCancellation:
		var c domain.OrderCancellation
		if err := json.Unmarshal(content, &c); err != nil {
			return nil, Fail("payload does not fit an order cancellation: %v", err), nil
		}
		return &Payload{Cancellation: &c}, v.rules.ValidateCancellation(&c), nil
	default:
		return nil, Fail("unsupported payload kind %q", kind), nil
	}
}
