package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies which payload a dropped file carries.
// Values include KindTransaction and KindCancellation.
type Kind string

const (
	KindTransaction  Kind = "transaction"
	KindCancellation Kind = "cancellation"
)

const (
	// TransactionFileName is the conventional name of an order transaction drop.
	TransactionFileName = "ordertransaction.json"
	// CancellationFileName is the conventional name of an order cancellation drop.
	CancellationFileName = "ordercancellation.json"
)

// ErrUnknownKind is returned when a file cannot be mapped to a payload kind.
var ErrUnknownKind = errors.New("unknown payload kind")

// ParseKind parses a configured kind name. The empty string yields "" and no error.
// Parameters:
//   - s: kind name, case-insensitive.
// Returns:
//   - Kind: parsed kind or "" for auto-detection.
//   - error: non-nil if the name is not recognized.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "transaction", "ordertransaction":
		return KindTransaction, nil
	case "cancellation", "ordercancellation":
		return KindCancellation, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// KindForFileName maps a base file name to its payload kind.
// Parameters:
//   - name: base file name such as "OrderTransaction.json".
// Returns:
//   - Kind: matching kind.
//   - error: ErrUnknownKind if the name is not a known drop file.
func KindForFileName(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case TransactionFileName:
		return KindTransaction, nil
	case CancellationFileName:
		return KindCancellation, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// DisplayName returns the name used in audit records and archive folders.
func (k Kind) DisplayName() string {
	switch k {
	case KindTransaction:
		return "OrderTransaction"
	case KindCancellation:
		return "OrderCancellation"
	default:
		return "Unknown"
	}
}
