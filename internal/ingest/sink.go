package ingest

import (
	"context"

	"github.com/timmy/ordermonitor/internal/domain"
)

// CommandDispatcher turns validated payloads into persisted state. Calls must
// be safe to retry: a failed dispatch leaves the file in place for the next trigger.
type CommandDispatcher interface {
	ProcessTransaction(ctx context.Context, t domain.OrderTransaction) (*domain.TransactionResult, error)
	// ProcessCancellation reports whether a matching order was found and cancelled.
	ProcessCancellation(ctx context.Context, c domain.OrderCancellation) (bool, error)
}

// AuditSink records files that could not be ingested, for operator follow-up.
type AuditSink interface {
	RecordException(ctx context.Context, rec *domain.ExceptionRecord) error
}
