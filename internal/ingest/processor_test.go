package ingest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/ordermonitor/internal/domain"
	"github.com/timmy/ordermonitor/internal/logger"
)

func TestProcessTransactionDispatchesAndArchives(t *testing.T) {
	h := newHarness(t)
	task := h.task(t, "OrderTransaction.json", validTransaction)

	outcome := h.processor.Process(context.Background(), task)

	assert.Equal(t, OutcomeDispatched, outcome)
	require.Len(t, h.dispatcher.transactions, 1)
	tx := h.dispatcher.transactions[0]
	assert.Equal(t, "A", tx.Supplier.Name)
	assert.Equal(t, "B", tx.Customer.Name)
	assert.Equal(t, 10, tx.Customer.Quantity)
	assert.Equal(t, "500", tx.Customer.Price.String())

	assert.NoFileExists(t, task.Path)
	files := archivedFiles(t, h.dir)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0], "_Archive/OrderTransaction/"), files[0])
	assert.True(t, strings.HasSuffix(files[0], "_OrderTransaction.json"), files[0])

	assert.False(t, h.gate.Held(task.Path))
	assert.Equal(t, 1, h.ledger.Len())
}

func TestProcessCancellation(t *testing.T) {
	h := newHarness(t)
	task := h.task(t, "OrderCancellation.json", validCancellation)

	assert.Equal(t, OutcomeDispatched, h.processor.Process(context.Background(), task))
	require.Len(t, h.dispatcher.cancellations, 1)
	assert.Equal(t, domain.OrderCancellation{Customer: "B", Supplier: "A", Quantity: 5}, h.dispatcher.cancellations[0])
	assert.NoFileExists(t, task.Path)
}

func TestProcessCancellationWithoutMatchIsStillArchived(t *testing.T) {
	h := newHarness(t)
	h.dispatcher.notFound = true
	task := h.task(t, "OrderCancellation.json", validCancellation)

	assert.Equal(t, OutcomeDispatched, h.processor.Process(context.Background(), task))
	assert.NoFileExists(t, task.Path)
}

func TestProcessMalformedJSON(t *testing.T) {
	var buf bytes.Buffer
	ctx := logger.New(&logger.Config{Level: "debug", Format: "json", Output: &buf}).WithContext(context.Background())

	h := newHarness(t)
	task := h.task(t, "OrderTransaction.json", "{not valid}")

	assert.Equal(t, OutcomeParseFailed, h.processor.Process(ctx, task))

	tx, cx := h.dispatcher.calls()
	assert.Zero(t, tx+cx)
	assert.Equal(t, 1, strings.Count(buf.String(), "Failed to parse drop file"))
	require.Equal(t, 1, h.audit.count())
	rec := h.audit.records[0]
	assert.Equal(t, "parse", rec.Stage)
	assert.Equal(t, "OrderTransaction", rec.TransactionType)
	assert.Equal(t, "{not valid}", rec.RawInput)
	assert.NotEmpty(t, rec.Fingerprint)

	assert.FileExists(t, task.Path)
	assert.False(t, h.gate.Held(task.Path))
}

func TestProcessInvalidPayload(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		reason  string
	}{
		{
			name:    "quantity mismatch",
			content: `{"Supplier":{"Name":"A","Quantity":10,"Price":500},"Customer":{"Name":"B","Quantity":9,"Price":500}}`,
			reason:  "does not match customer quantity",
		},
		{
			name:    "price below range",
			content: `{"Supplier":{"Name":"A","Quantity":1,"Price":199.99},"Customer":{"Name":"B","Quantity":1,"Price":199.99}}`,
			reason:  "outside the allowed range",
		},
		{
			name:    "missing customer",
			content: `{"Supplier":{"Name":"A","Quantity":1,"Price":300}}`,
			reason:  "schema violation",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			task := h.task(t, "OrderTransaction.json", tc.content)

			assert.Equal(t, OutcomeInvalid, h.processor.Process(context.Background(), task))
			tx, _ := h.dispatcher.calls()
			assert.Zero(t, tx)
			require.Equal(t, 1, h.audit.count())
			assert.Equal(t, "validate", h.audit.records[0].Stage)
			assert.Contains(t, h.audit.records[0].Reason, tc.reason)
			assert.FileExists(t, task.Path)
			assert.False(t, h.gate.Held(task.Path))
		})
	}
}

func TestProcessRejectInvalidQuarantinesFile(t *testing.T) {
	h := newHarness(t, withRejectInvalid())
	task := h.task(t, "OrderCancellation.json", `{"Customer":"B","Supplier":"A","Quantity":0}`)

	assert.Equal(t, OutcomeInvalid, h.processor.Process(context.Background(), task))
	assert.NoFileExists(t, task.Path)
	files := archivedFiles(t, h.dir)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0], "_Rejected/OrderCancellation/"), files[0])
}

func TestProcessEmptyFile(t *testing.T) {
	h := newHarness(t)
	task := h.task(t, "OrderTransaction.json", "  \n\t")

	assert.Equal(t, OutcomeEmpty, h.processor.Process(context.Background(), task))
	assert.Zero(t, h.audit.count())
	assert.FileExists(t, task.Path)
	assert.False(t, h.gate.Held(task.Path))
}

func TestProcessMissingFile(t *testing.T) {
	h := newHarness(t)
	task := h.task(t, "OrderTransaction.json", validTransaction)
	require.NoError(t, os.Remove(task.Path))

	assert.Equal(t, OutcomeMissing, h.processor.Process(context.Background(), task))
	assert.False(t, h.gate.Held(task.Path))
}

func TestProcessLockedFileRetriesOnce(t *testing.T) {
	var checks int32
	stillLocked := func(string) (bool, error) {
		atomic.AddInt32(&checks, 1)
		return true, nil
	}
	h := newHarness(t, withLockCheck(stillLocked))
	task := h.task(t, "OrderTransaction.json", validTransaction)

	assert.Equal(t, OutcomeLocked, h.processor.Process(context.Background(), task))
	assert.Equal(t, int32(2), atomic.LoadInt32(&checks))
	assert.FileExists(t, task.Path)
	assert.False(t, h.gate.Held(task.Path))
}

func TestProcessLockReleasedOnRetry(t *testing.T) {
	var checks int32
	unlocksLater := func(string) (bool, error) {
		return atomic.AddInt32(&checks, 1) == 1, nil
	}
	h := newHarness(t, withLockCheck(unlocksLater))
	task := h.task(t, "OrderTransaction.json", validTransaction)

	assert.Equal(t, OutcomeDispatched, h.processor.Process(context.Background(), task))
	assert.Equal(t, int32(2), atomic.LoadInt32(&checks))
}

func TestProcessLockCheckFault(t *testing.T) {
	denied := func(string) (bool, error) { return false, os.ErrPermission }
	h := newHarness(t, withLockCheck(denied))
	task := h.task(t, "OrderTransaction.json", validTransaction)

	assert.Equal(t, OutcomeUnreadable, h.processor.Process(context.Background(), task))
	assert.False(t, h.gate.Held(task.Path))
}

func TestProcessDispatchFailureLeavesFileForRetry(t *testing.T) {
	h := newHarness(t)
	h.dispatcher.setErr(errors.New("database unavailable"))
	task := h.task(t, "OrderTransaction.json", validTransaction)

	assert.Equal(t, OutcomeDispatchFailed, h.processor.Process(context.Background(), task))
	assert.FileExists(t, task.Path)
	assert.False(t, h.gate.Held(task.Path))
	assert.Zero(t, h.ledger.Len())

	h.dispatcher.setErr(nil)
	require.True(t, h.gate.TryAcquire(task.Path))
	assert.Equal(t, OutcomeDispatched, h.processor.Process(context.Background(), task))
	assert.NoFileExists(t, task.Path)
}

func TestProcessArchiveFailureDoesNotRedispatch(t *testing.T) {
	h := newHarness(t, withArchiver(failingArchiver{}))
	task := h.task(t, "OrderTransaction.json", validTransaction)

	assert.Equal(t, OutcomeArchiveFailed, h.processor.Process(context.Background(), task))
	assert.FileExists(t, task.Path)

	require.True(t, h.gate.TryAcquire(task.Path))
	assert.Equal(t, OutcomeArchiveFailed, h.processor.Process(context.Background(), task))

	tx, _ := h.dispatcher.calls()
	assert.Equal(t, 1, tx)
}

func TestProcessUnrecordedMarkerDoesNotRedispatch(t *testing.T) {
	h := newHarness(t, withArchiver(failingArchiver{}), withLedger(unwritableLedger{}))
	task := h.task(t, "OrderTransaction.json", validTransaction)

	assert.Equal(t, OutcomeArchiveFailed, h.processor.Process(context.Background(), task))

	require.True(t, h.gate.TryAcquire(task.Path))
	assert.Equal(t, OutcomeArchiveFailed, h.processor.Process(context.Background(), task))

	tx, _ := h.dispatcher.calls()
	assert.Equal(t, 1, tx)
	assert.FileExists(t, task.Path)
}

func TestProcessLedgerHitSkipsDispatch(t *testing.T) {
	h := newHarness(t)
	task := h.task(t, "OrderTransaction.json", validTransaction)

	info, err := os.Stat(task.Path)
	require.NoError(t, err)
	fp := fingerprint(task.Name, info, []byte(validTransaction))
	require.NoError(t, h.ledger.MarkProcessed(context.Background(), &domain.ProcessedFile{Fingerprint: fp}))

	assert.Equal(t, OutcomeAlreadyDone, h.processor.Process(context.Background(), task))
	tx, _ := h.dispatcher.calls()
	assert.Zero(t, tx)
	assert.NoFileExists(t, task.Path)
}

func TestProcessRecoversPanic(t *testing.T) {
	h := newHarness(t)
	h.dispatcher.panicWith = "boom"
	task := h.task(t, "OrderTransaction.json", validTransaction)

	assert.NotPanics(t, func() {
		assert.Equal(t, OutcomePanicked, h.processor.Process(context.Background(), task))
	})
	assert.False(t, h.gate.Held(task.Path))
	assert.FileExists(t, task.Path)
}

func TestProcessCancelledDuringDebounce(t *testing.T) {
	h := newHarness(t)
	task := h.task(t, "OrderTransaction.json", validTransaction)
	h.processor.cfg.Debounce = DefaultDebounce

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, OutcomeCancelled, h.processor.Process(ctx, task))
	assert.False(t, h.gate.Held(task.Path))
	assert.FileExists(t, task.Path)
}

func TestNewProcessorRequiresCollaborators(t *testing.T) {
	_, err := NewProcessor(ProcessorDeps{}, ProcessorConfig{})
	assert.Error(t, err)
}
