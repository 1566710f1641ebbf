package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/timmy/ordermonitor/internal/domain"
	"github.com/timmy/ordermonitor/internal/validation"
)

const (
	validTransaction  = `{"Supplier":{"Name":"A","Quantity":10,"Price":500},"Customer":{"Name":"B","Quantity":10,"Price":500}}`
	validCancellation = `{"Customer":"B","Supplier":"A","Quantity":5}`
)

type fakeDispatcher struct {
	mu            sync.Mutex
	transactions  []domain.OrderTransaction
	cancellations []domain.OrderCancellation
	err           error
	notFound      bool
	panicWith     interface{}
}

func (f *fakeDispatcher) ProcessTransaction(_ context.Context, t domain.OrderTransaction) (*domain.TransactionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.err != nil {
		return nil, f.err
	}
	f.transactions = append(f.transactions, t)
	total := t.Customer.Price.Mul(decimal.NewFromInt(int64(t.Customer.Quantity)))
	return &domain.TransactionResult{OrderID: "order-1", CustomerID: "c-1", SupplierID: "s-1", Total: total, Status: domain.OrderStatusActive}, nil
}

func (f *fakeDispatcher) ProcessCancellation(_ context.Context, c domain.OrderCancellation) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	f.cancellations = append(f.cancellations, c)
	return !f.notFound, nil
}

func (f *fakeDispatcher) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transactions), len(f.cancellations)
}

func (f *fakeDispatcher) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type fakeAudit struct {
	mu      sync.Mutex
	records []*domain.ExceptionRecord
}

func (f *fakeAudit) RecordException(_ context.Context, rec *domain.ExceptionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeAudit) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type failingArchiver struct{}

func (failingArchiver) Archive(context.Context, *Task, time.Time) (string, error) {
	return "", errors.New("disk full")
}

func (failingArchiver) Reject(context.Context, *Task, time.Time) (string, error) {
	return "", errors.New("disk full")
}

// unwritableLedger answers lookups but cannot record markers.
type unwritableLedger struct{}

func (unwritableLedger) IsProcessed(context.Context, string) (bool, error) {
	return false, nil
}

func (unwritableLedger) MarkProcessed(context.Context, *domain.ProcessedFile) error {
	return errors.New("database is locked")
}

type harness struct {
	dir        string
	gate       *Gate
	dispatcher *fakeDispatcher
	audit      *fakeAudit
	ledger     *MemoryLedger
	processor  *Processor
}

type harnessOption func(*ProcessorDeps, *ProcessorConfig)

func withLockCheck(p LockCheck) harnessOption {
	return func(d *ProcessorDeps, _ *ProcessorConfig) { d.LockCheck = p }
}

func withArchiver(a Archiver) harnessOption {
	return func(d *ProcessorDeps, _ *ProcessorConfig) { d.Archiver = a }
}

func withLedger(l Ledger) harnessOption {
	return func(d *ProcessorDeps, _ *ProcessorConfig) { d.Ledger = l }
}

func withRejectInvalid() harnessOption {
	return func(_ *ProcessorDeps, c *ProcessorConfig) { c.RejectInvalid = true }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	schema, err := validation.NewSchema()
	require.NoError(t, err)

	h := &harness{
		dir:        t.TempDir(),
		gate:       NewGate(0, nil),
		dispatcher: &fakeDispatcher{},
		audit:      &fakeAudit{},
		ledger:     NewMemoryLedger(),
	}
	deps := ProcessorDeps{
		Gate:       h.gate,
		Validator:  validation.NewValidator(schema, validation.DefaultRules()),
		Dispatcher: h.dispatcher,
		Audit:      h.audit,
		Ledger:     h.ledger,
		Archiver:   NewLocalArchiver(h.dir, "_Archive", "_Rejected"),
	}
	cfg := ProcessorConfig{Debounce: 0, LockRetry: 0}
	for _, opt := range opts {
		opt(&deps, &cfg)
	}

	h.processor, err = NewProcessor(deps, cfg)
	require.NoError(t, err)
	return h
}

// task writes content into the drop folder and acquires the gate for it the
// way Monitor.Submit does.
func (h *harness) task(t *testing.T, name, content string) *Task {
	t.Helper()
	path := writeDropFile(t, h.dir, name, content)
	kind, err := domain.KindForFileName(name)
	require.NoError(t, err)

	task := &Task{ID: "job-" + name, Path: normalizePath(path), Name: name, Kind: kind, Trigger: TriggerManual, EnqueuedAt: time.Now()}
	require.True(t, h.gate.TryAcquire(task.Path))
	return task
}

func writeDropFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func archivedFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return files
}
