package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/timmy/ordermonitor/internal/domain"
	"github.com/timmy/ordermonitor/internal/logger"
	"github.com/timmy/ordermonitor/internal/metrics"
	"github.com/timmy/ordermonitor/internal/validation"
)

const (
	// DefaultDebounce lets a writer finish before the first lock check.
	DefaultDebounce = 100 * time.Millisecond
	// DefaultLockRetry is the wait before the single lock re-check.
	DefaultLockRetry = time.Second

	maxAuditInput = 16 << 10
)

// ProcessorConfig tunes the per-file state machine.
type ProcessorConfig struct {
	Debounce      time.Duration
	LockRetry     time.Duration
	RejectInvalid bool // move unparseable and invalid files to the rejected folder
}

// ProcessorDeps are the collaborators a Processor drives.
type ProcessorDeps struct {
	Gate       *Gate
	LockCheck  LockCheck // nil uses IsLocked
	Validator  *validation.Validator
	Dispatcher CommandDispatcher
	Audit      AuditSink // optional
	Ledger     Ledger
	Archiver   Archiver
	Metrics    *metrics.Metrics // optional
}

// Processor runs one task through debounce, lock check, read, parse,
// validate, dispatch and archive. Every exit path releases the task's gate entry.
type Processor struct {
	deps ProcessorDeps
	cfg  ProcessorConfig
	now  func() time.Time

	// unmarked holds fingerprints that were dispatched but could not be
	// written to the ledger. It stands in for the ledger until restart.
	unmarked mapset.Set[string]
}

// NewProcessor creates a processor.
// Parameters:
//   - deps: collaborators; Gate, Validator, Dispatcher, Ledger and Archiver are required.
//   - cfg: delays and rejection policy.
// Returns:
//   - *Processor: ready processor.
//   - error: non-nil if a required collaborator is missing.
func NewProcessor(deps ProcessorDeps, cfg ProcessorConfig) (*Processor, error) {
	switch {
	case deps.Gate == nil:
		return nil, errors.New("processor requires a gate")
	case deps.Validator == nil:
		return nil, errors.New("processor requires a validator")
	case deps.Dispatcher == nil:
		return nil, errors.New("processor requires a command dispatcher")
	case deps.Ledger == nil:
		return nil, errors.New("processor requires a processed ledger")
	case deps.Archiver == nil:
		return nil, errors.New("processor requires an archiver")
	}
	if deps.LockCheck == nil {
		deps.LockCheck = IsLocked
	}
	return &Processor{deps: deps, cfg: cfg, now: time.Now, unmarked: mapset.NewSet[string]()}, nil
}

// Process handles task to completion and reports the outcome. It never
// panics and always releases the gate entry for task.Path.
func (p *Processor) Process(ctx context.Context, task *Task) (outcome Outcome) {
	start := p.now()
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldJobID:   task.ID,
		logger.FieldFile:    task.Name,
		logger.FieldKind:    string(task.Kind),
		logger.FieldTrigger: string(task.Trigger),
	})

	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomePanicked
			logger.FromContext(ctx).WithField("panic", fmt.Sprint(r)).Error("Recovered panic while processing drop file")
		}
		p.deps.Gate.Release(task.Path)
		p.deps.Metrics.Outcome(string(task.Kind), string(outcome), time.Since(start).Seconds())
		logger.With(logger.Fields{logger.FieldStatus: string(outcome)}).
			WithDurationSince(start).
			Debug(ctx, "Processing attempt finished")
	}()

	return p.run(ctx, task)
}

func (p *Processor) run(ctx context.Context, task *Task) Outcome {
	log := logger.FromContext(ctx)

	if !sleepCtx(ctx, p.cfg.Debounce) {
		return OutcomeCancelled
	}

	locked, err := p.deps.LockCheck(task.Path)
	if err != nil {
		return p.ioFault(ctx, "lock_check", err)
	}
	if locked {
		log.Debug("File is locked, waiting before re-check")
		if !sleepCtx(ctx, p.cfg.LockRetry) {
			return OutcomeCancelled
		}
		if locked, err = p.deps.LockCheck(task.Path); err != nil {
			return p.ioFault(ctx, "lock_check", err)
		}
		if locked {
			log.Warn("File still locked after retry, abandoning attempt")
			return OutcomeLocked
		}
	}

	info, content, err := readFile(task.Path)
	if err != nil {
		return p.ioFault(ctx, "read", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		log.Warn("File is empty, abandoning attempt")
		return OutcomeEmpty
	}
	fp := fingerprint(task.Name, info, content)

	parsed, verdict, err := p.deps.Validator.Parse(task.Kind, content)
	if err != nil {
		log.WithError(err).WithField(logger.FieldStage, "parse").Error("Failed to parse drop file")
		p.reject(ctx, task, fp, "parse", err.Error(), content)
		return OutcomeParseFailed
	}
	if !verdict.Valid {
		log.WithFields(logger.Fields{
			logger.FieldStage:  "validate",
			logger.FieldReason: verdict.Reason,
		}).Error("Drop file failed validation")
		p.reject(ctx, task, fp, "validate", verdict.Reason, content)
		return OutcomeInvalid
	}

	// Once the payload is valid, dispatch and archive run to completion even if
	// shutdown starts, so the gate and the ledger stay consistent.
	stepCtx := context.WithoutCancel(ctx)

	done := p.unmarked.Contains(fp)
	if !done {
		if done, err = p.deps.Ledger.IsProcessed(stepCtx, fp); err != nil {
			log.WithError(err).WithField(logger.FieldStage, "ledger").Error("Failed to check processed ledger, leaving file for retry")
			return OutcomeDispatchFailed
		}
	}
	if done {
		log.Info("File was already dispatched, archiving without re-dispatch")
		if !p.archive(stepCtx, task) {
			return OutcomeArchiveFailed
		}
		return OutcomeAlreadyDone
	}

	ref, err := p.dispatch(stepCtx, task.Kind, parsed)
	if err != nil {
		log.WithError(err).WithField(logger.FieldStage, "dispatch").Error("Command dispatch failed, leaving file for retry")
		return OutcomeDispatchFailed
	}

	if err := p.deps.Ledger.MarkProcessed(stepCtx, &domain.ProcessedFile{
		Fingerprint: fp,
		FileName:    task.Name,
		Kind:        task.Kind,
		Reference:   ref,
		ProcessedAt: p.now(),
	}); err != nil {
		p.unmarked.Add(fp)
		log.WithError(err).WithField(logger.FieldStage, "ledger").Error("Failed to record processed marker, remembering it in memory")
	}

	if !p.archive(stepCtx, task) {
		return OutcomeArchiveFailed
	}
	return OutcomeDispatched
}

// dispatch hands the payload to the command sink and returns a reference for the ledger.
func (p *Processor) dispatch(ctx context.Context, kind domain.Kind, parsed *validation.Payload) (string, error) {
	log := logger.FromContext(ctx)

	switch kind {
	case domain.KindTransaction:
		res, err := p.deps.Dispatcher.ProcessTransaction(ctx, *parsed.Transaction)
		if err != nil {
			return "", err
		}
		log.WithFields(logger.Fields{
			"order_id":    res.OrderID,
			"customer_id": res.CustomerID,
			"supplier_id": res.SupplierID,
			"total":       res.Total.String(),
			"status":      string(res.Status),
		}).Info("Order transaction dispatched")
		return res.OrderID, nil
	case domain.KindCancellation:
		found, err := p.deps.Dispatcher.ProcessCancellation(ctx, *parsed.Cancellation)
		if err != nil {
			return "", err
		}
		if !found {
			log.Warn("No matching active order to cancel")
			return "not_found", nil
		}
		log.Info("Order cancellation dispatched")
		return "cancelled", nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
}

func (p *Processor) archive(ctx context.Context, task *Task) bool {
	dest, err := p.deps.Archiver.Archive(ctx, task, p.now())
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField(logger.FieldStage, "archive").Error("Failed to archive processed file")
		return false
	}
	logger.FromContext(ctx).WithField("archived_to", dest).Info("Archived processed file")
	return true
}

// reject writes the audit record and, when configured, quarantines the file.
func (p *Processor) reject(ctx context.Context, task *Task, fp, stage, reason string, content []byte) {
	log := logger.FromContext(ctx)

	if p.deps.Audit != nil {
		raw := content
		if len(raw) > maxAuditInput {
			raw = raw[:maxAuditInput]
		}
		rec := &domain.ExceptionRecord{
			Fingerprint:     fp,
			TransactionType: task.Kind.DisplayName(),
			FileName:        task.Name,
			Stage:           stage,
			Reason:          reason,
			RawInput:        string(raw),
			CreatedAt:       p.now(),
		}
		if err := p.deps.Audit.RecordException(context.WithoutCancel(ctx), rec); err != nil {
			log.WithError(err).Error("Failed to record ingestion exception")
		}
	}

	if !p.cfg.RejectInvalid {
		return
	}
	dest, err := p.deps.Archiver.Reject(context.WithoutCancel(ctx), task, p.now())
	if err != nil {
		log.WithError(err).Error("Failed to move rejected file")
		return
	}
	log.WithField("rejected_to", dest).Warn("Moved rejected file out of the drop folder")
}

// ioFault classifies lock check and read failures. A vanished file is expected when
// another attempt archived it first.
func (p *Processor) ioFault(ctx context.Context, stage string, err error) Outcome {
	log := logger.FromContext(ctx).WithError(err).WithField(logger.FieldStage, stage)
	if errors.Is(err, ErrFileMissing) {
		log.Warn("File vanished before it could be processed")
		return OutcomeMissing
	}
	log.Error("Cannot access drop file")
	return OutcomeUnreadable
}

func readFile(path string) (os.FileInfo, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, openError(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("%s is a directory", path)
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return info, content, nil
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
