package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timmy/ordermonitor/internal/domain"
	"github.com/timmy/ordermonitor/internal/logger"
	"github.com/timmy/ordermonitor/internal/metrics"
)

// ErrInFlight is returned when a manual submission finds the file already being processed.
var ErrInFlight = errors.New("file is already being processed")

// MonitorConfig holds the scheduling knobs of the monitor.
type MonitorConfig struct {
	Dir           string
	Workers       int
	QueueSize     int
	PollInterval  time.Duration
	ErrorCooldown time.Duration
	Watch         bool
}

// Monitor wires watcher and sweeper to a bounded task queue drained by a
// worker pool. Both trigger sources go through the same gate.
type Monitor struct {
	cfg       MonitorConfig
	matcher   *Matcher
	gate      *Gate
	processor *Processor
	metrics   *metrics.Metrics
	stats     *runStats

	queue  chan *Task
	mu     sync.RWMutex // guards closed against sends on a closed queue
	closed bool
}

// NewMonitor creates a monitor. Run may be called once.
// Parameters:
//   - cfg: folder and scheduling settings.
//   - matcher: file name filter and kind resolver.
//   - gate: the gate shared with processor.
//   - processor: per-file state machine.
//   - m: optional metrics sink.
// Returns:
//   - *Monitor: idle monitor.
func NewMonitor(cfg MonitorConfig, matcher *Matcher, gate *Gate, processor *Processor, m *metrics.Metrics) *Monitor {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 2
	}
	return &Monitor{
		cfg:       cfg,
		matcher:   matcher,
		gate:      gate,
		processor: processor,
		metrics:   m,
		stats:     newRunStats(),
		queue:     make(chan *Task, cfg.QueueSize),
	}
}

// Gate exposes the monitor's gate for status reporting.
func (m *Monitor) Gate() *Gate {
	return m.gate
}

// Run ensures the drop folder exists, starts the workers, the watcher and the
// sweeper, and blocks until ctx ends and all of them have stopped.
func (m *Monitor) Run(ctx context.Context) error {
	ctx = logger.SetComponent(ctx, "monitor")
	log := logger.FromContext(ctx)

	if err := os.MkdirAll(m.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create drop folder %s: %w", m.cfg.Dir, err)
	}

	log.WithFields(logger.Fields{
		"dir":           m.cfg.Dir,
		"workers":       m.cfg.Workers,
		"queue_size":    m.cfg.QueueSize,
		"poll_interval": m.cfg.PollInterval.String(),
		"watch":         m.cfg.Watch,
	}).Info("Starting drop folder monitor")

	var workers sync.WaitGroup
	for i := 0; i < m.cfg.Workers; i++ {
		workers.Add(1)
		go func(workerID int) {
			defer workers.Done()
			m.worker(ctx, workerID)
		}(i)
	}

	var triggers sync.WaitGroup
	if m.cfg.Watch {
		triggers.Add(1)
		go func() {
			defer triggers.Done()
			NewWatcher(m.cfg.Dir, m.Submit).Run(ctx, nil)
		}()
	}
	triggers.Add(1)
	go func() {
		defer triggers.Done()
		NewSweeper(m.cfg.PollInterval, m.cfg.ErrorCooldown, m.SweepOnce).Run(ctx)
	}()

	<-ctx.Done()
	triggers.Wait()

	m.mu.Lock()
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	workers.Wait()
	log.WithFields(m.stats.fields()).Info("Drop folder monitor stopped")
	return nil
}

// Submit offers path to the pipeline. It returns true if a task was queued.
// Watch triggers never block: a full queue drops the trigger and the next
// sweep picks the file up. Other triggers wait for queue space or ctx.
func (m *Monitor) Submit(ctx context.Context, path string, trigger Trigger) bool {
	name := filepath.Base(path)
	kind, ok := m.matcher.Match(name)
	if !ok {
		return false
	}
	m.metrics.Trigger(string(trigger))

	task := m.newTask(path, name, kind, trigger)
	if !m.gate.TryAcquire(task.Path) {
		m.stats.dropped()
		m.metrics.DroppedTrigger(string(trigger), "in_flight")
		logger.FromContext(ctx).WithFields(logger.Fields{
			logger.FieldFile:    name,
			logger.FieldTrigger: string(trigger),
		}).Debug("File already in flight, dropping trigger")
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		m.gate.Release(task.Path)
		return false
	}

	if trigger == TriggerWatch {
		select {
		case m.queue <- task:
			m.stats.submitted()
			return true
		default:
			m.gate.Release(task.Path)
			m.stats.dropped()
			m.metrics.DroppedTrigger(string(trigger), "queue_full")
			logger.FromContext(ctx).WithField(logger.FieldFile, name).Warn("Task queue full, dropping watcher trigger")
			return false
		}
	}

	select {
	case m.queue <- task:
		m.stats.submitted()
		return true
	case <-ctx.Done():
		m.gate.Release(task.Path)
		return false
	}
}

// SweepOnce lists the drop folder, submits every matching file and evicts
// stale gate entries. It returns the number of tasks queued.
func (m *Monitor) SweepOnce(ctx context.Context) (int, error) {
	if n := m.gate.EvictStale(); n > 0 {
		logger.FromContext(ctx).WithField("evicted", n).Warn("Evicted stale gate entries")
	}

	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list drop folder %s: %w", m.cfg.Dir, err)
	}

	submitted := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if entry.IsDir() {
			continue
		}
		if m.Submit(ctx, filepath.Join(m.cfg.Dir, entry.Name()), TriggerPoll) {
			submitted++
		}
	}
	return submitted, nil
}

// ProcessFile processes one file synchronously, outside the queue. Files that
// do not match the configured pattern are still accepted when their name
// identifies a payload kind.
func (m *Monitor) ProcessFile(ctx context.Context, path string) (Outcome, error) {
	name := filepath.Base(path)
	kind, ok := m.matcher.Match(name)
	if !ok {
		var err error
		if kind, err = domain.KindForFileName(name); err != nil {
			if m.matcher.kind == "" {
				return "", err
			}
			kind = m.matcher.kind
		}
	}

	task := m.newTask(path, name, kind, TriggerManual)
	if !m.gate.TryAcquire(task.Path) {
		return "", fmt.Errorf("%w: %s", ErrInFlight, task.Path)
	}
	outcome := m.processor.Process(ctx, task)
	m.stats.record(outcome)
	return outcome, nil
}

// Stats returns a snapshot of the run counters.
func (m *Monitor) Stats() Stats {
	s := m.stats.snapshot()
	s.InFlight = m.gate.InFlight()
	return s
}

func (m *Monitor) newTask(path, name string, kind domain.Kind, trigger Trigger) *Task {
	return &Task{
		ID:         uuid.NewString(),
		Path:       normalizePath(path),
		Name:       name,
		Kind:       kind,
		Trigger:    trigger,
		EnqueuedAt: time.Now(),
	}
}

func (m *Monitor) worker(ctx context.Context, workerID int) {
	ctx = logger.WithField(ctx, "worker", workerID)
	for task := range m.queue {
		if ctx.Err() != nil {
			// Queued but never started: hand the file back to the next run.
			m.gate.Release(task.Path)
			continue
		}
		m.stats.record(m.processor.Process(ctx, task))
	}
}
