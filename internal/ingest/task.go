package ingest

import (
	"time"

	"github.com/timmy/ordermonitor/internal/domain"
)

// Trigger names what noticed a candidate file.
type Trigger string

const (
	TriggerWatch  Trigger = "watch"
	TriggerPoll   Trigger = "poll"
	TriggerManual Trigger = "manual"
)

// Task is one attempt to process one file. The gate entry for Path is owned
// by the task from submission until the processor returns.
type Task struct {
	ID         string
	Path       string // absolute path
	Name       string // base name
	Kind       domain.Kind
	Trigger    Trigger
	EnqueuedAt time.Time
}

// Outcome is the terminal state a processing attempt reached.
type Outcome string

const (
	OutcomeDispatched     Outcome = "dispatched"      // dispatched and archived
	OutcomeArchiveFailed  Outcome = "archive_failed"  // dispatched, archive move failed
	OutcomeAlreadyDone    Outcome = "already_done"    // ledger hit, archived without dispatch
	OutcomeLocked         Outcome = "locked"          // still being written
	OutcomeMissing        Outcome = "missing"         // vanished before it could be read
	OutcomeUnreadable     Outcome = "unreadable"      // permission or other I/O fault
	OutcomeEmpty          Outcome = "empty"           // blank content
	OutcomeParseFailed    Outcome = "parse_failed"    // malformed JSON
	OutcomeInvalid        Outcome = "invalid"         // schema or business rule violation
	OutcomeDispatchFailed Outcome = "dispatch_failed" // downstream error, left for retry
	OutcomeCancelled      Outcome = "cancelled"       // shutdown interrupted a wait
	OutcomePanicked       Outcome = "panicked"        // recovered panic
)

// Succeeded reports whether the payload reached the command sink.
func (o Outcome) Succeeded() bool {
	return o == OutcomeDispatched || o == OutcomeArchiveFailed || o == OutcomeAlreadyDone
}
