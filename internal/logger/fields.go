package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Tracing Fields (Context level)
// Propagated through the call chain of one ingestion task
// ============================================

const (
	// FieldJobID identifies one ingestion attempt (uuid)
	FieldJobID = "job_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldFile is the drop file name. logrus reserves "file" for the caller.
	FieldFile = "file_name"

	// FieldKind is the payload kind (transaction, cancellation)
	FieldKind = "kind"

	// FieldTrigger is what noticed the file (watch, poll, manual)
	FieldTrigger = "trigger"

	// FieldRequestID is the HTTP request ID of the status server
	FieldRequestID = "request_id"
)

// ============================================
// Metric Fields (Entry level)
// Used for aggregation and alerting
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldStage is the processing stage an outcome was reached in
	FieldStage = "stage"

	// FieldReason is a human-readable failure reason
	FieldReason = "reason"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status or outcome
	FieldStatus = "status"
)
