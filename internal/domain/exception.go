package domain

import "time"

// ExceptionRecord is an audit row describing a drop file that could not be ingested.
// A given file fingerprint is recorded at most once.
type ExceptionRecord struct {
	ID              string    `gorm:"type:text;primaryKey" json:"id"`
	Fingerprint     string    `gorm:"type:text;not null;uniqueIndex:idx_exceptions_fingerprint" json:"fingerprint"`
	TransactionType string    `gorm:"type:text;not null;index:idx_exceptions_type" json:"transaction_type"`
	FileName        string    `gorm:"type:text" json:"file_name"`
	Stage           string    `gorm:"type:text" json:"stage"`
	Reason          string    `gorm:"type:text" json:"reason"`
	RawInput        string    `gorm:"type:text" json:"raw_input"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for ExceptionRecord.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (ExceptionRecord) TableName() string {
	return "ingest_exceptions"
}
