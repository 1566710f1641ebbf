package domain

import "time"

// ProcessedFile marks a drop file whose payload has already been dispatched.
// The fingerprint covers name, size, modification time and content, so a new
// write of the same file name gets a new fingerprint.
type ProcessedFile struct {
	Fingerprint string    `gorm:"type:text;primaryKey" json:"fingerprint"`
	FileName    string    `gorm:"type:text;not null" json:"file_name"`
	Kind        Kind      `gorm:"type:text;not null;index:idx_processed_kind" json:"kind"`
	Reference   string    `gorm:"type:text" json:"reference,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// TableName returns the database table name for ProcessedFile.
func (ProcessedFile) TableName() string {
	return "processed_files"
}
