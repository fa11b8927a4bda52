package importlog

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	StatusInProgress = "IN_PROGRESS"
	StatusComplete   = "COMPLETE"
	StatusFailed     = "FAILED"
	StatusFatal      = "FATAL"
)

// ImportError is one structured entry in an import log's error list.
type ImportError struct {
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ErrorList is the ordered error log, stored as a JSON column.
type ErrorList []ImportError

func (l ErrorList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]ImportError{})
	}
	return json.Marshal(l)
}

func (l *ErrorList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("errorlist: unsupported column type")
	}
	return json.Unmarshal(raw, l)
}

// ImportLog tracks one logical import run per (workspace, attribute type).
// The pair is unique; rows are created lazily on the first import attempt and
// never deleted.
type ImportLog struct {
	ID                    int64      `gorm:"primaryKey"`
	WorkspaceID           int64      `gorm:"column:workspace_id;not null;uniqueIndex:idx_import_logs_workspace_attribute"`
	AttributeType         string     `gorm:"column:attribute_type;not null;uniqueIndex:idx_import_logs_workspace_attribute"`
	Status                string     `gorm:"column:status"`
	ErrorLog              ErrorList  `gorm:"column:error_log;type:jsonb"`
	TotalBatchesCount     int        `gorm:"column:total_batches_count;default:0"`
	ProcessedBatchesCount int        `gorm:"column:processed_batches_count;default:0"`
	LastSuccessfulRunAt   *time.Time `gorm:"column:last_successful_run_at"`
	CreatedAt             time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ImportLog) TableName() string {
	return "import_logs"
}

// ResetProgress zeroes the batch counters before a fresh run begins.
func (l *ImportLog) ResetProgress() {
	l.Status = StatusInProgress
	l.TotalBatchesCount = 0
	l.ProcessedBatchesCount = 0
}

// MarkBatchProcessed advances the processed counter; on the last batch the run
// is complete, the watermark moves forward and the error log is cleared.
func (l *ImportLog) MarkBatchProcessed(isLastBatch bool) {
	l.ProcessedBatchesCount++
	if isLastBatch {
		now := time.Now().UTC()
		l.LastSuccessfulRunAt = &now
		l.Status = StatusComplete
		l.ErrorLog = nil
	}
}

// MarkCompleteEmpty records a run that found nothing to import.
func (l *ImportLog) MarkCompleteEmpty() {
	now := time.Now().UTC()
	l.Status = StatusComplete
	l.LastSuccessfulRunAt = &now
	l.ErrorLog = nil
	l.TotalBatchesCount = 0
	l.ProcessedBatchesCount = 0
}

// MarkFailed records a recoverable failure. Processed batch counts are kept so
// operators can see how far the run got.
func (l *ImportLog) MarkFailed(errType, message string) {
	l.Status = StatusFailed
	l.ErrorLog = append(l.ErrorLog, ImportError{Type: errType, Message: message, OccurredAt: time.Now().UTC()})
}

// MarkFatal records an unrecoverable failure, e.g. invalid credentials.
func (l *ImportLog) MarkFatal(errType, message string) {
	l.Status = StatusFatal
	l.ErrorLog = append(l.ErrorLog, ImportError{Type: errType, Message: message, OccurredAt: time.Now().UTC()})
}
