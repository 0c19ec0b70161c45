package oplog

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Severity levels for operational log entries.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelFailure = "failure"
	LevelSuccess = "success"
)

// Entry is one append-only operational log row. Entries are never updated
// or deleted by the application; they form the audit trail shown to operators.
type Entry struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	LogTime  time.Time `gorm:"index" json:"log_time"`
	Level    string    `gorm:"size:16" json:"level"`
	Category string    `gorm:"size:64;index" json:"category"`
	Message  string    `gorm:"size:1024" json:"message"`
}

// TableName sets the table name for operational log entries.
func (Entry) TableName() string {
	return "operational_log"
}

// Recorder appends operational log entries and mirrors them to zap.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRecorder creates a recorder. A nil db degrades to zap-only logging,
// which keeps unit tests and storageless runs working.
func NewRecorder(db *gorm.DB, logger *zap.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// Record appends one entry.
func (r *Recorder) Record(level, category, message string) {
	switch level {
	case LevelWarning:
		r.logger.Warn(message, zap.String("category", category))
	case LevelFailure:
		r.logger.Error(message, zap.String("category", category))
	default:
		r.logger.Info(message, zap.String("category", category), zap.String("level", level))
	}

	if r.db == nil {
		return
	}
	entry := Entry{
		LogTime:  time.Now().UTC(),
		Level:    level,
		Category: category,
		Message:  message,
	}
	if err := r.db.Create(&entry).Error; err != nil {
		// The audit row failed but the zap line above already captured the event.
		r.logger.Error("failed to append operational log entry", zap.Error(err))
	}
}

// Info records an informational entry.
func (r *Recorder) Info(category, message string) { r.Record(LevelInfo, category, message) }

// Warning records a warning entry.
func (r *Recorder) Warning(category, message string) { r.Record(LevelWarning, category, message) }

// Failure records a failure entry.
func (r *Recorder) Failure(category, message string) { r.Record(LevelFailure, category, message) }

// Success records a success entry.
func (r *Recorder) Success(category, message string) { r.Record(LevelSuccess, category, message) }

// Recent returns the newest entries, capped at limit.
func (r *Recorder) Recent(limit int) ([]Entry, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	var entries []Entry
	err := r.db.Order("id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
