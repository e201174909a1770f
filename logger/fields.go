package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings.
const (
	// Identity
	FieldFileID      = "file_id"
	FieldFileName    = "file_name"
	FieldIngestionID = "ingestion_id"

	// Components
	FieldBackend = "backend"

	// Operations
	FieldOperation = "operation"
	FieldURL       = "url"
	FieldPath      = "path"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldCreated    = "created"
	FieldSince      = "since"

	// Errors
	FieldError     = "error"
	FieldErrorKind = "error_kind"

	// Counts and sizes
	FieldCount      = "count"
	FieldBatch      = "batch"
	FieldBatchSize  = "batch_size"
	FieldTotalCount = "total_count"

	// Graph data
	FieldGraph = "graph"
	FieldType  = "type"
	FieldRule  = "rule"

	// Status
	FieldStatus = "status"

	FieldSymbol = "symbol"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Poller struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewPoller() *Poller {
//	    return &Poller{
//	        logger: logger.ComponentLogger("pulse.poller"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
// Example:
//
//	fileLogger := logger.ChildLogger(baseLogger, logger.FieldFileID, f.ID)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}
