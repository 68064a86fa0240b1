package models

import "time"

// Severity classifies a log console entry
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// LogEntry is one line of the session log console
type LogEntry struct {
	Seq       int64
	Timestamp time.Time
	Message   string
	Severity  Severity
}
