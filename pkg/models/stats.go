package models

import "time"

// Stats summarizes a finished sync batch
type Stats struct {
	TotalFiles  int64
	SyncedFiles int64
	SyncedSize  int64
	FailedFiles int64
	Elapsed     time.Duration
}

// CatalogStats summarizes the current source listing held by a session
type CatalogStats struct {
	TotalFiles   int64
	TotalSize    int64
	SyncedFiles  int64
	PendingFiles int64
	FailedFiles  int64
	Selected     int64
}
