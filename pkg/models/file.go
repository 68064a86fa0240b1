package models

// SyncStatus is the synchronization status of a listed source file
type SyncStatus string

const (
	StatusPending SyncStatus = "pending"
	StatusSynced  SyncStatus = "synced"
	StatusError   SyncStatus = "error"
)

// RemoteFile represents a file listed by a source or destination store
type RemoteFile struct {
	ID       string
	Name     string
	Size     int64 // 0 when the store does not report it
	MimeType string
	Status   SyncStatus
}

// CanTransition reports whether a file in status from may move to status to.
// Files never go back to pending. Every transfer attempt, including a retry
// of a failed or already synced file, records its own result.
func CanTransition(from, to SyncStatus) bool {
	if to != StatusSynced && to != StatusError {
		return false
	}
	switch from {
	case StatusPending, StatusSynced, StatusError:
		return true
	default:
		return false
	}
}
