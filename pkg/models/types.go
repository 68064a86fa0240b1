package models

import "time"

// FileState is the per-file state of the sync pipeline
type FileState string

const (
	StatePending        FileState = "pending"
	StateDownloading    FileState = "downloading"
	StateDownloaded     FileState = "downloaded"
	StateUploading      FileState = "uploading"
	StateSynced         FileState = "synced"
	StateDownloadFailed FileState = "download_failed"
	StateUploadFailed   FileState = "upload_failed"
	StateCriticalError  FileState = "critical_error"
)

// Terminal reports whether no further transition can happen from s
func (s FileState) Terminal() bool {
	switch s {
	case StateSynced, StateDownloadFailed, StateUploadFailed, StateCriticalError:
		return true
	}
	return false
}

// Status maps a terminal pipeline state onto the listing status
func (s FileState) Status() SyncStatus {
	switch s {
	case StateSynced:
		return StatusSynced
	case StateDownloadFailed, StateUploadFailed, StateCriticalError:
		return StatusError
	}
	return StatusPending
}

// SyncBatch is an immutable snapshot of the files selected for transfer
type SyncBatch struct {
	files []RemoteFile
}

// NewSyncBatch copies files so that later changes to the caller's slice
// do not reach a batch already handed to the engine.
func NewSyncBatch(files []RemoteFile) SyncBatch {
	snapshot := make([]RemoteFile, len(files))
	copy(snapshot, files)
	return SyncBatch{files: snapshot}
}

// Len returns the number of files in the batch
func (b SyncBatch) Len() int {
	return len(b.files)
}

// Files returns a copy of the batch contents in submission order
func (b SyncBatch) Files() []RemoteFile {
	out := make([]RemoteFile, len(b.files))
	copy(out, b.files)
	return out
}

// SyncOutcome is the terminal result of one file's transfer attempt
type SyncOutcome struct {
	FileID    string
	Name      string
	Success   bool
	Reason    string
	State     FileState
	Size      int64
	Timestamp time.Time
}
