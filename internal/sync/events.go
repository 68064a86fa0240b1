package sync

import (
	"time"

	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
)

// EventKind identifies a step of a sync batch
type EventKind string

const (
	EventBatchStarted  EventKind = "batch_started"
	EventDownloading   EventKind = "downloading"
	EventUploading     EventKind = "uploading"
	EventFileSynced    EventKind = "file_synced"
	EventFileFailed    EventKind = "file_failed"
	EventStatusChanged EventKind = "status_changed"
	EventBatchComplete EventKind = "batch_complete"
)

// Event is emitted by the Syncer for every step of a batch. Events of one
// batch carry increasing Seq values.
type Event struct {
	Kind    EventKind
	Seq     int64
	Time    time.Time
	Index   int // position of the file in the batch, -1 for batch events
	Total   int
	FileID  string
	Name    string
	State   models.FileState
	Status  models.SyncStatus // set on EventStatusChanged
	Message string
	Err     error
	Stats   *models.Stats // set on EventBatchComplete
}

// Severity maps the event onto the log console severity
func (e Event) Severity() models.Severity {
	switch e.Kind {
	case EventFileSynced:
		return models.SeveritySuccess
	case EventFileFailed:
		return models.SeverityError
	default:
		return models.SeverityInfo
	}
}

// EventEmitter receives sync events. Implementations must not block for long:
// the batch waits for every emit to return.
type EventEmitter interface {
	EmitSyncEvent(event Event)
}

// EmitterFunc adapts a function to EventEmitter
type EmitterFunc func(event Event)

func (f EmitterFunc) EmitSyncEvent(event Event) {
	f(event)
}

// MultiEmitter broadcasts events to several emitters in order
type MultiEmitter []EventEmitter

func (m MultiEmitter) EmitSyncEvent(event Event) {
	for _, e := range m {
		if e != nil {
			e.EmitSyncEvent(event)
		}
	}
}
