// Package sync copies batches of files from a source store into a
// destination store, one file at a time.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chmdznr/oss-drive-to-blob-copier/internal/destination"
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/source"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/utils"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const ReasonDownloadFailed = "download failed"

// Syncer handles file synchronization operations
type Syncer struct {
	source      source.Store
	destination destination.Store
	emitter     EventEmitter
	now         func() time.Time

	// serializes batches: no two files are ever processed at once
	mu  sync.Mutex
	seq int64
}

// NewSyncer creates a new syncer instance. A nil emitter discards events.
func NewSyncer(src source.Store, dst destination.Store, emitter EventEmitter) *Syncer {
	if emitter == nil {
		emitter = EmitterFunc(func(Event) {})
	}
	return &Syncer{
		source:      src,
		destination: dst,
		emitter:     emitter,
		now:         time.Now,
	}
}

type batchProgress struct {
	stats     models.Stats
	startTime time.Time
}

func (p *batchProgress) record(outcome models.SyncOutcome) {
	if outcome.Success {
		p.stats.SyncedFiles++
		p.stats.SyncedSize += outcome.Size
		return
	}
	p.stats.FailedFiles++
}

// Run processes the batch in order and returns exactly one outcome per file,
// in the same order. A failing file never stops the files after it, and Run
// itself never fails.
func (s *Syncer) Run(ctx context.Context, batch models.SyncBatch) []models.SyncOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := zerolog.Ctx(ctx)
	files := batch.Files()
	total := len(files)

	progress := &batchProgress{
		stats:     models.Stats{TotalFiles: int64(total)},
		startTime: s.now(),
	}

	s.emit(ctx, Event{
		Kind:    EventBatchStarted,
		Index:   -1,
		Total:   total,
		Message: fmt.Sprintf("Starting sync of %d files...", total),
	})
	logger.Info().Int("files", total).Msg("starting sync batch")

	outcomes := make([]models.SyncOutcome, 0, total)
	for i, file := range files {
		outcome := s.syncFile(ctx, i, total, file)
		progress.record(outcome)
		outcomes = append(outcomes, outcome)
	}

	progress.stats.Elapsed = s.now().Sub(progress.startTime)
	stats := progress.stats
	s.emit(ctx, Event{
		Kind:    EventBatchComplete,
		Index:   -1,
		Total:   total,
		Stats:   &stats,
		Message: fmt.Sprintf("Sync complete: %d synced, %d failed in %s",
			stats.SyncedFiles, stats.FailedFiles, utils.FormatDuration(stats.Elapsed)),
	})
	logger.Info().
		Int64("synced", stats.SyncedFiles).
		Int64("failed", stats.FailedFiles).
		Dur("elapsed", stats.Elapsed).
		Msg("sync batch complete")

	return outcomes
}

// syncFile runs the download and upload of a single file. A panic anywhere
// in the pipeline is confined to this file and reported as a critical error.
func (s *Syncer) syncFile(ctx context.Context, index, total int, file models.RemoteFile) (outcome models.SyncOutcome) {
	logger := zerolog.Ctx(ctx).With().Str("file_id", file.ID).Str("name", file.Name).Logger()
	state := models.StatePending

	base := Event{Index: index, Total: total, FileID: file.ID, Name: file.Name}
	step := func(kind EventKind, st models.FileState, msg string, err error) {
		state = st
		ev := base
		ev.Kind, ev.State, ev.Message, ev.Err = kind, st, msg, err
		s.emit(ctx, ev)
	}
	finish := func(st models.FileState, reason string, size int64) models.SyncOutcome {
		ev := base
		ev.Kind, ev.State, ev.Status = EventStatusChanged, st, st.Status()
		s.emit(ctx, ev)
		return models.SyncOutcome{
			FileID:    file.ID,
			Name:      file.Name,
			Success:   st == models.StateSynced,
			Reason:    reason,
			State:     st,
			Size:      size,
			Timestamp: s.now(),
		}
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := errors.Errorf("panic during %s: %v", state, r)
		logger.Error().Err(err).Msg("critical error while syncing file")
		step(EventFileFailed, models.StateCriticalError, fmt.Sprintf("Critical error on %s", file.Name), err)
		outcome = finish(models.StateCriticalError, fmt.Sprintf("critical error: %v", r), 0)
	}()

	step(EventDownloading, models.StateDownloading, fmt.Sprintf("Downloading %s from source...", file.Name), nil)
	content, err := s.source.FetchContent(ctx, file.ID)
	if err != nil {
		logger.Warn().Err(err).Msg("download failed")
		step(EventFileFailed, models.StateDownloadFailed, fmt.Sprintf("Failed to download %s", file.Name), err)
		return finish(models.StateDownloadFailed, ReasonDownloadFailed, 0)
	}
	state = models.StateDownloaded

	step(EventUploading, models.StateUploading, fmt.Sprintf("Uploading %s to destination...", file.Name), nil)
	result := s.destination.WriteFile(ctx, file.Name, content)
	if !result.Success {
		uploadErr := result.Err
		if uploadErr == nil {
			uploadErr = errors.New("upload rejected")
		}
		logger.Warn().Err(uploadErr).Msg("upload failed")
		step(EventFileFailed, models.StateUploadFailed, fmt.Sprintf("Failed to upload %s: %v", file.Name, uploadErr), uploadErr)
		return finish(models.StateUploadFailed, uploadErr.Error(), 0)
	}

	logger.Debug().Str("key", result.Key).Int("bytes", len(content)).Msg("file synced")
	step(EventFileSynced, models.StateSynced, fmt.Sprintf("Success: %s synced!", file.Name), nil)
	return finish(models.StateSynced, "", int64(len(content)))
}

// emit stamps the event and hands it to the emitter. A panicking emitter is
// logged and otherwise ignored.
func (s *Syncer) emit(ctx context.Context, event Event) {
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().Interface("panic", r).Str("kind", string(event.Kind)).Msg("event emitter panicked")
		}
	}()

	s.seq++
	event.Seq = s.seq
	event.Time = s.now()
	if event.Index >= 0 {
		zerolog.Ctx(ctx).Debug().Str("kind", string(event.Kind)).Str("file_id", event.FileID).Msg(event.Message)
	}
	s.emitter.EmitSyncEvent(event)
}
