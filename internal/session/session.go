// Package session drives one interactive dsync session: it owns the listings
// of both stores, the selection and the log console, and runs sync batches
// over snapshots of the selection.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chmdznr/oss-drive-to-blob-copier/internal/db"
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/destination"
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/source"
	engine "github.com/chmdznr/oss-drive-to-blob-copier/internal/sync"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

var (
	ErrSyncInProgress = errors.New("a sync is already running")
	ErrNothingToSync  = errors.New("no files selected")
)

// Session is the single writer of the catalog: listings are replaced on
// refresh and statuses change only through sync events.
type Session struct {
	source      source.Store
	destination destination.Store
	catalog     *db.DB
	syncer      *engine.Syncer
	listeners   engine.MultiEmitter
	logger      zerolog.Logger
	now         func() time.Time

	mu      sync.Mutex
	syncing bool
}

// New creates a session. Listeners receive every sync event after the
// session has applied it to the catalog.
func New(ctx context.Context, src source.Store, dst destination.Store, catalog *db.DB, listeners ...engine.EventEmitter) *Session {
	s := &Session{
		source:      src,
		destination: dst,
		catalog:     catalog,
		listeners:   engine.MultiEmitter(listeners),
		logger:      *zerolog.Ctx(ctx),
		now:         time.Now,
	}
	s.syncer = engine.NewSyncer(src, dst, s)
	return s
}

// Load prepares the destination container and fetches both listings
func (s *Session) Load(ctx context.Context) error {
	s.destination.EnsureContainer(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.RefreshSource(gctx) })
	g.Go(func() error { return s.RefreshDestination(gctx) })
	return g.Wait()
}

// RefreshSource replaces the source listing. Every file goes back to pending.
func (s *Session) RefreshSource(ctx context.Context) error {
	files := s.source.ListFiles(ctx)
	if err := s.catalog.ReplaceSourceFiles(files); err != nil {
		return errors.Errorf("saving source listing: %w", err)
	}
	s.appendLog(models.SeverityInfo, fmt.Sprintf("Source listing refreshed: %d files", len(files)))
	return nil
}

// RefreshDestination replaces the destination listing
func (s *Session) RefreshDestination(ctx context.Context) error {
	files := s.destination.ListFiles(ctx)
	if err := s.catalog.ReplaceDestinationFiles(files); err != nil {
		return errors.Errorf("saving destination listing: %w", err)
	}
	s.appendLog(models.SeverityInfo, fmt.Sprintf("Destination listing refreshed: %d files", len(files)))
	return nil
}

func (s *Session) SourceFiles() ([]models.RemoteFile, error) {
	return s.catalog.SourceFiles()
}

func (s *Session) DestinationFiles() ([]models.RemoteFile, error) {
	return s.catalog.DestinationFiles()
}

func (s *Session) SelectedFiles() ([]models.RemoteFile, error) {
	return s.catalog.SelectedFiles()
}

// Logs returns the log console newest first; limit <= 0 returns everything
func (s *Session) Logs(limit int) ([]models.LogEntry, error) {
	return s.catalog.Logs(limit)
}

func (s *Session) Stats() (*models.CatalogStats, error) {
	return s.catalog.GetStats()
}

// Toggle flips the selection of a source file
func (s *Session) Toggle(id string) (bool, error) {
	return s.catalog.ToggleSelection(id)
}

// Syncing reports whether a batch is running
func (s *Session) Syncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing
}

// SyncAll syncs every file of the current source listing
func (s *Session) SyncAll(ctx context.Context) ([]models.SyncOutcome, error) {
	files, err := s.catalog.SourceFiles()
	if err != nil {
		return nil, errors.Errorf("reading source listing: %w", err)
	}
	return s.runBatch(ctx, files)
}

// SyncSelected syncs the selected files in listing order
func (s *Session) SyncSelected(ctx context.Context) ([]models.SyncOutcome, error) {
	files, err := s.catalog.SelectedFiles()
	if err != nil {
		return nil, errors.Errorf("reading selection: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNothingToSync
	}
	return s.runBatch(ctx, files)
}

func (s *Session) runBatch(ctx context.Context, files []models.RemoteFile) ([]models.SyncOutcome, error) {
	s.mu.Lock()
	if s.syncing {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.syncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.syncing = false
		s.mu.Unlock()
	}()

	outcomes := s.syncer.Run(ctx, models.NewSyncBatch(files))

	if err := s.RefreshDestination(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("refreshing destination after sync")
	}
	if err := s.catalog.ClearSelection(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("clearing selection after sync")
	}

	return outcomes, nil
}

// EmitSyncEvent applies a sync event to the catalog: status events update
// the file they name once its transfer reached a terminal state, every other
// event becomes a log console line.
func (s *Session) EmitSyncEvent(event engine.Event) {
	if event.Kind == engine.EventStatusChanged {
		if !event.State.Terminal() {
			s.logger.Warn().Str("file_id", event.FileID).Str("state", string(event.State)).Msg("status event before the transfer finished")
		} else if err := s.catalog.UpdateFileStatus(event.FileID, event.Status); err != nil {
			s.logger.Warn().Err(err).Str("file_id", event.FileID).Str("status", string(event.Status)).Msg("status not applied")
		}
	} else {
		s.appendLogAt(event.Time, event.Severity(), event.Message)
	}

	s.listeners.EmitSyncEvent(event)
}

func (s *Session) appendLog(severity models.Severity, message string) {
	s.appendLogAt(s.now(), severity, message)
}

func (s *Session) appendLogAt(ts time.Time, severity models.Severity, message string) {
	if ts.IsZero() {
		ts = s.now()
	}
	if _, err := s.catalog.AppendLog(ts, severity, message); err != nil {
		s.logger.Error().Err(err).Str("message", message).Msg("appending log entry")
	}
}
