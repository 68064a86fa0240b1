// Package source provides the stores files are copied from.
package source

import (
	"context"

	"github.com/chmdznr/oss-drive-to-blob-copier/internal/config"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
	"gitlab.com/tozd/go/errors"
)

// Store lists and downloads files from a document store.
//
// ListFiles never fails: transport or auth errors are logged and degrade to
// an empty listing. FetchContent returns a non-nil error when the content is
// unavailable for any reason; callers treat that as a per-file failure.
type Store interface {
	ListFiles(ctx context.Context) []models.RemoteFile
	FetchContent(ctx context.Context, fileID string) ([]byte, error)
}

// New builds the store selected by cfg.Kind
func New(ctx context.Context, cfg config.Source) (Store, error) {
	switch cfg.Kind {
	case config.SourceDrive:
		return NewDrive(ctx, cfg)
	case config.SourceLocal:
		return NewLocal(cfg.Dir)
	default:
		return nil, errors.Errorf("unknown source kind %q", cfg.Kind)
	}
}
