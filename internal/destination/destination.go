// Package destination provides the object stores files are copied into.
package destination

import (
	"context"

	"github.com/chmdznr/oss-drive-to-blob-copier/internal/config"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
	"github.com/gabriel-vasile/mimetype"
	"gitlab.com/tozd/go/errors"
)

// Store writes objects into a single container.
//
// EnsureContainer is best-effort and idempotent: failures are logged and
// surface later as write failures. ListFiles returns whatever the store
// reports, an empty listing when the store cannot be reached. WriteFile
// always overwrites the object at key.
type Store interface {
	EnsureContainer(ctx context.Context)
	ListFiles(ctx context.Context) []models.RemoteFile
	WriteFile(ctx context.Context, key string, data []byte) WriteResult
}

// WriteResult reports the outcome of a single WriteFile call
type WriteResult struct {
	Key     string
	Success bool
	Err     error
}

func failed(key string, err error) WriteResult {
	return WriteResult{Key: key, Err: err}
}

// New builds the store selected by cfg.Kind
func New(cfg config.Destination) (Store, error) {
	switch cfg.Kind {
	case config.DestinationMinio:
		return NewMinio(cfg)
	case config.DestinationAzure:
		return NewAzure(cfg)
	default:
		return nil, errors.Errorf("unknown destination kind %q", cfg.Kind)
	}
}

func detectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}
