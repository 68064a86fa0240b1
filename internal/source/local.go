package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Local reads regular files from the top level of a directory. File IDs are
// the file names.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("local source directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Errorf("resolving %s: %w", dir, err)
	}
	return &Local{dir: abs}, nil
}

func (l *Local) ListFiles(ctx context.Context) []models.RemoteFile {
	logger := zerolog.Ctx(ctx)

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		logger.Error().Err(err).Str("dir", l.dir).Msg("listing local files")
		return []models.RemoteFile{}
	}

	files := make([]models.RemoteFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping unreadable file")
			continue
		}

		file := models.RemoteFile{
			ID:     entry.Name(),
			Name:   entry.Name(),
			Size:   info.Size(),
			Status: models.StatusPending,
		}
		if mt, err := mimetype.DetectFile(filepath.Join(l.dir, entry.Name())); err == nil {
			file.MimeType = mt.String()
		}
		files = append(files, file)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}

func (l *Local) FetchContent(ctx context.Context, fileID string) ([]byte, error) {
	if !filepath.IsLocal(fileID) || filepath.Base(fileID) != fileID {
		return nil, errors.Errorf("invalid file id %q", fileID)
	}

	data, err := os.ReadFile(filepath.Join(l.dir, fileID))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("file_id", fileID).Msg("reading local file")
		return nil, errors.Errorf("reading %s: %w", fileID, err)
	}
	return data, nil
}
