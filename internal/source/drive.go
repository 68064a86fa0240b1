package source

import (
	"context"
	"io"

	"github.com/chmdznr/oss-drive-to-blob-copier/internal/config"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const driveListFields = "nextPageToken, files(id, name, size, mimeType)"

// Drive reads files from Google Drive with an externally issued access token
type Drive struct {
	service  *drive.Service
	apiKey   string
	pageSize int64
}

// NewDrive creates a Drive store. Extra client options are appended after the
// ones derived from cfg, so they can replace the HTTP client or endpoint.
func NewDrive(ctx context.Context, cfg config.Source, extra ...option.ClientOption) (*Drive, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.AccessToken,
			TokenType:   "Bearer",
		})),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	opts = append(opts, extra...)

	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Errorf("creating drive service: %w", err)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}

	return &Drive{
		service:  service,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
	}, nil
}

func (d *Drive) callOptions() []googleapi.CallOption {
	if d.apiKey == "" {
		return nil
	}
	return []googleapi.CallOption{googleapi.QueryParameter("key", d.apiKey)}
}

// ListFiles returns the first page of files visible to the token
func (d *Drive) ListFiles(ctx context.Context) []models.RemoteFile {
	logger := zerolog.Ctx(ctx)

	resp, err := d.service.Files.List().
		PageSize(d.pageSize).
		Fields(driveListFields).
		Context(ctx).
		Do(d.callOptions()...)
	if err != nil {
		logger.Error().Err(err).Msg("listing drive files")
		return []models.RemoteFile{}
	}

	files := make([]models.RemoteFile, 0, len(resp.Files))
	for _, f := range resp.Files {
		if f == nil {
			continue
		}
		files = append(files, models.RemoteFile{
			ID:       f.Id,
			Name:     f.Name,
			Size:     f.Size,
			MimeType: f.MimeType,
			Status:   models.StatusPending,
		})
	}
	logger.Debug().Int("files", len(files)).Bool("more", resp.NextPageToken != "").Msg("listed drive files")
	return files
}

// FetchContent downloads the raw bytes of a file
func (d *Drive) FetchContent(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := d.service.Files.Get(fileID).Context(ctx).Download(d.callOptions()...)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("file_id", fileID).Msg("downloading drive file")
		return nil, errors.Errorf("downloading %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", fileID, err)
	}
	return data, nil
}
