package destination

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/config"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// azureAPI is the subset of *azblob.Client used by Azure
type azureAPI interface {
	CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
	NewListBlobsFlatPager(containerName string, o *azblob.ListBlobsFlatOptions) *runtime.Pager[azblob.ListBlobsFlatResponse]
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// Azure writes block blobs into an Azure Storage container, authorized by a
// SAS token embedded in the service URL.
type Azure struct {
	client    azureAPI
	container string
	folder    string
}

// ServiceURL builds the blob service URL for an account and SAS token
func ServiceURL(accountName, sasToken string) string {
	return fmt.Sprintf("https://%s.blob.core.windows.net/?%s", accountName, strings.TrimPrefix(sasToken, "?"))
}

func NewAzure(cfg config.Destination) (*Azure, error) {
	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = ServiceURL(cfg.AccountName, cfg.SASToken)
	}

	client, err := azblob.NewClientWithNoCredential(serviceURL, nil)
	if err != nil {
		return nil, errors.Errorf("creating azure blob client: %w", err)
	}
	return newAzure(client, cfg), nil
}

func newAzure(client azureAPI, cfg config.Destination) *Azure {
	return &Azure{
		client:    client,
		container: cfg.Container,
		folder:    cfg.Folder,
	}
}

func (a *Azure) EnsureContainer(ctx context.Context) {
	logger := zerolog.Ctx(ctx).With().Str("container", a.container).Logger()

	_, err := a.client.CreateContainer(ctx, a.container, nil)
	switch {
	case err == nil:
		logger.Info().Msg("container created")
	case bloberror.HasCode(err, bloberror.ContainerAlreadyExists):
		logger.Debug().Msg("container exists")
	default:
		logger.Error().Err(err).Msg("creating container")
	}
}

func (a *Azure) ListFiles(ctx context.Context) []models.RemoteFile {
	files := []models.RemoteFile{}

	var opts *azblob.ListBlobsFlatOptions
	if a.folder != "" {
		prefix := a.folder
		opts = &azblob.ListBlobsFlatOptions{Prefix: &prefix}
	}

	pager := a.client.NewListBlobsFlatPager(a.container, opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("container", a.container).Msg("listing blobs")
			break
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			file := models.RemoteFile{ID: *item.Name, Name: *item.Name}
			if item.Properties != nil {
				if item.Properties.ContentLength != nil {
					file.Size = *item.Properties.ContentLength
				}
				if item.Properties.ContentType != nil {
					file.MimeType = *item.Properties.ContentType
				}
			}
			files = append(files, file)
		}
	}
	return files
}

func (a *Azure) WriteFile(ctx context.Context, key string, data []byte) WriteResult {
	key = a.folder + key
	contentType := detectContentType(data)

	_, err := a.client.UploadBuffer(ctx, a.container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("container", a.container).Str("key", key).Msg("failed to upload blob")
		return failed(key, errors.Errorf("uploading %s: %w", key, err))
	}
	return WriteResult{Key: key, Success: true}
}
