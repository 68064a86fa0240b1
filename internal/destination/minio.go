package destination

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/chmdznr/oss-drive-to-blob-copier/internal/config"
	"github.com/chmdznr/oss-drive-to-blob-copier/pkg/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// minioAPI is the subset of *minio.Client used by Minio
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Minio writes objects into a bucket of an S3 compatible server. Keys are
// placed under an optional folder prefix.
type Minio struct {
	client minioAPI
	bucket string
	folder string
	region string
}

// NewMinio creates a MinIO client for the configured endpoint
func NewMinio(cfg config.Destination) (*Minio, error) {
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       !cfg.Insecure,
		Transport:    tr,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupAuto,
	})
	if err != nil {
		return nil, errors.Errorf("failed to initialize MinIO client: %w", err)
	}

	return newMinio(client, cfg), nil
}

func newMinio(client minioAPI, cfg config.Destination) *Minio {
	return &Minio{
		client: client,
		bucket: cfg.Container,
		folder: cfg.Folder,
		region: cfg.Region,
	}
}

func (m *Minio) EnsureContainer(ctx context.Context) {
	logger := zerolog.Ctx(ctx).With().Str("bucket", m.bucket).Logger()

	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		logger.Error().Err(err).Msg("checking bucket")
		return
	}
	if exists {
		logger.Debug().Msg("bucket exists")
		return
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		code := minio.ToErrorResponse(err).Code
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return
		}
		logger.Error().Err(err).Str("code", code).Msg("creating bucket")
		return
	}
	logger.Info().Msg("bucket created")
}

func (m *Minio) ListFiles(ctx context.Context) []models.RemoteFile {
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	files := []models.RemoteFile{}
	for obj := range m.client.ListObjects(listCtx, m.bucket, minio.ListObjectsOptions{Prefix: m.folder, Recursive: true}) {
		if obj.Err != nil {
			zerolog.Ctx(ctx).Error().Err(obj.Err).Str("bucket", m.bucket).Msg("listing objects")
			break
		}
		files = append(files, models.RemoteFile{
			ID:       obj.Key,
			Name:     obj.Key,
			Size:     obj.Size,
			MimeType: obj.ContentType,
		})
	}
	return files
}

func (m *Minio) WriteFile(ctx context.Context, key string, data []byte) WriteResult {
	key = m.folder + key

	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: detectContentType(data),
	})
	if err != nil {
		event := zerolog.Ctx(ctx).Error().Err(err).Str("bucket", m.bucket).Str("key", key)
		if resp := minio.ToErrorResponse(err); resp.Code != "" {
			event = event.Str("code", resp.Code).Str("message", resp.Message)
		}
		event.Msg("failed to upload object")
		return failed(key, errors.Errorf("uploading %s: %w", key, err))
	}

	return WriteResult{Key: key, Success: true}
}
