package destination

import (
	"context"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/minio/minio-go/v7"
)

// mockMinio lets each test override the calls it cares about
type mockMinio struct {
	BucketExistsFunc func(ctx context.Context, bucket string) (bool, error)
	MakeBucketFunc   func(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	ListObjectsFunc  func(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PutObjectFunc    func(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

func (m *mockMinio) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if m.BucketExistsFunc != nil {
		return m.BucketExistsFunc(ctx, bucket)
	}
	return true, nil
}

func (m *mockMinio) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	if m.MakeBucketFunc != nil {
		return m.MakeBucketFunc(ctx, bucket, opts)
	}
	return nil
}

func (m *mockMinio) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	if m.ListObjectsFunc != nil {
		return m.ListObjectsFunc(ctx, bucket, opts)
	}
	ch := make(chan minio.ObjectInfo)
	close(ch)
	return ch
}

func (m *mockMinio) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, bucket, object, reader, size, opts)
	}
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
}

type mockAzure struct {
	CreateContainerFunc func(ctx context.Context, name string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
	Pages               []azblob.ListBlobsFlatResponse
	PageErr             error
	UploadBufferFunc    func(ctx context.Context, container, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

func (m *mockAzure) CreateContainer(ctx context.Context, name string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error) {
	if m.CreateContainerFunc != nil {
		return m.CreateContainerFunc(ctx, name, o)
	}
	return azblob.CreateContainerResponse{}, nil
}

func (m *mockAzure) NewListBlobsFlatPager(name string, o *azblob.ListBlobsFlatOptions) *runtime.Pager[azblob.ListBlobsFlatResponse] {
	next := 0
	return runtime.NewPager(runtime.PagingHandler[azblob.ListBlobsFlatResponse]{
		More: func(azblob.ListBlobsFlatResponse) bool {
			return next < len(m.Pages) || (m.PageErr != nil && next == len(m.Pages))
		},
		Fetcher: func(ctx context.Context, _ *azblob.ListBlobsFlatResponse) (azblob.ListBlobsFlatResponse, error) {
			if next == len(m.Pages) {
				next++
				return azblob.ListBlobsFlatResponse{}, m.PageErr
			}
			page := m.Pages[next]
			next++
			return page, nil
		},
	})
}

func (m *mockAzure) UploadBuffer(ctx context.Context, container, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
	if m.UploadBufferFunc != nil {
		return m.UploadBufferFunc(ctx, container, blobName, buffer, o)
	}
	return azblob.UploadBufferResponse{}, nil
}
