package destination

import (
	"context"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func ptr[T any](v T) *T { return &v }

func azureDestination() config.Destination {
	return config.Destination{Kind: config.DestinationAzure, Container: "aluno"}
}

func TestServiceURL(t *testing.T) {
	assert.Equal(t, "https://acct.blob.core.windows.net/?sv=1&sig=x", ServiceURL("acct", "?sv=1&sig=x"))
	assert.Equal(t, "https://acct.blob.core.windows.net/?sv=1", ServiceURL("acct", "sv=1"))
}

func TestAzureEnsureContainer(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"created", nil},
		{"already exists", &azcore.ResponseError{ErrorCode: "ContainerAlreadyExists", StatusCode: 409}},
		{"other failure", errors.New("no such host")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			client := &mockAzure{
				CreateContainerFunc: func(ctx context.Context, name string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error) {
					calls++
					assert.Equal(t, "aluno", name)
					return azblob.CreateContainerResponse{}, tt.err
				},
			}
			a := newAzure(client, azureDestination())
			assert.NotPanics(t, func() { a.EnsureContainer(context.Background()) })
			assert.Equal(t, 1, calls)
		})
	}
}

func blobPage(items ...*container.BlobItem) azblob.ListBlobsFlatResponse {
	var page azblob.ListBlobsFlatResponse
	page.Segment = &container.BlobFlatListSegment{BlobItems: items}
	return page
}

func TestAzureListFiles(t *testing.T) {
	client := &mockAzure{
		Pages: []azblob.ListBlobsFlatResponse{
			blobPage(
				&container.BlobItem{Name: ptr("a.txt"), Properties: &container.BlobProperties{ContentLength: ptr(int64(2048)), ContentType: ptr("text/plain")}},
				&container.BlobItem{Name: ptr("b.bin")},
			),
			blobPage(&container.BlobItem{Name: ptr("c.pdf"), Properties: &container.BlobProperties{ContentLength: ptr(int64(10))}}),
		},
	}

	files := newAzure(client, azureDestination()).ListFiles(context.Background())

	require.Len(t, files, 3)
	assert.Equal(t, "a.txt", files[0].ID)
	assert.Equal(t, int64(2048), files[0].Size)
	assert.Equal(t, "text/plain", files[0].MimeType)
	assert.Equal(t, int64(0), files[1].Size)
	assert.Equal(t, "c.pdf", files[2].Name)
}

func TestAzureListFilesKeepsPartialListing(t *testing.T) {
	client := &mockAzure{
		Pages:   []azblob.ListBlobsFlatResponse{blobPage(&container.BlobItem{Name: ptr("a.txt")})},
		PageErr: errors.New("AuthenticationFailed"),
	}

	files := newAzure(client, azureDestination()).ListFiles(context.Background())
	require.Len(t, files, 1)
	assert.Equal(t, "a.txt", files[0].Name)
}

func TestAzureListFilesFailsOpen(t *testing.T) {
	client := &mockAzure{PageErr: errors.New("AuthenticationFailed")}

	files := newAzure(client, azureDestination()).ListFiles(context.Background())
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestAzureWriteFile(t *testing.T) {
	var gotName, gotType string
	client := &mockAzure{
		UploadBufferFunc: func(ctx context.Context, c, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
			gotName = blobName
			require.NotNil(t, o)
			require.NotNil(t, o.HTTPHeaders)
			gotType = *o.HTTPHeaders.BlobContentType
			return azblob.UploadBufferResponse{}, nil
		},
	}

	cfg := azureDestination()
	cfg.Folder = "drive/"
	res := newAzure(client, cfg).WriteFile(context.Background(), "notes.txt", []byte("plain text"))

	assert.True(t, res.Success)
	assert.Equal(t, "drive/notes.txt", gotName)
	assert.Contains(t, gotType, "text/plain")
}

func TestAzureWriteFileFailure(t *testing.T) {
	client := &mockAzure{
		UploadBufferFunc: func(ctx context.Context, c, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
			return azblob.UploadBufferResponse{}, &azcore.ResponseError{ErrorCode: "AuthorizationFailure", StatusCode: 403}
		},
	}

	res := newAzure(client, azureDestination()).WriteFile(context.Background(), "a.txt", []byte("x"))
	assert.False(t, res.Success)
	assert.Error(t, res.Err)
}
