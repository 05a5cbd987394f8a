package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/google/uuid"
)

// BlobUploader is the part of the azblob client the store needs
type BlobUploader interface {
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

type azureStorage struct {
	client    BlobUploader
	account   string
	container string
	now       func() time.Time
}

// NewAzureStorage connects to an account with a shared key
func NewAzureStorage(accountName, accountKey, container string) (FileStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return newAzureStorage(client, accountName, container), nil
}

func newAzureStorage(client BlobUploader, account, container string) *azureStorage {
	return &azureStorage{
		client:    client,
		account:   account,
		container: container,
		now:       time.Now,
	}
}

// Save uploads data as a block blob and returns its URL. A short random
// suffix keeps same-second uploads of one name apart.
func (s *azureStorage) Save(ctx context.Context, filename string, data []byte) (string, error) {
	blobName := fmt.Sprintf("%s_%s_%s",
		s.now().Format(FilenameTimeLayout), uuid.NewString()[:8], SanitizeFilename(filename))

	if _, err := s.client.UploadBuffer(ctx, s.container, blobName, data, nil); err != nil {
		return "", fmt.Errorf("upload %s: %w", blobName, err)
	}

	return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", s.account, s.container, blobName), nil
}
