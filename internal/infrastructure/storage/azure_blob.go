package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/sangkips/crm-backend/internal/config"
	"go.uber.org/zap"
)

// AzureBlobStorage keeps objects in one Azure Blob Storage container
type AzureBlobStorage struct {
	client    *azblob.Client
	container string
	public    publicURL
	logger    *zap.Logger
}

// NewAzureBlobStorage authenticates with the connection string when set,
// otherwise with DefaultAzureCredential against the named account.
func NewAzureBlobStorage(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (*AzureBlobStorage, error) {
	var (
		client *azblob.Client
		err    error
	)
	if cfg.AzureConnectionString != "" {
		client, err = azblob.NewClientFromConnectionString(cfg.AzureConnectionString, nil)
	} else {
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", credErr)
		}
		serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AzureAccountName)
		client, err = azblob.NewClient(serviceURL, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	_, err = client.CreateContainer(ctx, cfg.AzureContainer, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	logger.Info("Azure Blob Storage initialized", zap.String("container", cfg.AzureContainer))

	return &AzureBlobStorage{
		client:    client,
		container: cfg.AzureContainer,
		public:    publicURL(cfg.PublicURL),
		logger:    logger,
	}, nil
}

func (s *AzureBlobStorage) Save(ctx context.Context, key, contentType string, data io.Reader) (int64, error) {
	key, err := CleanKey(key)
	if err != nil {
		return 0, err
	}
	reader := &countingReader{r: data}
	_, err = s.client.UploadStream(ctx, s.container, key, reader, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload blob: %w", err)
	}
	s.logger.Debug("blob uploaded", zap.String("key", key), zap.Int64("size", reader.count))
	return reader.count, nil
}

func (s *AzureBlobStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, ErrNotFound
	}
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return resp.Body, nil
}

func (s *AzureBlobStorage) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteBlob(ctx, s.container, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *AzureBlobStorage) URL(key string) string { return s.public.url(key) }

func (s *AzureBlobStorage) KeyFromURL(url string) (string, bool) { return s.public.key(url) }

type countingReader struct {
	r     io.Reader
	count int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.count += int64(n)
	return n, err
}
