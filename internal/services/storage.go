package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"travelmap-api/internal/errors"
)

type StorageService struct {
	client     *storage.Client
	bucketName string
}

func NewStorageService(client *storage.Client, bucketName string) *StorageService {
	return &StorageService{
		client:     client,
		bucketName: bucketName,
	}
}

// Retrieves a file from Google Cloud Storage by its path.
// Returns errors.ErrNotFound when the object does not exist.
func (s *StorageService) FetchFile(ctx context.Context, filePath string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucketName).Object(filePath).NewReader(ctx)
	if err != nil {
		if stderrors.Is(err, storage.ErrObjectNotExist) {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

// Uploads data to Google Cloud Storage under filePath.
func (s *StorageService) UploadFile(ctx context.Context, filePath string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucketName).Object(filePath).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object: %w", err)
	}
	return nil
}
