package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"travelmap-api/internal/utils"
)

// ImagePathPrefix marks imageData values that reference an object served by
// the /images endpoint.
const ImagePathPrefix = "/images/"

// ImageEncoder turns an uploaded file into the imageData stored on a record.
type ImageEncoder interface {
	Encode(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// ObjectStorage is the subset of StorageService the encoder and image service need.
type ObjectStorage interface {
	FetchFile(ctx context.Context, filePath string) ([]byte, error)
	UploadFile(ctx context.Context, filePath string, data []byte, contentType string) error
}

// EmbeddedEncoder stores the normalized JPEG inline as a data URI.
type EmbeddedEncoder struct {
	MaxDimension int
}

func (e EmbeddedEncoder) Encode(_ context.Context, _ string, contentType string, data []byte) (string, error) {
	jpeg, err := utils.NormalizeToJPEG(data, contentType, e.MaxDimension)
	if err != nil {
		return "", err
	}
	return utils.EncodeDataURI("image/jpeg", jpeg), nil
}

// StorageEncoder uploads the normalized JPEG to object storage and returns a
// reference to it.
type StorageEncoder struct {
	storage      ObjectStorage
	profile      string
	maxDimension int
}

func NewStorageEncoder(storage ObjectStorage, profile string, maxDimension int) *StorageEncoder {
	return &StorageEncoder{storage: storage, profile: profile, maxDimension: maxDimension}
}

func (e *StorageEncoder) Encode(ctx context.Context, name, contentType string, data []byte) (string, error) {
	jpeg, err := utils.NormalizeToJPEG(data, contentType, e.maxDimension)
	if err != nil {
		return "", err
	}

	object := path.Join(e.profile, uuid.NewString()+"-"+sanitizeObjectName(utils.JPEGName(name)))
	if err := e.storage.UploadFile(ctx, object, jpeg, "image/jpeg"); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return ImagePathPrefix + object, nil
}

func sanitizeObjectName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
