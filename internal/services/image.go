package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"travelmap-api/internal/errors"
	"travelmap-api/internal/utils"
)

const (
	thumbnailSize      = 160
	thumbnailKeyPrefix = "thumb:"
)

// ImageService resolves a record's imageData back into bytes, for downloads
// and marker thumbnails. Stored objects and thumbnails are cached.
type ImageService struct {
	storage ObjectStorage // nil when images are only ever embedded
	cache   *CacheService
	logger  *zap.Logger
}

func NewImageService(storage ObjectStorage, cache *CacheService, logger *zap.Logger) *ImageService {
	return &ImageService{
		storage: storage,
		cache:   cache,
		logger:  logger,
	}
}

// GetImage returns the bytes and content type behind imageData.
func (s *ImageService) GetImage(ctx context.Context, imageData string) ([]byte, string, error) {
	if utils.IsDataURI(imageData) {
		mime, data, err := utils.DecodeDataURI(imageData)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
		}
		return data, mime, nil
	}

	object, ok := strings.CutPrefix(imageData, ImagePathPrefix)
	if !ok || object == "" {
		return nil, "", fmt.Errorf("%w: unsupported image reference", errors.ErrInvalidInput)
	}
	return s.GetObject(ctx, object)
}

// GetObject returns a stored object from cache or storage.
func (s *ImageService) GetObject(ctx context.Context, object string) ([]byte, string, error) {
	if entry, ok := s.cache.Get(object); ok {
		s.logger.Debug("cache hit", zap.String("object", object))
		return entry.Data, entry.ContentType, nil
	}
	if s.storage == nil {
		return nil, "", errors.ErrNotFound
	}

	data, err := s.storage.FetchFile(ctx, object)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", object, err)
	}

	s.logger.Debug("fetched from storage", zap.String("object", object), zap.Int("bytes", len(data)))
	s.cache.Set(object, data, "image/jpeg", object)
	return data, "image/jpeg", nil
}

// ForgetThumbnails drops every cached thumbnail.
func (s *ImageService) ForgetThumbnails() {
	s.cache.DeletePrefix(thumbnailKeyPrefix)
}

// Thumbnail returns a small JPEG for the image behind imageData. key
// identifies the image in the cache.
func (s *ImageService) Thumbnail(ctx context.Context, key, imageData string) ([]byte, error) {
	cacheKey := thumbnailKeyPrefix + key
	if entry, ok := s.cache.Get(cacheKey); ok {
		return entry.Data, nil
	}

	data, _, err := s.GetImage(ctx, imageData)
	if err != nil {
		return nil, err
	}

	thumb, err := utils.Thumbnail(data, thumbnailSize)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, thumb, "image/jpeg", key)
	return thumb, nil
}
