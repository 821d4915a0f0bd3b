package services

import (
	"context"
	"path/filepath"
	"strings"

	"travelmap-api/internal/models"
	"travelmap-api/internal/utils"
)

// MetadataExtractor reads location, capture time and description from an
// uploaded file. A file without GPS tags is a valid result, not an error.
type MetadataExtractor interface {
	Extract(ctx context.Context, file models.Upload) (*utils.PhotoMetadata, error)
}

// ExifExtractor reads EXIF tags from JPEG, TIFF and HEIC/HEIF files.
type ExifExtractor struct{}

func (ExifExtractor) Extract(_ context.Context, file models.Upload) (*utils.PhotoMetadata, error) {
	return utils.ExtractData(file.Data, file.ContentType)
}

// resolveContentType falls back to the file extension when the client sent
// no useful content type.
func resolveContentType(file models.Upload) string {
	if file.ContentType != "" && file.ContentType != "application/octet-stream" {
		return file.ContentType
	}

	switch strings.ToLower(filepath.Ext(file.Name)) {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".png":
		return "image/png"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "image/jpeg"
	}
}
