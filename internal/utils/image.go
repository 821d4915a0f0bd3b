package utils

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"path/filepath"
	"strings"

	"github.com/adrium/goheif"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/rwcarlsen/goexif/exif"
)

const jpegQuality = 85

// Checks if the MIME type or file name indicates a HEIC or HEIF image format.
func IsHeifLike(mimeType string) bool {
	t := strings.ToLower(mimeType)
	return strings.Contains(t, "heic") || strings.Contains(t, "heif")
}

// NormalizeToJPEG decodes an uploaded image, applies its EXIF orientation,
// shrinks it so neither edge exceeds maxDimension (0 disables resizing) and
// re-encodes it as JPEG. A JPEG that needs neither step is returned as is,
// metadata included, so distinct uploads keep distinct bytes.
func NormalizeToJPEG(input []byte, mimeType string, maxDimension int) ([]byte, error) {
	if !IsHeifLike(mimeType) && storableAsIs(input, maxDimension) {
		return input, nil
	}

	var img image.Image
	if IsHeifLike(mimeType) {
		decoded, err := goheif.Decode(bytes.NewReader(input))
		if err != nil {
			return nil, fmt.Errorf("failed to decode HEIC: %w", err)
		}
		img = applyOrientation(decoded, input, true)
	} else {
		decoded, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		img = decoded
	}

	if maxDimension > 0 {
		b := img.Bounds()
		if b.Dx() > maxDimension || b.Dy() > maxDimension {
			img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	return buf.Bytes(), nil
}

// Thumbnail returns a JPEG no larger than size x size, keeping aspect ratio.
func Thumbnail(input []byte, size uint) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := resize.Thumbnail(size, size, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// storableAsIs reports whether input is an upright JPEG within maxDimension.
func storableAsIs(input []byte, maxDimension int) bool {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil || format != "jpeg" {
		return false
	}
	if maxDimension > 0 && (cfg.Width > maxDimension || cfg.Height > maxDimension) {
		return false
	}
	return orientation(input) <= 1
}

// orientation returns the EXIF orientation tag of raw, or 0 when absent.
func orientation(raw []byte) int {
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return 0
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}

// Reads EXIF orientation and applies correct transformations to the image.
func applyOrientation(img image.Image, input []byte, heif bool) image.Image {
	raw := input
	if heif {
		exifBytes, err := goheif.ExtractExif(bytes.NewReader(input))
		if err != nil {
			return img
		}
		raw = exifBytes
	}

	// EXIF orientation values: 1=normal, 2=flip-h, 3=180, 4=flip-v, 5=transpose, 6=270, 7=transverse, 8=90
	switch orientation(raw) {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// JPEGName swaps the extension of name for .jpg.
func JPEGName(name string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".jpg"
}
