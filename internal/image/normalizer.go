// Package image validates and normalizes uploaded creatives before they are
// sent to any external model. Normalization strips all EXIF metadata (GPS
// coordinates, camera serials, timestamps) so nothing beyond the pixels ever
// leaves the process, and enforces the MIME and size limits of the upload
// contract.
package image

import (
	"errors"
	"fmt"

	"github.com/h2non/bimg"
)

// Allowed MIME types for ad creative uploads.
const (
	MIMEImageJPEG = "image/jpeg"
	MIMEImagePNG  = "image/png"
	MIMEImageWebP = "image/webp"
)

// Validation errors.
var (
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrFileTooLarge    = errors.New("file size exceeds maximum allowed")
	ErrEmptyImage      = errors.New("image payload is empty")
	ErrNotAnImage      = errors.New("payload does not decode as an image")
)

// AllowedMIMETypes maps allowed MIME types to their bimg image type.
var AllowedMIMETypes = map[string]bimg.ImageType{
	MIMEImageJPEG: bimg.JPEG,
	MIMEImagePNG:  bimg.PNG,
	MIMEImageWebP: bimg.WEBP,
}

// NormalizerConfig holds configuration for image normalization.
type NormalizerConfig struct {
	// MaxSizeMB limits the raw upload size. Default: 15.
	MaxSizeMB int
	// MaxDimension caps width and height before the image is sent to the
	// model; larger images are downscaled preserving aspect ratio.
	// Default: 2048. Zero keeps the default.
	MaxDimension int
	// Quality for re-encoding (1-100). Default: 85.
	Quality int
}

// Normalizer validates creatives and strips their metadata.
type Normalizer struct {
	maxSizeBytes int64
	maxDimension int
	quality      int
}

// NewNormalizer creates a new image normalizer with the given configuration.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 15
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = 2048
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = 85
	}
	return &Normalizer{
		maxSizeBytes: int64(cfg.MaxSizeMB) * 1024 * 1024,
		maxDimension: cfg.MaxDimension,
		quality:      cfg.Quality,
	}
}

// ValidateContentType checks if the content type is allowed.
func ValidateContentType(contentType string) error {
	if _, ok := AllowedMIMETypes[contentType]; !ok {
		return ErrUnsupportedType
	}
	return nil
}

// Normalize validates the payload and returns re-encoded bytes with all
// EXIF metadata stripped, downscaled to the configured dimension cap. The
// output format matches the declared MIME type.
func (n *Normalizer) Normalize(imageBytes []byte, mimeType string) ([]byte, error) {
	if len(imageBytes) == 0 {
		return nil, ErrEmptyImage
	}
	if int64(len(imageBytes)) > n.maxSizeBytes {
		return nil, ErrFileTooLarge
	}
	if err := ValidateContentType(mimeType); err != nil {
		return nil, err
	}

	img := bimg.NewImage(imageBytes)
	metadata, err := img.Metadata()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	options := bimg.Options{
		Quality:       n.quality,
		StripMetadata: true,
		Type:          AllowedMIMETypes[mimeType],
	}

	// Downscale oversized creatives, preserving aspect ratio. bimg keeps
	// the ratio when only one dimension is set.
	width := metadata.Size.Width
	height := metadata.Size.Height
	if width > n.maxDimension || height > n.maxDimension {
		if width >= height {
			options.Width = n.maxDimension
		} else {
			options.Height = n.maxDimension
		}
	}

	processed, err := img.Process(options)
	if err != nil {
		return nil, fmt.Errorf("normalize image: %w", err)
	}
	return processed, nil
}
