package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxImageBytes caps avatar uploads.
const MaxImageBytes = 5 << 20

var ErrUnsupportedImage = errors.New("unsupported image type")

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// ImageExtension returns the file extension for an accepted image content
// type. Only PNG, JPEG, GIF and WEBP are accepted.
func ImageExtension(contentType string) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch mediaType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, contentType)
	}
}
