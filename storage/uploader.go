package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

var ErrUnsupportedContentType = errors.New("unsupported scorecard content type")

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

var scorecardExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/heic":      ".heic",
	"application/pdf": ".pdf",
}

// ExtensionForContentType maps an accepted scorecard upload type to a file extension.
func ExtensionForContentType(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if ext, ok := scorecardExtensions[ct]; ok {
		return ext, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
}

// ScorecardKey builds a unique object key so re-uploads never overwrite.
func ScorecardKey(roundID int, ext string) string {
	return fmt.Sprintf("scorecards/round_%d/%s%s", roundID, uuid.NewString(), ext)
}
