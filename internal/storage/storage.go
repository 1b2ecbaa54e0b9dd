package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"yelpcamp/internal/domain"
)

// UploadInput describes one file handed to the media host.
type UploadInput struct {
	Name        string
	Body        io.Reader
	Size        int64
	ContentType string
}

// MediaGateway stores images with a third-party host.
// Delete must treat an already-missing asset as success.
type MediaGateway interface {
	Upload(ctx context.Context, in UploadInput) (domain.MediaAsset, error)
	Delete(ctx context.Context, id string) error
}

// Options conveys bucket and URL layout shared by all drivers.
type Options struct {
	Bucket    string
	KeyPrefix string
	// PublicURL is the base that object keys are appended to when building the image URL.
	PublicURL string
}

func (o Options) objectKey(name string) string {
	base := path.Base(filepath.ToSlash(strings.TrimSpace(name)))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	prefix := strings.Trim(o.KeyPrefix, "/")
	if prefix == "" {
		return base
	}
	return prefix + "/" + base
}

func (o Options) publicURL(key string) string {
	return strings.TrimSuffix(o.PublicURL, "/") + "/" + key
}

func (o Options) validate() error {
	if o.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if o.PublicURL == "" {
		return fmt.Errorf("storage public url is required")
	}
	return nil
}

func contentTypeFor(in UploadInput) string {
	if in.ContentType != "" {
		return in.ContentType
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(in.Name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
