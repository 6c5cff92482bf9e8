package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/vitaprozen/blog-backend/config"
)

// MediaStore pushes uploaded files to an external host and removes them again.
type MediaStore interface {
	// Upload stores the file and returns its public URL.
	Upload(ctx context.Context, file io.Reader, filename, contentType string) (string, error)
	Delete(ctx context.Context, asset Asset) error
}

// Asset identifies a remote object derived from its hosted URL.
type Asset struct {
	URL          string
	PublicID     string
	ResourceType string
}

// AssetFromURL derives the storage identifier from the last path segment of
// rawURL, stripped of its extension.
func AssetFromURL(rawURL string) Asset {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}

	base := path.Base(strings.TrimRight(p, "/"))
	if base == "." || base == "/" {
		base = ""
	}
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}

	resourceType := "image"
	if strings.Contains(p, "/video/") {
		resourceType = "video"
	}

	return Asset{URL: rawURL, PublicID: base, ResourceType: resourceType}
}

// New builds the MediaStore selected by STORAGE_PROVIDER.
func New(ctx context.Context, c map[string]string) (MediaStore, error) {
	switch provider := config.GetString(c, "STORAGE_PROVIDER", "cloudinary"); provider {
	case "cloudinary":
		return NewCloudinaryStore(
			config.GetString(c, "CLOUDINARY_CLOUD_NAME", ""),
			config.GetString(c, "CLOUDINARY_API_KEY", ""),
			config.GetString(c, "CLOUDINARY_API_SECRET", ""),
			config.GetString(c, "CLOUDINARY_FOLDER", "blogs"),
		)
	case "s3":
		return NewS3Store(ctx, S3Options{
			Region:          config.GetString(c, "AWS_REGION", "us-east-1"),
			AccessKeyID:     config.GetString(c, "AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: config.GetString(c, "AWS_SECRET_ACCESS_KEY", ""),
			Bucket:          config.GetString(c, "S3_BUCKET_NAME", ""),
			Endpoint:        config.GetString(c, "S3_ENDPOINT", ""),
			PublicBaseURL:   config.GetString(c, "S3_PUBLIC_BASE_URL", ""),
			Folder:          config.GetString(c, "S3_FOLDER", "blogs"),
		})
	default:
		return nil, fmt.Errorf("unsupported STORAGE_PROVIDER %q", provider)
	}
}
