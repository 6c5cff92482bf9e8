package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// imageTransformation caps uploaded images at 500x500 without upscaling
const imageTransformation = "c_limit,w_500,h_500"

type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary credentials are not configured")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, file io.Reader, filename, contentType string) (string, error) {
	params := uploader.UploadParams{
		PublicID:     uuid.New().String(),
		Folder:       s.folder,
		ResourceType: "auto",
	}
	if strings.HasPrefix(contentType, "image/") {
		params.Transformation = imageTransformation
	}

	res, err := s.cld.Upload.Upload(ctx, file, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to cloudinary: %w", filename, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("failed to upload %s to cloudinary: %s", filename, res.Error.Message)
	}
	return res.SecureURL, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, asset Asset) error {
	publicID := asset.PublicID
	if s.folder != "" {
		publicID = s.folder + "/" + publicID
	}

	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: asset.ResourceType,
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from cloudinary: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("failed to delete %s from cloudinary: %s", publicID, res.Error.Message)
	}
	if res.Result != "ok" {
		return fmt.Errorf("failed to delete %s from cloudinary: result %q", publicID, res.Result)
	}
	return nil
}
