package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var ErrAssetNotFound = errors.New("asset not found")

// Asset is an uploaded image.
type Asset struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Bytes    int    `json:"bytes"`
}

// Uploader stores and removes images on the CDN.
type Uploader interface {
	Upload(ctx context.Context, filename string, file io.Reader) (*Asset, error)
	Destroy(ctx context.Context, publicID string) error
}

type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// CloudinaryUploader is the production Uploader.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *slog.Logger
}

func NewCloudinaryUploader(cfg Config, logger *slog.Logger) (*CloudinaryUploader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}

	return &CloudinaryUploader{
		cld:    cld,
		folder: cfg.Folder,
		logger: logger.With("component", "media_uploader"),
	}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, filename string, file io.Reader) (*Asset, error) {
	result, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         u.folder,
		UseFilename:    boolPtr(true),
		UniqueFilename: boolPtr(true),
		ResourceType:   "image",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("failed to upload %s: %s", filename, result.Error.Message)
	}

	u.logger.InfoContext(ctx, "image uploaded", "public_id", result.PublicID, "bytes", result.Bytes)
	return &Asset{
		PublicID: result.PublicID,
		URL:      result.SecureURL,
		Width:    result.Width,
		Height:   result.Height,
		Format:   result.Format,
		Bytes:    result.Bytes,
	}, nil
}

func (u *CloudinaryUploader) Destroy(ctx context.Context, publicID string) error {
	result, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", publicID, err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("failed to delete %s: %s", publicID, result.Error.Message)
	}
	if result.Result == "not found" {
		return fmt.Errorf("%s: %w", publicID, ErrAssetNotFound)
	}

	u.logger.InfoContext(ctx, "image deleted", "public_id", publicID)
	return nil
}

func boolPtr(v bool) *bool {
	return &v
}
