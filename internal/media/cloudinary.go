package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"github.com/fourmore/inventory-intake/internal/config"
)

// Uploader stores inspection photos and returns a public URL Airtable can
// fetch as an attachment.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, filename string) (string, error)
	Enabled() bool
}

// CloudinaryUploader pushes photos to Cloudinary. When credentials are
// missing it stays disabled and the intake flow skips inspection photos.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *slog.Logger
}

func NewCloudinaryUploader(cfg config.MediaConfig, logger *slog.Logger) (*CloudinaryUploader, error) {
	u := &CloudinaryUploader{
		folder: cfg.Folder,
		logger: logger.With("component", "media"),
	}

	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		u.logger.Warn("cloudinary credentials missing, photo uploads disabled")
		return u, nil
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("initializing cloudinary: %w", err)
	}
	u.cld = cld
	return u, nil
}

func (u *CloudinaryUploader) Enabled() bool {
	return u.cld != nil
}

// Upload stores one photo under a random public ID and returns its secure
// URL. The original filename only informs logging.
func (u *CloudinaryUploader) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	if u.cld == nil {
		return "", fmt.Errorf("photo uploads are not configured")
	}

	publicID := uuid.NewString()
	resp, err := u.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       u.folder,
		PublicID:     publicID,
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", filename, err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("uploading %s: %s", filename, resp.Error.Message)
	}

	u.logger.Info("photo uploaded", "filename", filename, "public_id", publicID)
	return resp.SecureURL, nil
}
