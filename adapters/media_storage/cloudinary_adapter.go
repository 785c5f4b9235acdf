package media_storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/internal/application/service"
	"github.com/khoahotran/skilldeck/internal/config"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

const defaultFolder = "skilldeck/avatars"

type cloudinaryAdapter struct {
	cld          *cloudinary.Cloudinary
	uploadPreset string
	folder       string
	logger       logger.Logger
}

// NewCloudinaryAdapter builds an unsigned uploader. Missing configuration
// is not fatal at startup: every upload then fails with UploadRejected.
func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) service.Uploader {
	a := &cloudinaryAdapter{
		uploadPreset: cfg.Cloudinary.UploadPreset,
		folder:       cfg.Cloudinary.Folder,
		logger:       log,
	}
	if a.folder == "" {
		a.folder = defaultFolder
	}

	if cfg.Cloudinary.CloudName == "" || cfg.Cloudinary.UploadPreset == "" {
		log.Warn("Cloudinary cloud name or upload preset not configured, uploads are disabled")
		return a
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		log.Error("Cannot init cloudinary", err)
		return a
	}
	a.cld = cld

	log.Info("Cloudinary uploader ready", zap.String("cloud_name", cfg.Cloudinary.CloudName), zap.String("folder", a.folder))
	return a
}

func (a *cloudinaryAdapter) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	if a.cld == nil {
		return "", apperror.NewUploadRejected("Image upload is not configured", nil)
	}

	result, err := a.cld.Upload.UnsignedUpload(ctx, file, a.uploadPreset, uploader.UploadParams{
		Folder:   a.folder,
		PublicID: publicID(filename),
	})
	if err != nil {
		return "", apperror.NewUploadRejected("", err)
	}
	return uploadURL(result.SecureURL, result.Error.Message)
}

// uploadURL turns a decoded API response into the stored URL. The API
// reports rejections in the body, not only through the status code.
func uploadURL(secureURL, remoteMessage string) (string, error) {
	if remoteMessage != "" {
		return "", apperror.NewUploadRejected(remoteMessage, nil)
	}
	if secureURL == "" {
		return "", apperror.NewUploadRejected("", nil)
	}
	return secureURL, nil
}

// publicID names the stored asset. The folder is shared by every user and
// unsigned uploads cannot overwrite, so a random suffix keeps each upload
// distinct; the base name only helps recognise it in the media library.
func publicID(filename string) string {
	id := uuid.NewString()
	base := filepath.Base(filename)
	base = slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if base == "" {
		return id
	}
	return base + "-" + id
}
