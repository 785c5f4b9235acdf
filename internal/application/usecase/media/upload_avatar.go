package media

import (
	"context"
	"io"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/internal/application/service"
	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/pkg/logger"
	"github.com/khoahotran/skilldeck/pkg/metrics"
)

var tracer = otel.Tracer("media_usecase")

// ProfileUpdater is the slice of the profile use case the upload needs.
type ProfileUpdater interface {
	GetOwnProfile(ctx context.Context, ownerID uuid.UUID) (*profile.Details, error)
	UpdateProfile(ctx context.Context, ownerID uuid.UUID, update profile.Update) (*profile.Details, error)
}

type UploadAvatarUseCase struct {
	profiles ProfileUpdater
	uploader service.Uploader
	logger   logger.Logger
}

func NewUploadAvatarUseCase(profiles ProfileUpdater, u service.Uploader, log logger.Logger) *UploadAvatarUseCase {
	return &UploadAvatarUseCase{profiles: profiles, uploader: u, logger: log}
}

type UploadAvatarInput struct {
	OwnerID  uuid.UUID
	File     io.Reader
	Filename string
}

type UploadAvatarOutput struct {
	PhotoURL string
	Profile  *profile.Details
}

// Execute stores the image first and only then points the profile at it.
// An upload that succeeds but is never referenced is left on the media host.
func (uc *UploadAvatarUseCase) Execute(ctx context.Context, input UploadAvatarInput) (*UploadAvatarOutput, error) {
	ctx, span := tracer.Start(ctx, "UploadAvatar")
	defer span.End()

	if _, err := uc.profiles.GetOwnProfile(ctx, input.OwnerID); err != nil {
		return nil, err
	}

	url, err := uc.uploader.Upload(ctx, input.File, input.Filename)
	metrics.Uploads.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		uc.logger.Warn("Avatar upload rejected", zap.String("owner_id", input.OwnerID.String()), zap.Error(err))
		return nil, err
	}

	updated, err := uc.profiles.UpdateProfile(ctx, input.OwnerID, profile.Update{PhotoURL: &url})
	if err != nil {
		uc.logger.Error("Uploaded avatar could not be saved on the profile", err, zap.String("photo_url", url))
		return nil, err
	}
	return &UploadAvatarOutput{PhotoURL: url, Profile: updated}, nil
}
