package profile

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/adapters/event"
	"github.com/khoahotran/skilldeck/internal/application/service"
	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
	"github.com/khoahotran/skilldeck/pkg/metrics"
)

var tracer = otel.Tracer("profile_usecase")

type ProfileUseCase struct {
	profileRepo profile.Repository
	cache       service.ProfileCache
	publisher   service.EventPublisher
	logger      logger.Logger
}

func NewProfileUseCase(repo profile.Repository, cache service.ProfileCache, publisher service.EventPublisher, log logger.Logger) *ProfileUseCase {
	if cache == nil {
		cache = service.NopProfileCache{}
	}
	if publisher == nil {
		publisher = service.NopEventPublisher{}
	}
	return &ProfileUseCase{
		profileRepo: repo,
		cache:       cache,
		publisher:   publisher,
		logger:      log,
	}
}

func errSaveProfileFirst(ownerID uuid.UUID) error {
	return apperror.NewAppError(apperror.ErrNotFound, "Save your profile first",
		"owner '"+ownerID.String()+"' has no profile yet", nil)
}

// ownProfile resolves the caller's profile. Absent is reported with err,
// a failed load keeps the store's error class.
func (uc *ProfileUseCase) ownProfile(ctx context.Context, ownerID uuid.UUID, absent error) (*profile.Details, error) {
	d, err := uc.profileRepo.GetByUserID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, absent
	}
	return d, nil
}

// changed drops the cached lookups for usernames and announces the change.
// The cache is cleared before returning so the next read is fresh; the
// event goes out in the background.
func (uc *ProfileUseCase) changed(ctx context.Context, t event.ProfileEventType, p *profile.Profile, usernames ...string) {
	if err := uc.cache.Invalidate(ctx, usernames...); err != nil {
		uc.logger.Warn("Failed to invalidate profile cache", zap.Strings("usernames", usernames), zap.Error(err))
	}

	payload := event.ProfileEventPayload{
		EventType:  t,
		ProfileID:  p.ID,
		OwnerID:    p.OwnerID,
		Usernames:  usernames,
		OccurredAt: time.Now().UTC(),
	}
	go func() {
		err := uc.publisher.PublishProfileEvent(context.Background(), payload)
		metrics.PublishedEvents.WithLabelValues(event.TopicProfileEvents, metrics.Outcome(err)).Inc()
		if err != nil {
			uc.logger.Error("Failed to publish profile event", err,
				zap.String("event_type", string(t)), zap.String("profile_id", p.ID.String()))
		}
	}()
}

type CreateProfileInput struct {
	OwnerID     uuid.UUID
	Email       string
	FullName    string
	Headline    string
	Bio         string
	Username    string
	IsPublic    bool
	PhotoURL    string
	SocialLinks profile.SocialLinks
}

func (uc *ProfileUseCase) CreateProfile(ctx context.Context, input CreateProfileInput) (*profile.Profile, error) {
	ctx, span := tracer.Start(ctx, "CreateProfile")
	defer span.End()
	span.SetAttributes(attribute.String("owner_id", input.OwnerID.String()))

	username := profile.NormalizeUsername(input.Username)
	if username == "" {
		username = profile.DefaultUsername(input.Email)
	}

	data := profile.Fields{
		FullName:    strings.TrimSpace(input.FullName),
		Headline:    strings.TrimSpace(input.Headline),
		Bio:         strings.TrimSpace(input.Bio),
		Username:    username,
		IsPublic:    input.IsPublic,
		PhotoURL:    input.PhotoURL,
		SocialLinks: input.SocialLinks,
	}
	if err := data.Validate(); err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}

	p, err := uc.profileRepo.Create(ctx, input.OwnerID, data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.logger.Info("Profile created", zap.String("profile_id", p.ID.String()), zap.String("username", p.Username))
	uc.changed(ctx, event.ProfileEventTypeCreated, p, p.Username)
	return p, nil
}

// GetOwnProfile returns NotFound when the owner has not set up a profile;
// any other error means the load itself failed.
func (uc *ProfileUseCase) GetOwnProfile(ctx context.Context, ownerID uuid.UUID) (*profile.Details, error) {
	ctx, span := tracer.Start(ctx, "GetOwnProfile")
	defer span.End()

	d, err := uc.ownProfile(ctx, ownerID, apperror.NewNotFound("profile", ownerID.String()))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return d, nil
}

func (uc *ProfileUseCase) GetPublicProfile(ctx context.Context, username string, viewerID *uuid.UUID) (*profile.Details, error) {
	ctx, span := tracer.Start(ctx, "GetPublicProfile")
	defer span.End()

	username = strings.ToLower(strings.TrimSpace(username))
	span.SetAttributes(attribute.String("username", username), attribute.Bool("anonymous", viewerID == nil))

	if viewerID == nil {
		cached, err := uc.cache.Get(ctx, username)
		if err != nil {
			uc.logger.Warn("Profile cache read failed", zap.String("username", username), zap.Error(err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	d, err := uc.profileRepo.GetByUsername(ctx, username, viewerID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if d == nil {
		return nil, apperror.NewNotFound("profile", username)
	}

	if viewerID == nil {
		if err := uc.cache.Set(ctx, username, d); err != nil {
			uc.logger.Warn("Profile cache write failed", zap.String("username", username), zap.Error(err))
		}
	}
	return d, nil
}

func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, ownerID uuid.UUID, update profile.Update) (*profile.Details, error) {
	ctx, span := tracer.Start(ctx, "UpdateProfile")
	defer span.End()

	if update.IsEmpty() {
		return nil, apperror.NewInvalidInput("no fields to update", nil)
	}
	if update.Username != nil {
		normalized := profile.NormalizeUsername(*update.Username)
		update.Username = &normalized
	}
	if update.FullName != nil {
		trimmed := strings.TrimSpace(*update.FullName)
		update.FullName = &trimmed
	}
	if update.Headline != nil {
		trimmed := strings.TrimSpace(*update.Headline)
		update.Headline = &trimmed
	}
	if update.Bio != nil {
		trimmed := strings.TrimSpace(*update.Bio)
		update.Bio = &trimmed
	}
	if err := update.Validate(); err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}

	current, err := uc.ownProfile(ctx, ownerID, errSaveProfileFirst(ownerID))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	oldUsername := current.Profile.Username

	if err := uc.profileRepo.Update(ctx, current.Profile.ID, update); err != nil {
		span.RecordError(err)
		return nil, err
	}

	updated, err := uc.profileRepo.GetByID(ctx, current.Profile.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.NewNotFound("profile", current.Profile.ID.String())
	}

	usernames := []string{oldUsername}
	if updated.Profile.Username != oldUsername {
		usernames = append(usernames, updated.Profile.Username)
	}
	uc.changed(ctx, event.ProfileEventTypeUpdated, updated.Profile, usernames...)
	return updated, nil
}
