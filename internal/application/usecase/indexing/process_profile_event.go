package indexing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/adapters/event"
	"github.com/khoahotran/skilldeck/internal/application/service"
	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/internal/domain/search"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

var tracer = otel.Tracer("indexing_usecase")

// ProcessProfileEventUseCase keeps the directory index and the lookup cache
// in step with profile writes.
type ProcessProfileEventUseCase struct {
	profileRepo profile.Repository
	index       search.Index
	cache       service.ProfileCache
	logger      logger.Logger
}

func NewProcessProfileEventUseCase(repo profile.Repository, index search.Index, cache service.ProfileCache, log logger.Logger) *ProcessProfileEventUseCase {
	if cache == nil {
		cache = service.NopProfileCache{}
	}
	return &ProcessProfileEventUseCase{profileRepo: repo, index: index, cache: cache, logger: log}
}

func (uc *ProcessProfileEventUseCase) Execute(ctx context.Context, payload event.ProfileEventPayload) error {
	ctx, span := tracer.Start(ctx, "ProcessProfileEvent")
	defer span.End()

	l := uc.logger.With(zap.String("event_type", string(payload.EventType)), zap.String("profile_id", payload.ProfileID.String()))

	if err := uc.cache.Invalidate(ctx, payload.Usernames...); err != nil {
		l.Warn("Failed to invalidate profile cache", zap.Error(err))
	}
	if uc.index == nil {
		return nil
	}

	d, err := uc.profileRepo.GetByID(ctx, payload.ProfileID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("load profile failed: %w", err)
	}

	if d == nil || !d.Profile.IsPublic {
		if err := uc.index.RemoveProfile(ctx, payload.ProfileID); err != nil {
			return fmt.Errorf("remove profile from index failed: %w", err)
		}
		l.Info("Profile removed from directory index")
		return nil
	}

	if err := uc.index.IndexProfile(ctx, search.NewProfileDoc(d.Profile, d.Skills)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("index profile failed: %w", err)
	}
	l.Info("Profile indexed", zap.String("username", d.Profile.Username))
	return nil
}
