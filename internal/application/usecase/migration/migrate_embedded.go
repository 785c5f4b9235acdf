package migration

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

const DefaultBatchSize = 100

// MigrateEmbeddedUseCase moves skills and proofs still stored inside
// profile rows into their own tables. Running it again is a no-op.
type MigrateEmbeddedUseCase struct {
	legacyRepo profile.LegacyRepository
	logger     logger.Logger
}

func NewMigrateEmbeddedUseCase(repo profile.LegacyRepository, log logger.Logger) *MigrateEmbeddedUseCase {
	return &MigrateEmbeddedUseCase{legacyRepo: repo, logger: log}
}

type MigrateOutput struct {
	Profiles int
	Skills   int
	Proofs   int
}

func (uc *MigrateEmbeddedUseCase) Execute(ctx context.Context, batchSize int) (*MigrateOutput, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	out := &MigrateOutput{}

	for {
		pending, err := uc.legacyRepo.ListEmbedded(ctx, batchSize)
		if err != nil {
			return out, fmt.Errorf("list embedded profiles failed: %w", err)
		}
		if len(pending) == 0 {
			break
		}

		for _, ep := range pending {
			if err := uc.legacyRepo.MoveEmbedded(ctx, ep); err != nil {
				return out, fmt.Errorf("migrate profile %s failed: %w", ep.ProfileID, err)
			}
			out.Profiles++
			out.Skills += len(ep.Skills)
			out.Proofs += len(ep.Proofs)
			uc.logger.Debug("Profile migrated", zap.String("profile_id", ep.ProfileID.String()),
				zap.Int("skills", len(ep.Skills)), zap.Int("proofs", len(ep.Proofs)))
		}
	}

	uc.logger.Info("Embedded profile data migrated",
		zap.Int("profiles", out.Profiles), zap.Int("skills", out.Skills), zap.Int("proofs", out.Proofs))
	return out, nil
}
