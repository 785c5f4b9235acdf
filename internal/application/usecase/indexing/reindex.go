package indexing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/internal/domain/search"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

const reindexBatch = 200

// ReindexUseCase rebuilds the directory index from the store, page by page.
type ReindexUseCase struct {
	profileRepo profile.Repository
	index       search.Index
	logger      logger.Logger
}

func NewReindexUseCase(repo profile.Repository, index search.Index, log logger.Logger) *ReindexUseCase {
	return &ReindexUseCase{profileRepo: repo, index: index, logger: log}
}

func (uc *ReindexUseCase) Execute(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Reindex")
	defer span.End()

	total := 0
	for offset := 0; ; offset += reindexBatch {
		cards, err := uc.profileRepo.ListPublic(ctx, reindexBatch, offset)
		if err != nil {
			return total, fmt.Errorf("list public profiles failed: %w", err)
		}
		if len(cards) > 0 {
			docs := make([]search.ProfileDoc, 0, len(cards))
			for _, c := range cards {
				docs = append(docs, search.NewProfileDoc(c.Profile, c.Skills))
			}
			if err := uc.index.BulkIndex(ctx, docs); err != nil {
				return total, fmt.Errorf("bulk index failed: %w", err)
			}
			total += len(docs)
		}
		if len(cards) < reindexBatch {
			break
		}
	}
	uc.logger.Info("Directory index rebuilt", zap.Int("profiles", total))
	return total, nil
}
