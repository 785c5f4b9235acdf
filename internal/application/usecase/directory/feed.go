package directory

import (
	"context"
	"time"

	"github.com/gorilla/feeds"
	"go.uber.org/zap"
)

const feedSize = 20

// Feed lists the most recently updated public profiles.
func (uc *DirectoryUseCase) Feed(ctx context.Context) (*feeds.Feed, error) {
	cards, err := uc.profileRepo.ListPublic(ctx, feedSize, 0)
	if err != nil {
		uc.logger.Error("Failed to list public profiles for RSS", err)
		return nil, err
	}

	feed := &feeds.Feed{
		Title:       "SkillDeck - Directory",
		Link:        &feeds.Link{Href: uc.baseURL + "/profiles"},
		Description: "Recently updated public profiles.",
		Created:     time.Now().UTC(),
	}

	for _, c := range cards {
		p := c.Profile
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          p.ID.String(),
			Title:       p.FullName,
			Link:        &feeds.Link{Href: uc.baseURL + "/u/" + p.Username},
			Description: p.Headline,
			Created:     p.CreatedAt,
			Updated:     p.UpdatedAt,
		})
	}

	uc.logger.Info("RSS feed generated", zap.Int("item_count", len(feed.Items)))
	return feed, nil
}
