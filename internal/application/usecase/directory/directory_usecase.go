package directory

import (
	"context"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/internal/domain/search"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	scanBatch    = 100

	// maxOffset bounds (Page-1)*Limit. Anything past it is an empty page.
	maxOffset = math.MaxInt32
)

var tracer = otel.Tracer("directory_usecase")

type DirectoryUseCase struct {
	profileRepo profile.Repository
	index       search.Index
	baseURL     string
	logger      logger.Logger
}

// NewDirectoryUseCase takes a nil index when search runs without
// Elasticsearch.
func NewDirectoryUseCase(repo profile.Repository, index search.Index, baseURL string, log logger.Logger) *DirectoryUseCase {
	return &DirectoryUseCase{
		profileRepo: repo,
		index:       index,
		baseURL:     strings.TrimRight(baseURL, "/"),
		logger:      log,
	}
}

type ListInput struct {
	Query string
	Page  int
	Limit int
}

type ListOutput struct {
	Profiles []search.ProfileDoc
	Page     int
	Limit    int
}

func (in *ListInput) normalize() {
	in.Query = strings.TrimSpace(in.Query)
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit <= 0 {
		in.Limit = DefaultLimit
	}
	if in.Limit > MaxLimit {
		in.Limit = MaxLimit
	}
	if in.Page-1 > maxOffset/in.Limit {
		in.Page = maxOffset/in.Limit + 1
	}
}

func (in ListInput) offset() int {
	return (in.Page - 1) * in.Limit
}

func toDocs(cards []profile.Card) []search.ProfileDoc {
	docs := make([]search.ProfileDoc, 0, len(cards))
	for _, c := range cards {
		docs = append(docs, search.NewProfileDoc(c.Profile, c.Skills))
	}
	return docs
}

// List returns one page of public profiles, most recently updated first,
// optionally narrowed by a free-text query.
func (uc *DirectoryUseCase) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	input.normalize()
	span.SetAttributes(attribute.String("query", input.Query), attribute.Int("page", input.Page))
	out := &ListOutput{Page: input.Page, Limit: input.Limit}

	if input.Query == "" {
		cards, err := uc.profileRepo.ListPublic(ctx, input.Limit, input.offset())
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		out.Profiles = toDocs(cards)
		return out, nil
	}

	if uc.index != nil && input.Page == 1 {
		docs, err := uc.index.SearchProfiles(ctx, input.Query, input.Limit)
		if err == nil {
			out.Profiles = docs
			return out, nil
		}
		uc.logger.Warn("Search index unavailable, scanning public profiles", zap.String("query", input.Query), zap.Error(err))
	}

	docs, err := uc.scan(ctx, input)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	out.Profiles = docs
	return out, nil
}

// scan filters public profiles batch by batch with search.Matches until
// the requested page is filled.
func (uc *DirectoryUseCase) scan(ctx context.Context, input ListInput) ([]search.ProfileDoc, error) {
	skip := input.offset()
	matched := make([]profile.Card, 0, input.Limit)

	for offset := 0; ; offset += scanBatch {
		cards, err := uc.profileRepo.ListPublic(ctx, scanBatch, offset)
		if err != nil {
			return nil, err
		}
		for _, c := range cards {
			if !search.Matches(c, input.Query) {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			matched = append(matched, c)
			if len(matched) == input.Limit {
				return toDocs(matched), nil
			}
		}
		if len(cards) < scanBatch {
			return toDocs(matched), nil
		}
	}
}
