package search_index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/internal/config"
	"github.com/khoahotran/skilldeck/internal/domain/search"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

const DefaultIndex = "profiles_v1"

const profilesMapping = `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
	"profile_id":{"type":"keyword"},"username":{"type":"keyword"},
	"full_name":{"type":"text","fields":{"raw":{"type":"keyword"}}},
	"headline":{"type":"text","fields":{"raw":{"type":"keyword"}}},
	"photo_url":{"type":"keyword","index":false},
	"skills":{"type":"keyword"},"updated_at":{"type":"date"}
}}}`

type ElasticIndex struct {
	client *es.Client
	index  string
	logger logger.Logger
}

func NewElasticClient(cfg config.Config) (*es.Client, error) {
	client, err := es.NewClient(es.Config{Addresses: cfg.Elastic.Addresses})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return client, nil
}

func NewElasticIndex(client *es.Client, index string, log logger.Logger) *ElasticIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &ElasticIndex{client: client, index: index, logger: log}
}

var _ search.Index = (*ElasticIndex)(nil)

func (e *ElasticIndex) EnsureIndex(ctx context.Context) error {
	exists, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return apperror.NewStoreUnavailable("elasticsearch unreachable", err)
	}
	exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	res, err := e.client.Indices.Create(e.index,
		e.client.Indices.Create.WithBody(strings.NewReader(profilesMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return apperror.NewStoreUnavailable(fmt.Sprintf("create index %s", e.index), err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperror.NewInternal(fmt.Sprintf("create index %s: %s", e.index, res.String()), nil)
	}
	e.logger.Info("Created search index", zap.String("index", e.index))
	return nil
}

func (e *ElasticIndex) IndexProfile(ctx context.Context, doc search.ProfileDoc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return apperror.NewInternal("failed to marshal profile doc", err)
	}
	res, err := e.client.Index(e.index, bytes.NewReader(body),
		e.client.Index.WithDocumentID(doc.ProfileID.String()),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return apperror.NewStoreUnavailable("failed to index profile", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperror.NewInternal(fmt.Sprintf("index profile %s: %s", doc.ProfileID, res.String()), nil)
	}
	return nil
}

func (e *ElasticIndex) RemoveProfile(ctx context.Context, profileID uuid.UUID) error {
	res, err := e.client.Delete(e.index, profileID.String(), e.client.Delete.WithContext(ctx))
	if err != nil {
		return apperror.NewStoreUnavailable("failed to remove profile from index", err)
	}
	defer res.Body.Close()
	// already absent is fine
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return apperror.NewInternal(fmt.Sprintf("remove profile %s: %s", profileID, res.String()), nil)
	}
	return nil
}

// BulkIndex replaces the documents of docs in one bulk request stream.
func (e *ElasticIndex) BulkIndex(ctx context.Context, docs []search.ProfileDoc) error {
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: e.client,
		Index:  e.index,
	})
	if err != nil {
		return apperror.NewInternal("failed to create bulk indexer", err)
	}

	var failed atomic.Int64
	for _, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return apperror.NewInternal("failed to marshal profile doc", err)
		}
		docID := doc.ProfileID.String()
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: docID,
			Body:       bytes.NewReader(body),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				reason := res.Error.Reason
				if err != nil {
					reason = err.Error()
				}
				e.logger.Warn("Bulk index item failed", zap.String("profile_id", docID), zap.String("reason", reason))
			},
		})
		if err != nil {
			return apperror.NewInternal("failed to queue profile doc", err)
		}
	}
	if err := bi.Close(ctx); err != nil {
		return apperror.NewStoreUnavailable("bulk index failed", err)
	}
	if n := failed.Load(); n > 0 {
		return apperror.NewInternal(fmt.Sprintf("%d profile docs failed to index", n), nil)
	}
	return nil
}

func (e *ElasticIndex) SearchProfiles(ctx context.Context, term string, limit int) ([]search.ProfileDoc, error) {
	query, err := json.Marshal(buildSearchQuery(term))
	if err != nil {
		return nil, apperror.NewInternal("failed to build search query", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(query)),
		e.client.Search.WithSize(limit),
	)
	if err != nil {
		return nil, apperror.NewStoreUnavailable("search request failed", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperror.NewInternal(fmt.Sprintf("search failed: %s", res.String()), nil)
	}
	return decodeHits(res.Body)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source search.ProfileDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeHits(body io.Reader) ([]search.ProfileDoc, error) {
	var sr searchResponse
	if err := json.NewDecoder(body).Decode(&sr); err != nil {
		return nil, apperror.NewInternal("failed to decode search response", err)
	}
	docs := make([]search.ProfileDoc, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		docs = append(docs, h.Source)
	}
	return docs, nil
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// buildSearchQuery mirrors search.Matches: a case-insensitive substring of
// the full name, the headline or a skill name.
func buildSearchQuery(term string) map[string]any {
	sort := []any{map[string]any{"updated_at": map[string]any{"order": "desc"}}}

	term = strings.TrimSpace(term)
	if term == "" {
		return map[string]any{"query": map[string]any{"match_all": map[string]any{}}, "sort": sort}
	}

	pattern := "*" + wildcardEscaper.Replace(term) + "*"
	should := make([]any, 0, 3)
	for _, field := range []string{"full_name.raw", "headline.raw", "skills"} {
		should = append(should, map[string]any{
			"wildcard": map[string]any{
				field: map[string]any{"value": pattern, "case_insensitive": true},
			},
		})
	}
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"should": should, "minimum_should_match": 1},
		},
		"sort": sort,
	}
}
