package search_index

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/skilldeck/internal/domain/search"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeElastic answers just enough of the REST API for the adapter.
type fakeElastic struct {
	mu       sync.Mutex
	requests []recordedRequest
	handle   func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeElastic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	f.handle(w, r)
}

func newTestIndex(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*ElasticIndex, *fakeElastic) {
	t.Helper()
	fake := &fakeElastic{handle: handle}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := es.NewClient(es.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewElasticIndex(client, "", logger.NewNopLogger()), fake
}

func TestIndexProfile_PutsDocumentByID(t *testing.T) {
	idx, fake := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	doc := search.ProfileDoc{ProfileID: uuid.New(), Username: "ada", FullName: "Ada Lovelace", Skills: []string{"Go"}, UpdatedAt: time.Now().UTC()}
	require.NoError(t, idx.IndexProfile(context.Background(), doc))

	require.Len(t, fake.requests, 1)
	assert.Equal(t, "/profiles_v1/_doc/"+doc.ProfileID.String(), fake.requests[0].Path)

	var sent search.ProfileDoc
	require.NoError(t, json.Unmarshal([]byte(fake.requests[0].Body), &sent))
	assert.Equal(t, "ada", sent.Username)
	assert.Equal(t, []string{"Go"}, sent.Skills)
}

func TestRemoveProfile_IgnoresMissing(t *testing.T) {
	idx, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})
	assert.NoError(t, idx.RemoveProfile(context.Background(), uuid.New()))
}

func TestSearchProfiles_DecodesHits(t *testing.T) {
	id := uuid.New()
	idx, fake := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_source":{"profile_id":"` + id.String() + `","username":"ada","full_name":"Ada Lovelace","skills":["Go"]}}]}}`))
	})

	docs, err := idx.SearchProfiles(context.Background(), "ADA", 20)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ProfileID)
	assert.Equal(t, "Ada Lovelace", docs[0].FullName)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, "/profiles_v1/_search", fake.requests[0].Path)
	assert.Contains(t, fake.requests[0].Body, `"case_insensitive":true`)
	assert.Contains(t, fake.requests[0].Body, `*ADA*`)
}

func TestSearchProfiles_ErrorStatus(t *testing.T) {
	idx, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"search_phase_execution_exception"}}`))
	})
	_, err := idx.SearchProfiles(context.Background(), "go", 20)
	assert.Error(t, err)
}

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	idx, fake := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	})

	require.NoError(t, idx.EnsureIndex(context.Background()))
	require.Len(t, fake.requests, 2)
	assert.Equal(t, http.MethodPut, fake.requests[1].Method)
	assert.True(t, strings.Contains(fake.requests[1].Body, `"skills":{"type":"keyword"}`))
}

func TestBuildSearchQuery(t *testing.T) {
	all := buildSearchQuery("  ")
	assert.Contains(t, all["query"], "match_all")

	q := buildSearchQuery("c*")
	raw, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `*c\\**`)
	assert.Contains(t, string(raw), `full_name.raw`)
	assert.Contains(t, string(raw), `"minimum_should_match":1`)
}
