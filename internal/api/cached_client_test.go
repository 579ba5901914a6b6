package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiomcp/internal/cache"
	"studiomcp/internal/studio"
)

// studioStub is a small stateful upstream holding scenario 42 of project 1.
type studioStub struct {
	mu           sync.Mutex
	definition   string
	tags         map[string]string // id -> key
	nextTagID    int
	scenarioGETs int
}

func (s *studioStub) gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scenarioGETs
}

func (s *studioStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api")
	w.Header().Set("Content-Type", "application/vnd.api+json")

	switch {
	case r.Method == http.MethodGet && path == "/projects/1/scenarios/42":
		s.scenarioGETs++
		s.writeScenario(w)
	case r.Method == http.MethodPatch && path == "/projects/1/scenarios/42":
		var payload studio.Payload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if def, ok := payload.Data.Attributes["definition"].(string); ok {
			s.definition = def
		}
		s.writeScenario(w)
	case r.Method == http.MethodPost && path == "/projects/1/scenarios/42/tags":
		var payload studio.Payload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.nextTagID++
		id := strings.Repeat("9", s.nextTagID)
		s.tags[id], _ = payload.Data.Attributes["key"].(string)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(studio.Payload{Data: studio.Resource{Type: "tags", ID: id, Attributes: map[string]any{"key": s.tags[id]}}})
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/projects/1/scenarios/42/tags/"):
		delete(s.tags, strings.TrimPrefix(path, "/projects/1/scenarios/42/tags/"))
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"errors":[{"detail":"not found"}]}`)
	}
}

func (s *studioStub) writeScenario(w http.ResponseWriter) {
	ids := make([]string, 0, len(s.tags))
	for id := range s.tags {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	linkage := make([]studio.Identifier, 0, len(ids))
	included := make([]studio.Resource, 0, len(ids))
	for _, id := range ids {
		linkage = append(linkage, studio.Identifier{Type: "tags", ID: id})
		included = append(included, studio.Resource{Type: "tags", ID: id, Attributes: map[string]any{"key": s.tags[id]}})
	}
	rel, _ := json.Marshal(linkage)
	data, _ := json.Marshal(studio.Resource{
		Type:          "scenarios",
		ID:            "42",
		Attributes:    map[string]any{"name": "Checkout", "definition": s.definition},
		Relationships: map[string]studio.Relationship{"tags": {Data: rel}},
	})
	_ = json.NewEncoder(w).Encode(studio.Document{Data: data, Included: included})
}

func tagKeys(sc Scenario) []string {
	keys := make([]string, 0, len(sc.Tags))
	for _, tag := range sc.Tags {
		keys = append(keys, tag.Key)
	}
	return keys
}

func newCachedService(t *testing.T, stub *studioStub) *Service {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	client, err := studio.NewClient(studio.Config{
		BaseURL:     srv.URL + "/api",
		Credentials: studio.Credentials{AccessToken: "token", ClientID: "client", UID: "uid"},
	}, studio.WithCache(cache.New(time.Minute)))
	require.NoError(t, err)
	return NewService(client)
}

func TestService_WritesAreNeverAnsweredFromStaleCache(t *testing.T) {
	stub := &studioStub{
		definition: "scenario 'Checkout' do\nend",
		tags:       map[string]string{"1": "smoke", "2": "p1"},
	}
	svc := newCachedService(t, stub)
	ctx := context.Background()

	sc, err := svc.GetScenario(ctx, "1", "42", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"smoke", "p1"}, tagKeys(sc))

	_, err = svc.GetScenario(ctx, "1", "42", true)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.gets(), "second read is served from the cache")

	sc, err = svc.DeleteTag(ctx, "1", "42", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, tagKeys(sc), "re-read after the delete reflects it")

	sc, err = svc.GetScenario(ctx, "1", "42", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, tagKeys(sc))

	res, err := svc.AddTags(ctx, "1", "42", []TagInput{{Key: "regression"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "regression"}, tagKeys(res.Scenario))

	written, err := svc.UpdateScenario(ctx, "1", "42", UpdateScenarioInput{
		Tags: []TagInput{{Key: "nightly"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "regression", "nightly"}, tagKeys(written.Scenario))
	assert.Empty(t, written.FailedTags)

	gets := stub.gets()
	sc, err = svc.GetScenario(ctx, "1", "42", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "regression", "nightly"}, tagKeys(sc))
	assert.Equal(t, gets, stub.gets(), "the re-read after the last write is cached again")
}
