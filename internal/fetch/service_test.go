package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
	"github.com/Sumatoshi-tech/commitpulse/internal/alias"
)

const emptySearchResult = `{"total_count":0,"items":[]}`

// collectHandler serves two repositories: "api" with one aliased commit per
// worker pass, "web" with a commit and an opened PR from the same author.
func collectHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/acme/api/commits", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"sha":"a1","commit":{"author":{"name":"Alice","date":"2024-01-01T10:00:00Z"}},"author":{"login":"alice1"}}]`)
	})

	mux.HandleFunc("/repos/acme/web/commits", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"sha":"w1","commit":{"author":{"name":"Alice","date":"2024-01-02T10:00:00Z"}},"author":{"login":"alice2"}}]`)
	})

	mux.HandleFunc("/search/issues", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")

		if strings.Contains(q, "repo:acme/web") && strings.Contains(q, "created:>=") {
			fmt.Fprint(w, `{"total_count":1,"items":[{"number":5,"created_at":"2024-01-03T10:00:00Z","user":{"login":"alice2"}}]}`)

			return
		}

		fmt.Fprint(w, emptySearchResult)
	})

	return mux
}

func testService(t *testing.T, handler http.Handler, table *alias.Table) *Service {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Options{BaseURL: server.URL})

	return NewService(client, table, nil)
}

func TestCollect_FoldsRepositoriesUnderAliases(t *testing.T) {
	t.Parallel()

	table, err := alias.New(map[string][]string{"alice": {"alice1", "alice2"}})
	require.NoError(t, err)

	service := testService(t, collectHandler(), table)

	engine, err := service.Collect(context.Background(), Request{
		Owner:   "acme",
		Repos:   []string{"api", "web"},
		Weeks:   4,
		Workers: 2,
	})
	require.NoError(t, err)

	engine.Finalize()
	snap := engine.Snapshot()

	require.False(t, snap.Partial)
	require.Len(t, snap.Aggregates, 1)

	agg := snap.Aggregates["alice"]
	require.NotNil(t, agg)

	assert.Equal(t, 2, agg.Overall.Commits)
	assert.Equal(t, 1, agg.Overall.PRsOpened)
	assert.Equal(t, []string{"alice1", "alice2"}, agg.UsernameList())
	assert.Equal(t, []string{"api", "web"}, agg.RepoList())

	// Monday and Tuesday commits, Wednesday PR.
	assert.Equal(t, 1, agg.Combined[activity.Monday].Commits)
	assert.Equal(t, 1, agg.Combined[activity.Tuesday].Commits)
	assert.Equal(t, 1, agg.Combined[activity.Wednesday].PRsOpened)
}

func TestCollect_FailingRepoMarksRunPartial(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()

	mux.HandleFunc("/repos/acme/good/commits", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"sha":"g1","commit":{"author":{"name":"Bob","date":"2024-01-01T10:00:00Z"}},"author":{"login":"bob"}}]`)
	})
	mux.HandleFunc("/repos/acme/broken/commits", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/search/issues", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, emptySearchResult)
	})

	table, err := alias.New(nil)
	require.NoError(t, err)

	service := testService(t, mux, table)

	engine, err := service.Collect(context.Background(), Request{
		Owner:   "acme",
		Repos:   []string{"good", "broken"},
		Weeks:   4,
		Workers: 1,
	})
	require.NoError(t, err)

	snap := engine.Snapshot()

	// The healthy repository's data survives; the run is flagged partial.
	assert.True(t, snap.Partial)
	require.Contains(t, snap.Aggregates, "bob")
	assert.Equal(t, 1, snap.Aggregates["bob"].Overall.Commits)
}

func TestCollect_CancelledContextAborts(t *testing.T) {
	t.Parallel()

	table, err := alias.New(nil)
	require.NoError(t, err)

	service := testService(t, collectHandler(), table)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = service.Collect(ctx, Request{
		Owner:   "acme",
		Repos:   []string{"api"},
		Weeks:   4,
		Workers: 1,
	})

	assert.Error(t, err)
}

func TestContributorLogins_DistinctSorted(t *testing.T) {
	t.Parallel()

	batchA := []activity.Unit{{Username: "zoe"}, {Username: "alice"}}
	batchB := []activity.Unit{{Username: "alice"}, {Username: ""}}

	assert.Equal(t, []string{"alice", "zoe"}, contributorLogins(batchA, batchB))
}
