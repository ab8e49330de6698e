package aggregate

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
	"github.com/Sumatoshi-tech/commitpulse/internal/alias"
)

// Test constants for engine tests.
const (
	// testRepoAPI and testRepoWeb are the repositories used in engine tests.
	testRepoAPI = "api"
	testRepoWeb = "web"

	// permutationRounds is how many shuffled ingest orders are checked.
	permutationRounds = 5
)

// testMonday is 2024-01-01, a Monday.
var testMonday = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

func aliasTable(t *testing.T, mapping map[string][]string) *alias.Table {
	t.Helper()

	table, err := alias.New(mapping)
	require.NoError(t, err)

	return table
}

func commit(user, repo, sha string, at time.Time, add, del int) activity.Unit {
	return activity.Unit{
		Username:  user,
		Repo:      repo,
		Time:      at,
		Kind:      activity.KindCommit,
		Additions: add,
		Deletions: del,
		CommitID:  sha,
	}
}

func TestIngest_AliasClosureMergesUsernames(t *testing.T) {
	t.Parallel()

	engine := NewEngine(aliasTable(t, map[string][]string{"alice": {"alice1", "alice2"}}))

	require.NoError(t, engine.Ingest(commit("alice1", testRepoAPI, "c1", testMonday, 10, 3)))
	require.NoError(t, engine.Ingest(commit("alice2", testRepoAPI, "c2", testMonday, 3, 0)))

	snap := engine.Snapshot()

	require.Len(t, snap.Aggregates, 1)

	agg := snap.Aggregates["alice"]
	require.NotNil(t, agg)

	monday := agg.Combined[activity.Monday]
	assert.Equal(t, activity.Counters{Commits: 2, Additions: 13, Deletions: 3}, monday)
	assert.Equal(t, []string{"alice1", "alice2"}, agg.UsernameList())
}

func TestIngest_DuplicateUnitCountedOnce(t *testing.T) {
	t.Parallel()

	engine := NewEngine(aliasTable(t, nil))
	unit := commit("alice", testRepoAPI, "c1", testMonday, 5, 1)

	require.NoError(t, engine.Ingest(unit))
	require.NoError(t, engine.Ingest(unit))
	require.NoError(t, engine.Ingest(unit))

	snap := engine.Snapshot()
	assert.Equal(t, 1, snap.Aggregates["alice"].Overall.Commits)
	assert.Empty(t, snap.Warnings)
}

func TestIngest_MalformedUnitBecomesWarning(t *testing.T) {
	t.Parallel()

	engine := NewEngine(aliasTable(t, nil))

	bad := commit("alice", testRepoAPI, "c1", testMonday, -5, 0)
	require.NoError(t, engine.Ingest(bad))

	unknown := commit("alice", testRepoAPI, "c2", testMonday, 1, 0)
	unknown.Kind = activity.Kind("deployment")
	require.NoError(t, engine.Ingest(unknown))

	badTime := commit("alice", testRepoAPI, "c3", time.Time{}, 1, 0)
	require.NoError(t, engine.Ingest(badTime))

	snap := engine.Snapshot()

	// Rejected units never touch any bucket.
	assert.Empty(t, snap.Aggregates)
	require.Len(t, snap.Warnings, 3)
	assert.Contains(t, snap.Warnings[0].Reason, "negative line delta")
}

func TestIngest_InvariantHoldsAcrossReposAndDays(t *testing.T) {
	t.Parallel()

	engine := NewEngine(aliasTable(t, nil))

	units := []activity.Unit{
		commit("alice", testRepoAPI, "c1", testMonday, 10, 2),
		commit("alice", testRepoWeb, "c2", testMonday, 4, 1),
		commit("alice", testRepoAPI, "c3", testMonday.AddDate(0, 0, 3), 7, 0),
		{Username: "alice", Repo: testRepoWeb, Time: testMonday, Kind: activity.KindPROpened, PullRequestID: 1},
	}

	require.NoError(t, engine.IngestAll(units))

	agg := engine.Snapshot().Aggregates["alice"]
	require.NotNil(t, agg)

	assertAggregateInvariant(t, agg)
	assert.Equal(t, 3, agg.Overall.Commits)
	assert.Equal(t, 1, agg.Overall.PRsOpened)
	assert.Equal(t, []string{testRepoAPI, testRepoWeb}, agg.RepoList())
}

// assertAggregateInvariant checks Combined[d] == Σ_repo buckets and
// Overall == Σ_d Combined[d].
func assertAggregateInvariant(t *testing.T, agg *AuthorAggregate) {
	t.Helper()

	var fromRepos WeekBuckets

	for _, buckets := range agg.Repos {
		for d := range buckets {
			fromRepos[d].Add(buckets[d])
		}
	}

	assert.Equal(t, fromRepos, agg.Combined)

	var overall activity.Counters
	for d := range agg.Combined {
		overall.Add(agg.Combined[d])
	}

	assert.Equal(t, overall, agg.Overall)
}

func TestIngest_OrderIndependent(t *testing.T) {
	t.Parallel()

	units := []activity.Unit{
		commit("alice", testRepoAPI, "c1", testMonday, 1, 0),
		commit("alice", testRepoWeb, "c2", testMonday.AddDate(0, 0, 1), 2, 1),
		commit("bob", testRepoAPI, "c3", testMonday.AddDate(0, 0, 2), 3, 2),
		{Username: "bob", Repo: testRepoWeb, Time: testMonday, Kind: activity.KindPRMerged, PullRequestID: 4},
		commit("alice", testRepoAPI, "c1", testMonday, 1, 0), // duplicate
	}

	reference := NewEngine(aliasTable(t, nil))
	require.NoError(t, reference.IngestAll(units))

	want := reference.Snapshot()

	rng := rand.New(rand.NewSource(1))

	for i := 0; i < permutationRounds; i++ {
		shuffled := make([]activity.Unit, len(units))
		copy(shuffled, units)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		engine := NewEngine(aliasTable(t, nil))
		require.NoError(t, engine.IngestAll(shuffled))

		assert.Equal(t, want.Aggregates, engine.Snapshot().Aggregates)
	}
}

func TestFinalize_RejectsFurtherIngest(t *testing.T) {
	t.Parallel()

	engine := NewEngine(aliasTable(t, nil))
	require.NoError(t, engine.Ingest(commit("alice", testRepoAPI, "c1", testMonday, 1, 0)))

	engine.Finalize()
	engine.Finalize() // idempotent

	err := engine.Ingest(commit("alice", testRepoAPI, "c2", testMonday, 1, 0))
	assert.ErrorIs(t, err, ErrFinalized)

	// Snapshots remain available after finalization.
	assert.Equal(t, 1, engine.Snapshot().Aggregates["alice"].Overall.Commits)
}

func TestSnapshot_IsolatedFromLaterIngests(t *testing.T) {
	t.Parallel()

	engine := NewEngine(aliasTable(t, nil))
	require.NoError(t, engine.Ingest(commit("alice", testRepoAPI, "c1", testMonday, 1, 0)))

	before := engine.Snapshot()

	require.NoError(t, engine.Ingest(commit("alice", testRepoAPI, "c2", testMonday, 1, 0)))

	assert.Equal(t, 1, before.Aggregates["alice"].Overall.Commits)
	assert.Equal(t, 2, engine.Snapshot().Aggregates["alice"].Overall.Commits)
}

func TestMarkPartial_SurfacesInSnapshot(t *testing.T) {
	t.Parallel()

	engine := NewEngine(aliasTable(t, nil))

	assert.False(t, engine.Snapshot().Partial)

	engine.MarkPartial()

	assert.True(t, engine.Snapshot().Partial)
}

func TestSnapshot_TotalsAndWeekdayTotals(t *testing.T) {
	t.Parallel()

	engine := NewEngine(aliasTable(t, nil))
	require.NoError(t, engine.IngestAll([]activity.Unit{
		commit("alice", testRepoAPI, "c1", testMonday, 10, 2),
		commit("bob", testRepoAPI, "c2", testMonday, 5, 5),
		commit("bob", testRepoAPI, "c3", testMonday.AddDate(0, 0, 6), 1, 0),
	}))

	snap := engine.Snapshot()

	assert.Equal(t, activity.Counters{Commits: 3, Additions: 16, Deletions: 7}, snap.Totals())

	weekdays := snap.WeekdayTotals()
	assert.Equal(t, 2, weekdays[activity.Monday].Commits)
	assert.Equal(t, 1, weekdays[activity.Sunday].Commits)
	assert.Equal(t, []string{"alice", "bob"}, snap.Authors())
}
