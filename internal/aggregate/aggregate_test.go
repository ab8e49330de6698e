package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
)

func sampleAggregate(author, repo string, day activity.Weekday, commits int) *AuthorAggregate {
	agg := NewAuthorAggregate(author)

	for i := 0; i < commits; i++ {
		agg.add(repo, day, activity.Counters{Commits: 1, Additions: 2}, author)
	}

	return agg
}

func TestMerge_NilOperands(t *testing.T) {
	t.Parallel()

	a := sampleAggregate("alice", "api", activity.Monday, 2)

	fromNil, err := Merge(nil, a)
	require.NoError(t, err)
	assert.Equal(t, a, fromNil)

	toNil, err := Merge(a, nil)
	require.NoError(t, err)
	assert.Equal(t, a, toNil)
}

func TestMerge_LeavesInputsUntouched(t *testing.T) {
	t.Parallel()

	a := sampleAggregate("alice", "api", activity.Monday, 1)
	b := sampleAggregate("alice", "web", activity.Friday, 3)

	merged, err := Merge(a, b)
	require.NoError(t, err)

	assert.Equal(t, 4, merged.Overall.Commits)
	assert.Equal(t, 1, a.Overall.Commits)
	assert.Equal(t, 3, b.Overall.Commits)
}

func TestMerge_Commutative(t *testing.T) {
	t.Parallel()

	a := sampleAggregate("alice", "api", activity.Monday, 2)
	b := sampleAggregate("alice", "api", activity.Wednesday, 5)

	ab, err := Merge(a, b)
	require.NoError(t, err)

	ba, err := Merge(b, a)
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
}

func TestMerge_Associative(t *testing.T) {
	t.Parallel()

	a := sampleAggregate("alice", "api", activity.Monday, 1)
	b := sampleAggregate("alice", "web", activity.Tuesday, 2)
	c := sampleAggregate("alice", "api", activity.Sunday, 3)

	ab, err := Merge(a, b)
	require.NoError(t, err)

	abc, err := Merge(ab, c)
	require.NoError(t, err)

	bc, err := Merge(b, c)
	require.NoError(t, err)

	abc2, err := Merge(a, bc)
	require.NoError(t, err)

	assert.Equal(t, abc, abc2)
}

func TestMerge_AuthorMismatch(t *testing.T) {
	t.Parallel()

	a := sampleAggregate("alice", "api", activity.Monday, 1)
	b := sampleAggregate("bob", "api", activity.Monday, 1)

	_, err := Merge(a, b)

	assert.ErrorIs(t, err, ErrAuthorMismatch)
}

func TestClone_DeepCopies(t *testing.T) {
	t.Parallel()

	original := sampleAggregate("alice", "api", activity.Monday, 1)
	clone := original.Clone()

	clone.add("web", activity.Tuesday, activity.Counters{Commits: 1}, "alice2")

	assert.Equal(t, 1, original.Overall.Commits)
	assert.NotContains(t, original.Repos, "web")
	assert.NotContains(t, original.Usernames, "alice2")
}
