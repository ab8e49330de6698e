// Package aggregate folds individual contributor activity units into
// per-author, per-repository, per-weekday buckets. The fold is
// deduplicating, idempotent, and merge-order independent, so partial
// aggregates produced by parallel workers combine into the same final state
// regardless of completion order.
package aggregate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
)

// Engine errors.
var (
	// ErrFinalized is returned by Ingest and Fold after Finalize.
	ErrFinalized = errors.New("aggregate: engine already finalized")

	// ErrAuthorMismatch is returned by Merge for aggregates of two
	// different canonical authors.
	ErrAuthorMismatch = errors.New("aggregate: cannot merge different authors")
)

// WeekBuckets is the day-of-week dimension of one repository's counters,
// indexed Monday=0..Sunday=6.
type WeekBuckets [activity.NumWeekdays]activity.Counters

// AuthorAggregate is the combined activity of one canonical author.
//
// Invariant, maintained incrementally on every ingest:
//
//	Combined[d] == Σ_repo Repos[repo][d]   for every weekday d
//	Overall     == Σ_d Combined[d]
type AuthorAggregate struct {
	Author    string                 `json:"author"`
	Usernames map[string]struct{}    `json:"-"`
	Repos     map[string]WeekBuckets `json:"repos"`
	Combined  WeekBuckets            `json:"combined"`
	Overall   activity.Counters      `json:"overall"`
}

// NewAuthorAggregate creates an empty aggregate for one canonical author.
func NewAuthorAggregate(author string) *AuthorAggregate {
	return &AuthorAggregate{
		Author:    author,
		Usernames: make(map[string]struct{}),
		Repos:     make(map[string]WeekBuckets),
	}
}

// add applies one unit's delta to the matching repo/day bucket and updates
// the combined and overall totals with the same delta, preserving the
// aggregate invariant without a full recompute.
func (a *AuthorAggregate) add(repo string, day activity.Weekday, delta activity.Counters, username string) {
	buckets := a.Repos[repo]
	buckets[day].Add(delta)
	a.Repos[repo] = buckets

	a.Combined[day].Add(delta)
	a.Overall.Add(delta)

	if username != "" {
		a.Usernames[username] = struct{}{}
	}
}

// UsernameList returns the observed raw usernames, sorted.
func (a *AuthorAggregate) UsernameList() []string {
	result := make([]string, 0, len(a.Usernames))
	for username := range a.Usernames {
		result = append(result, username)
	}

	sort.Strings(result)

	return result
}

// RepoList returns the repositories the author touched, sorted.
func (a *AuthorAggregate) RepoList() []string {
	result := make([]string, 0, len(a.Repos))
	for repo := range a.Repos {
		result = append(result, repo)
	}

	sort.Strings(result)

	return result
}

// Clone returns a deep copy. Snapshot consumers get clones so later ingests
// never mutate what a renderer is reading.
func (a *AuthorAggregate) Clone() *AuthorAggregate {
	clone := &AuthorAggregate{
		Author:    a.Author,
		Usernames: make(map[string]struct{}, len(a.Usernames)),
		Repos:     make(map[string]WeekBuckets, len(a.Repos)),
		Combined:  a.Combined,
		Overall:   a.Overall,
	}

	for username := range a.Usernames {
		clone.Usernames[username] = struct{}{}
	}

	for repo, buckets := range a.Repos {
		clone.Repos[repo] = buckets
	}

	return clone
}

// Merge combines two aggregates of the same canonical author into a new
// aggregate, leaving both inputs untouched. The counter arithmetic is plain
// addition, so Merge is associative and commutative — the property the
// parallel fetch reducer relies on.
func Merge(a, b *AuthorAggregate) (*AuthorAggregate, error) {
	if a == nil {
		return b.Clone(), nil
	}

	if b == nil {
		return a.Clone(), nil
	}

	if a.Author != b.Author {
		return nil, fmt.Errorf("%w: %q vs %q", ErrAuthorMismatch, a.Author, b.Author)
	}

	merged := a.Clone()

	for username := range b.Usernames {
		merged.Usernames[username] = struct{}{}
	}

	for repo, buckets := range b.Repos {
		existing := merged.Repos[repo]
		for d := range existing {
			existing[d].Add(buckets[d])
		}

		merged.Repos[repo] = existing
	}

	for d := range merged.Combined {
		merged.Combined[d].Add(b.Combined[d])
	}

	merged.Overall.Add(b.Overall)

	return merged, nil
}
