// Package activity defines the atomic contributor activity events that feed
// the aggregation engine: commits and pull-request lifecycle events, each
// carrying its own UTC timestamp and a natural deduplication key.
package activity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type of an activity unit.
type Kind string

// Activity unit kinds.
const (
	KindCommit     Kind = "commit"
	KindPROpened   Kind = "pr_opened"
	KindPRMerged   Kind = "pr_merged"
	KindPRReviewed Kind = "pr_reviewed"
)

// Validation failure reasons, reported in the engine's warnings list.
var (
	ErrNegativeDelta = errors.New("activity: negative line delta")
	ErrBadTimestamp  = errors.New("activity: zero or out-of-range timestamp")
	ErrUnknownKind   = errors.New("activity: unknown unit kind")
	ErrEmptyUsername = errors.New("activity: empty username")
	ErrEmptyRepo     = errors.New("activity: empty repository")
)

// Timestamps before the epoch or far in the future are treated as malformed
// rather than bucketed. GitHub predates 2005; two days of clock skew is
// tolerated on the upper bound.
var (
	minEventTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

	maxClockSkew = 48 * time.Hour
)

// Unit is one atomic, deduplicable contributor event.
//
// Commits carry Additions/Deletions and an optional CommitID; pull-request
// events carry PullRequestID. Time is always interpreted in UTC.
type Unit struct {
	Username      string    `json:"username"`
	Repo          string    `json:"repo"`
	Time          time.Time `json:"time"`
	Kind          Kind      `json:"kind"`
	Additions     int       `json:"additions,omitempty"`
	Deletions     int       `json:"deletions,omitempty"`
	CommitID      string    `json:"commit_id,omitempty"`
	PullRequestID int       `json:"pull_request_id,omitempty"`
}

// IsPR reports whether the kind is a pull-request lifecycle event.
func (k Kind) IsPR() bool {
	return k == KindPROpened || k == KindPRMerged || k == KindPRReviewed
}

// known reports whether the kind is one of the closed set.
func (k Kind) known() bool {
	return k == KindCommit || k.IsPR()
}

// DedupKey returns the unit's natural deduplication key. For commits the
// commit ID is preferred; units without one fall back to the timestamp.
// Usernames are folded to lower case so that redeliveries differing only in
// letter case still collapse.
func (u Unit) DedupKey() string {
	user := strings.ToLower(u.Username)

	if u.Kind.IsPR() {
		return strings.Join([]string{user, u.Repo, string(u.Kind), strconv.Itoa(u.PullRequestID)}, "\x00")
	}

	if u.CommitID != "" {
		return strings.Join([]string{user, u.Repo, u.CommitID}, "\x00")
	}

	return strings.Join([]string{user, u.Repo, strconv.FormatInt(u.Time.Unix(), 10)}, "\x00")
}

// Validate checks the unit for structural problems that must not reach the
// counters. It returns one of the package sentinel errors, wrapped with the
// offending value.
func (u Unit) Validate() error {
	if u.Username == "" {
		return ErrEmptyUsername
	}

	if u.Repo == "" {
		return ErrEmptyRepo
	}

	if !u.Kind.known() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, u.Kind)
	}

	if u.Additions < 0 || u.Deletions < 0 {
		return fmt.Errorf("%w: +%d/-%d", ErrNegativeDelta, u.Additions, u.Deletions)
	}

	utc := u.Time.UTC()
	if utc.Before(minEventTime) || utc.After(time.Now().UTC().Add(maxClockSkew)) {
		return fmt.Errorf("%w: %s", ErrBadTimestamp, u.Time)
	}

	return nil
}

// Weekday returns the UTC calendar weekday of the unit's own timestamp.
// An event at exactly 00:00:00 UTC belongs to that date, never the previous
// day.
func (u Unit) Weekday() Weekday {
	return WeekdayOf(u.Time)
}

// Counters holds the per-bucket activity totals. All fields are
// non-negative once a unit has passed Validate.
type Counters struct {
	Commits     int `json:"commits"`
	Additions   int `json:"additions"`
	Deletions   int `json:"deletions"`
	PRsOpened   int `json:"prs_opened"`
	PRsMerged   int `json:"prs_merged"`
	PRsReviewed int `json:"prs_reviewed"`
}

// Delta returns the counter increment a single unit contributes.
func (u Unit) Delta() Counters {
	switch u.Kind {
	case KindCommit:
		return Counters{Commits: 1, Additions: u.Additions, Deletions: u.Deletions}
	case KindPROpened:
		return Counters{PRsOpened: 1}
	case KindPRMerged:
		return Counters{PRsMerged: 1}
	case KindPRReviewed:
		return Counters{PRsReviewed: 1}
	}

	return Counters{}
}

// Add accumulates other into c.
func (c *Counters) Add(other Counters) {
	c.Commits += other.Commits
	c.Additions += other.Additions
	c.Deletions += other.Deletions
	c.PRsOpened += other.PRsOpened
	c.PRsMerged += other.PRsMerged
	c.PRsReviewed += other.PRsReviewed
}

// Sum returns c + other without mutating either operand.
func (c Counters) Sum(other Counters) Counters {
	c.Add(other)

	return c
}

// Total returns the overall event count: commits plus PR events. Line
// deltas are volumes, not events, and are excluded.
func (c Counters) Total() int {
	return c.Commits + c.PRsOpened + c.PRsMerged + c.PRsReviewed
}

// IsZero reports whether every counter is zero.
func (c Counters) IsZero() bool {
	return c == Counters{}
}
