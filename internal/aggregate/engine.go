package aggregate

import (
	"sort"
	"sync"

	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
	"github.com/Sumatoshi-tech/commitpulse/internal/alias"
)

// Warning records a unit that was skipped instead of aggregated. Skipped
// units never touch any bucket, so the aggregate invariant holds over the
// accepted units alone.
type Warning struct {
	Unit   activity.Unit `json:"unit"`
	Reason string        `json:"reason"`
}

// Snapshot is an immutable view of the engine state: deep-copied
// aggregates keyed by canonical author, the accumulated warnings, and a
// flag the fetch collaborator sets when its coverage was incomplete.
type Snapshot struct {
	Aggregates map[string]*AuthorAggregate `json:"aggregates"`
	Warnings   []Warning                   `json:"warnings,omitempty"`
	Partial    bool                        `json:"partial,omitempty"`
}

// Authors returns the snapshot's canonical author names, sorted.
func (s Snapshot) Authors() []string {
	result := make([]string, 0, len(s.Aggregates))
	for author := range s.Aggregates {
		result = append(result, author)
	}

	sort.Strings(result)

	return result
}

// Totals sums every author's overall counters.
func (s Snapshot) Totals() activity.Counters {
	var total activity.Counters
	for _, agg := range s.Aggregates {
		total.Add(agg.Overall)
	}

	return total
}

// WeekdayTotals sums every author's combined weekday buckets.
func (s Snapshot) WeekdayTotals() WeekBuckets {
	var totals WeekBuckets

	for _, agg := range s.Aggregates {
		for d := range totals {
			totals[d].Add(agg.Combined[d])
		}
	}

	return totals
}

// Engine is the authoritative fold state for one run. Ingest, Fold and
// Snapshot are safe for concurrent use; the intended topology is a single
// reducer goroutine owning this engine while workers fill their own
// worker-local engines.
type Engine struct {
	mu         sync.Mutex
	resolver   *alias.Table
	aggregates map[string]*AuthorAggregate
	seen       map[string]struct{}
	warnings   []Warning
	partial    bool
	finalized  bool
}

// NewEngine creates an empty engine bound to an immutable alias table.
func NewEngine(resolver *alias.Table) *Engine {
	return &Engine{
		resolver:   resolver,
		aggregates: make(map[string]*AuthorAggregate),
		seen:       make(map[string]struct{}),
	}
}

// Ingest folds one unit into the engine state.
//
// A unit whose dedup key was already seen is silently skipped — ingesting
// the same unit twice never double-counts. A malformed unit is skipped and
// recorded as a warning. Ingest only fails once the engine is finalized.
func (e *Engine) Ingest(unit activity.Unit) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.finalized {
		return ErrFinalized
	}

	key := unit.DedupKey()
	if _, dup := e.seen[key]; dup {
		return nil
	}

	err := unit.Validate()
	if err != nil {
		e.warnings = append(e.warnings, Warning{Unit: unit, Reason: err.Error()})

		return nil
	}

	e.seen[key] = struct{}{}

	author := e.resolver.Resolve(unit.Username)

	agg, ok := e.aggregates[author]
	if !ok {
		agg = NewAuthorAggregate(author)
		e.aggregates[author] = agg
	}

	agg.add(unit.Repo, unit.Weekday(), unit.Delta(), unit.Username)

	return nil
}

// IngestAll folds a batch of units, stopping at the first engine-level
// error. Per-unit problems land in the warnings list, not in the return.
func (e *Engine) IngestAll(units []activity.Unit) error {
	for _, unit := range units {
		err := e.Ingest(unit)
		if err != nil {
			return err
		}
	}

	return nil
}

// MarkPartial flags the snapshot as covering incomplete input, e.g. when
// the fetch collaborator hit its result cap or was cancelled mid-run.
func (e *Engine) MarkPartial() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.partial = true
}

// Finalize closes the engine for ingestion. Finalize is idempotent;
// snapshots remain available afterwards.
func (e *Engine) Finalize() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.finalized = true
}

// Snapshot returns a deep copy of the current state. It is safe to call at
// any point and reflects all ingests so far.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Aggregates: make(map[string]*AuthorAggregate, len(e.aggregates)),
		Partial:    e.partial,
	}

	for author, agg := range e.aggregates {
		snap.Aggregates[author] = agg.Clone()
	}

	if len(e.warnings) > 0 {
		snap.Warnings = make([]Warning, len(e.warnings))
		copy(snap.Warnings, e.warnings)
	}

	return snap
}
