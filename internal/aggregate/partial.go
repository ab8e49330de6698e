package aggregate

// Partial is an immutable partial aggregate produced by one fetch worker.
// Workers partition the input by repository, so units never straddle two
// partials; within one partial the worker-local engine has already
// deduplicated redeliveries. Seen keys travel with the partial so the
// reducer's dedup set stays complete.
type Partial struct {
	Aggregates map[string]*AuthorAggregate
	Seen       map[string]struct{}
	Warnings   []Warning
	Incomplete bool
}

// Detach extracts the engine's state as a Partial and resets the engine,
// leaving it ready for the next batch. Workers call this once their slice
// of the input is exhausted; the returned value must not be used through
// the engine again.
func (e *Engine) Detach() Partial {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := Partial{
		Aggregates: e.aggregates,
		Seen:       e.seen,
		Warnings:   e.warnings,
		Incomplete: e.partial,
	}

	e.aggregates = make(map[string]*AuthorAggregate)
	e.seen = make(map[string]struct{})
	e.warnings = nil
	e.partial = false

	return p
}

// Fold merges a worker's partial aggregate into the engine. A partial is
// either folded completely or (on cancellation, by never calling Fold)
// discarded completely, so an aborted run cannot leave a half-applied
// author bucket behind. Counter merging is plain addition, making the
// final state independent of fold order.
func (e *Engine) Fold(p Partial) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.finalized {
		return ErrFinalized
	}

	for author, incoming := range p.Aggregates {
		merged, err := Merge(e.aggregates[author], incoming)
		if err != nil {
			return err
		}

		e.aggregates[author] = merged
	}

	for key := range p.Seen {
		e.seen[key] = struct{}{}
	}

	e.warnings = append(e.warnings, p.Warnings...)

	if p.Incomplete {
		e.partial = true
	}

	return nil
}
