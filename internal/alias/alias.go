// Package alias resolves raw source-control usernames to canonical author
// identities. The table is loaded once at startup and immutable afterwards;
// resolution is total — unknown usernames are their own canonical identity.
package alias

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrConfig marks a malformed or conflicting alias configuration. It is
// fatal to the run and always raised before any ingestion begins.
var ErrConfig = errors.New("alias: invalid configuration")

// Table maps canonical author names to their username sets and holds the
// case-insensitive reverse index built at load time.
type Table struct {
	aliases map[string][]string
	reverse map[string]string
}

// New builds a Table from a canonical-name → usernames mapping.
//
// Every username, and every canonical name itself, resolves to the
// canonical name, matched case-insensitively. A username claimed by two
// different canonical names is a configuration error, not a silent pick.
func New(mapping map[string][]string) (*Table, error) {
	t := &Table{
		aliases: make(map[string][]string, len(mapping)),
		reverse: make(map[string]string, len(mapping)),
	}

	// Deterministic iteration so conflict errors are stable.
	canonicals := make([]string, 0, len(mapping))
	for canonical := range mapping {
		canonicals = append(canonicals, canonical)
	}

	sort.Strings(canonicals)

	for _, canonical := range canonicals {
		if canonical == "" {
			return nil, fmt.Errorf("%w: empty canonical name", ErrConfig)
		}

		usernames := mapping[canonical]

		err := t.register(canonical, canonical)
		if err != nil {
			return nil, err
		}

		for _, username := range usernames {
			if username == "" {
				return nil, fmt.Errorf("%w: empty username under %q", ErrConfig, canonical)
			}

			err = t.register(canonical, username)
			if err != nil {
				return nil, err
			}
		}

		t.aliases[canonical] = dedupPreservingOrder(usernames)
	}

	return t, nil
}

func (t *Table) register(canonical, username string) error {
	key := strings.ToLower(username)

	owner, exists := t.reverse[key]
	if exists && owner != canonical {
		return fmt.Errorf("%w: username %q mapped to both %q and %q",
			ErrConfig, username, owner, canonical)
	}

	t.reverse[key] = canonical

	return nil
}

// Resolve maps a raw username to its canonical author name. Lookup is
// case-insensitive; usernames absent from the table resolve to themselves.
// Resolve never fails.
func (t *Table) Resolve(username string) string {
	if username == "" {
		return username
	}

	if canonical, ok := t.reverse[strings.ToLower(username)]; ok {
		return canonical
	}

	return username
}

// IsAliased reports whether the username has an explicit table entry.
func (t *Table) IsAliased(username string) bool {
	_, ok := t.reverse[strings.ToLower(username)]

	return ok
}

// UsernamesOf returns all usernames belonging to a canonical author,
// including the canonical name itself, sorted. A name without explicit
// aliases owns exactly itself.
func (t *Table) UsernamesOf(canonical string) []string {
	usernames, ok := t.aliases[canonical]
	if !ok {
		return []string{canonical}
	}

	set := make(map[string]struct{}, len(usernames)+1)
	set[canonical] = struct{}{}

	for _, username := range usernames {
		set[username] = struct{}{}
	}

	result := make([]string, 0, len(set))
	for username := range set {
		result = append(result, username)
	}

	sort.Strings(result)

	return result
}

// Canonicals returns all canonical names with explicit entries, sorted.
func (t *Table) Canonicals() []string {
	result := make([]string, 0, len(t.aliases))
	for canonical := range t.aliases {
		result = append(result, canonical)
	}

	sort.Strings(result)

	return result
}

// Stats summarizes the table for diagnostics output.
type Stats struct {
	CanonicalAuthors  int
	TotalAliases      int
	MultiAliasAuthors int
}

// Summary returns counts over the loaded table.
func (t *Table) Summary() Stats {
	s := Stats{CanonicalAuthors: len(t.aliases)}

	for _, usernames := range t.aliases {
		s.TotalAliases += len(usernames)

		if len(usernames) > 1 {
			s.MultiAliasAuthors++
		}
	}

	return s
}

func dedupPreservingOrder(usernames []string) []string {
	seen := make(map[string]struct{}, len(usernames))
	result := make([]string, 0, len(usernames))

	for _, username := range usernames {
		key := strings.ToLower(username)
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}

		result = append(result, username)
	}

	return result
}
