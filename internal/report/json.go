package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
	"github.com/Sumatoshi-tech/commitpulse/internal/aggregate"
	"github.com/Sumatoshi-tech/commitpulse/internal/trend"
)

// JSONRenderer writes the machine-readable report document.
type JSONRenderer struct{}

// Format returns the renderer's format name.
func (r *JSONRenderer) Format() string { return FormatJSON }

// jsonDocument is the stable top-level JSON shape.
type jsonDocument struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Owner       string              `json:"owner,omitempty"`
	Repos       []string            `json:"repos,omitempty"`
	Partial     bool                `json:"partial,omitempty"`
	Authors     []jsonAuthor        `json:"authors"`
	DaySummary  []Row               `json:"day_summary"`
	Warnings    []aggregate.Warning `json:"warnings,omitempty"`
}

// jsonAuthor flattens one author's aggregate plus trend view.
type jsonAuthor struct {
	Author    string           `json:"author"`
	Usernames []string         `json:"usernames"`
	Totals    Row              `json:"totals"`
	ByDay     []Row            `json:"by_day"`
	ByRepo    map[string][]Row `json:"by_repo,omitempty"`
	Trends    *trend.Summary   `json:"trends,omitempty"`
}

// Render writes the JSON report with stable field ordering.
func (r *JSONRenderer) Render(data Data, w io.Writer) error {
	doc := jsonDocument{
		GeneratedAt: data.GeneratedAt.UTC(),
		Owner:       data.Owner,
		Repos:       data.Repos,
		Partial:     data.Snapshot.Partial,
		DaySummary:  DaySummaryRows(data.Snapshot),
		Warnings:    data.Snapshot.Warnings,
	}

	trendsByAuthor := make(map[string]trend.Summary, len(data.Trends))
	for _, s := range data.Trends {
		trendsByAuthor[s.Author] = s
	}

	for _, author := range data.Snapshot.Authors() {
		agg := data.Snapshot.Aggregates[author]
		doc.Authors = append(doc.Authors, buildJSONAuthor(agg, trendsByAuthor))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(doc)
	if err != nil {
		return fmt.Errorf("json render: %w", err)
	}

	return nil
}

func buildJSONAuthor(agg *aggregate.AuthorAggregate, trends map[string]trend.Summary) jsonAuthor {
	ja := jsonAuthor{
		Author:    agg.Author,
		Usernames: agg.UsernameList(),
		Totals:    rowFrom(agg.Author, WeekdayAll, agg.Overall),
	}

	for _, d := range activity.Weekdays() {
		if agg.Combined[d].IsZero() {
			continue
		}

		ja.ByDay = append(ja.ByDay, rowFrom(agg.Author, d.String(), agg.Combined[d]))
	}

	for _, repo := range agg.RepoList() {
		buckets := agg.Repos[repo]

		var rows []Row

		for _, d := range activity.Weekdays() {
			if buckets[d].IsZero() {
				continue
			}

			rows = append(rows, rowFrom(agg.Author, d.String(), buckets[d]))
		}

		if len(rows) > 0 {
			if ja.ByRepo == nil {
				ja.ByRepo = make(map[string][]Row)
			}

			ja.ByRepo[repo] = rows
		}
	}

	if s, ok := trends[agg.Author]; ok {
		ja.Trends = &s
	}

	return ja
}
