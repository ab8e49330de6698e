package trend

import (
	"sort"

	"github.com/Sumatoshi-tech/commitpulse/internal/aggregate"
)

// RankMetric selects the value authors are ranked by.
type RankMetric string

// Ranking metrics.
const (
	RankByCommits      RankMetric = "commits"
	RankByLinesChanged RankMetric = "lines_changed"
	RankByPRsMerged    RankMetric = "prs_merged"
	RankByConsistency  RankMetric = "consistency"
)

// rankValue extracts the comparable value for one aggregate.
func (m RankMetric) rankValue(agg *aggregate.AuthorAggregate) float64 {
	switch m {
	case RankByCommits:
		return float64(agg.Overall.Commits)
	case RankByLinesChanged:
		return float64(agg.Overall.Additions + agg.Overall.Deletions)
	case RankByPRsMerged:
		return float64(agg.Overall.PRsMerged)
	case RankByConsistency:
		return NewConsistencyMetric().Compute(agg)
	}

	return float64(agg.Overall.Commits)
}

// RankAuthors sorts aggregates descending by the chosen metric. The sort
// is stable and ties break by canonical-name lexical order, so the ranking
// is deterministic for any input order.
func RankAuthors(aggs []*aggregate.AuthorAggregate, metric RankMetric) []*aggregate.AuthorAggregate {
	ranked := make([]*aggregate.AuthorAggregate, len(aggs))
	copy(ranked, aggs)

	sort.SliceStable(ranked, func(i, j int) bool {
		vi := metric.rankValue(ranked[i])
		vj := metric.rankValue(ranked[j])

		if vi != vj {
			return vi > vj
		}

		return ranked[i].Author < ranked[j].Author
	})

	return ranked
}

// Ranked returns the snapshot's aggregates ranked by the chosen metric.
func Ranked(snap aggregate.Snapshot, metric RankMetric) []*aggregate.AuthorAggregate {
	aggs := make([]*aggregate.AuthorAggregate, 0, len(snap.Aggregates))
	for _, author := range snap.Authors() {
		aggs = append(aggs, snap.Aggregates[author])
	}

	return RankAuthors(aggs, metric)
}
