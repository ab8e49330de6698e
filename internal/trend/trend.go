// Package trend derives summary statistics from finished author
// aggregates: growth rate across the week, peak weekday, consistency, and
// cross-author rankings. Everything here is a pure read-only view; the
// aggregation engine owns the underlying state.
package trend

import (
	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
	"github.com/Sumatoshi-tech/commitpulse/internal/aggregate"
	"github.com/Sumatoshi-tech/commitpulse/pkg/metrics"
)

// firstHalfEnd splits the Mon..Sun distribution: Mon-Wed is the first
// half, Thu-Sun the second.
const firstHalfEnd = 3

// GrowthRate is the relative change between the two halves of the weekday
// distribution. When the first half is zero but the second is not, the
// rate is undefined rather than infinite; renderers print "undefined".
type GrowthRate struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// GrowthRateMetric compares total activity in the first half of the week
// (Mon-Wed) against the second half (Thu-Sun).
type GrowthRateMetric struct {
	metrics.MetricMeta
}

// NewGrowthRateMetric creates the growth rate metric.
func NewGrowthRateMetric() *GrowthRateMetric {
	return &GrowthRateMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "growth_rate",
			MetricDisplayName: "Weekday Growth Rate",
			MetricDescription: "Relative change of total activity between the first half of the week " +
				"(Mon-Wed) and the second half (Thu-Sun). Zero when both halves are empty; " +
				"undefined when only the first half is empty.",
		},
	}
}

// Compute calculates the growth rate for one author.
func (m *GrowthRateMetric) Compute(agg *aggregate.AuthorAggregate) GrowthRate {
	var first, second int

	for d, counters := range agg.Combined {
		if d < firstHalfEnd {
			first += counters.Total()
		} else {
			second += counters.Total()
		}
	}

	if first == 0 {
		if second == 0 {
			return GrowthRate{Value: 0, Defined: true}
		}

		return GrowthRate{Defined: false}
	}

	return GrowthRate{
		Value:   float64(second-first) / float64(first),
		Defined: true,
	}
}

// PeakWeekdayMetric finds the weekday with the most commits.
type PeakWeekdayMetric struct {
	metrics.MetricMeta
}

// NewPeakWeekdayMetric creates the peak weekday metric.
func NewPeakWeekdayMetric() *PeakWeekdayMetric {
	return &PeakWeekdayMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "peak_weekday",
			MetricDisplayName: "Peak Weekday",
			MetricDescription: "Weekday with the maximum combined commit count. Ties break toward " +
				"the earlier weekday, Monday first.",
		},
	}
}

// Compute returns the weekday with the maximum combined commits. Ties
// break by the earliest weekday index.
func (m *PeakWeekdayMetric) Compute(agg *aggregate.AuthorAggregate) activity.Weekday {
	peak := activity.Monday
	best := agg.Combined[activity.Monday].Commits

	for _, d := range activity.Weekdays() {
		if agg.Combined[d].Commits > best {
			peak = d
			best = agg.Combined[d].Commits
		}
	}

	return peak
}

// ConsistencyMetric measures how evenly activity spreads across the week.
type ConsistencyMetric struct {
	metrics.MetricMeta
}

// NewConsistencyMetric creates the consistency metric.
func NewConsistencyMetric() *ConsistencyMetric {
	return &ConsistencyMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "consistency",
			MetricDisplayName: "Consistency Score",
			MetricDescription: "Fraction of weekdays with at least one commit, in [0,1]. " +
				"1.0 means commits on all seven days of the week.",
		},
	}
}

// Compute returns the fraction of weekdays with nonzero commits.
func (m *ConsistencyMetric) Compute(agg *aggregate.AuthorAggregate) float64 {
	active := 0

	for _, counters := range agg.Combined {
		if counters.Commits > 0 {
			active++
		}
	}

	return float64(active) / float64(activity.NumWeekdays)
}

// NewRegistry returns the catalog of all trend metrics.
func NewRegistry() *metrics.Registry {
	reg := metrics.NewRegistry()
	metrics.Register(reg, NewGrowthRateMetric())
	metrics.Register(reg, NewPeakWeekdayMetric())
	metrics.Register(reg, NewConsistencyMetric())

	return reg
}

// Summary is the derived per-author view handed to report renderers.
type Summary struct {
	Author      string           `json:"author"`
	Usernames   []string         `json:"usernames"`
	Growth      GrowthRate       `json:"growth_rate"`
	Peak        activity.Weekday `json:"peak_weekday"`
	Consistency float64          `json:"consistency"`
}

// Summarize computes every trend metric for each author in the snapshot,
// returned sorted by canonical name.
func Summarize(snap aggregate.Snapshot) []Summary {
	growth := NewGrowthRateMetric()
	peak := NewPeakWeekdayMetric()
	consistency := NewConsistencyMetric()

	result := make([]Summary, 0, len(snap.Aggregates))

	for _, author := range snap.Authors() {
		agg := snap.Aggregates[author]

		result = append(result, Summary{
			Author:      author,
			Usernames:   agg.UsernameList(),
			Growth:      growth.Compute(agg),
			Peak:        peak.Compute(agg),
			Consistency: consistency.Compute(agg),
		})
	}

	return result
}
