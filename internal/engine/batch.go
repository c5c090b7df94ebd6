package engine

import (
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// SampleSize caps the preview slice included in batch output.
const SampleSize = 10

// Stats holds the financial impact of a batch. Deltas are summed over
// non-error results only.
type Stats struct {
	TotalDrop      float64 `json:"total_drop"`
	TotalIncrement float64 `json:"total_increment"`
	NetImpact      float64 `json:"net_impact"`
}

// Summary partitions the batch into mutually exclusive buckets that sum to
// TotalStocks: within-strategy, increases, decreases, stale nudges (split by
// direction) and data issues. The trailing fields are legacy aliases kept for
// older report consumers; all derive from the same partition.
type Summary struct {
	TotalStocks    int `json:"total_stocks"`
	WithinStrategy int `json:"within_strategy"`
	Increases      int `json:"increases"`
	Decreases      int `json:"decreases"`
	NudgeUp        int `json:"nudge_up"`
	NudgeDown      int `json:"nudge_down"`
	DataIssues     int `json:"data_issues"`

	Optimized              int `json:"optimized"`
	TotalWithinStrategy    int `json:"total_within_strategy"`
	IncreaseWithinStrategy int `json:"increase_within_strategy"`
	DecreaseWithinStrategy int `json:"decrease_within_strategy"`
	NotChange              int `json:"not_change"`
	PriceIncrease          int `json:"price_increase"`
	PriceDecrease          int `json:"price_decrease"`
}

// BatchOutput bundles per-record results with derived statistics.
type BatchOutput struct {
	Results []Result `json:"results"`
	Summary Summary  `json:"summary"`
	Stats   Stats    `json:"stats"`
	Sample  []Result `json:"sample_results"`
}

// ProcessBatch applies Decide to every record. Records are independent, so the
// map step fans out across a bounded group; results land at their input index,
// keeping output order deterministic.
func ProcessBatch(records []Record, cfg *StrategyConfig) BatchOutput {
	results := make([]Result, len(records))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			results[i] = Decide(rec, cfg)
			return nil
		})
	}
	// Workers never return errors; Decide captures every failure into a
	// Data-Error result.
	_ = g.Wait()

	summary, stats, sample := Aggregate(results)
	return BatchOutput{Results: results, Summary: summary, Stats: stats, Sample: sample}
}

// Aggregate computes summary statistics over a result set. Exposed separately
// so callers can aggregate engine results combined with adapter-rejected rows.
func Aggregate(results []Result) (Summary, Stats, []Result) {
	var summary Summary
	var stats Stats
	summary.TotalStocks = len(results)

	for _, r := range results {
		switch {
		case r.IsDataError():
			summary.DataIssues++
			continue
		case strings.HasPrefix(r.Reason, "Increase to target"):
			summary.Increases++
		case strings.HasPrefix(r.Reason, "Decrease to target"):
			summary.Decreases++
		case strings.HasPrefix(r.Reason, "Stale nudge"):
			if r.NewPrice-r.CurrentPrice > 0 {
				summary.NudgeUp++
			} else {
				summary.NudgeDown++
			}
		default:
			summary.WithinStrategy++
		}

		change := r.NewPrice - r.CurrentPrice
		if change > 0 {
			stats.TotalIncrement += change
		} else if change < 0 {
			stats.TotalDrop += -change
		}
	}
	stats.NetImpact = stats.TotalIncrement - stats.TotalDrop

	summary.Optimized = summary.NudgeUp + summary.NudgeDown
	summary.TotalWithinStrategy = summary.WithinStrategy + summary.Optimized
	summary.IncreaseWithinStrategy = summary.NudgeUp
	summary.DecreaseWithinStrategy = summary.NudgeDown
	summary.NotChange = summary.WithinStrategy
	summary.PriceIncrease = summary.Increases
	summary.PriceDecrease = summary.Decreases

	sample := results
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	return summary, stats, sample
}
