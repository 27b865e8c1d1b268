// Package stats holds the pure aggregation over the search-event stream.
// Both the on-demand recompute endpoint and the scheduled job call Compute;
// neither path touches the snapshot when the stream is empty.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/peopledeck/peopledeck/internal/models"
)

// TopN is how many ranked queries a snapshot carries before the residual is
// folded into a single "Others" bucket.
const TopN = 5

// OthersLabel names the residual bucket.
const OthersLabel = "Others"

// Compute aggregates the full event stream into ranked query frequencies, an
// average duration, and an hourly histogram. It returns nil for an empty
// stream so callers can distinguish "no stats yet" from "zero activity".
// Recomputing an unchanged stream yields an identical result.
func Compute(events []models.SearchEvent) *models.Stats {
	if len(events) == 0 {
		return nil
	}

	hours := hourlyCounts(events)
	return &models.Stats{
		TopQueries:      topQueries(events),
		AvgTiming:       averageDuration(events),
		HourlyCounts:    hours,
		MostPopularHour: peakHour(hours),
	}
}

func topQueries(events []models.SearchEvent) []models.TopQuery {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, e := range events {
		if counts[e.Query] == 0 {
			order = append(order, e.Query)
		}
		counts[e.Query]++
	}

	// Stable sort over first-seen order; exact tie order is not significant.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	total := len(events)
	limit := TopN
	if limit > len(order) {
		limit = len(order)
	}

	top := make([]models.TopQuery, 0, limit+1)
	for _, q := range order[:limit] {
		top = append(top, models.TopQuery{
			Query:   q,
			Count:   counts[q],
			Percent: round2(float64(counts[q]) / float64(total) * 100),
		})
	}

	others := 0
	for _, q := range order[limit:] {
		others += counts[q]
	}
	if others > 0 {
		top = append(top, models.TopQuery{
			Query:   OthersLabel,
			Count:   others,
			Percent: round2(float64(others) / float64(total) * 100),
		})
	}
	return top
}

// averageDuration considers only strictly positive, finite durations.
func averageDuration(events []models.SearchEvent) float64 {
	sum := 0.0
	n := 0
	for _, e := range events {
		if e.Duration > 0 && !math.IsInf(e.Duration, 0) && !math.IsNaN(e.Duration) {
			sum += e.Duration
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

// hourlyCounts buckets events by local hour-of-day. Events whose timestamp
// does not parse are left out of the histogram only.
func hourlyCounts(events []models.SearchEvent) []int {
	buckets := make([]int, 24)
	for _, e := range events {
		ts, err := time.Parse(time.RFC3339, e.Timestamp)
		if err != nil {
			continue
		}
		buckets[ts.Local().Hour()]++
	}
	return buckets
}

// peakHour returns the hour with the maximum count, first occurrence winning ties.
func peakHour(buckets []int) int {
	peak, max := 0, 0
	for hour, count := range buckets {
		if count > max {
			max = count
			peak = hour
		}
	}
	return peak
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
