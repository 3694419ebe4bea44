package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
)

// OthersLabel collects categories whose share is below MinShare.
const OthersLabel = "Others"

// MinShare is the smallest share reported on its own when simplifying.
const MinShare = 0.01

// Granularity is a calendar bucket size.
type Granularity string

const (
	Daily     Granularity = "day"
	Weekly    Granularity = "week"
	Monthly   Granularity = "month"
	Quarterly Granularity = "quarter"
	Yearly    Granularity = "year"
)

// Percentile returns the p-th quantile (0..1) of sorted values using linear
// interpolation between closest ranks. It returns 0 for empty input.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// ValueCounts counts occurrences of each value, most frequent first and
// alphabetical among ties.
func ValueCounts(values []string) []entities.ValueCount {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	out := make([]entities.ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, entities.ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Shares converts value counts into shares of the total. With simplify set,
// values below MinShare are folded into a trailing "Others" entry.
func Shares(values []string, simplify bool) []entities.ShareCount {
	if len(values) == 0 {
		return []entities.ShareCount{}
	}
	total := float64(len(values))
	out := make([]entities.ShareCount, 0)
	others := 0
	for _, vc := range ValueCounts(values) {
		share := float64(vc.Count) / total
		if simplify && share < MinShare {
			others += vc.Count
			continue
		}
		out = append(out, entities.ShareCount{Value: vc.Value, Count: vc.Count, Share: share})
	}
	if others > 0 {
		out = append(out, entities.ShareCount{Value: OthersLabel, Count: others, Share: float64(others) / total})
	}
	return out
}

// PeriodKey labels t with its calendar bucket in UTC.
func PeriodKey(t time.Time, g Granularity) string {
	t = t.UTC()
	switch g {
	case Daily:
		return t.Format("2006-01-02")
	case Weekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case Yearly:
		return t.Format("2006")
	default:
		return t.Format("2006-01")
	}
}

// CountByPeriod buckets timestamps and returns the buckets in chronological
// order.
func CountByPeriod(times []time.Time, g Granularity) []entities.PeriodCount {
	counts := make(map[string]int)
	for _, t := range times {
		counts[PeriodKey(t, g)]++
	}
	out := make([]entities.PeriodCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, entities.PeriodCount{Period: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// SessionDurations returns, per session, the time between its first and last
// event. Sessions with a single timestamp are omitted.
func SessionDurations(events []entities.WebsiteEvent) map[string]time.Duration {
	type span struct{ first, last time.Time }
	spans := make(map[string]*span)
	for _, e := range events {
		s, ok := spans[e.SessionID]
		if !ok {
			spans[e.SessionID] = &span{first: e.CreatedAt, last: e.CreatedAt}
			continue
		}
		if e.CreatedAt.Before(s.first) {
			s.first = e.CreatedAt
		}
		if e.CreatedAt.After(s.last) {
			s.last = e.CreatedAt
		}
	}

	out := make(map[string]time.Duration, len(spans))
	for id, s := range spans {
		if d := s.last.Sub(s.first); d > 0 {
			out[id] = d
		}
	}
	return out
}

// Screentime summarizes session durations by the mean of the durations lying
// strictly between the 25th and 75th percentile.
func Screentime(durations map[string]time.Duration) entities.ScreentimeSummary {
	seconds := make([]float64, 0, len(durations))
	for _, d := range durations {
		seconds = append(seconds, d.Seconds())
	}
	sort.Float64s(seconds)

	summary := entities.ScreentimeSummary{
		Sessions:   len(seconds),
		P25Seconds: Percentile(seconds, 0.25),
		P75Seconds: Percentile(seconds, 0.75),
	}

	var sum float64
	for _, s := range seconds {
		if s > summary.P25Seconds && s < summary.P75Seconds {
			sum += s
			summary.SampleSize++
		}
	}
	if summary.SampleSize > 0 {
		summary.MeanSeconds = sum / float64(summary.SampleSize)
	}
	return summary
}
