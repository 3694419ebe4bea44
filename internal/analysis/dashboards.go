package analysis

import (
	"sort"
	"time"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
)

// ClickImpressions counts Click and Impression events per first selected
// value of field. Events without a selection are ignored.
func ClickImpressions(events []entities.NormalizedEvent, field string) []entities.ClickImpressionMetric {
	byValue := make(map[string]*entities.ClickImpressionMetric)
	for _, e := range events {
		value, ok := e.FirstSelection(field)
		if !ok {
			continue
		}
		m, seen := byValue[value]
		if !seen {
			m = &entities.ClickImpressionMetric{Value: value}
			byValue[value] = m
		}
		switch e.EventName {
		case entities.EventNameClick:
			m.Clicks++
		case entities.EventNameImpression:
			m.Impressions++
		}
	}

	out := make([]entities.ClickImpressionMetric, 0, len(byValue))
	for _, m := range byValue {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// RankClickImpressions builds the top and bottom limit entries by clicks and
// by impressions.
func RankClickImpressions(field string, metrics []entities.ClickImpressionMetric, limit int) entities.ClickImpressionReport {
	rank := func(key func(entities.ClickImpressionMetric) int, desc bool) []entities.ClickImpressionMetric {
		sorted := append([]entities.ClickImpressionMetric(nil), metrics...)
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := key(sorted[i]), key(sorted[j])
			if a != b {
				return (a > b) == desc
			}
			return sorted[i].Value < sorted[j].Value
		})
		if len(sorted) > limit {
			sorted = sorted[:limit]
		}
		return sorted
	}
	clicks := func(m entities.ClickImpressionMetric) int { return m.Clicks }
	impressions := func(m entities.ClickImpressionMetric) int { return m.Impressions }

	return entities.ClickImpressionReport{
		Field:             field,
		TopClicks:         rank(clicks, true),
		BottomClicks:      rank(clicks, false),
		TopImpressions:    rank(impressions, true),
		BottomImpressions: rank(impressions, false),
	}
}

// UniqueSessions counts distinct sessions with an event strictly inside
// (from, to). A zero from means no lower bound.
func UniqueSessions(events []entities.WebsiteEvent, from, to time.Time) int {
	seen := make(map[string]struct{})
	for _, e := range events {
		if !from.IsZero() && !e.CreatedAt.After(from) {
			continue
		}
		if !e.CreatedAt.Before(to) {
			continue
		}
		seen[e.SessionID] = struct{}{}
	}
	return len(seen)
}

// TopValue returns the most selected value of field among events strictly
// inside (from, to). Value is empty when nothing was selected.
func TopValue(events []entities.NormalizedEvent, field string, from, to time.Time) entities.PeriodTop {
	var values []string
	for _, e := range events {
		if e.CreatedAt.After(from) && e.CreatedAt.Before(to) {
			values = append(values, e.Selection(field)...)
		}
	}
	top := entities.PeriodTop{Start: from, End: to}
	if counts := ValueCounts(values); len(counts) > 0 {
		top.Value, top.Count = counts[0].Value, counts[0].Count
	}
	return top
}

// RollingTopValues computes TopValue for n consecutive windows of length
// period ending at end, most recent first.
func RollingTopValues(events []entities.NormalizedEvent, field string, end time.Time, period time.Duration, n int) []entities.PeriodTop {
	out := make([]entities.PeriodTop, 0, n)
	for i := 0; i < n; i++ {
		start := end.Add(-period)
		out = append(out, TopValue(events, field, start, end))
		end = start
	}
	return out
}

// Cumulate fills the running total per value, in month order.
func Cumulate(monthly []entities.MonthlySelection) []entities.MonthlySelection {
	out := append([]entities.MonthlySelection(nil), monthly...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Month.Equal(out[j].Month) {
			return out[i].Month.Before(out[j].Month)
		}
		return out[i].Value < out[j].Value
	})
	running := make(map[string]int)
	for i := range out {
		running[out[i].Value] += out[i].Count
		out[i].Cumulative = running[out[i].Value]
	}
	return out
}

// MentorFieldCounts counts the values of a mentor profile field, exploding
// list fields, and keeps the top entries. A non-positive top keeps all.
func MentorFieldCounts(profiles []entities.MentorProfile, field string, top int) ([]entities.ValueCount, bool) {
	if _, ok := (entities.MentorProfile{}).FieldValues(field); !ok {
		return nil, false
	}
	var values []string
	for _, p := range profiles {
		v, _ := p.FieldValues(field)
		values = append(values, v...)
	}
	counts := ValueCounts(values)
	if top > 0 && len(counts) > top {
		counts = counts[:top]
	}
	return counts, true
}
