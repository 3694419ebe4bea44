package analysis

import (
	"context"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
)

// SwitchOptions configures transition detection for one field.
type SwitchOptions struct {
	Field string
	// Window is the largest gap, inclusive, between two compared events.
	Window time.Duration
	// IncludeStayed records (v, v) for values present at both ends.
	IncludeStayed bool
	// SkipEmpty ignores events with no value selected for Field.
	SkipEmpty bool
	// ByVisit groups by visit id instead of session id.
	ByVisit bool
	Workers int
}

// DetectTransitions compares each event of one session with the furthest
// later event inside the window and reports how the selection changed.
// Values removed and added are paired as a cross product; a removal with no
// addition pairs with nil and vice versa.
func DetectTransitions(sessionID string, events []entities.NormalizedEvent, opts SwitchOptions) []entities.TransitionRecord {
	ordered := make([]entities.NormalizedEvent, 0, len(events))
	for _, e := range events {
		if opts.SkipEmpty && len(e.Selection(opts.Field)) == 0 {
			continue
		}
		ordered = append(ordered, e)
	}
	if len(ordered) < 2 {
		return nil
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	var records []entities.TransitionRecord
	end := 0
	for start := range ordered {
		if end < start {
			end = start
		}
		for end+1 < len(ordered) && ordered[end+1].CreatedAt.Sub(ordered[start].CreatedAt) <= opts.Window {
			end++
		}
		if end == start {
			continue
		}

		from, to := ordered[start], ordered[end]
		emit := func(f, t *string) {
			records = append(records, entities.TransitionRecord{
				From:        f,
				To:          t,
				SessionID:   sessionID,
				WindowStart: from.CreatedAt,
				WindowEnd:   to.CreatedAt,
			})
		}

		before := distinct(from.Selection(opts.Field))
		after := distinct(to.Selection(opts.Field))
		removed := difference(before, after)
		added := difference(after, before)

		switch {
		case len(removed) > 0 && len(added) > 0:
			for _, r := range removed {
				for _, a := range added {
					emit(strPtr(r), strPtr(a))
				}
			}
		case len(removed) > 0:
			for _, r := range removed {
				emit(strPtr(r), nil)
			}
		case len(added) > 0:
			for _, a := range added {
				emit(nil, strPtr(a))
			}
		}

		if opts.IncludeStayed {
			for _, v := range before {
				if slices.Contains(after, v) {
					emit(strPtr(v), strPtr(v))
				}
			}
		}
	}
	return records
}

// AnalyzeSwitches groups events by session and detects transitions in
// parallel. Records are returned grouped by session id in ascending order.
func AnalyzeSwitches(ctx context.Context, events []entities.NormalizedEvent, opts SwitchOptions) ([]entities.TransitionRecord, error) {
	sessions := make(map[string][]entities.NormalizedEvent)
	for _, e := range events {
		key := e.SessionID
		if opts.ByVisit {
			key = e.VisitID
		}
		sessions[key] = append(sessions[key], e)
	}

	ids := make([]string, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([][]entities.TransitionRecord, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = DetectTransitions(id, sessions[id], opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []entities.TransitionRecord
	for _, r := range results {
		records = append(records, r...)
	}
	return records, nil
}

// CountTransitions aggregates records into (from, to, count) rows, most
// frequent first. Ties are ordered by from then to, with nil first.
func CountTransitions(records []entities.TransitionRecord) []entities.TransitionCount {
	type pair struct {
		from, to       string
		hasFrom, hasTo bool
	}
	counts := make(map[pair]int)
	for _, r := range records {
		p := pair{}
		if r.From != nil {
			p.from, p.hasFrom = *r.From, true
		}
		if r.To != nil {
			p.to, p.hasTo = *r.To, true
		}
		counts[p]++
	}

	out := make([]entities.TransitionCount, 0, len(counts))
	for p, c := range counts {
		tc := entities.TransitionCount{Count: c}
		if p.hasFrom {
			tc.From = strPtr(p.from)
		}
		if p.hasTo {
			tc.To = strPtr(p.to)
		}
		out = append(out, tc)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if c := compareNullable(out[i].From, out[j].From); c != 0 {
			return c < 0
		}
		return compareNullable(out[i].To, out[j].To) < 0
	})
	return out
}

func compareNullable(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

func distinct(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func difference(a, b []string) []string {
	var out []string
	for _, v := range a {
		if !slices.Contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}

func strPtr(s string) *string { return &s }
