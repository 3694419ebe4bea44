package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
)

func selection(session string, offset time.Duration, values ...string) entities.NormalizedEvent {
	return entities.NormalizedEvent{
		SessionID: session,
		VisitID:   "visit-" + session,
		CreatedAt: baseTime.Add(offset),
		Filters:   map[string][]string{"industries": append([]string{}, values...)},
	}
}

type pair struct{ from, to string }

func pairs(records []entities.TransitionRecord) []pair {
	out := make([]pair, 0, len(records))
	for _, r := range records {
		p := pair{from: "<nil>", to: "<nil>"}
		if r.From != nil {
			p.from = *r.From
		}
		if r.To != nil {
			p.to = *r.To
		}
		out = append(out, p)
	}
	return out
}

func defaultOptions() SwitchOptions {
	return SwitchOptions{Field: "industries", Window: 10 * time.Minute, Workers: 2}
}

func TestDetectTransitions_WindowedSwitches(t *testing.T) {
	events := []entities.NormalizedEvent{
		selection("s1", 12*time.Minute, "C"),
		selection("s1", 0, "A"),
		selection("s1", 5*time.Minute, "A", "B"),
	}

	records := DetectTransitions("s1", events, defaultOptions())

	assert.Equal(t, []pair{
		{"<nil>", "B"},
		{"A", "C"},
		{"B", "C"},
	}, pairs(records))
	assert.Equal(t, baseTime, records[0].WindowStart)
	assert.Equal(t, baseTime.Add(5*time.Minute), records[0].WindowEnd)
	assert.Equal(t, "s1", records[1].SessionID)
}

func TestDetectTransitions_IncludeStayed(t *testing.T) {
	events := []entities.NormalizedEvent{
		selection("s1", 0, "A"),
		selection("s1", 5*time.Minute, "A", "B"),
		selection("s1", 12*time.Minute, "C"),
	}
	opts := defaultOptions()
	opts.IncludeStayed = true

	records := DetectTransitions("s1", events, opts)

	assert.Equal(t, []pair{
		{"<nil>", "B"},
		{"A", "A"},
		{"A", "C"},
		{"B", "C"},
	}, pairs(records))
}

func TestDetectTransitions_EmptyEndpoints(t *testing.T) {
	events := []entities.NormalizedEvent{
		selection("s1", 0),
		selection("s1", time.Minute),
	}

	assert.Empty(t, DetectTransitions("s1", events, defaultOptions()))
}

func TestDetectTransitions_RemovedWithoutReplacement(t *testing.T) {
	events := []entities.NormalizedEvent{
		selection("s1", 0, "A", "B"),
		selection("s1", time.Minute),
	}

	assert.Equal(t, []pair{{"A", "<nil>"}, {"B", "<nil>"}}, pairs(DetectTransitions("s1", events, defaultOptions())))
}

func TestDetectTransitions_WindowBoundaryIsInclusive(t *testing.T) {
	events := []entities.NormalizedEvent{
		selection("s1", 0, "A"),
		selection("s1", 10*time.Minute, "B"),
	}

	assert.Equal(t, []pair{{"A", "B"}}, pairs(DetectTransitions("s1", events, defaultOptions())))
}

func TestDetectTransitions_ComparesFurthestEventInWindow(t *testing.T) {
	events := []entities.NormalizedEvent{
		selection("s1", 0, "A"),
		selection("s1", 2*time.Minute, "B"),
		selection("s1", 4*time.Minute, "A"),
	}

	// A->A at the outer pair hides the intermediate B.
	assert.Equal(t, []pair{{"B", "A"}}, pairs(DetectTransitions("s1", events, defaultOptions())))
}

func TestDetectTransitions_SingleEvent(t *testing.T) {
	assert.Empty(t, DetectTransitions("s1", []entities.NormalizedEvent{selection("s1", 0, "A")}, defaultOptions()))
	assert.Empty(t, DetectTransitions("s1", nil, defaultOptions()))
}

func TestDetectTransitions_SkipEmpty(t *testing.T) {
	events := []entities.NormalizedEvent{
		selection("s1", 0, "A"),
		selection("s1", 5*time.Minute),
		selection("s1", 8*time.Minute, "B"),
	}
	opts := defaultOptions()
	opts.Window = 6 * time.Minute

	assert.Equal(t, []pair{{"A", "<nil>"}, {"<nil>", "B"}}, pairs(DetectTransitions("s1", events, opts)))

	opts.SkipEmpty = true
	assert.Empty(t, DetectTransitions("s1", events, opts), "A and B are more than 6 minutes apart")
}

// bruteForce is the quadratic reference: each start scans forward to the
// furthest event still inside the window.
func bruteForce(events []entities.NormalizedEvent, opts SwitchOptions) []pair {
	var out []pair
	for i := range events {
		end := i
		for j := i + 1; j < len(events); j++ {
			if events[j].CreatedAt.Sub(events[i].CreatedAt) <= opts.Window {
				end = j
			}
		}
		if end == i {
			continue
		}
		out = append(out, pairs(DetectTransitions("s", []entities.NormalizedEvent{events[i], events[end]}, opts))...)
	}
	return out
}

func TestDetectTransitions_MatchesQuadraticScan(t *testing.T) {
	offsets := []time.Duration{0, 1, 3, 4, 9, 15, 16, 30, 31, 33, 50}
	values := [][]string{{"A"}, {"B"}, {"A", "B"}, {}, {"C"}, {"C"}, {"A"}, {}, {"B", "C"}, {"D"}, {"A"}}

	events := make([]entities.NormalizedEvent, len(offsets))
	for i := range offsets {
		events[i] = selection("s", offsets[i]*time.Minute, values[i]...)
	}

	opts := defaultOptions()
	expected := bruteForce(events, opts)
	if expected == nil {
		expected = []pair{}
	}
	assert.Equal(t, expected, pairs(DetectTransitions("s", events, opts)))
}

func TestAnalyzeSwitches_GroupsBySession(t *testing.T) {
	events := []entities.NormalizedEvent{
		selection("s2", 0, "A"),
		selection("s1", 0, "A"),
		selection("s2", time.Minute, "B"),
		selection("s1", time.Minute, "B"),
		selection("s3", 0, "C"),
	}

	records, err := AnalyzeSwitches(context.Background(), events, defaultOptions())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "s1", records[0].SessionID)
	assert.Equal(t, "s2", records[1].SessionID)

	opts := defaultOptions()
	opts.ByVisit = true
	records, err = AnalyzeSwitches(context.Background(), events, opts)
	require.NoError(t, err)
	assert.Equal(t, "visit-s1", records[0].SessionID)
}

func TestAnalyzeSwitches_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AnalyzeSwitches(ctx, []entities.NormalizedEvent{selection("s1", 0, "A")}, defaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCountTransitions(t *testing.T) {
	a, b, c := "A", "B", "C"
	records := []entities.TransitionRecord{
		{From: &a, To: &c},
		{From: &b, To: &c},
		{From: &a, To: &c},
		{From: nil, To: &b},
		{From: &a, To: nil},
		{From: nil, To: &b},
		{From: &b, To: &a},
	}

	counts := CountTransitions(records)

	require.Len(t, counts, 5)
	assert.Equal(t, 2, counts[0].Count)
	assert.Nil(t, counts[0].From)
	assert.Equal(t, "B", *counts[0].To)
	assert.Equal(t, "A", *counts[1].From)
	assert.Equal(t, "C", *counts[1].To)
	assert.Equal(t, 2, counts[1].Count)
	assert.Equal(t, "A", *counts[2].From)
	assert.Nil(t, counts[2].To)
	assert.Equal(t, 1, counts[4].Count)
	assert.Equal(t, "B", *counts[4].From)
	assert.Equal(t, "C", *counts[4].To)
}

func TestCountTransitions_Empty(t *testing.T) {
	assert.Empty(t, CountTransitions(nil))
}
