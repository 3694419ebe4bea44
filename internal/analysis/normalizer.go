// Package analysis turns raw website events into per-field filter selections
// and derives the behavioural aggregates shown on the dashboards.
package analysis

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	"github.com/AdvisorySG/mentorship-analytics/pkg/querystring"
)

// pagePrefix turns a bare url_query column into a page URL fragment.
const pagePrefix = "/?"

// Normalizer projects reconstructed query strings onto a fixed list of
// tracked fields. It is safe for concurrent use.
type Normalizer struct {
	fields  []string
	workers int
}

// NewNormalizer creates a normalizer for fields. workers bounds the
// parallelism of NormalizeBatch.
func NewNormalizer(fields []string, workers int) *Normalizer {
	if workers < 1 {
		workers = 1
	}
	return &Normalizer{
		fields:  append([]string(nil), fields...),
		workers: workers,
	}
}

// Fields returns the tracked fields in configuration order.
func (n *Normalizer) Fields() []string {
	return append([]string(nil), n.fields...)
}

// Project parses rawQuery and returns the search term plus one entry per
// tracked field. A query that cannot be parsed yields an empty projection.
func (n *Normalizer) Project(rawQuery string) (*string, map[string][]string) {
	parsed, ok := safeParse(pagePrefix + strings.TrimPrefix(rawQuery, "?"))
	filters := make(map[string][]string, len(n.fields))
	for _, field := range n.fields {
		filters[field] = []string{}
	}
	if !ok {
		return nil, filters
	}
	for _, field := range n.fields {
		if values := parsed.Values(field); len(values) > 0 {
			filters[field] = append([]string{}, values...)
		}
	}
	return parsed.SearchQuery, filters
}

// Normalize converts one website event. It never fails.
func (n *Normalizer) Normalize(event entities.WebsiteEvent) entities.NormalizedEvent {
	search, filters := n.Project(event.URLQuery)
	refSearch, refFilters := n.Project(event.ReferrerQuery)
	return entities.NormalizedEvent{
		EventID:             event.EventID,
		SessionID:           event.SessionID,
		VisitID:             event.VisitID,
		CreatedAt:           event.CreatedAt,
		EventType:           event.EventType,
		EventName:           event.EventName,
		URLPath:             event.URLPath,
		SearchQuery:         search,
		Filters:             filters,
		ReferrerSearchQuery: refSearch,
		ReferrerFilters:     refFilters,
	}
}

// NormalizeBatch normalizes events in parallel. The output is index-aligned
// with the input. Only context cancellation is reported as an error.
func (n *Normalizer) NormalizeBatch(ctx context.Context, events []entities.WebsiteEvent) ([]entities.NormalizedEvent, error) {
	out := make([]entities.NormalizedEvent, len(events))
	if len(events) == 0 {
		return out, nil
	}

	chunk := (len(events) + n.workers - 1) / n.workers
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers)

	for start := 0; start < len(events); start += chunk {
		end := min(start+chunk, len(events))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%512 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				out[i] = n.Normalize(events[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// safeParse shields callers from a panic while parsing a single row.
func safeParse(raw string) (parsed querystring.ParsedQuery, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Interface("panic", r).
				Str("query", raw).
				Msg("Failed to parse query string, using empty projection")
			parsed, ok = querystring.ParsedQuery{}, false
		}
	}()
	return querystring.Parse(raw), true
}
