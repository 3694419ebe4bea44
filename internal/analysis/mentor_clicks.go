package analysis

import (
	"sort"
	"strings"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	"github.com/AdvisorySG/mentorship-analytics/pkg/querystring"
)

// SearchParams returns the search-state fragments of a raw query string in
// sorted order, so that two queries describing the same state compare equal.
func SearchParams(rawQuery string) string {
	var params []string
	for _, fragment := range querystring.SplitFragments(rawQuery) {
		if strings.HasPrefix(fragment, "q") || strings.HasPrefix(fragment, "filters") {
			params = append(params, fragment)
		}
	}
	sort.Strings(params)
	return strings.Join(params, "&")
}

// SelectMentorClicks keeps page views inside the mentor directory whose
// search state differs from the referring page. Repeats of the same change
// within a visit collapse onto the most recent one. The result is ordered
// newest first.
func (n *Normalizer) SelectMentorClicks(events []entities.WebsiteEvent, pathPrefix string) []entities.MentorClick {
	type dedupeKey struct {
		url, referrer, visit string
	}
	latest := make(map[dedupeKey]entities.WebsiteEvent)

	for _, e := range events {
		if e.EventType != entities.EventTypePageView {
			continue
		}
		if !strings.HasPrefix(e.URLPath, pathPrefix) || !strings.HasPrefix(e.ReferrerPath, pathPrefix) {
			continue
		}
		key := dedupeKey{
			url:      SearchParams(e.URLQuery),
			referrer: SearchParams(e.ReferrerQuery),
			visit:    e.VisitID,
		}
		if key.url == key.referrer {
			continue
		}
		if prev, ok := latest[key]; !ok || e.CreatedAt.After(prev.CreatedAt) {
			latest[key] = e
		}
	}

	kept := make([]entities.WebsiteEvent, 0, len(latest))
	for _, e := range latest {
		kept = append(kept, e)
	}
	sort.Slice(kept, func(i, j int) bool {
		if !kept[i].CreatedAt.Equal(kept[j].CreatedAt) {
			return kept[i].CreatedAt.After(kept[j].CreatedAt)
		}
		return kept[i].EventID < kept[j].EventID
	})

	clicks := make([]entities.MentorClick, 0, len(kept))
	for _, e := range kept {
		search, filters := n.Project(e.URLQuery)
		clicks = append(clicks, entities.MentorClick{
			CreatedAt:   e.CreatedAt,
			VisitID:     e.VisitID,
			SearchQuery: search,
			Filters:     filters,
		})
	}
	return clicks
}
