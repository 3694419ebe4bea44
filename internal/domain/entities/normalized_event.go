package entities

import (
	"strings"
	"time"
)

// NormalizedEvent is a website event with the filter state of its page and of
// its referrer projected onto the tracked fields. Every tracked field has an
// entry, empty when the field was not selected.
type NormalizedEvent struct {
	EventID             string              `json:"event_id"`
	SessionID           string              `json:"session_id"`
	VisitID             string              `json:"visit_id"`
	CreatedAt           time.Time           `json:"created_at"`
	EventType           int                 `json:"event_type"`
	EventName           string              `json:"event_name,omitempty"`
	URLPath             string              `json:"url_path"`
	SearchQuery         *string             `json:"search_query"`
	Filters             map[string][]string `json:"filters"`
	ReferrerSearchQuery *string             `json:"referrer_search_query"`
	ReferrerFilters     map[string][]string `json:"referrer_filters"`
}

// Selection returns the values selected for field on the event's page.
func (e NormalizedEvent) Selection(field string) []string {
	return e.Filters[field]
}

// FirstSelection returns the first value selected for field.
func (e NormalizedEvent) FirstSelection(field string) (string, bool) {
	values := e.Filters[field]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// MentorClick is a mentor directory interaction that changed the search state.
type MentorClick struct {
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	VisitID     string              `json:"visit_id" db:"visit_id"`
	SearchQuery *string             `json:"search_query" db:"search_query"`
	Filters     map[string][]string `json:"filters"`
}

// Column returns the textual value of a mentor-click column. List columns are
// joined with ", ".
func (c MentorClick) Column(name string) (string, bool) {
	switch name {
	case "visit_id":
		return c.VisitID, true
	case "search_query":
		if c.SearchQuery == nil {
			return "", true
		}
		return *c.SearchQuery, true
	}
	values, ok := c.Filters[name]
	if !ok {
		return "", false
	}
	return strings.Join(values, ", "), true
}
