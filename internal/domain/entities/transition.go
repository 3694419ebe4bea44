package entities

import "time"

// TransitionRecord is one filter-value change observed inside a session
// window. A nil From means the value was newly introduced; a nil To means the
// value was dropped with nothing added in its place.
type TransitionRecord struct {
	From        *string   `json:"from"`
	To          *string   `json:"to"`
	SessionID   string    `json:"session_id"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// TransitionCount aggregates identical (from, to) pairs across sessions.
type TransitionCount struct {
	From  *string `json:"from"`
	To    *string `json:"to"`
	Count int     `json:"count"`
}

// SwitchReport is the transition dashboard for one field.
type SwitchReport struct {
	Field         string            `json:"field"`
	WindowSeconds float64           `json:"window_seconds"`
	IncludeStayed bool              `json:"include_stayed"`
	SkipEmpty     bool              `json:"skip_empty"`
	Records       int               `json:"records"`
	Transitions   []TransitionCount `json:"transitions"`
}
