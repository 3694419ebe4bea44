package entities

import "time"

// Umami event types.
const (
	EventTypePageView    = 1
	EventTypeCustomEvent = 2
)

// Custom event names emitted by the mentor directory.
const (
	EventNameClick      = "Click"
	EventNameImpression = "Impression"
)

// WebsiteEvent is one row of the umami website_event table.
type WebsiteEvent struct {
	EventID        string    `json:"event_id" db:"event_id"`
	WebsiteID      string    `json:"website_id" db:"website_id"`
	SessionID      string    `json:"session_id" db:"session_id"`
	VisitID        string    `json:"visit_id" db:"visit_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	URLPath        string    `json:"url_path" db:"url_path"`
	URLQuery       string    `json:"url_query" db:"url_query"`
	ReferrerPath   string    `json:"referrer_path" db:"referrer_path"`
	ReferrerQuery  string    `json:"referrer_query" db:"referrer_query"`
	ReferrerDomain string    `json:"referrer_domain" db:"referrer_domain"`
	PageTitle      string    `json:"page_title" db:"page_title"`
	EventType      int       `json:"event_type" db:"event_type"`
	EventName      string    `json:"event_name" db:"event_name"`
}

// Session is one row of the umami session table.
type Session struct {
	SessionID string    `json:"session_id" db:"session_id"`
	WebsiteID string    `json:"website_id" db:"website_id"`
	Hostname  string    `json:"hostname" db:"hostname"`
	Browser   string    `json:"browser" db:"browser"`
	OS        string    `json:"os" db:"os"`
	Device    string    `json:"device" db:"device"`
	Screen    string    `json:"screen" db:"screen"`
	Language  string    `json:"language" db:"language"`
	Country   string    `json:"country" db:"country"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Attribute returns a categorical session attribute by column name.
func (s Session) Attribute(name string) (string, bool) {
	switch name {
	case "hostname":
		return s.Hostname, true
	case "browser":
		return s.Browser, true
	case "os":
		return s.OS, true
	case "device":
		return s.Device, true
	case "screen":
		return s.Screen, true
	case "language":
		return s.Language, true
	case "country":
		return s.Country, true
	default:
		return "", false
	}
}
