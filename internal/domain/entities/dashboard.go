package entities

import "time"

// ValueCount is a value with the number of rows it occurs in.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PeriodCount counts rows falling into a calendar period such as
// "2024-03", "2024-W11" or "2024-Q1".
type PeriodCount struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// PeriodTop is the most popular value of a field inside [Start, End).
type PeriodTop struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Value string    `json:"value,omitempty"`
	Count int       `json:"count"`
}

// Overview is the landing dashboard.
type Overview struct {
	GeneratedAt          time.Time   `json:"generated_at"`
	UniqueVisitors       int         `json:"unique_visitors"`
	UniqueVisitorsLast24 int         `json:"unique_visitors_last_24h"`
	Field                string      `json:"field"`
	MostPopular          *PeriodTop  `json:"most_popular,omitempty"`
	Periods              []PeriodTop `json:"periods"`
}

// ClickImpressionMetric counts Click and Impression events for a filter value.
type ClickImpressionMetric struct {
	Value       string `json:"value"`
	Clicks      int    `json:"clicks"`
	Impressions int    `json:"impressions"`
}

// ClickImpressionReport ranks filter values by clicks and by impressions.
type ClickImpressionReport struct {
	Field             string                  `json:"field"`
	TopClicks         []ClickImpressionMetric `json:"top_clicks"`
	BottomClicks      []ClickImpressionMetric `json:"bottom_clicks"`
	TopImpressions    []ClickImpressionMetric `json:"top_impressions"`
	BottomImpressions []ClickImpressionMetric `json:"bottom_impressions"`
}

// MonthlySelection counts single-value selections of a field per month.
type MonthlySelection struct {
	Month      time.Time `json:"month" db:"month"`
	Value      string    `json:"value" db:"value"`
	Count      int       `json:"count" db:"count"`
	Cumulative int       `json:"cumulative" db:"-"`
}

// FilterTrendReport is the filter popularity dashboard.
type FilterTrendReport struct {
	Field   string             `json:"field"`
	Top     []ValueCount       `json:"top"`
	Monthly []MonthlySelection `json:"monthly"`
}

// ShareCount is a category value with its share of the total.
type ShareCount struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// SessionReport is the umami session dashboard.
type SessionReport struct {
	Daily      []PeriodCount           `json:"daily"`
	Weekly     []PeriodCount           `json:"weekly"`
	Monthly    []PeriodCount           `json:"monthly"`
	Quarterly  []PeriodCount           `json:"quarterly"`
	Yearly     []PeriodCount           `json:"yearly"`
	Categories map[string][]ShareCount `json:"categories"`
}

// ScreentimeSummary describes per-session durations in seconds.
type ScreentimeSummary struct {
	Sessions    int     `json:"sessions"`
	P25Seconds  float64 `json:"p25_seconds"`
	P75Seconds  float64 `json:"p75_seconds"`
	MeanSeconds float64 `json:"mean_seconds"`
	SampleSize  int     `json:"sample_size"`
}

// ExploreResult is the subset of mentor clicks matching substring filters.
type ExploreResult struct {
	Total   int           `json:"total"`
	Matched int           `json:"matched"`
	Percent float64       `json:"percent"`
	Rows    []MentorClick `json:"rows"`
}
