package repositories

import (
	"context"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
)

// MentorClickRepository persists mentor clicks to the analytics warehouse.
type MentorClickRepository interface {
	// ReplaceMentorClicks recreates the table with one list column per
	// tracked field and loads clicks into it atomically.
	ReplaceMentorClicks(ctx context.Context, fields []string, clicks []entities.MentorClick) error

	// TopSingleSelections counts rows where exactly one value of field was
	// selected, most frequent first.
	TopSingleSelections(ctx context.Context, field string, limit int) ([]entities.ValueCount, error)

	// MonthlySelections counts single-value selections of field per month,
	// restricted to values.
	MonthlySelections(ctx context.Context, field string, values []string) ([]entities.MonthlySelection, error)
}
