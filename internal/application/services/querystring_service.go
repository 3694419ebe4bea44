package services

import (
	"context"
	"fmt"

	"github.com/AdvisorySG/mentorship-analytics/internal/analysis"
	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	apperrors "github.com/AdvisorySG/mentorship-analytics/pkg/errors"
	"github.com/AdvisorySG/mentorship-analytics/pkg/querystring"
)

// MaxNormalizeBatch bounds the rows accepted by one normalize request
const MaxNormalizeBatch = 10000

// QueryStringService exposes the query-string parser and the event
// normalizer to callers outside the workspace.
type QueryStringService struct {
	normalizer *analysis.Normalizer
}

// NewQueryStringService creates a new query string service
func NewQueryStringService(normalizer *analysis.Normalizer) *QueryStringService {
	return &QueryStringService{normalizer: normalizer}
}

// Parse reconstructs the search term and filters of a raw query string
func (s *QueryStringService) Parse(raw string) querystring.ParsedQuery {
	return querystring.Parse(raw)
}

// Normalize projects a batch of raw events onto the tracked fields
func (s *QueryStringService) Normalize(ctx context.Context, events []entities.WebsiteEvent) ([]entities.NormalizedEvent, error) {
	if len(events) > MaxNormalizeBatch {
		return nil, apperrors.NewValidationError(fmt.Sprintf("at most %d rows can be normalized at once", MaxNormalizeBatch))
	}
	normalized, err := s.normalizer.NormalizeBatch(ctx, events)
	if err != nil {
		return nil, apperrors.NewInternalError("normalization cancelled", err)
	}
	return normalized, nil
}

// Fields returns the tracked fields
func (s *QueryStringService) Fields() []string {
	return s.normalizer.Fields()
}
