package analysis

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
)

// UnknownColumnError reports a filter on a column the clicks table lacks.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

// ExploreColumns lists the filterable mentor-click columns.
func ExploreColumns(fields []string) []string {
	return append([]string{"search_query", "visit_id"}, fields...)
}

// ExploreMentorClicks keeps clicks whose columns contain every given
// substring, case-insensitively. Empty substrings match everything.
func ExploreMentorClicks(clicks []entities.MentorClick, fields []string, filters map[string]string) (entities.ExploreResult, error) {
	allowed := ExploreColumns(fields)
	columns := make([]string, 0, len(filters))
	for column := range filters {
		if !slices.Contains(allowed, column) {
			return entities.ExploreResult{}, &UnknownColumnError{Column: column}
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	result := entities.ExploreResult{Total: len(clicks), Rows: []entities.MentorClick{}}
	for _, c := range clicks {
		if matchesAll(c, columns, filters) {
			result.Rows = append(result.Rows, c)
		}
	}
	result.Matched = len(result.Rows)
	if result.Total > 0 {
		result.Percent = float64(result.Matched) / float64(result.Total) * 100
	}
	return result, nil
}

func matchesAll(c entities.MentorClick, columns []string, filters map[string]string) bool {
	for _, column := range columns {
		needle := strings.ToLower(filters[column])
		if needle == "" {
			continue
		}
		value, _ := c.Column(column)
		if !strings.Contains(strings.ToLower(value), needle) {
			return false
		}
	}
	return true
}
