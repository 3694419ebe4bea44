package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AdvisorySG/mentorship-analytics/internal/analysis"
	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	"github.com/AdvisorySG/mentorship-analytics/pkg/config"
)

// DefaultFields are the facets tracked when --fields is not given
var DefaultFields = []string{"industries", "organisation", "course_of_study", "school"}

// NewNormalizeCmd creates the 'normalize' command. It reads website events as
// JSON lines and writes the normalized events as JSON lines.
func NewNormalizeCmd() *cobra.Command {
	var fields []string
	var workers int

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Project website events onto the tracked fields",
		Long: `Read umami website_event rows as JSON lines on stdin and print each row
with its page and referrer filter state projected onto the tracked fields.`,
		Example: `  querytool normalize --fields industries,school < events.ndjson`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, field := range fields {
				if !config.IsIdentifier(field) {
					return fmt.Errorf("invalid field name %q", field)
				}
			}
			events, err := readEvents(cmd.InOrStdin())
			if err != nil {
				return err
			}
			normalized, err := analysis.NewNormalizer(fields, workers).NormalizeBatch(cmd.Context(), events)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, ev := range normalized {
				if err := enc.Encode(ev); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&fields, "fields", "f", DefaultFields, "Tracked fields")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Parallel normalization workers")

	return cmd
}

func readEvents(in io.Reader) ([]entities.WebsiteEvent, error) {
	var events []entities.WebsiteEvent
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var ev entities.WebsiteEvent
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	return events, scanner.Err()
}
