package repositories

import (
	"context"
	"io"
)

// MentorIndexRepository exports the mentor search index.
type MentorIndexRepository interface {
	// ExportProfiles writes every mentor profile to w as newline-delimited
	// JSON and returns the number of documents written.
	ExportProfiles(ctx context.Context, w io.Writer) (int, error)
}
