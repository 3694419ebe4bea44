package search

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	"github.com/AdvisorySG/mentorship-analytics/internal/domain/repositories"
	tsclient "github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/clients/typesense"
	apperrors "github.com/AdvisorySG/mentorship-analytics/pkg/errors"
)

// Typesense caps per_page at 250.
const exportPageSize = 250

// MentorIndexAdapter reads mentor profiles from a Typesense collection
type MentorIndexAdapter struct {
	client     *tsclient.Client
	collection string
}

var _ repositories.MentorIndexRepository = (*MentorIndexAdapter)(nil)

// NewMentorIndexAdapter creates a new mentor index adapter
func NewMentorIndexAdapter(client *tsclient.Client, collection string) *MentorIndexAdapter {
	return &MentorIndexAdapter{client: client, collection: collection}
}

// ExportProfiles pages through the whole collection and writes one JSON
// profile per line to w.
func (a *MentorIndexAdapter) ExportProfiles(ctx context.Context, w io.Writer) (int, error) {
	enc := json.NewEncoder(w)
	written := 0

	for page := 1; ; page++ {
		params := &api.SearchCollectionParams{
			Q:       pointer.String("*"),
			QueryBy: pointer.String("name"),
			Page:    pointer.Int(page),
			PerPage: pointer.Int(exportPageSize),
		}

		result, err := a.client.Client().Collection(a.collection).Documents().Search(ctx, params)
		if err != nil {
			return written, apperrors.NewExternalError("failed to read mentor index", err)
		}
		if result.Hits == nil || len(*result.Hits) == 0 {
			break
		}

		for _, hit := range *result.Hits {
			if hit.Document == nil {
				continue
			}
			if err := enc.Encode(ProfileFromDocument(*hit.Document)); err != nil {
				return written, apperrors.NewInternalError("failed to spool mentor profile", err)
			}
			written++
		}

		if len(*result.Hits) < exportPageSize {
			break
		}
		if result.Found != nil && page*exportPageSize >= *result.Found {
			break
		}
	}

	log.Info().Str("collection", a.collection).Int("profiles", written).Msg("Exported mentor index")
	return written, nil
}

// ProfileFromDocument maps a search document onto a profile. Numbers are
// rendered as strings and a scalar industries value becomes a one-element
// list.
func ProfileFromDocument(doc map[string]interface{}) entities.MentorProfile {
	return entities.MentorProfile{
		ID:            stringField(doc, "id"),
		Name:          stringField(doc, "name"),
		Role:          stringField(doc, "role"),
		Organisation:  stringField(doc, "organisation"),
		School:        stringField(doc, "school"),
		CourseOfStudy: stringField(doc, "course_of_study"),
		WaveID:        stringField(doc, "wave_id"),
		Industries:    listField(doc, "industries"),
	}
}

func stringField(doc map[string]interface{}, key string) string {
	return toString(doc[key])
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func listField(doc map[string]interface{}, key string) []string {
	var raw []interface{}
	switch t := doc[key].(type) {
	case []interface{}:
		raw = t
	case nil:
		return []string{}
	default:
		raw = []interface{}{t}
	}

	values := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, item := range raw {
		s := toString(item)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		values = append(values, s)
	}
	return values
}
