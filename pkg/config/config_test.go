package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_TypesenseConfig(t *testing.T) {
	t.Setenv("TYPESENSE_URL", "http://test-typesense:8108")
	t.Setenv("TYPESENSE_API_KEY", "test-key")
	t.Setenv("TYPESENSE_MENTORS_COLLECTION", "mentors_v2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://test-typesense:8108", cfg.Typesense.URL)
	assert.Equal(t, "test-key", cfg.Typesense.APIKey)
	assert.Equal(t, "mentors_v2", cfg.Typesense.MentorsCollection)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, []string{"industries", "organisation", "course_of_study", "school"}, cfg.Analytics.TrackedFields)
	assert.Equal(t, 15*time.Minute, cfg.Analytics.WorkspaceTTL)
	assert.Equal(t, 10*time.Minute, cfg.Analytics.SwitchWindow)
	assert.Equal(t, "/mentors", cfg.Analytics.MentorPathPrefix)
	assert.Equal(t, 3306, cfg.Umami.Port)
	assert.Equal(t, "localhost:3306", cfg.Umami.Addr())
}

func TestLoad_AnalyticsOverrides(t *testing.T) {
	t.Setenv("TRACKED_FIELDS", " industries , school,,")
	t.Setenv("WORKSPACE_TTL", "30s")
	t.Setenv("SWITCH_WINDOW", "5m")
	t.Setenv("NORMALIZE_WORKERS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"industries", "school"}, cfg.Analytics.TrackedFields)
	assert.Equal(t, 30*time.Second, cfg.Analytics.WorkspaceTTL)
	assert.Equal(t, 5*time.Minute, cfg.Analytics.SwitchWindow)
	assert.Equal(t, 1, cfg.Analytics.NormalizeWorkers)
	assert.True(t, cfg.Analytics.IsTracked("school"))
	assert.False(t, cfg.Analytics.IsTracked("organisation"))
}

func TestLoad_RejectsUnsafeTrackedFields(t *testing.T) {
	testCases := []struct {
		name   string
		fields string
	}{
		{"sql injection", "industries;drop table x"},
		{"upper case", "Industries"},
		{"reserved column", "industries,visit_id"},
		{"duplicate", "school,school"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TRACKED_FIELDS", tc.fields)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
