package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	apperrors "github.com/AdvisorySG/mentorship-analytics/pkg/errors"
)

var (
	trackedFields = []string{"industries", "organisation", "course_of_study", "school"}
	baseTime      = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
)

func mentorView(id, visit string, offset time.Duration, urlQuery string) entities.WebsiteEvent {
	return entities.WebsiteEvent{
		EventID:      id,
		SessionID:    "s-" + visit,
		VisitID:      visit,
		CreatedAt:    baseTime.Add(offset),
		URLPath:      "/mentors",
		URLQuery:     urlQuery,
		ReferrerPath: "/mentors",
		EventType:    entities.EventTypePageView,
	}
}

type workspaceFixture struct {
	service *WorkspaceService
	events  *mockEventRepository
	index   *mockMentorIndex
	clicks  *mockMentorClicks
	clock   *time.Time
}

func newWorkspaceFixture(t *testing.T) *workspaceFixture {
	t.Helper()
	f := &workspaceFixture{
		events: &mockEventRepository{},
		index:  &mockMentorIndex{},
		clicks: &mockMentorClicks{},
	}
	f.service = NewWorkspaceService(f.events, f.index, f.clicks, WorkspaceOptions{
		Fields:           trackedFields,
		TTL:              15 * time.Minute,
		MentorPathPrefix: "/mentors",
		Workers:          2,
		SpoolDir:         t.TempDir(),
	}, nil)
	clock := baseTime.Add(time.Hour)
	f.clock = &clock
	f.service.now = func() time.Time { return *f.clock }
	return f
}

func (f *workspaceFixture) expectSources(times int) {
	events := []entities.WebsiteEvent{
		mentorView("e1", "v1", 0, "filters[0][field]=industries&filters[0][values][0]=Legal"),
		mentorView("e2", "v2", time.Minute, "q=law"),
	}
	sessions := []entities.Session{{SessionID: "s-v1", Browser: "chrome", CreatedAt: baseTime}}

	f.events.On("ListWebsiteEvents", mock.Anything, time.Time{}).Return(events, nil).Times(times)
	f.events.On("ListSessions", mock.Anything, time.Time{}).Return(sessions, nil).Times(times)
	f.index.On("ExportProfiles", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			enc := json.NewEncoder(args.Get(1).(io.Writer))
			enc.Encode(entities.MentorProfile{ID: "m1", School: "NUS", Industries: []string{"Legal"}})
			enc.Encode(entities.MentorProfile{ID: "m2", School: "SMU"})
		}).
		Return(2, nil).Times(times)
	f.clicks.On("ReplaceMentorClicks", mock.Anything, trackedFields, mock.AnythingOfType("[]entities.MentorClick")).
		Return(nil).Times(times)
}

func TestWorkspaceService_GetBuildsOnceWithinTTL(t *testing.T) {
	f := newWorkspaceFixture(t)
	f.expectSources(1)

	ws, err := f.service.Get(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, ws.Generation)
	assert.Len(t, ws.Events, 2)
	assert.Len(t, ws.Normalized, 2)
	assert.Len(t, ws.Sessions, 1)
	require.Len(t, ws.Profiles, 2)
	assert.Equal(t, []string{"Legal"}, ws.Profiles[0].Industries)
	assert.Len(t, ws.MentorClicks, 2)

	*f.clock = f.clock.Add(14 * time.Minute)
	again, err := f.service.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, ws, again)
	assert.Equal(t, ws.Generation, f.service.CacheVersion())

	f.events.AssertExpectations(t)
	f.index.AssertExpectations(t)
	f.clicks.AssertExpectations(t)
}

func TestWorkspaceService_RebuildsAfterExpiry(t *testing.T) {
	f := newWorkspaceFixture(t)
	f.expectSources(2)

	first, err := f.service.Get(context.Background())
	require.NoError(t, err)
	firstSpool := first.spoolPath
	require.FileExists(t, firstSpool)

	*f.clock = f.clock.Add(15 * time.Minute)
	assert.Equal(t, "", f.service.CacheVersion())

	second, err := f.service.Get(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.Generation, second.Generation)
	assert.NoFileExists(t, firstSpool)
	assert.FileExists(t, second.spoolPath)
}

func TestWorkspaceService_FailedRefreshKeepsPrevious(t *testing.T) {
	f := newWorkspaceFixture(t)
	f.expectSources(1)

	first, err := f.service.Get(context.Background())
	require.NoError(t, err)

	f.events.On("ListWebsiteEvents", mock.Anything, time.Time{}).
		Return(nil, apperrors.NewExternalError("failed to query umami website events", errors.New("timeout"))).Once()
	f.events.On("ListSessions", mock.Anything, time.Time{}).Return([]entities.Session{}, nil).Maybe()
	f.index.On("ExportProfiles", mock.Anything, mock.Anything).Return(0, nil).Maybe()

	_, err = f.service.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	assert.Equal(t, first.Generation, f.service.CacheVersion())
	assert.FileExists(t, first.spoolPath)

	entries, err := os.ReadDir(f.service.opts.SpoolDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the failed build's spool is removed")
}

func TestWorkspaceService_WarehouseFailure(t *testing.T) {
	f := newWorkspaceFixture(t)
	f.events.On("ListWebsiteEvents", mock.Anything, mock.Anything).Return([]entities.WebsiteEvent{}, nil)
	f.events.On("ListSessions", mock.Anything, mock.Anything).Return([]entities.Session{}, nil)
	f.index.On("ExportProfiles", mock.Anything, mock.Anything).Return(0, nil)
	f.clicks.On("ReplaceMentorClicks", mock.Anything, mock.Anything, mock.Anything).
		Return(apperrors.NewInternalError("failed to commit mentor clicks", errors.New("conflict")))

	_, err := f.service.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, "", f.service.CacheVersion())
}

func TestWorkspaceService_LookbackBoundsSourceQueries(t *testing.T) {
	f := newWorkspaceFixture(t)
	f.service.opts.Lookback = 30 * 24 * time.Hour
	since := f.clock.Add(-30 * 24 * time.Hour)

	f.events.On("ListWebsiteEvents", mock.Anything, since).Return([]entities.WebsiteEvent{}, nil).Once()
	f.events.On("ListSessions", mock.Anything, since).Return([]entities.Session{}, nil).Once()
	f.index.On("ExportProfiles", mock.Anything, mock.Anything).Return(0, nil).Once()
	f.clicks.On("ReplaceMentorClicks", mock.Anything, trackedFields, mock.Anything).Return(nil).Once()

	_, err := f.service.Get(context.Background())
	require.NoError(t, err)
	f.events.AssertExpectations(t)
}

func TestWorkspaceService_ShutdownRemovesSpool(t *testing.T) {
	f := newWorkspaceFixture(t)
	f.expectSources(1)

	ws, err := f.service.Get(context.Background())
	require.NoError(t, err)
	spool := ws.spoolPath
	require.FileExists(t, spool)

	f.service.Shutdown()

	assert.NoFileExists(t, spool)
	assert.Equal(t, "", f.service.CacheVersion())
	f.service.Shutdown()
}
