package services

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
)

type mockEventRepository struct {
	mock.Mock
}

func (m *mockEventRepository) ListWebsiteEvents(ctx context.Context, since time.Time) ([]entities.WebsiteEvent, error) {
	args := m.Called(ctx, since)
	events, _ := args.Get(0).([]entities.WebsiteEvent)
	return events, args.Error(1)
}

func (m *mockEventRepository) ListSessions(ctx context.Context, since time.Time) ([]entities.Session, error) {
	args := m.Called(ctx, since)
	sessions, _ := args.Get(0).([]entities.Session)
	return sessions, args.Error(1)
}

type mockMentorIndex struct {
	mock.Mock
}

func (m *mockMentorIndex) ExportProfiles(ctx context.Context, w io.Writer) (int, error) {
	args := m.Called(ctx, w)
	return args.Int(0), args.Error(1)
}

type mockMentorClicks struct {
	mock.Mock
}

func (m *mockMentorClicks) ReplaceMentorClicks(ctx context.Context, fields []string, clicks []entities.MentorClick) error {
	return m.Called(ctx, fields, clicks).Error(0)
}

func (m *mockMentorClicks) TopSingleSelections(ctx context.Context, field string, limit int) ([]entities.ValueCount, error) {
	args := m.Called(ctx, field, limit)
	counts, _ := args.Get(0).([]entities.ValueCount)
	return counts, args.Error(1)
}

func (m *mockMentorClicks) MonthlySelections(ctx context.Context, field string, values []string) ([]entities.MonthlySelection, error) {
	args := m.Called(ctx, field, values)
	monthly, _ := args.Get(0).([]entities.MonthlySelection)
	return monthly, args.Error(1)
}

type stubWorkspace struct {
	ws  *Workspace
	err error
}

func (s *stubWorkspace) Get(ctx context.Context) (*Workspace, error) {
	return s.ws, s.err
}
