package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	"github.com/AdvisorySG/mentorship-analytics/internal/domain/repositories"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/clients/mysql"
	apperrors "github.com/AdvisorySG/mentorship-analytics/pkg/errors"
)

// UmamiEventAdapter reads website events and sessions from the umami
// database. It never writes.
type UmamiEventAdapter struct {
	client *mysql.Client
	db     *goqu.Database
}

// NewUmamiEventAdapter creates a new umami event adapter.
func NewUmamiEventAdapter(client *mysql.Client) repositories.EventRepository {
	return &UmamiEventAdapter{
		client: client,
		db:     goqu.New("mysql", client.DB()),
	}
}

var websiteEventColumns = []interface{}{
	"event_id", "website_id", "session_id", "visit_id", "created_at",
	"url_path", "url_query", "referrer_path", "referrer_query", "referrer_domain",
	"page_title", "event_type", "event_name",
}

var sessionColumns = []interface{}{
	"session_id", "website_id", "hostname", "browser", "os",
	"device", "screen", "language", "country", "created_at",
}

// ListWebsiteEvents returns events created at or after since, oldest first.
func (a *UmamiEventAdapter) ListWebsiteEvents(ctx context.Context, since time.Time) ([]entities.WebsiteEvent, error) {
	ds := a.db.From("website_event").
		Select(websiteEventColumns...).
		Order(goqu.I("created_at").Asc())
	if !since.IsZero() {
		ds = ds.Where(goqu.C("created_at").Gte(since))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build website event query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to query umami website events", err)
	}
	defer rows.Close()

	var events []entities.WebsiteEvent
	for rows.Next() {
		var e entities.WebsiteEvent
		var visitID, urlPath, urlQuery, refPath, refQuery, refDomain, pageTitle, eventName sql.NullString
		if err := rows.Scan(
			&e.EventID,
			&e.WebsiteID,
			&e.SessionID,
			&visitID,
			&e.CreatedAt,
			&urlPath,
			&urlQuery,
			&refPath,
			&refQuery,
			&refDomain,
			&pageTitle,
			&e.EventType,
			&eventName,
		); err != nil {
			return nil, apperrors.NewExternalError("failed to scan umami website event", err)
		}
		e.VisitID = visitID.String
		e.URLPath = urlPath.String
		e.URLQuery = urlQuery.String
		e.ReferrerPath = refPath.String
		e.ReferrerQuery = refQuery.String
		e.ReferrerDomain = refDomain.String
		e.PageTitle = pageTitle.String
		e.EventName = eventName.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewExternalError("failed to read umami website events", err)
	}

	return events, nil
}

// ListSessions returns sessions created at or after since, oldest first.
func (a *UmamiEventAdapter) ListSessions(ctx context.Context, since time.Time) ([]entities.Session, error) {
	ds := a.db.From("session").
		Select(sessionColumns...).
		Order(goqu.I("created_at").Asc())
	if !since.IsZero() {
		ds = ds.Where(goqu.C("created_at").Gte(since))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build session query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to query umami sessions", err)
	}
	defer rows.Close()

	var sessions []entities.Session
	for rows.Next() {
		var s entities.Session
		var hostname, browser, os, device, screen, lang, country sql.NullString
		if err := rows.Scan(
			&s.SessionID,
			&s.WebsiteID,
			&hostname,
			&browser,
			&os,
			&device,
			&screen,
			&lang,
			&country,
			&s.CreatedAt,
		); err != nil {
			return nil, apperrors.NewExternalError("failed to scan umami session", err)
		}
		s.Hostname = hostname.String
		s.Browser = browser.String
		s.OS = os.String
		s.Device = device.String
		s.Screen = screen.String
		s.Language = lang.String
		s.Country = country.String
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewExternalError("failed to read umami sessions", err)
	}

	return sessions, nil
}
