package repositories

import (
	"context"
	"time"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
)

// EventRepository reads the umami analytics tables. A zero since reads
// everything.
type EventRepository interface {
	ListWebsiteEvents(ctx context.Context, since time.Time) ([]entities.WebsiteEvent, error)
	ListSessions(ctx context.Context, since time.Time) ([]entities.Session, error)
}
