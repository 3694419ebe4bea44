package entities

import "time"

// WorkspaceEvent announces that an API instance rebuilt its workspace
type WorkspaceEvent struct {
	ID         string    `json:"id"`
	Origin     string    `json:"origin"`
	Generation string    `json:"generation"`
	Timestamp  time.Time `json:"timestamp"`
}
