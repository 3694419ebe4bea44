package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"

	"github.com/AdvisorySG/mentorship-analytics/pkg/config"
	"github.com/AdvisorySG/mentorship-analytics/pkg/retry"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(10*time.Second),
	)

	err := retry.DoWithLog(ctx, retry.DefaultConfig(), "Typesense", func() error {
		healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		ok, err := client.Health(healthCtx, 2*time.Second)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("typesense reported unhealthy")
		}
		return nil
	}, retry.LogAttempt("Typesense"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("Connected to Typesense")
	return &Client{client: client}, nil
}

// Wrap wraps an already configured Typesense client
func Wrap(client *typesense.Client) *Client {
	return &Client{client: client}
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}
