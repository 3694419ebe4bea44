package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/AdvisorySG/mentorship-analytics/pkg/config"
	"github.com/AdvisorySG/mentorship-analytics/pkg/retry"
)

// Client is a read-only connection to the umami MySQL database
type Client struct {
	db *sql.DB
}

// DSN builds the driver connection string. Times are parsed into time.Time
// in UTC.
func DSN(cfg *config.UmamiConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Addr()
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Timeout = 5 * time.Second
	mc.ReadTimeout = 60 * time.Second
	return mc.FormatDSN()
}

// NewClient opens the umami database with exponential backoff retry
func NewClient(ctx context.Context, cfg *config.UmamiConfig) (*Client, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open umami connection: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = retry.DoWithLog(ctx, retry.DefaultConfig(), "MySQL", func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}, retry.LogAttempt("MySQL"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL after retries: %w", err)
	}

	log.Info().Str("addr", cfg.Addr()).Str("database", cfg.Database).Msg("Connected to umami MySQL")
	return &Client{db: db}, nil
}

// NewClientFromDB wraps an existing connection pool
func NewClientFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}
