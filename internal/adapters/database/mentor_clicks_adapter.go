package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	"github.com/AdvisorySG/mentorship-analytics/internal/domain/repositories"
	"github.com/AdvisorySG/mentorship-analytics/internal/infrastructure/clients/postgres"
	"github.com/AdvisorySG/mentorship-analytics/pkg/config"
	apperrors "github.com/AdvisorySG/mentorship-analytics/pkg/errors"
)

const (
	mentorClicksTable = "mentor_clicks"
	insertBatchSize   = 500
)

// MentorClickAdapter stores mentor clicks in the Postgres warehouse
type MentorClickAdapter struct {
	client  *postgres.Client
	dialect goqu.DialectWrapper
}

// NewMentorClickAdapter creates a new mentor click warehouse adapter
func NewMentorClickAdapter(client *postgres.Client) repositories.MentorClickRepository {
	return &MentorClickAdapter{
		client:  client,
		dialect: goqu.Dialect("postgres"),
	}
}

// ReplaceMentorClicks drops and recreates the mentor_clicks table inside a
// single transaction, so readers see either the old or the new rows.
func (a *MentorClickAdapter) ReplaceMentorClicks(ctx context.Context, fields []string, clicks []entities.MentorClick) (err error) {
	for _, field := range fields {
		if !config.IsIdentifier(field) {
			return apperrors.NewValidationError(fmt.Sprintf("invalid tracked field %q", field))
		}
	}

	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin warehouse transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Warn().Err(rbErr).Msg("Failed to roll back warehouse transaction")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+pq.QuoteIdentifier(mentorClicksTable)); err != nil {
		return apperrors.NewInternalError("failed to drop mentor clicks table", err)
	}
	if _, err = tx.ExecContext(ctx, createMentorClicksSQL(fields)); err != nil {
		return apperrors.NewInternalError("failed to create mentor clicks table", err)
	}

	cols := make([]interface{}, 0, len(fields)+3)
	cols = append(cols, "created_at", "visit_id", "search_query")
	for _, field := range fields {
		cols = append(cols, field)
	}

	for start := 0; start < len(clicks); start += insertBatchSize {
		end := min(start+insertBatchSize, len(clicks))
		if err = a.insertBatch(ctx, tx, cols, fields, clicks[start:end]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit mentor clicks", err)
	}

	log.Info().Int("rows", len(clicks)).Strs("fields", fields).Msg("Replaced mentor clicks table")
	return nil
}

func createMentorClicksSQL(fields []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(pq.QuoteIdentifier(mentorClicksTable))
	b.WriteString(" (created_at timestamptz NOT NULL, visit_id text NOT NULL, search_query text")
	for _, field := range fields {
		b.WriteString(", ")
		b.WriteString(pq.QuoteIdentifier(field))
		b.WriteString(" text[] NOT NULL DEFAULT '{}'")
	}
	b.WriteString(")")
	return b.String()
}

func (a *MentorClickAdapter) insertBatch(ctx context.Context, tx *sql.Tx, cols []interface{}, fields []string, batch []entities.MentorClick) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, c := range batch {
		var search interface{}
		if c.SearchQuery != nil {
			search = *c.SearchQuery
		}
		row := make([]interface{}, 0, len(cols))
		row = append(row, c.CreatedAt, c.VisitID, search)
		for _, field := range fields {
			values := c.Filters[field]
			if values == nil {
				values = []string{}
			}
			row = append(row, pq.Array(values))
		}
		rows = append(rows, row)
	}

	query, args, err := a.dialect.Insert(mentorClicksTable).
		Cols(cols...).
		Vals(rows...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build mentor clicks insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert mentor clicks", err)
	}
	return nil
}

func firstValue(col exp.IdentifierExpression) exp.LiteralExpression {
	return goqu.L("?[1]", col)
}

func singleSelection(col exp.IdentifierExpression) exp.BooleanExpression {
	return goqu.L("cardinality(?)", col).Eq(1)
}

// TopSingleSelections counts rows where exactly one value of field was
// selected, most frequent first
func (a *MentorClickAdapter) TopSingleSelections(ctx context.Context, field string, limit int) ([]entities.ValueCount, error) {
	if !config.IsIdentifier(field) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid field %q", field))
	}
	if limit <= 0 {
		limit = 10
	}

	col := goqu.I(field)
	query, args, err := a.dialect.From(mentorClicksTable).
		Select(firstValue(col).As("value"), goqu.COUNT(goqu.Star()).As("count")).
		Where(singleSelection(col)).
		GroupBy(goqu.I("value")).
		Order(goqu.I("count").Desc(), goqu.I("value").Asc()).
		Limit(uint(limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build top selections query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query top selections", err)
	}
	defer rows.Close()

	counts := []entities.ValueCount{}
	for rows.Next() {
		var vc entities.ValueCount
		if err := rows.Scan(&vc.Value, &vc.Count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan top selection", err)
		}
		counts = append(counts, vc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read top selections", err)
	}

	return counts, nil
}

// MonthlySelections counts single-value selections of field per calendar
// month (UTC), restricted to values
func (a *MentorClickAdapter) MonthlySelections(ctx context.Context, field string, values []string) ([]entities.MonthlySelection, error) {
	if !config.IsIdentifier(field) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid field %q", field))
	}
	if len(values) == 0 {
		return []entities.MonthlySelection{}, nil
	}

	col := goqu.I(field)
	month := goqu.L("date_trunc('month', ? AT TIME ZONE 'UTC')", goqu.I("created_at"))
	query, args, err := a.dialect.From(mentorClicksTable).
		Select(month.As("month"), firstValue(col).As("value"), goqu.COUNT(goqu.Star()).As("count")).
		Where(singleSelection(col), firstValue(col).In(values)).
		GroupBy(goqu.I("month"), goqu.I("value")).
		Order(goqu.I("month").Asc(), goqu.I("value").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build monthly selections query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query monthly selections", err)
	}
	defer rows.Close()

	monthly := []entities.MonthlySelection{}
	for rows.Next() {
		var m entities.MonthlySelection
		if err := rows.Scan(&m.Month, &m.Value, &m.Count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan monthly selection", err)
		}
		m.Month = m.Month.UTC()
		monthly = append(monthly, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read monthly selections", err)
	}

	return monthly, nil
}
