// Package psql keeps the workout log in a postgres table, one text column per
// sheet column, so rows round-trip exactly as they would through the sheet.
package psql

import (
	"context"
	"fmt"

	"github.com/2beens/liftlog/internal/source"
	"github.com/2beens/liftlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const SchemaSQL = `
CREATE TABLE IF NOT EXISTS workout_log
(
    id            BIGSERIAL PRIMARY KEY,
    logged_at     TEXT NOT NULL DEFAULT '',
    exercise_name TEXT NOT NULL DEFAULT '',
    weight        TEXT NOT NULL DEFAULT '',
    reps          TEXT NOT NULL DEFAULT '',
    unused        TEXT NOT NULL DEFAULT '',
    one_rep_max   TEXT NOT NULL DEFAULT ''
);
`

type Source struct {
	db *pgxpool.Pool
}

func NewSource(db *pgxpool.Pool) *Source {
	return &Source{
		db: db,
	}
}

// EnsureSchema creates the workout_log table when missing.
func (s *Source) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("create workout_log table: %w", err)
	}
	return nil
}

func (s *Source) ReadAllRows(ctx context.Context) (_ source.Table, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "psql.read_all_rows")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.Query(
		ctx,
		`SELECT logged_at, exercise_name, weight, reps, unused, one_rep_max
			FROM workout_log
			ORDER BY id;`,
	)
	if err != nil {
		return source.Table{}, fmt.Errorf("query workout log: %w", err)
	}

	values, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]string, error) {
		cells := make([]string, len(source.Columns))
		if err := row.Scan(&cells[0], &cells[1], &cells[2], &cells[3], &cells[4], &cells[5]); err != nil {
			return nil, err
		}
		return cells, nil
	})
	if err != nil {
		return source.Table{}, fmt.Errorf("collect workout log rows: %w", err)
	}
	span.SetAttributes(attribute.Int("rows", len(values)))

	return source.Table{
		Header: append([]string(nil), source.Columns...),
		Rows:   values,
	}, nil
}

func (s *Source) AppendRow(ctx context.Context, columns []string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "psql.append_row")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if len(columns) > len(source.Columns) {
		return fmt.Errorf("row has %d cells, at most %d columns", len(columns), len(source.Columns))
	}
	cells := make([]string, len(source.Columns))
	copy(cells, columns)

	_, err = s.db.Exec(
		ctx,
		`INSERT INTO workout_log
				(logged_at, exercise_name, weight, reps, unused, one_rep_max)
				VALUES ($1, $2, $3, $4, $5, $6);`,
		cells[0], cells[1], cells[2], cells[3], cells[4], cells[5],
	)
	if err != nil {
		return fmt.Errorf("insert workout log row: %w", err)
	}
	return nil
}
