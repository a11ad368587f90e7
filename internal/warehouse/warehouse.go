// Package warehouse copies generated datasets into Postgres so BI tools can
// query them.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/vidaplena/analytics/internal/domain/clinical"
	"github.com/vidaplena/analytics/internal/domain/hr"
	"github.com/vidaplena/analytics/internal/domain/supply"
	"github.com/vidaplena/analytics/internal/generate"
)

// Beginner is satisfied by *pgxpool.Pool.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Result describes one publish.
type Result struct {
	Dataset  generate.Dataset `json:"dataset"`
	Table    string           `json:"table"`
	Rows     int64            `json:"rows"`
	Skipped  int              `json:"skipped"`
	Duration time.Duration    `json:"duration_ns"`
}

// Publisher replaces warehouse tables with the content of dataset files.
type Publisher struct {
	db     Beginner
	logger zerolog.Logger
}

// NewPublisher returns a Publisher writing through db.
func NewPublisher(db Beginner, logger zerolog.Logger) *Publisher {
	return &Publisher{db: db, logger: logger}
}

// source is a loaded dataset ready to copy.
type source struct {
	table   Table
	rows    int
	skipped int
	row     func(i int) ([]any, error)
}

// TableFor returns the warehouse table of d.
func TableFor(d generate.Dataset) (Table, error) {
	switch d {
	case generate.Clinical:
		return EncountersTable, nil
	case generate.Supply:
		return OrdersTable, nil
	case generate.HR:
		return EmployeesTable, nil
	}
	return Table{}, fmt.Errorf("%w %q", generate.ErrUnknownDataset, d)
}

func load(ctx context.Context, d generate.Dataset, path string) (source, error) {
	switch d {
	case generate.Clinical:
		t, err := clinical.Load(ctx, path)
		if err != nil {
			return source{}, err
		}
		return source{EncountersTable, t.Len(), t.Skipped, encounterRow(t)}, nil
	case generate.Supply:
		t, err := supply.Load(ctx, path)
		if err != nil {
			return source{}, err
		}
		return source{OrdersTable, t.Len(), t.Skipped, orderRow(t)}, nil
	case generate.HR:
		t, err := hr.Load(ctx, path)
		if err != nil {
			return source{}, err
		}
		return source{EmployeesTable, t.Len(), t.Skipped, employeeRow(t)}, nil
	}
	return source{}, fmt.Errorf("%w %q", generate.ErrUnknownDataset, d)
}

// Publish loads the file at path and replaces the dataset's table with it in
// one transaction. Readers keep seeing the previous content until commit.
func (p *Publisher) Publish(ctx context.Context, d generate.Dataset, path string) (Result, error) {
	start := time.Now()
	log := p.logger.With().Str("dataset", string(d)).Str("path", path).Logger()
	ctx = log.WithContext(ctx)

	src, err := load(ctx, d, path)
	if err != nil {
		return Result{}, fmt.Errorf("load %s: %w", d, err)
	}
	res := Result{Dataset: d, Table: src.table.Name, Skipped: src.skipped}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, src.table.CreateSQL()); err != nil {
		return res, fmt.Errorf("create table %s: %w", src.table.Name, err)
	}
	if _, err := tx.Exec(ctx, src.table.TruncateSQL()); err != nil {
		return res, fmt.Errorf("truncate table %s: %w", src.table.Name, err)
	}
	n, err := tx.CopyFrom(ctx, src.table.Identifier(), src.table.ColumnNames(), pgx.CopyFromSlice(src.rows, src.row))
	if err != nil {
		return res, fmt.Errorf("copy into %s: %w", src.table.Name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("commit: %w", err)
	}

	res.Rows = n
	res.Duration = time.Since(start)
	log.Info().
		Str("table", res.Table).
		Int64("rows", res.Rows).
		Int("skipped", res.Skipped).
		Dur("elapsed", res.Duration).
		Msg("dataset published")
	return res, nil
}
