// Package store provides a sqlite-backed read-through cache for historical
// bar data, so repeated backtests and screens do not refetch from the
// upstream provider.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"investormate/fetcher"
	"investormate/model"
)

// Compile-time interface check.
var _ fetcher.Source = (*BarCache)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol TEXT NOT NULL,
	date   TEXT NOT NULL,
	open   REAL NOT NULL,
	high   REAL NOT NULL,
	low    REAL NOT NULL,
	close  REAL NOT NULL,
	volume INTEGER NOT NULL,
	PRIMARY KEY (symbol, date)
);
CREATE TABLE IF NOT EXISTS ranges (
	symbol TEXT NOT NULL,
	start  TEXT NOT NULL,
	end    TEXT NOT NULL,
	PRIMARY KEY (symbol, start, end)
);
`

// BarCache wraps an upstream Source and caches its bars in a sqlite
// database keyed by (symbol, date). A requested range is served from cache
// only when a previously fetched range covers it; otherwise the upstream is
// queried and the result stored.
type BarCache struct {
	db       *sql.DB
	upstream fetcher.Source
}

// Open opens (or creates) the cache database at path and wraps upstream.
func Open(path string, upstream fetcher.Source) (*BarCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return &BarCache{db: db, upstream: upstream}, nil
}

// Close closes the underlying database connection.
func (c *BarCache) Close() error {
	return c.db.Close()
}

// History returns daily bars for symbol over [start, end], reading through
// to the upstream source on a cache miss.
func (c *BarCache) History(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	sym, err := fetcher.NormalizeTicker(symbol)
	if err != nil {
		return nil, err
	}

	covered, err := c.covers(ctx, sym, start, end)
	if err != nil {
		return nil, err
	}
	if covered {
		return c.readBars(ctx, sym, start, end)
	}

	bars, err := c.upstream.History(ctx, sym, start, end)
	if err != nil {
		return nil, err
	}
	if err := c.writeBars(ctx, sym, start, end, bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// covers reports whether a stored range fully contains [start, end].
func (c *BarCache) covers(ctx context.Context, symbol string, start, end time.Time) (bool, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM ranges WHERE symbol = ? AND start <= ? AND end >= ?`,
		symbol, day(start), day(end),
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("query ranges: %w", err)
	}
	return n > 0, nil
}

func (c *BarCache) readBars(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT date, open, high, low, close, volume FROM bars
		 WHERE symbol = ? AND date >= ? AND date <= ? ORDER BY date`,
		symbol, day(start), day(end),
	)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var dateStr string
		var b model.Bar
		if err := rows.Scan(&dateStr, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		t, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("bad cached date %q: %w", dateStr, err)
		}
		b.Date = t
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (c *BarCache) writeBars(ctx context.Context, symbol string, start, end time.Time, bars []model.Bar) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO bars (symbol, date, open, high, low, close, volume)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, day(b.Date), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("insert bar: %w", err)
		}
	}

	// Record the range even when empty so "no data" answers are cached too.
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO ranges (symbol, start, end) VALUES (?, ?, ?)`,
		symbol, day(start), day(end),
	); err != nil {
		return fmt.Errorf("insert range: %w", err)
	}

	return tx.Commit()
}

func day(t time.Time) string {
	return t.Format("2006-01-02")
}
