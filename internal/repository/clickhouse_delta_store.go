package repository

import (
	"context"
	"database/sql"
	"fmt"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
)

// ClickHouseDeltaStore archives price-delta events into a MergeTree table
// ordered by (symbol, ts), the delta history backend.
type ClickHouseDeltaStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseDeltaStore(db *sql.DB, table string) *ClickHouseDeltaStore {
	return &ClickHouseDeltaStore{db: db, table: table}
}

// Schema returns the idempotent DDL for the delta table.
func Schema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			symbol String,
			ts DateTime,
			price Float64,
			change_abs Float64
		) ENGINE = MergeTree ORDER BY (symbol, ts)`, table),
	}
}

// Store inserts one delta event.
func (s *ClickHouseDeltaStore) Store(ctx context.Context, ev *models.PriceDeltaEvent) error {
	q := fmt.Sprintf("INSERT INTO %s (symbol, ts, price, change_abs) VALUES (?, ?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, q, ev.Ticker, ev.Timestamp, ev.Price, ev.ChangeAbsolute); err != nil {
		return fmt.Errorf("insert delta: %w", err)
	}
	return nil
}

// Close is a no-op; the pooled client owns the connection.
func (s *ClickHouseDeltaStore) Close() error { return nil }

var _ drepo.DeltaSink = (*ClickHouseDeltaStore)(nil)
