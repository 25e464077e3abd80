package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
)

// PostgresRecordStore is the durable write-behind sink for stock records.
// The core treats it as an optional collaborator; its failures never fail a
// search call.
type PostgresRecordStore struct {
	pool *pgxpool.Pool
}

// NewPostgresRecordStore connects and ensures the backing table exists.
func NewPostgresRecordStore(ctx context.Context, dsn string) (*PostgresRecordStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	ddl := `CREATE TABLE IF NOT EXISTS stock_records (
		ticker TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		last_update TIMESTAMPTZ NOT NULL,
		next_eligible_refresh TIMESTAMPTZ NOT NULL
	)`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}

	return &PostgresRecordStore{pool: pool}, nil
}

// UpsertRecord inserts or replaces the record for its ticker.
func (s *PostgresRecordStore) UpsertRecord(ctx context.Context, rec *models.StockRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	q := `INSERT INTO stock_records (ticker, payload, last_update, next_eligible_refresh)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker) DO UPDATE SET
			payload = EXCLUDED.payload,
			last_update = EXCLUDED.last_update,
			next_eligible_refresh = EXCLUDED.next_eligible_refresh`
	if _, err := s.pool.Exec(ctx, q, rec.Ticker(), payload, rec.LastUpdate, rec.NextEligibleRefresh); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// GetRecordBySymbol returns the stored record, nil when absent.
func (s *PostgresRecordStore) GetRecordBySymbol(ctx context.Context, ticker string) (*models.StockRecord, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		"SELECT payload FROM stock_records WHERE ticker = $1", ticker,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	var rec models.StockRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

// GetActiveRecords returns all records that have not passed their refresh
// deadline.
func (s *PostgresRecordStore) GetActiveRecords(ctx context.Context) ([]*models.StockRecord, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT payload FROM stock_records WHERE next_eligible_refresh > now()")
	if err != nil {
		return nil, fmt.Errorf("get active records: %w", err)
	}
	defer rows.Close()

	var out []*models.StockRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec models.StockRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *PostgresRecordStore) Close() error {
	s.pool.Close()
	return nil
}

var _ drepo.RecordStore = (*PostgresRecordStore)(nil)
