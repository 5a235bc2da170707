package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pump-alerts/internal/model"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	createSignalsTableSQL = `CREATE TABLE IF NOT EXISTS signals (
        id                   BIGSERIAL PRIMARY KEY,
        pair                 TEXT NOT NULL,
        side                 TEXT NOT NULL,
        price                NUMERIC NOT NULL,
        variation_pct        NUMERIC NOT NULL,
        series_variation_pct NUMERIC NOT NULL,
        rsi_evaluation       DOUBLE PRECISION,
        rsi_trend            DOUBLE PRECISION,
        histogram_evaluation DOUBLE PRECISION,
        signal_ts            TIMESTAMPTZ NOT NULL,
        created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	createSignalsIndexSQL = `CREATE INDEX IF NOT EXISTS idx_signals_signal_ts ON signals (signal_ts);`

	insertSignalSQL = `INSERT INTO signals (
        pair,
        side,
        price,
        variation_pct,
        series_variation_pct,
        rsi_evaluation,
        rsi_trend,
        histogram_evaluation,
        signal_ts
    ) VALUES (
        $1,$2,$3::numeric,$4::numeric,$5::numeric,$6,$7,$8,$9
    )
    RETURNING id, created_at;`

	selectSignalColumns = `SELECT
        id,
        pair,
        side,
        price::text,
        variation_pct::text,
        series_variation_pct::text,
        rsi_evaluation,
        rsi_trend,
        histogram_evaluation,
        signal_ts,
        created_at
    FROM signals`

	listRecentSignalsSQL = selectSignalColumns + `
    ORDER BY signal_ts DESC, id DESC
    LIMIT $1;`

	listSignalsBetweenSQL = selectSignalColumns + `
    WHERE signal_ts >= $1
      AND signal_ts < $2
    ORDER BY signal_ts, id;`

	countSignalsSQL = `SELECT COUNT(*) FROM signals;`
)

// SignalStore defines operations for the signal audit trail.
type SignalStore interface {
	InsertSignal(ctx context.Context, rec SignalRecord) (SignalRecord, error)
	ListRecentSignals(ctx context.Context, limit int) ([]SignalRecord, error)
	ListSignalsBetween(ctx context.Context, from, to time.Time) ([]SignalRecord, error)
	CountSignals(ctx context.Context) (int64, error)
}

// Store persists signals to PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// EnsureSchema creates the signals table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	for _, stmt := range []string{createSignalsTableSQL, createSignalsIndexSQL} {
		if _, execErr := pool.Exec(ctx, stmt); execErr != nil {
			return fmt.Errorf("ensure schema: %w", execErr)
		}
	}
	return nil
}

// InsertSignal persists a signal transition.
func (s *Store) InsertSignal(ctx context.Context, rec SignalRecord) (SignalRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return SignalRecord{}, err
	}

	row := pool.QueryRow(ctx, insertSignalSQL,
		rec.Pair,
		string(rec.Side),
		rec.Price.String(),
		rec.VariationPct.String(),
		rec.SeriesVariationPct.String(),
		nullableFloat(rec.RSIEvaluation),
		nullableFloat(rec.RSITrend),
		nullableFloat(rec.HistogramEvaluation),
		rec.SignalAt,
	)
	if scanErr := row.Scan(&rec.ID, &rec.CreatedAt); scanErr != nil {
		return SignalRecord{}, fmt.Errorf("insert signal: %w", scanErr)
	}
	return rec, nil
}

// ListRecentSignals lists the most recent signals, newest first.
func (s *Store) ListRecentSignals(ctx context.Context, limit int) ([]SignalRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSignalsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent signals: %w", queryErr)
	}
	return collectSignals(rows)
}

// ListSignalsBetween lists signals emitted in [from, to).
func (s *Store) ListSignalsBetween(ctx context.Context, from, to time.Time) ([]SignalRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSignalsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list signals between: %w", queryErr)
	}
	return collectSignals(rows)
}

// CountSignals counts stored signals.
func (s *Store) CountSignals(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSignalsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count signals: %w", scanErr)
	}
	return count, nil
}

func collectSignals(rows pgx.Rows) ([]SignalRecord, error) {
	defer rows.Close()

	signals := make([]SignalRecord, 0)
	for rows.Next() {
		rec, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		signals = append(signals, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return signals, nil
}

// rowScanner is satisfied by pgx.Rows and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSignal(row rowScanner) (SignalRecord, error) {
	var (
		rec          SignalRecord
		side         string
		priceStr     string
		variationStr string
		seriesStr    string
		rsiEval      sql.NullFloat64
		rsiTrend     sql.NullFloat64
		histEval     sql.NullFloat64
	)

	if err := row.Scan(
		&rec.ID,
		&rec.Pair,
		&side,
		&priceStr,
		&variationStr,
		&seriesStr,
		&rsiEval,
		&rsiTrend,
		&histEval,
		&rec.SignalAt,
		&rec.CreatedAt,
	); err != nil {
		return SignalRecord{}, err
	}

	var err error
	if rec.Price, err = decimal.NewFromString(priceStr); err != nil {
		return SignalRecord{}, fmt.Errorf("parse price: %w", err)
	}
	if rec.VariationPct, err = decimal.NewFromString(variationStr); err != nil {
		return SignalRecord{}, fmt.Errorf("parse variation pct: %w", err)
	}
	if rec.SeriesVariationPct, err = decimal.NewFromString(seriesStr); err != nil {
		return SignalRecord{}, fmt.Errorf("parse series variation pct: %w", err)
	}

	rec.Side = model.Side(side)
	rec.RSIEvaluation = floatOrNaN(rsiEval)
	rec.RSITrend = floatOrNaN(rsiTrend)
	rec.HistogramEvaluation = floatOrNaN(histEval)
	return rec, nil
}

// nullableFloat maps undefined indicator values to SQL NULL.
func nullableFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

var _ SignalStore = (*Store)(nil)
