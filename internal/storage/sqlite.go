package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteSchemaSQL = `CREATE TABLE IF NOT EXISTS signals (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			pair                 TEXT NOT NULL,
			side                 TEXT NOT NULL,
			price                TEXT NOT NULL,
			variation_pct        TEXT NOT NULL,
			series_variation_pct TEXT NOT NULL,
			rsi_evaluation       REAL,
			rsi_trend            REAL,
			histogram_evaluation REAL,
			signal_ts            INTEGER NOT NULL,
			created_at           INTEGER NOT NULL
		)`
	sqliteIndexSQL = `CREATE INDEX IF NOT EXISTS idx_signals_signal_ts ON signals(signal_ts)`

	sqliteInsertSQL = `INSERT INTO signals (
			pair, side, price, variation_pct, series_variation_pct,
			rsi_evaluation, rsi_trend, histogram_evaluation, signal_ts, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?)`

	sqliteSelectSQL = `SELECT id, pair, side, price, variation_pct, series_variation_pct,
			rsi_evaluation, rsi_trend, histogram_evaluation, signal_ts, created_at
		FROM signals`
)

// SQLiteStore persists signals to a local SQLite file. Timestamps are stored
// as unix milliseconds.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for _, stmt := range []string{sqliteSchemaSQL, sqliteIndexSQL} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	if s == nil || s.db == nil {
		return
	}
	_ = s.db.Close()
}

// sqliteRow adapts the unix-ms columns to the shared scanner.
type sqliteRow struct {
	rows *sql.Rows
}

func (r sqliteRow) Scan(dest ...any) error {
	var signalMs, createdMs int64
	patched := append([]any(nil), dest...)
	patched[9] = &signalMs
	patched[10] = &createdMs
	if err := r.rows.Scan(patched...); err != nil {
		return err
	}
	*(dest[9].(*time.Time)) = time.UnixMilli(signalMs).UTC()
	*(dest[10].(*time.Time)) = time.UnixMilli(createdMs).UTC()
	return nil
}

// InsertSignal persists a signal transition.
func (s *SQLiteStore) InsertSignal(ctx context.Context, rec SignalRecord) (SignalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	res, err := s.db.ExecContext(ctx, sqliteInsertSQL,
		rec.Pair,
		string(rec.Side),
		rec.Price.String(),
		rec.VariationPct.String(),
		rec.SeriesVariationPct.String(),
		nullableFloat(rec.RSIEvaluation),
		nullableFloat(rec.RSITrend),
		nullableFloat(rec.HistogramEvaluation),
		rec.SignalAt.UnixMilli(),
		rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return SignalRecord{}, fmt.Errorf("insert signal: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return SignalRecord{}, fmt.Errorf("insert signal id: %w", err)
	}
	return rec, nil
}

// ListRecentSignals lists the most recent signals, newest first.
func (s *SQLiteStore) ListRecentSignals(ctx context.Context, limit int) ([]SignalRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectSQL+` ORDER BY signal_ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent signals: %w", err)
	}
	return collectSQLiteSignals(rows)
}

// ListSignalsBetween lists signals emitted in [from, to).
func (s *SQLiteStore) ListSignalsBetween(ctx context.Context, from, to time.Time) ([]SignalRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectSQL+` WHERE signal_ts >= ? AND signal_ts < ? ORDER BY signal_ts, id`,
		from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list signals between: %w", err)
	}
	return collectSQLiteSignals(rows)
}

// CountSignals counts stored signals.
func (s *SQLiteStore) CountSignals(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, countSignalsSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count signals: %w", err)
	}
	return count, nil
}

func collectSQLiteSignals(rows *sql.Rows) ([]SignalRecord, error) {
	defer rows.Close()

	signals := make([]SignalRecord, 0)
	for rows.Next() {
		rec, err := scanSignal(sqliteRow{rows: rows})
		if err != nil {
			return nil, err
		}
		signals = append(signals, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return signals, nil
}

var _ Backend = (*SQLiteStore)(nil)
var _ Backend = (*Store)(nil)
