package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/fits/internal/reconcile"
	"github.com/JonMunkholm/fits/internal/table"
)

// PostgresStore keeps the index in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// OpenPostgres connects a pool to url, pings it and ensures the schema exists.
func OpenPostgres(ctx context.Context, url string, maxConns int) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := NewPostgresStore(pool)
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing pool. The schema is not created.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create postgres schema: %w", err)
		}
	}
	return nil
}

// Save replaces the stored index in one transaction. Deviations are written
// with COPY.
func (s *PostgresStore) Save(ctx context.Context, idx *table.Index, report reconcile.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range clearStatements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	batch := &pgx.Batch{}
	for _, r := range idx.Ranges() {
		batch.Queue(`INSERT INTO size_ranges (bucket, low_um, high_um) VALUES ($1, $2, $3)`,
			int32(r.Bucket), r.Low, r.High)
	}
	for _, g := range idx.GradeTable().Entries() {
		batch.Queue(`INSERT INTO grades (id, label) VALUES ($1, $2)`, int32(g.ID), g.Label)
	}
	for _, z := range idx.ZoneCodes().Entries() {
		batch.Queue(`INSERT INTO zones (code, letter) VALUES ($1, $2)`, int32(z.Key), z.Letter)
	}
	batch.Queue(`INSERT INTO index_meta (id, saved_at, report) VALUES (1, $1, $2)`,
		s.now().UTC().Format(time.RFC3339Nano), string(reportJSON))
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert lookup tables: %w", err)
	}

	entries := idx.Entries()
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"deviations"},
		[]string{"kind", "bucket", "grade", "zone", "upper_um", "lower_um"},
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{
				int16(e.Key.Kind), int32(e.Key.Bucket), int32(e.Key.Grade), int32(e.Key.Zone),
				e.Deviation.Upper, e.Deviation.Lower,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy deviations: %w", err)
	}
	if int(n) != len(entries) {
		return fmt.Errorf("copy deviations: wrote %d of %d rows", n, len(entries))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads every table and rebuilds the index.
func (s *PostgresStore) Load(ctx context.Context) (*Snapshot, error) {
	var savedAt, reportJSON string
	err := s.pool.QueryRow(ctx, selectMeta).Scan(&savedAt, &reportJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read index meta: %w", err)
	}

	snap := &Snapshot{}
	if snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return nil, fmt.Errorf("%w: saved_at %q: %w", ErrCorrupt, savedAt, err)
	}
	if err := json.Unmarshal([]byte(reportJSON), &snap.Report); err != nil {
		return nil, fmt.Errorf("%w: report: %w", ErrCorrupt, err)
	}

	ranges, err := queryPG(ctx, s.pool, selectRanges, func(row pgx.CollectableRow) (table.SizeRange, error) {
		var bucket int32
		var r table.SizeRange
		err := row.Scan(&bucket, &r.Low, &r.High)
		r.Bucket = table.Bucket(bucket)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("read size ranges: %w", err)
	}
	grades, err := queryPG(ctx, s.pool, selectGrades, func(row pgx.CollectableRow) (table.GradeEntry, error) {
		var id int32
		var g table.GradeEntry
		err := row.Scan(&id, &g.Label)
		g.ID = table.GradeID(id)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("read grades: %w", err)
	}
	zones, err := queryPG(ctx, s.pool, selectZones, func(row pgx.CollectableRow) (table.ZoneEntry, error) {
		var code int32
		var z table.ZoneEntry
		err := row.Scan(&code, &z.Letter)
		z.Key = table.ZoneKey(code)
		return z, err
	})
	if err != nil {
		return nil, fmt.Errorf("read zones: %w", err)
	}
	entries, err := queryPG(ctx, s.pool, selectDeviations, func(row pgx.CollectableRow) (table.Entry, error) {
		var kind int16
		var bucket, grade, zone int32
		var e table.Entry
		err := row.Scan(&kind, &bucket, &grade, &zone, &e.Deviation.Upper, &e.Deviation.Lower)
		e.Key = table.Key{Kind: table.Kind(kind), Bucket: table.Bucket(bucket), Grade: table.GradeID(grade), Zone: table.ZoneKey(zone)}
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("read deviations: %w", err)
	}

	if snap.Index, err = rebuild(ranges, grades, zones, entries); err != nil {
		return nil, err
	}
	return snap, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func queryPG[T any](ctx context.Context, pool *pgxpool.Pool, query string, scan pgx.RowToFunc[T]) ([]T, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scan)
}
