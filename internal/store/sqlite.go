package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/fits/internal/reconcile"
	"github.com/JonMunkholm/fits/internal/table"
)

// SQLiteStore keeps the index in a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// schema exists. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection: an in-memory database exists per connection, and a
	// single writer avoids SQLITE_BUSY on file databases.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create sqlite schema: %w", err)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Save replaces the stored index in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, idx *table.Index, report reconcile.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range clearStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	for _, r := range idx.Ranges() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO size_ranges (bucket, low_um, high_um) VALUES (?, ?, ?)`,
			r.Bucket, r.Low, r.High); err != nil {
			return fmt.Errorf("insert size range %d: %w", r.Bucket, err)
		}
	}
	for _, g := range idx.GradeTable().Entries() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO grades (id, label) VALUES (?, ?)`, g.ID, g.Label); err != nil {
			return fmt.Errorf("insert grade %d: %w", g.ID, err)
		}
	}
	for _, z := range idx.ZoneCodes().Entries() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO zones (code, letter) VALUES (?, ?)`, z.Key, z.Letter); err != nil {
			return fmt.Errorf("insert zone %d: %w", z.Key, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO deviations (kind, bucket, grade, zone, upper_um, lower_um) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare deviation insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range idx.Entries() {
		k := e.Key
		if _, err := stmt.ExecContext(ctx, int(k.Kind), int(k.Bucket), int(k.Grade), int(k.Zone),
			e.Deviation.Upper, e.Deviation.Lower); err != nil {
			return fmt.Errorf("insert deviation %s: %w", k, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO index_meta (id, saved_at, report) VALUES (1, ?, ?)`,
		s.now().UTC().Format(time.RFC3339Nano), string(reportJSON)); err != nil {
		return fmt.Errorf("insert index meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads every table and rebuilds the index.
func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	var savedAt, reportJSON string
	err := s.db.QueryRowContext(ctx, selectMeta).Scan(&savedAt, &reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
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

	ranges, err := querySQL(ctx, s.db, selectRanges, func(rows *sql.Rows) (table.SizeRange, error) {
		var r table.SizeRange
		err := rows.Scan(&r.Bucket, &r.Low, &r.High)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("read size ranges: %w", err)
	}
	grades, err := querySQL(ctx, s.db, selectGrades, func(rows *sql.Rows) (table.GradeEntry, error) {
		var g table.GradeEntry
		err := rows.Scan(&g.ID, &g.Label)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("read grades: %w", err)
	}
	zones, err := querySQL(ctx, s.db, selectZones, func(rows *sql.Rows) (table.ZoneEntry, error) {
		var z table.ZoneEntry
		err := rows.Scan(&z.Key, &z.Letter)
		return z, err
	})
	if err != nil {
		return nil, fmt.Errorf("read zones: %w", err)
	}
	entries, err := querySQL(ctx, s.db, selectDeviations, func(rows *sql.Rows) (table.Entry, error) {
		var e table.Entry
		err := rows.Scan(&e.Key.Kind, &e.Key.Bucket, &e.Key.Grade, &e.Key.Zone, &e.Deviation.Upper, &e.Deviation.Lower)
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

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func querySQL[T any](ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
