// Package store persists a reconciled reference index so a service can start
// without re-running reconciliation.
//
// Three backends share one logical layout (size ranges, grades, zones and
// deviation entries, plus the reconciliation report):
//
//   - file: one JSON document, gzipped when the path ends in .gz
//   - sqlite: a local database file (modernc.org/sqlite, no cgo)
//   - postgres: a shared database reached through a pgx pool
//
// Every backend rebuilds the index with table.NewIndex on Load, so a loaded
// index satisfies the same invariants as a freshly reconciled one.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/fits/internal/config"
	"github.com/JonMunkholm/fits/internal/reconcile"
	"github.com/JonMunkholm/fits/internal/table"
)

var (
	// ErrNotFound is returned by Load when nothing has been saved yet.
	ErrNotFound = errors.New("no saved index")

	// ErrCorrupt is returned by Load when saved content is inconsistent.
	ErrCorrupt = errors.New("corrupt saved index")
)

// Snapshot is a loaded index with the report of the run that produced it.
type Snapshot struct {
	Index   *table.Index
	Report  reconcile.Report
	SavedAt time.Time
}

// Store saves and loads one reference index. Save replaces any previous
// content.
type Store interface {
	Save(ctx context.Context, idx *table.Index, report reconcile.Report) error
	Load(ctx context.Context) (*Snapshot, error)
	Close() error
}

// Open returns the backend selected by cfg.Store.
func Open(ctx context.Context, cfg config.IndexConfig) (Store, error) {
	switch cfg.Store {
	case config.StoreFile, "":
		return NewFileStore(cfg.Path), nil
	case config.StoreSQLite:
		s, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorePostgres:
		s, err := OpenPostgres(ctx, cfg.DatabaseURL, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown index store %q", cfg.Store)
	}
}

// rebuild validates loaded tables and constructs the index.
func rebuild(ranges []table.SizeRange, grades []table.GradeEntry, zones []table.ZoneEntry, entries []table.Entry) (*table.Index, error) {
	gt, err := table.NewGradeTable(grades)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	zc, err := table.NewZoneCodes(zones)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	idx, err := table.NewIndex(table.Meta{Ranges: ranges, Grades: gt, Zones: zc}, entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return idx, nil
}
