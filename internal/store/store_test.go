package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fits/internal/config"
	"github.com/JonMunkholm/fits/internal/dataset"
	"github.com/JonMunkholm/fits/internal/logging"
	"github.com/JonMunkholm/fits/internal/reconcile"
	"github.com/JonMunkholm/fits/internal/table"
	"github.com/JonMunkholm/fits/internal/table/tabletest"
)

func testReport() reconcile.Report {
	return reconcile.Report{
		InputRows:       40,
		OutputRows:      35,
		Fixed:           1,
		FixedByRule:     map[string]int{"shaft-M-to-m": 1},
		DroppedEmpty:    2,
		DuplicateGroups: 3,
		DuplicateRows:   3,
		Ties:            1,
	}
}

// assertSameIndex checks a loaded index against the original.
func assertSameIndex(t *testing.T, want, got *table.Index) {
	t.Helper()
	assert.Equal(t, want.Entries(), got.Entries())
	assert.Equal(t, want.Ranges(), got.Ranges())
	assert.Equal(t, want.GradeTable().Entries(), got.GradeTable().Entries())
	assert.Equal(t, want.ZoneCodes().Entries(), got.ZoneCodes().Entries())
	assert.Equal(t, want.Nested(), got.Nested())
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	idx := tabletest.Index()
	require.NoError(t, s.Save(ctx, idx, testReport()))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assertSameIndex(t, idx, snap.Index)
	assert.Equal(t, testReport(), snap.Report)
	assert.False(t, snap.SavedAt.IsZero())

	d, ok := snap.Index.Lookup(table.Key{Kind: table.Hole, Bucket: 6, Grade: 7, Zone: 4})
	require.True(t, ok)
	assert.Equal(t, table.Deviation{Upper: 21, Lower: 0}, d)

	// A second Save replaces everything.
	small, err := table.NewIndex(idx.Meta(), idx.Entries()[:3])
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, small, reconcile.Report{OutputRows: 3}))

	snap, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Index.Len())
	assert.Equal(t, 3, snap.Report.OutputRows)
}

func TestFileStore(t *testing.T) {
	for _, name := range []string{"index.json", "index.json.gz"} {
		t.Run(name, func(t *testing.T) {
			exerciseStore(t, NewFileStore(filepath.Join(t.TempDir(), "nested", name)))
		})
	}
}

func TestFileStore_GzipIsCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json.gz")
	s := NewFileStore(path)
	require.NoError(t, s.Save(context.Background(), tabletest.Index(), testReport()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 2)
	assert.Equal(t, []byte{0x1f, 0x8b}, raw[:2])
}

func TestFileStore_DocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	s := NewFileStore(path)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	require.NoError(t, s.Save(context.Background(), tabletest.Index(), testReport()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(raw)
	for _, key := range []string{`"ranges"`, `"grades"`, `"zones"`, `"entries"`, `"index"`, `"report"`, `"savedAt": "2024-03-01T12:00:00Z"`} {
		assert.Contains(t, doc, key)
	}
}

func TestFileStore_DetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	s := NewFileStore(path)
	require.NoError(t, s.Save(context.Background(), tabletest.Index(), testReport()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	// Change one deviation in the nested copy only.
	doc := string(raw)
	nestedAt := strings.Index(doc, `"index"`)
	require.Positive(t, nestedAt)
	tampered := doc[:nestedAt] + strings.Replace(doc[nestedAt:], "21,", "22,", 1)
	require.NotEqual(t, doc, tampered)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o644))

	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileStore_Corrupt(t *testing.T) {
	tests := map[string]string{
		"not json":      "{{{",
		"wrong version": `{"version": 99}`,
		"bad ranges":    `{"version": 1, "ranges": [], "grades": [], "zones": [], "entries": []}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "index.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := NewFileStore(path).Load(context.Background())
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestSQLiteStore(t *testing.T) {
	for _, path := range []string{":memory:", filepath.Join(t.TempDir(), "index.db")} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := OpenSQLite(context.Background(), path)
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })

			exerciseStore(t, s)
		})
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, tabletest.Index(), testReport()))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assertSameIndex(t, tabletest.Index(), snap.Index)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := OpenPostgres(ctx, url, 2)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	for _, stmt := range clearStatements {
		_, err := s.pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.IndexConfig{Store: config.StoreFile, Path: "x.json"})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, config.IndexConfig{Store: config.StoreSQLite, Path: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.IndexConfig{Store: "redis"})
	assert.Error(t, err)
}

func TestLoadOrBuild(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "index.json.gz"))
	opts := reconcile.DefaultOptions()
	opts.Logger = logging.Discard()

	// Nothing saved and no dataset.
	_, err := LoadOrBuild(ctx, s, "", opts)
	require.ErrorIs(t, err, ErrNotFound)

	built, err := LoadOrBuild(ctx, s, "../dataset/testdata/mini.json", opts)
	require.NoError(t, err)
	assert.Equal(t, 23, built.Report.InputRows)
	assert.Equal(t, built.Report.OutputRows, built.Index.Len())

	// The second call loads what the first saved, even with a bad dataset path.
	loaded, err := LoadOrBuild(ctx, s, "does-not-exist.json", opts)
	require.NoError(t, err)
	assertSameIndex(t, built.Index, loaded.Index)
	assert.Equal(t, built.Report, loaded.Report)
}

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "index.json"))

	_, err := Build(ctx, s, "does-not-exist.json", reconcile.DefaultOptions())
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"size_ranges": []}`), 0o644))
	_, err = Build(ctx, s, bad, reconcile.DefaultOptions())
	assert.ErrorIs(t, err, dataset.ErrMalformedDataset)

	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
