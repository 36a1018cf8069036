package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/JonMunkholm/fits/internal/reconcile"
	"github.com/JonMunkholm/fits/internal/table"
)

// documentVersion is bumped when the file layout changes incompatibly.
const documentVersion = 1

// document is the on-disk form of a saved index. Index repeats Entries in
// nested lookup form for consumers that read the file directly; Load checks
// the two agree.
type document struct {
	Version int                `json:"version"`
	SavedAt time.Time          `json:"savedAt"`
	Ranges  []table.SizeRange  `json:"ranges"`
	Grades  []table.GradeEntry `json:"grades"`
	Zones   []table.ZoneEntry  `json:"zones"`
	Entries []table.Entry      `json:"entries"`
	Index   table.Nested       `json:"index"`
	Report  reconcile.Report   `json:"report"`
}

// FileStore keeps the index in one JSON file.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore returns a store writing to path. A .gz suffix selects gzip.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the document to a temporary file and renames it into place.
func (s *FileStore) Save(ctx context.Context, idx *table.Index, report reconcile.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := document{
		Version: documentVersion,
		SavedAt: s.now().UTC(),
		Ranges:  idx.Ranges(),
		Grades:  idx.GradeTable().Entries(),
		Zones:   idx.ZoneCodes().Entries(),
		Entries: idx.Entries(),
		Index:   idx.Nested(),
		Report:  report,
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".index-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.encode(tmp, &doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

func (s *FileStore) encode(w io.Writer, doc *document) error {
	bw := bufio.NewWriter(w)
	var out io.Writer = bw

	var gz *gzip.Writer
	if s.gzipped() {
		gz = gzip.NewWriter(bw)
		out = gz
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", " ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("gzip index: %w", err)
		}
	}
	return bw.Flush()
}

// Load reads the document and rebuilds the index.
func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if s.gzipped() {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		defer gz.Close()
		r = gz
	}

	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrCorrupt, s.path, err)
	}
	if doc.Version != documentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, doc.Version)
	}

	idx, err := rebuild(doc.Ranges, doc.Grades, doc.Zones, doc.Entries)
	if err != nil {
		return nil, err
	}
	if doc.Index != nil && !reflect.DeepEqual(doc.Index, idx.Nested()) {
		return nil, fmt.Errorf("%w: nested index disagrees with entries", ErrCorrupt)
	}

	return &Snapshot{Index: idx, Report: doc.Report, SavedAt: doc.SavedAt}, nil
}

// Close is a no-op; the file is only open during Save and Load.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) gzipped() bool {
	return strings.EqualFold(filepath.Ext(s.path), ".gz")
}
