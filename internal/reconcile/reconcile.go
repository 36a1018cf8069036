// Package reconcile turns a raw reference dataset into a validated,
// deduplicated lookup index.
//
// Processing order for every variation row:
//
//  1. rows that are not a 5-element array are dropped as invalid
//  2. corrections are applied (see Register and the rules package)
//  3. rows with an unknown kind, bucket, grade or zone are dropped as invalid
//  4. rows missing a deviation are dropped when DropEmpty is set
//  5. rows with upper < lower are dropped as inverted
//  6. duplicates by key are resolved by Score, ties by the TieBreak policy
//
// Reconciliation runs once, single-threaded, and its output is immutable.
package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/JonMunkholm/fits/internal/dataset"
	"github.com/JonMunkholm/fits/internal/table"
)

// ErrAmbiguousDuplicate is returned under TieStrict when two rows for the
// same key score equally.
var ErrAmbiguousDuplicate = errors.New("ambiguous duplicate rows")

// TieBreak decides which of two equally scored duplicate rows is kept.
type TieBreak string

const (
	TieKeepFirst TieBreak = "keep-first"
	TieKeepLast  TieBreak = "keep-last"
	TieStrict    TieBreak = "strict"
)

// ParseTieBreak parses a tie-break policy name. Empty means keep-first.
func ParseTieBreak(s string) (TieBreak, error) {
	switch t := TieBreak(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TieKeepFirst, nil
	case TieKeepFirst, TieKeepLast, TieStrict:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tie-break policy %q (want keep-first, keep-last or strict)", s)
	}
}

// Options configures a reconciliation run.
type Options struct {
	// DropEmpty drops rows with a missing deviation before deduplication.
	DropEmpty bool

	// TieBreak resolves equally scored duplicates.
	TieBreak TieBreak

	// Corrections overrides the registered corrections when non-nil.
	Corrections []Correction

	Logger *slog.Logger
}

// DefaultOptions drops empty rows and keeps the first of tied duplicates.
func DefaultOptions() Options {
	return Options{DropEmpty: true, TieBreak: TieKeepFirst}
}

// Report summarizes what reconciliation did to the raw rows.
type Report struct {
	InputRows       int            `json:"inputRows"`
	OutputRows      int            `json:"outputRows"`
	Fixed           int            `json:"fixed"`
	FixedByRule     map[string]int `json:"fixedByRule"`
	DroppedEmpty    int            `json:"droppedEmpty"`
	DroppedInvalid  int            `json:"droppedInvalid"`
	DroppedInverted int            `json:"droppedInverted"`
	DuplicateGroups int            `json:"duplicateGroups"`
	DuplicateRows   int            `json:"duplicateRows"`
	Ties            int            `json:"ties"`
	KeptEmpty       []string       `json:"keptEmpty,omitempty"`
}

type candidate struct {
	row   dataset.Row
	score int
	line  int
}

// Reconcile validates raw and builds the lookup index from it.
func Reconcile(raw *dataset.Raw, opts Options) (*table.Index, Report, error) {
	report := Report{FixedByRule: make(map[string]int)}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tieBreak := opts.TieBreak
	if tieBreak == "" {
		tieBreak = TieKeepFirst
	}
	corrections := opts.Corrections
	if corrections == nil {
		corrections = All()
	} else {
		corrections = append([]Correction(nil), corrections...)
		sortCorrections(corrections)
	}

	if raw == nil {
		return nil, report, fmt.Errorf("%w: no dataset", dataset.ErrMalformedDataset)
	}
	if err := raw.Validate(); err != nil {
		return nil, report, err
	}
	meta, resolver, err := buildMeta(raw)
	if err != nil {
		return nil, report, err
	}

	best := make(map[table.Key]candidate)
	dupes := make(map[table.Key]int)
	var tied []table.Key

	for line, row := range raw.Variations {
		report.InputRows++

		if row.Shape != "" {
			report.DroppedInvalid++
			logger.Debug("dropping malformed row", "row", line, "reason", row.Shape)
			continue
		}
		if !row.Kind.Valid || !row.Bucket.Valid || !row.Grade.Valid || !row.Zone.Valid {
			report.DroppedInvalid++
			logger.Debug("dropping row with missing key field", "row", line)
			continue
		}

		for _, c := range corrections {
			if c.Apply(&row, meta.Zones) {
				report.Fixed++
				report.FixedByRule[c.Name]++
			}
		}

		key, zone, reason := resolveKey(row, meta, resolver)
		if reason != "" {
			report.DroppedInvalid++
			logger.Debug("dropping invalid row", "row", line, "reason", reason)
			continue
		}

		if !row.Complete() {
			if opts.DropEmpty {
				report.DroppedEmpty++
				continue
			}
		} else if row.Upper.Value < row.Lower.Value {
			report.DroppedInverted++
			logger.Debug("dropping inverted row", "row", line, "key", key.String(),
				"upper", row.Upper.Value, "lower", row.Lower.Value)
			continue
		}

		c := candidate{row: row, score: Score(key.Kind, zone, row.Upper, row.Lower), line: line}
		cur, exists := best[key]
		if !exists {
			best[key] = c
			continue
		}

		dupes[key]++
		report.DuplicateRows++

		switch {
		case c.score > cur.score:
			best[key] = c
		case c.score == cur.score:
			report.Ties++
			tied = append(tied, key)
			logger.Warn("duplicate rows score equally",
				"key", key.String(), "score", c.score,
				"first_row", cur.line, "other_row", line, "policy", string(tieBreak))
			if tieBreak == TieKeepLast {
				best[key] = c
			}
		}
	}
	report.DuplicateGroups = len(dupes)

	if tieBreak == TieStrict && len(tied) > 0 {
		return nil, report, fmt.Errorf("%w: %d tie(s), first at key %s", ErrAmbiguousDuplicate, len(tied), tied[0])
	}

	entries := make([]table.Entry, 0, len(best))
	for key, c := range best {
		if !c.row.Complete() {
			report.KeptEmpty = append(report.KeptEmpty, key.String())
			continue
		}
		entries = append(entries, table.Entry{
			Key:       key,
			Deviation: table.Deviation{Upper: c.row.Upper.Value, Lower: c.row.Lower.Value},
		})
	}
	sort.Strings(report.KeptEmpty)

	idx, err := table.NewIndex(meta, entries)
	if err != nil {
		return nil, report, fmt.Errorf("failed to build index: %w", err)
	}
	report.OutputRows = idx.Len()

	for name, n := range report.FixedByRule {
		logger.Debug("correction applied", "rule", name, "rows", n)
	}
	logger.Info("reconciliation complete",
		"input_rows", report.InputRows,
		"output_rows", report.OutputRows,
		"fixed", report.Fixed,
		"dropped_empty", report.DroppedEmpty,
		"dropped_invalid", report.DroppedInvalid,
		"dropped_inverted", report.DroppedInverted,
		"duplicate_groups", report.DuplicateGroups,
		"ties", report.Ties,
	)

	return idx, report, nil
}

func buildMeta(raw *dataset.Raw) (table.Meta, *table.Resolver, error) {
	ranges, err := raw.Ranges()
	if err != nil {
		return table.Meta{}, nil, err
	}
	resolver, err := table.NewResolver(ranges)
	if err != nil {
		return table.Meta{}, nil, fmt.Errorf("%w: %w", dataset.ErrMalformedDataset, err)
	}
	grades, err := raw.GradeTable()
	if err != nil {
		return table.Meta{}, nil, err
	}
	zones, err := raw.ZoneCodes()
	if err != nil {
		return table.Meta{}, nil, err
	}
	return table.Meta{Ranges: ranges, Grades: grades, Zones: zones}, resolver, nil
}

// resolveKey checks the key fields against the dataset tables and returns the
// zone letter, or a reason the row cannot be indexed.
func resolveKey(row dataset.Row, meta table.Meta, resolver *table.Resolver) (table.Key, string, string) {
	key := table.Key{
		Kind:   table.Kind(row.Kind.Value),
		Bucket: table.Bucket(row.Bucket.Value),
		Grade:  table.GradeID(row.Grade.Value),
		Zone:   table.ZoneKey(row.Zone.Value),
	}
	if !key.Kind.Valid() || row.Kind.Value != int64(key.Kind) {
		return key, "", fmt.Sprintf("kind %d is not 0 (hole) or 1 (shaft)", row.Kind.Value)
	}
	if _, ok := resolver.Range(key.Bucket); !ok {
		return key, "", fmt.Sprintf("unknown size bucket %d", row.Bucket.Value)
	}
	if _, ok := meta.Grades.Label(key.Grade); !ok {
		return key, "", fmt.Sprintf("unknown grade id %d", row.Grade.Value)
	}
	zone, ok := meta.Zones.Letter(key.Zone)
	if !ok {
		return key, "", fmt.Sprintf("unknown zone code %d", row.Zone.Value)
	}
	return key, zone, ""
}
