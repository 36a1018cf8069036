// Package dataset models the raw ISO limits reference dataset as it is supplied
// externally, before any reconciliation.
//
// The dataset carries four collections:
//
//	size_ranges  [[low_mm, high_mm, bucket], ...]
//	grades       {"<grade id>": "<label>", ...}
//	zones        {"<zone code>": "<letter>", ...}
//	variations   [[kind, bucket, grade id, zone code, [upper_um, lower_um]], ...]
//
// Variation rows are decoded tolerantly: a row that does not have the expected
// shape is kept and flagged rather than failing the whole decode, and deviation
// cells that are null, blank or non-numeric are treated as absent. Deciding what
// to do with such rows is the reconciler's job.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fits/internal/fixed"
	"github.com/JonMunkholm/fits/internal/table"
)

// ErrMalformedDataset is returned when a required collection is missing or a
// lookup table (ranges, grades, zones) cannot be built.
var ErrMalformedDataset = errors.New("malformed dataset")

// Raw is the undecoded-as-possible reference dataset.
type Raw struct {
	SizeRanges []RawRange        `json:"size_ranges" yaml:"size_ranges"`
	Grades     map[string]Label  `json:"grades" yaml:"grades"`
	Zones      map[string]string `json:"zones" yaml:"zones"`
	Variations []Row             `json:"variations" yaml:"variations"`
}

// Validate reports every missing collection in one error.
func (r *Raw) Validate() error {
	var missing []string
	if r.SizeRanges == nil {
		missing = append(missing, "size_ranges")
	}
	if r.Grades == nil {
		missing = append(missing, "grades")
	}
	if r.Zones == nil {
		missing = append(missing, "zones")
	}
	if r.Variations == nil {
		missing = append(missing, "variations")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMalformedDataset, strings.Join(missing, ", "))
	}
	return nil
}

// Ranges converts the size ranges to micrometres.
func (r *Raw) Ranges() ([]table.SizeRange, error) {
	out := make([]table.SizeRange, 0, len(r.SizeRanges))
	for i, rr := range r.SizeRanges {
		low, err := fixed.ParseMicrometres(rr.Low)
		if err != nil {
			return nil, fmt.Errorf("%w: size range %d low: %w", ErrMalformedDataset, i, err)
		}
		high, err := fixed.ParseMicrometres(rr.High)
		if err != nil {
			return nil, fmt.Errorf("%w: size range %d high: %w", ErrMalformedDataset, i, err)
		}
		out = append(out, table.SizeRange{Bucket: rr.Bucket, Low: low, High: high})
	}
	return out, nil
}

// GradeTable builds the grade id → label table.
func (r *Raw) GradeTable() (*table.GradeTable, error) {
	entries := make([]table.GradeEntry, 0, len(r.Grades))
	for id, label := range r.Grades {
		n, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			return nil, fmt.Errorf("%w: grade id %q is not an integer", ErrMalformedDataset, id)
		}
		entries = append(entries, table.GradeEntry{ID: table.GradeID(n), Label: string(label)})
	}
	g, err := table.NewGradeTable(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDataset, err)
	}
	return g, nil
}

// ZoneCodes builds the bidirectional zone table from the single code → letter list.
func (r *Raw) ZoneCodes() (*table.ZoneCodes, error) {
	entries := make([]table.ZoneEntry, 0, len(r.Zones))
	for code, letter := range r.Zones {
		n, err := strconv.Atoi(strings.TrimSpace(code))
		if err != nil {
			return nil, fmt.Errorf("%w: zone code %q is not an integer", ErrMalformedDataset, code)
		}
		entries = append(entries, table.ZoneEntry{Key: table.ZoneKey(n), Letter: letter})
	}
	z, err := table.NewZoneCodes(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDataset, err)
	}
	return z, nil
}

// ============================================================================
// Size ranges
// ============================================================================

// RawRange is one [low_mm, high_mm, bucket] triple. Bounds stay as text until
// converted by Ranges so no float rounding ever touches them.
type RawRange struct {
	Low    string
	High   string
	Bucket table.Bucket
}

func (rr *RawRange) UnmarshalJSON(b []byte) error {
	var parts []json.Number
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&parts); err != nil {
		return fmt.Errorf("size range %s: %w", b, err)
	}
	return rr.set(numbersToStrings(parts))
}

func (rr *RawRange) set(parts []string) error {
	if len(parts) < 3 {
		return fmt.Errorf("size range needs [low, high, bucket], got %d values", len(parts))
	}
	bucket, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return fmt.Errorf("size range bucket %q: %w", parts[2], err)
	}
	rr.Low = strings.TrimSpace(parts[0])
	rr.High = strings.TrimSpace(parts[1])
	rr.Bucket = table.Bucket(bucket)
	return nil
}

func numbersToStrings(ns []json.Number) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.String()
	}
	return out
}

// ============================================================================
// Grade labels
// ============================================================================

// Label is a grade label. The dataset writes most labels as numbers and the
// finest grade as the string "01"; both decode to text.
type Label string

func (l *Label) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = Label(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("grade label %s: %w", b, err)
	}
	*l = Label(n.String())
	return nil
}

// ============================================================================
// Cells and rows
// ============================================================================

// Cell is a tolerant integer cell. Valid is false for null, blank, non-numeric
// or non-integral values.
type Cell struct {
	Value int64
	Valid bool
}

// Int returns a valid cell holding v.
func Int(v int64) Cell { return Cell{Value: v, Valid: true} }

// Absent is the empty cell.
var Absent = Cell{}

func (c Cell) String() string {
	if !c.Valid {
		return "null"
	}
	return strconv.FormatInt(c.Value, 10)
}

// parseCell interprets scalar text. Integral floats such as "21.0" or "1e1"
// are accepted.
func parseCell(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return Absent
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(v)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return Absent
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return Absent
	}
	return Int(int64(f))
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	t := bytes.TrimSpace(b)
	switch {
	case bytes.Equal(t, []byte("null")):
		*c = Absent
	case len(t) > 0 && t[0] == '"':
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			*c = Absent
			return nil
		}
		*c = parseCell(s)
	default:
		*c = parseCell(string(t))
	}
	return nil
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(c.Value, 10)), nil
}

// Row is one variation row: [kind, bucket, grade, zone, [upper, lower]].
//
// Shape is non-empty when the row could not be read in that form; the other
// fields are then meaningless.
type Row struct {
	Kind   Cell
	Bucket Cell
	Grade  Cell
	Zone   Cell
	Upper  Cell
	Lower  Cell
	Shape  string
}

// NewRow builds a well-formed row. Pass Absent for a missing deviation.
func NewRow(kind table.Kind, bucket table.Bucket, grade table.GradeID, zone table.ZoneKey, upper, lower Cell) Row {
	return Row{
		Kind:   Int(int64(kind)),
		Bucket: Int(int64(bucket)),
		Grade:  Int(int64(grade)),
		Zone:   Int(int64(zone)),
		Upper:  upper,
		Lower:  lower,
	}
}

// Complete reports whether both deviations are present.
func (r Row) Complete() bool {
	return r.Upper.Valid && r.Lower.Valid
}

func (r *Row) UnmarshalJSON(b []byte) error {
	*r = Row{}
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		r.Shape = "not an array"
		return nil
	}
	if len(parts) < 5 {
		r.Shape = fmt.Sprintf("expected 5 elements, got %d", len(parts))
		return nil
	}
	for i, dst := range []*Cell{&r.Kind, &r.Bucket, &r.Grade, &r.Zone} {
		if err := dst.UnmarshalJSON(parts[i]); err != nil {
			return err
		}
	}

	// The deviation pair may be missing or short; missing values are absent.
	var dev []json.RawMessage
	if err := json.Unmarshal(parts[4], &dev); err != nil {
		return nil
	}
	if len(dev) > 0 {
		_ = r.Upper.UnmarshalJSON(dev[0])
	}
	if len(dev) > 1 {
		_ = r.Lower.UnmarshalJSON(dev[1])
	}
	return nil
}

func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Kind, r.Bucket, r.Grade, r.Zone, []Cell{r.Upper, r.Lower}})
}
