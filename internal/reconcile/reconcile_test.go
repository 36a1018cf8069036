package reconcile

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"testing"

	"github.com/JonMunkholm/fits/internal/dataset"
	"github.com/JonMunkholm/fits/internal/table"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// shaftM mirrors the registered rule without importing the rules package.
var shaftM = Correction{
	Name: "shaft-M-to-m",
	Apply: func(row *dataset.Row, zones *table.ZoneCodes) bool {
		from, _ := zones.Key("M")
		to, ok := zones.Key("m")
		if !ok || row.Kind.Value != 1 || table.ZoneKey(row.Zone.Value) != from {
			return false
		}
		row.Zone = dataset.Int(int64(to))
		return true
	},
}

func loadMini(t *testing.T) *dataset.Raw {
	t.Helper()
	raw, err := dataset.Load("../dataset/testdata/mini.json")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return raw
}

func opts(mod func(*Options)) Options {
	o := DefaultOptions()
	o.Corrections = []Correction{shaftM}
	o.Logger = quiet
	if mod != nil {
		mod(&o)
	}
	return o
}

func TestReconcile_Report(t *testing.T) {
	_, report, err := Reconcile(loadMini(t), opts(nil))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	want := Report{
		InputRows:       23,
		OutputRows:      16,
		Fixed:           1,
		FixedByRule:     map[string]int{"shaft-M-to-m": 1},
		DroppedEmpty:    1,
		DroppedInvalid:  3,
		DroppedInverted: 1,
		DuplicateGroups: 2,
		DuplicateRows:   2,
		Ties:            1,
	}
	if !reflect.DeepEqual(report, want) {
		t.Errorf("Report = %+v\nwant     %+v", report, want)
	}
}

func TestReconcile_PicksPhysicallyConsistentDuplicate(t *testing.T) {
	idx, _, err := Reconcile(loadMini(t), opts(nil))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	tests := []struct {
		name string
		key  table.Key
		want table.Deviation
	}{
		{"h6 keeps zero upper", table.Key{Kind: table.Shaft, Bucket: 6, Grade: 8, Zone: 38}, table.Deviation{Upper: 0, Lower: -13}},
		{"g6 keeps ordered row", table.Key{Kind: table.Shaft, Bucket: 6, Grade: 8, Zone: 37}, table.Deviation{Upper: -7, Lower: -20}},
		{"p6 keeps the complete row", table.Key{Kind: table.Shaft, Bucket: 6, Grade: 8, Zone: 43}, table.Deviation{Upper: 35, Lower: 22}},
		{"P7 string cells", table.Key{Kind: table.Hole, Bucket: 6, Grade: 9, Zone: 13}, table.Deviation{Upper: -14, Lower: -35}},
		{"H8 tie keeps first", table.Key{Kind: table.Hole, Bucket: 6, Grade: 10, Zone: 8}, table.Deviation{Upper: 33, Lower: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.Lookup(tt.key)
			if !ok {
				t.Fatalf("Lookup(%s) not found", tt.key)
			}
			if got != tt.want {
				t.Errorf("Lookup(%s) = %+v, want %+v", tt.key, got, tt.want)
			}
		})
	}
}

func TestReconcile_EveryEntryIsOrdered(t *testing.T) {
	idx, _, err := Reconcile(loadMini(t), opts(nil))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	for _, e := range idx.Entries() {
		if e.Deviation.Upper < e.Deviation.Lower {
			t.Errorf("entry %s has upper %d < lower %d", e.Key, e.Deviation.Upper, e.Deviation.Lower)
		}
	}
}

func TestReconcile_TieBreak(t *testing.T) {
	h8 := table.Key{Kind: table.Hole, Bucket: 6, Grade: 10, Zone: 8}

	idx, _, err := Reconcile(loadMini(t), opts(func(o *Options) { o.TieBreak = TieKeepLast }))
	if err != nil {
		t.Fatalf("Reconcile(keep-last) error = %v", err)
	}
	if d, _ := idx.Lookup(h8); d.Upper != 34 {
		t.Errorf("keep-last H8 upper = %d, want 34", d.Upper)
	}

	_, report, err := Reconcile(loadMini(t), opts(func(o *Options) { o.TieBreak = TieStrict }))
	if !errors.Is(err, ErrAmbiguousDuplicate) {
		t.Fatalf("Reconcile(strict) error = %v, want ErrAmbiguousDuplicate", err)
	}
	if report.Ties != 1 {
		t.Errorf("strict report.Ties = %d, want 1", report.Ties)
	}
}

func TestReconcile_ResultIndependentOfRowOrder(t *testing.T) {
	forward := loadMini(t)
	reversed := loadMini(t)
	slices.Reverse(reversed.Variations)

	// Reversing flips which tied row comes first, so keep-last on the
	// original order must equal keep-first on the reversed order.
	a, _, err := Reconcile(forward, opts(func(o *Options) { o.TieBreak = TieKeepLast }))
	if err != nil {
		t.Fatalf("Reconcile(forward) error = %v", err)
	}
	b, _, err := Reconcile(reversed, opts(nil))
	if err != nil {
		t.Fatalf("Reconcile(reversed) error = %v", err)
	}
	if !reflect.DeepEqual(a.Entries(), b.Entries()) {
		t.Errorf("entries differ by input order:\n%v\n%v", a.Entries(), b.Entries())
	}
}

func TestReconcile_KeepEmpty(t *testing.T) {
	raw := loadMini(t)
	raw.Variations = append(raw.Variations,
		dataset.NewRow(table.Shaft, 5, 8, 43, dataset.Absent, dataset.Absent))

	idx, report, err := Reconcile(raw, opts(func(o *Options) { o.DropEmpty = false }))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if report.DroppedEmpty != 0 {
		t.Errorf("DroppedEmpty = %d, want 0", report.DroppedEmpty)
	}
	// The blank p6@6 row now competes with its complete duplicate and loses.
	if report.DuplicateGroups != 3 {
		t.Errorf("DuplicateGroups = %d, want 3", report.DuplicateGroups)
	}
	if want := []string{"1|5|8|43"}; !reflect.DeepEqual(report.KeptEmpty, want) {
		t.Errorf("KeptEmpty = %v, want %v", report.KeptEmpty, want)
	}
	if _, ok := idx.Lookup(table.Key{Kind: table.Shaft, Bucket: 5, Grade: 8, Zone: 43}); ok {
		t.Error("empty row entered the index")
	}
	if report.OutputRows != 16 {
		t.Errorf("OutputRows = %d, want 16", report.OutputRows)
	}
}

func TestReconcile_WithoutCorrections(t *testing.T) {
	idx, report, err := Reconcile(loadMini(t), opts(func(o *Options) { o.Corrections = []Correction{} }))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if report.Fixed != 0 {
		t.Errorf("Fixed = %d, want 0", report.Fixed)
	}
	if _, ok := idx.Lookup(table.Key{Kind: table.Shaft, Bucket: 6, Grade: 8, Zone: 11}); !ok {
		t.Error("uncorrected shaft M row missing from index")
	}
}

func TestReconcile_MalformedDataset(t *testing.T) {
	tests := []struct {
		name string
		raw  *dataset.Raw
	}{
		{name: "nil", raw: nil},
		{name: "missing variations", raw: &dataset.Raw{
			SizeRanges: []dataset.RawRange{{Low: "0", High: "1", Bucket: 1}},
			Grades:     map[string]dataset.Label{},
			Zones:      map[string]string{},
		}},
		{name: "ambiguous zones", raw: &dataset.Raw{
			SizeRanges: []dataset.RawRange{{Low: "0", High: "1", Bucket: 1}},
			Grades:     map[string]dataset.Label{},
			Zones:      map[string]string{"1": "H", "2": "H"},
			Variations: []dataset.Row{},
		}},
		{name: "gap in ranges", raw: &dataset.Raw{
			SizeRanges: []dataset.RawRange{{Low: "0", High: "1", Bucket: 1}, {Low: "3", High: "6", Bucket: 2}},
			Grades:     map[string]dataset.Label{},
			Zones:      map[string]string{},
			Variations: []dataset.Row{},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, _, err := Reconcile(tt.raw, opts(nil))
			if !errors.Is(err, dataset.ErrMalformedDataset) {
				t.Fatalf("Reconcile() error = %v, want ErrMalformedDataset", err)
			}
			if idx != nil {
				t.Error("Reconcile() returned a partial index")
			}
		})
	}
}

func TestParseTieBreak(t *testing.T) {
	tests := map[string]TieBreak{
		"":           TieKeepFirst,
		"keep-first": TieKeepFirst,
		"Keep-Last":  TieKeepLast,
		" strict ":   TieStrict,
	}
	for in, want := range tests {
		got, err := ParseTieBreak(in)
		if err != nil || got != want {
			t.Errorf("ParseTieBreak(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseTieBreak("random"); err == nil {
		t.Error("ParseTieBreak(random) error = nil, want error")
	}
}
