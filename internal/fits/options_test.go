package fits

import (
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/fits/internal/table"
	"github.com/JonMunkholm/fits/internal/table/tabletest"
)

func TestOptions_ZonesAt25(t *testing.T) {
	e := newTestEngine(t)

	opts, err := e.Options("25")
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.Bucket != 6 || opts.D != "25.000" {
		t.Errorf("Options() bucket = %d, D = %s", opts.Bucket, opts.D)
	}
	if opts.Range.Low != 18000 || opts.Range.High != 30000 {
		t.Errorf("Options() range = %+v", opts.Range)
	}

	wantHoles := []string{"F", "G", "H", "JS", "K", "M", "N", "P", "S"}
	if !reflect.DeepEqual(opts.HoleZones, wantHoles) {
		t.Errorf("HoleZones = %v, want %v", opts.HoleZones, wantHoles)
	}
	wantShafts := []string{"e", "f", "g", "h", "js", "k", "m", "n", "p", "s"}
	if !reflect.DeepEqual(opts.ShaftZones, wantShafts) {
		t.Errorf("ShaftZones = %v, want %v", opts.ShaftZones, wantShafts)
	}
}

func TestOptions_EmptyBucketListsNothing(t *testing.T) {
	e := newTestEngine(t)

	opts, err := e.Options("100")
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if len(opts.HoleZones) != 0 || len(opts.ShaftZones) != 0 {
		t.Errorf("Options(100) = %v / %v, want no zones", opts.HoleZones, opts.ShaftZones)
	}
}

func TestOptions_UpperFirstOrder(t *testing.T) {
	e, err := NewEngine(tabletest.Index(), WithZoneOrder(table.OrderUpperFirst))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	opts, err := e.Options("2")
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if want := []string{"H"}; !reflect.DeepEqual(opts.HoleZones, want) {
		t.Errorf("HoleZones = %v, want %v", opts.HoleZones, want)
	}
	if want := []string{"g", "h"}; !reflect.DeepEqual(opts.ShaftZones, want) {
		t.Errorf("ShaftZones = %v, want %v", opts.ShaftZones, want)
	}
}

func TestOptions_Errors(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.Options("abc"); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("Options(abc) error = %v, want ErrInvalidNumber", err)
	}
	if _, err := e.Options("1500"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Options(1500) error = %v, want ErrOutOfRange", err)
	}
}

func TestGrades(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name string
		d    string
		kind table.Kind
		zone string
		want []string
	}{
		{"finest grades first", "2", table.Hole, "H", []string{"01", "0", "7"}},
		{"H at 25", "25", table.Hole, "H", []string{"6", "7", "8", "9"}},
		{"h at 25", "25", table.Shaft, "h", []string{"6", "7"}},
		{"zone without entries", "25", table.Hole, "ZC", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Grades(tt.d, tt.kind, tt.zone)
			if err != nil {
				t.Fatalf("Grades() error = %v", err)
			}
			if !reflect.DeepEqual(got.Grades, tt.want) {
				t.Errorf("Grades() = %v, want %v", got.Grades, tt.want)
			}
		})
	}
}

func TestGrades_UnknownZone(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Grades("25", table.Hole, "ZA"); !errors.Is(err, ErrUnknownZone) {
		t.Errorf("Grades(ZA) error = %v, want ErrUnknownZone", err)
	}
}
