package dataset

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/fits/internal/table"
)

func TestCell_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Cell
	}{
		{`21`, Int(21)},
		{`-13`, Int(-13)},
		{`"-14"`, Int(-14)},
		{`" 7 "`, Int(7)},
		{`21.0`, Int(21)},
		{`1e1`, Int(10)},
		{`null`, Absent},
		{`""`, Absent},
		{`"abc"`, Absent},
		{`12.5`, Absent},
		{`true`, Absent},
		{`[1]`, Absent},
		{`9223372036854775808`, Absent},
		{`9.223372036854775807e18`, Absent},
		{`-9223372036854775808`, Int(-9223372036854775808)},
		{`-9.223372036854775808e18`, Int(-9223372036854775808)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got Cell
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRow_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantShape bool
		want      Row
	}{
		{
			name: "complete",
			in:   `[1, 6, 8, 37, [-7, -20]]`,
			want: NewRow(table.Shaft, 6, 8, 37, Int(-7), Int(-20)),
		},
		{
			name: "blank deviations",
			in:   `[1, 6, 8, 43, ["", ""]]`,
			want: NewRow(table.Shaft, 6, 8, 43, Absent, Absent),
		},
		{
			name: "missing deviation pair",
			in:   `[0, 6, 9, 8, null]`,
			want: NewRow(table.Hole, 6, 9, 8, Absent, Absent),
		},
		{
			name: "single deviation",
			in:   `[0, 6, 9, 8, [21]]`,
			want: NewRow(table.Hole, 6, 9, 8, Int(21), Absent),
		},
		{name: "short row", in: `[1, 6]`, wantShape: true},
		{name: "not an array", in: `{"kind": 1}`, wantShape: true},
		{name: "null row", in: `null`, wantShape: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Row
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if tt.wantShape {
				if got.Shape == "" {
					t.Errorf("Shape = empty, want a shape problem for %s", tt.in)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Unmarshal() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRow_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(NewRow(table.Shaft, 6, 8, 43, Absent, Int(22)))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `[1,6,8,43,[null,22]]` {
		t.Errorf("Marshal() = %s", b)
	}
}

func TestRaw_ValidateListsEveryMissingCollection(t *testing.T) {
	raw := &Raw{Zones: map[string]string{}}
	err := raw.Validate()
	if !errors.Is(err, ErrMalformedDataset) {
		t.Fatalf("Validate() error = %v, want ErrMalformedDataset", err)
	}
	for _, name := range []string{"size_ranges", "grades", "variations"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Validate() error %q does not mention %s", err, name)
		}
	}
	if strings.Contains(err.Error(), "zones") {
		t.Errorf("Validate() error %q mentions zones, which is present", err)
	}
}

func TestRaw_Tables(t *testing.T) {
	raw := &Raw{
		SizeRanges: []RawRange{{Low: "0", High: "1", Bucket: 1}, {Low: "1", High: "3.5", Bucket: 2}},
		Grades:     map[string]Label{"1": "01", "2": "0", "9": "7"},
		Zones:      map[string]string{"8": "H", "37": "g"},
		Variations: []Row{},
	}

	ranges, err := raw.Ranges()
	if err != nil {
		t.Fatalf("Ranges() error = %v", err)
	}
	if ranges[1].High != 3500 {
		t.Errorf("ranges[1].High = %d, want 3500", ranges[1].High)
	}

	grades, err := raw.GradeTable()
	if err != nil {
		t.Fatalf("GradeTable() error = %v", err)
	}
	if id, ok := grades.ID("01"); !ok || id != 1 {
		t.Errorf("ID(01) = %d, %v; want 1, true", id, ok)
	}

	zones, err := raw.ZoneCodes()
	if err != nil {
		t.Fatalf("ZoneCodes() error = %v", err)
	}
	if k, ok := zones.Key("g"); !ok || k != 37 {
		t.Errorf("Key(g) = %d, %v; want 37, true", k, ok)
	}
}

func TestRaw_TablesRejectBadInput(t *testing.T) {
	tests := []struct {
		name string
		run  func(*Raw) error
		raw  Raw
	}{
		{
			name: "non-integer zone code",
			raw:  Raw{Zones: map[string]string{"H": "8"}},
			run:  func(r *Raw) error { _, err := r.ZoneCodes(); return err },
		},
		{
			name: "duplicate zone letter",
			raw:  Raw{Zones: map[string]string{"8": "H", "9": "H"}},
			run:  func(r *Raw) error { _, err := r.ZoneCodes(); return err },
		},
		{
			name: "non-integer grade id",
			raw:  Raw{Grades: map[string]Label{"x": "7"}},
			run:  func(r *Raw) error { _, err := r.GradeTable(); return err },
		},
		{
			name: "range with too many decimals",
			raw:  Raw{SizeRanges: []RawRange{{Low: "0", High: "1.0001", Bucket: 1}}},
			run:  func(r *Raw) error { _, err := r.Ranges(); return err },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(&tt.raw); !errors.Is(err, ErrMalformedDataset) {
				t.Errorf("error = %v, want ErrMalformedDataset", err)
			}
		})
	}
}

func TestRaw_DuplicateZoneLetterKeepsCause(t *testing.T) {
	raw := Raw{Zones: map[string]string{"8": "H", "9": "H"}}
	_, err := raw.ZoneCodes()
	if !errors.Is(err, table.ErrAmbiguousZone) {
		t.Errorf("ZoneCodes() error = %v, want ErrAmbiguousZone in chain", err)
	}
}
