package table

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrDuplicateKey is returned by NewIndex when two entries share a key.
	ErrDuplicateKey = errors.New("duplicate index key")

	// ErrInvertedDeviation is returned by NewIndex for an entry with upper < lower.
	ErrInvertedDeviation = errors.New("upper deviation below lower deviation")
)

// Key addresses one deviation pair.
type Key struct {
	Kind   Kind    `json:"kind"`
	Bucket Bucket  `json:"bucket"`
	Grade  GradeID `json:"grade"`
	Zone   ZoneKey `json:"zone"`
}

// String renders the key as "kind|bucket|grade|zone".
func (k Key) String() string {
	return fmt.Sprintf("%d|%d|%d|%d", k.Kind, k.Bucket, k.Grade, k.Zone)
}

// Less orders keys by kind, bucket, grade, then zone.
func (k Key) Less(o Key) bool {
	if k.Kind != o.Kind {
		return k.Kind < o.Kind
	}
	if k.Bucket != o.Bucket {
		return k.Bucket < o.Bucket
	}
	if k.Grade != o.Grade {
		return k.Grade < o.Grade
	}
	return k.Zone < o.Zone
}

// Deviation is a signed (upper, lower) pair in micrometres.
type Deviation struct {
	Upper int64
	Lower int64
}

// Tolerance returns upper - lower.
func (d Deviation) Tolerance() int64 {
	return d.Upper - d.Lower
}

// MarshalJSON encodes the pair as [upper, lower].
func (d Deviation) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int64{d.Upper, d.Lower})
}

// UnmarshalJSON decodes [upper, lower].
func (d *Deviation) UnmarshalJSON(b []byte) error {
	var pair [2]int64
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("deviation: %w", err)
	}
	d.Upper, d.Lower = pair[0], pair[1]
	return nil
}

// Entry is one row of the flat reconciled table.
type Entry struct {
	Key       Key
	Deviation Deviation
}

// MarshalJSON encodes the entry as [kind, bucket, grade, zone, [upper, lower]].
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Key.Kind, e.Key.Bucket, e.Key.Grade, e.Key.Zone, e.Deviation})
}

// UnmarshalJSON decodes the five-element row form.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("entry: %w", err)
	}
	if len(parts) != 5 {
		return fmt.Errorf("entry: want 5 elements, got %d", len(parts))
	}
	targets := []any{&e.Key.Kind, &e.Key.Bucket, &e.Key.Grade, &e.Key.Zone, &e.Deviation}
	for i, t := range targets {
		if err := json.Unmarshal(parts[i], t); err != nil {
			return fmt.Errorf("entry element %d: %w", i, err)
		}
	}
	return nil
}

// Nested is the four-level lookup form of the index.
// Integer keys serialize as decimal strings ("0", "6", "7", "12").
type Nested map[Kind]map[Bucket]map[GradeID]map[ZoneKey]Deviation

// Meta carries the lookup tables an Index is built against.
type Meta struct {
	Ranges []SizeRange
	Grades *GradeTable
	Zones  *ZoneCodes
}

// Index is the immutable reconciled deviation table.
type Index struct {
	resolver *Resolver
	grades   *GradeTable
	zones    *ZoneCodes
	entries  []Entry
	nested   Nested
}

// NewIndex validates entries against the uniqueness and ordering invariants
// and builds the nested lookup. Entries are copied and sorted by key.
func NewIndex(meta Meta, entries []Entry) (*Index, error) {
	if meta.Grades == nil || meta.Zones == nil {
		return nil, errors.New("index: grade table and zone codes are required")
	}
	resolver, err := NewResolver(meta.Ranges)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}

	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key.Less(sorted[j].Key) })

	nested := make(Nested)
	for i, e := range sorted {
		if i > 0 && sorted[i-1].Key == e.Key {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, e.Key)
		}
		if e.Deviation.Upper < e.Deviation.Lower {
			return nil, fmt.Errorf("%w: %s [%d, %d]", ErrInvertedDeviation, e.Key, e.Deviation.Upper, e.Deviation.Lower)
		}
		if !e.Key.Kind.Valid() {
			return nil, fmt.Errorf("index: %s has invalid kind", e.Key)
		}

		byBucket, ok := nested[e.Key.Kind]
		if !ok {
			byBucket = make(map[Bucket]map[GradeID]map[ZoneKey]Deviation)
			nested[e.Key.Kind] = byBucket
		}
		byGrade, ok := byBucket[e.Key.Bucket]
		if !ok {
			byGrade = make(map[GradeID]map[ZoneKey]Deviation)
			byBucket[e.Key.Bucket] = byGrade
		}
		byZone, ok := byGrade[e.Key.Grade]
		if !ok {
			byZone = make(map[ZoneKey]Deviation)
			byGrade[e.Key.Grade] = byZone
		}
		byZone[e.Key.Zone] = e.Deviation
	}

	return &Index{
		resolver: resolver,
		grades:   meta.Grades,
		zones:    meta.Zones,
		entries:  sorted,
		nested:   nested,
	}, nil
}

// Lookup returns the deviation pair stored under k.
func (x *Index) Lookup(k Key) (Deviation, bool) {
	d, ok := x.nested[k.Kind][k.Bucket][k.Grade][k.Zone]
	return d, ok
}

// Zones returns the zone codes that have at least one grade at (kind, bucket).
func (x *Index) Zones(kind Kind, bucket Bucket) []ZoneKey {
	seen := make(map[ZoneKey]bool)
	for _, byZone := range x.nested[kind][bucket] {
		for z := range byZone {
			seen[z] = true
		}
	}
	out := make([]ZoneKey, 0, len(seen))
	for z := range seen {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Grades returns the grade ids defined for (kind, bucket, zone).
func (x *Index) Grades(kind Kind, bucket Bucket, zone ZoneKey) []GradeID {
	var out []GradeID
	for g, byZone := range x.nested[kind][bucket] {
		if _, ok := byZone[zone]; ok {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Entries returns a copy of the flat entry list, sorted by key.
func (x *Index) Entries() []Entry {
	return append([]Entry(nil), x.entries...)
}

// Len returns the number of entries.
func (x *Index) Len() int {
	return len(x.entries)
}

// Nested returns a deep copy of the four-level mapping.
func (x *Index) Nested() Nested {
	out := make(Nested, len(x.nested))
	for k, byBucket := range x.nested {
		out[k] = make(map[Bucket]map[GradeID]map[ZoneKey]Deviation, len(byBucket))
		for b, byGrade := range byBucket {
			out[k][b] = make(map[GradeID]map[ZoneKey]Deviation, len(byGrade))
			for g, byZone := range byGrade {
				out[k][b][g] = make(map[ZoneKey]Deviation, len(byZone))
				for z, d := range byZone {
					out[k][b][g][z] = d
				}
			}
		}
	}
	return out
}

// Resolver returns the size-range resolver the index was built with.
func (x *Index) Resolver() *Resolver { return x.resolver }

// Ranges returns the size ranges.
func (x *Index) Ranges() []SizeRange { return x.resolver.Ranges() }

// GradeTable returns the grade table.
func (x *Index) GradeTable() *GradeTable { return x.grades }

// ZoneCodes returns the zone code table.
func (x *Index) ZoneCodes() *ZoneCodes { return x.zones }

// Meta returns the lookup tables, suitable for rebuilding an equivalent index.
func (x *Index) Meta() Meta {
	return Meta{Ranges: x.Ranges(), Grades: x.grades, Zones: x.zones}
}
