package table

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrAmbiguousZone is returned when a zone table maps one code or one letter twice.
var ErrAmbiguousZone = errors.New("ambiguous zone table")

// ZoneKey is the numeric code of a tolerance zone letter.
type ZoneKey int

// ZoneEntry pairs a zone code with its letter ("H", "g", "JS").
type ZoneEntry struct {
	Key    ZoneKey `json:"key" yaml:"key"`
	Letter string  `json:"letter" yaml:"letter"`
}

// ZoneCodes translates between zone codes and letters.
// Both directions are built once from the same entry list.
type ZoneCodes struct {
	byKey    map[ZoneKey]string
	byLetter map[string]ZoneKey
	entries  []ZoneEntry
}

// NewZoneCodes builds the two lookup directions from entries.
// Letters are trimmed and matched case-sensitively: "M" and "m" are distinct zones.
func NewZoneCodes(entries []ZoneEntry) (*ZoneCodes, error) {
	z := &ZoneCodes{
		byKey:    make(map[ZoneKey]string, len(entries)),
		byLetter: make(map[string]ZoneKey, len(entries)),
		entries:  make([]ZoneEntry, 0, len(entries)),
	}

	for _, e := range entries {
		letter := strings.TrimSpace(e.Letter)
		if letter == "" {
			return nil, fmt.Errorf("%w: code %d has no letter", ErrAmbiguousZone, e.Key)
		}
		if prev, ok := z.byKey[e.Key]; ok {
			return nil, fmt.Errorf("%w: code %d maps to both %q and %q", ErrAmbiguousZone, e.Key, prev, letter)
		}
		if prev, ok := z.byLetter[letter]; ok {
			return nil, fmt.Errorf("%w: letter %q maps to both %d and %d", ErrAmbiguousZone, letter, prev, e.Key)
		}
		z.byKey[e.Key] = letter
		z.byLetter[letter] = e.Key
		z.entries = append(z.entries, ZoneEntry{Key: e.Key, Letter: letter})
	}

	sort.Slice(z.entries, func(i, j int) bool { return z.entries[i].Key < z.entries[j].Key })
	return z, nil
}

// Letter returns the zone letter for a code.
func (z *ZoneCodes) Letter(k ZoneKey) (string, bool) {
	l, ok := z.byKey[k]
	return l, ok
}

// Key returns the code for a zone letter.
func (z *ZoneCodes) Key(letter string) (ZoneKey, bool) {
	k, ok := z.byLetter[letter]
	return k, ok
}

// Entries returns all entries ordered by code.
func (z *ZoneCodes) Entries() []ZoneEntry {
	return append([]ZoneEntry(nil), z.entries...)
}

// Len returns the number of zones.
func (z *ZoneCodes) Len() int {
	return len(z.entries)
}
