package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// GradeID is the dataset identifier of a quality grade.
type GradeID int

// FinestGrade is the label of the grade finer than 0.
const FinestGrade = "01"

// GradeEntry pairs a grade id with its printed label ("01", "0", "7").
type GradeEntry struct {
	ID    GradeID `json:"id" yaml:"id"`
	Label string  `json:"label" yaml:"label"`
}

// GradeTable translates between grade ids and labels.
type GradeTable struct {
	byID    map[GradeID]string
	byLabel map[string]GradeID
	entries []GradeEntry
}

// NewGradeTable builds a grade table. Ids and labels must both be unique.
func NewGradeTable(entries []GradeEntry) (*GradeTable, error) {
	g := &GradeTable{
		byID:    make(map[GradeID]string, len(entries)),
		byLabel: make(map[string]GradeID, len(entries)),
		entries: make([]GradeEntry, 0, len(entries)),
	}

	for _, e := range entries {
		label := strings.TrimSpace(e.Label)
		if label == "" {
			return nil, fmt.Errorf("grade table: id %d has no label", e.ID)
		}
		if prev, ok := g.byID[e.ID]; ok {
			return nil, fmt.Errorf("grade table: id %d labelled both %q and %q", e.ID, prev, label)
		}
		if prev, ok := g.byLabel[label]; ok {
			return nil, fmt.Errorf("grade table: label %q used by ids %d and %d", label, prev, e.ID)
		}
		g.byID[e.ID] = label
		g.byLabel[label] = e.ID
		g.entries = append(g.entries, GradeEntry{ID: e.ID, Label: label})
	}

	sort.Slice(g.entries, func(i, j int) bool {
		return CompareGradeLabels(g.entries[i].Label, g.entries[j].Label) < 0
	})
	return g, nil
}

// Label returns the label for a grade id.
func (g *GradeTable) Label(id GradeID) (string, bool) {
	l, ok := g.byID[id]
	return l, ok
}

// ID returns the grade id for a label.
func (g *GradeTable) ID(label string) (GradeID, bool) {
	id, ok := g.byLabel[label]
	return id, ok
}

// Entries returns all grades in label order.
func (g *GradeTable) Entries() []GradeEntry {
	return append([]GradeEntry(nil), g.entries...)
}

// Len returns the number of grades.
func (g *GradeTable) Len() int {
	return len(g.entries)
}

// gradeRank orders labels: "01" first, then numeric labels ascending,
// then anything unparseable.
func gradeRank(label string) int {
	if label == FinestGrade {
		return -1
	}
	n, err := strconv.Atoi(label)
	if err != nil {
		return 1 << 30
	}
	return n
}

// CompareGradeLabels orders "01" immediately before "0", the rest numerically.
func CompareGradeLabels(a, b string) int {
	ra, rb := gradeRank(a), gradeRank(b)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// SortGradeLabels sorts labels in place using CompareGradeLabels.
func SortGradeLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		return CompareGradeLabels(labels[i], labels[j]) < 0
	})
}
