// Package tabletest builds small synthetic reference indexes for tests.
//
// The values are taken from ISO 286-2 for a handful of common zones so that
// engine tests can assert on real fits (H7/g6 at 25 mm is a clearance fit)
// without loading a full dataset.
package tabletest

import (
	"strconv"

	"github.com/JonMunkholm/fits/internal/table"
)

// Zone codes used by the fixture. The numbering is arbitrary but stable.
var Zones = []table.ZoneEntry{
	{Key: 1, Letter: "A"}, {Key: 2, Letter: "F"}, {Key: 3, Letter: "G"},
	{Key: 4, Letter: "H"}, {Key: 5, Letter: "JS"}, {Key: 6, Letter: "K"},
	{Key: 7, Letter: "M"}, {Key: 8, Letter: "N"}, {Key: 9, Letter: "P"},
	{Key: 10, Letter: "S"},
	{Key: 21, Letter: "a"}, {Key: 22, Letter: "e"}, {Key: 23, Letter: "f"},
	{Key: 24, Letter: "g"}, {Key: 25, Letter: "h"}, {Key: 26, Letter: "js"},
	{Key: 27, Letter: "k"}, {Key: 28, Letter: "m"}, {Key: 29, Letter: "n"},
	{Key: 30, Letter: "p"}, {Key: 31, Letter: "s"},
	{Key: 40, Letter: "ZC"},
}

// Grades maps ids 0..18 to their own number and id 19 to the "01" grade.
func Grades() []table.GradeEntry {
	out := make([]table.GradeEntry, 0, 20)
	for i := 0; i <= 18; i++ {
		out = append(out, table.GradeEntry{ID: table.GradeID(i), Label: strconv.Itoa(i)})
	}
	return append(out, table.GradeEntry{ID: 19, Label: table.FinestGrade})
}

// Row is a compact way to write a fixture entry.
type Row struct {
	Kind   table.Kind
	Bucket table.Bucket
	Grade  table.GradeID
	Zone   string
	Upper  int64
	Lower  int64
}

// Rows returns the fixture deviations (micrometres).
func Rows() []Row {
	const h, s = table.Hole, table.Shaft
	return []Row{
		// (1, 3] mm
		{h, 2, 7, "H", 10, 0},
		{h, 2, 19, "H", 1, 0},
		{h, 2, 0, "H", 1, 0},
		{s, 2, 6, "g", -2, -8},
		{s, 2, 6, "h", 0, -6},

		// (10, 18] mm
		{h, 5, 7, "H", 18, 0},
		{s, 5, 6, "g", -6, -17},
		{s, 5, 6, "h", 0, -11},
		{s, 5, 6, "k", 12, 1},
		{s, 5, 6, "p", 29, 18},

		// (18, 30] mm
		{h, 6, 6, "H", 13, 0},
		{h, 6, 7, "H", 21, 0},
		{h, 6, 8, "H", 33, 0},
		{h, 6, 9, "H", 52, 0},
		{h, 6, 7, "G", 28, 7},
		{h, 6, 8, "F", 53, 20},
		{h, 6, 7, "JS", 10, -10},
		{h, 6, 7, "K", 6, -15},
		{h, 6, 7, "M", 0, -21},
		{h, 6, 7, "N", -7, -28},
		{h, 6, 7, "P", -14, -35},
		{h, 6, 7, "S", -27, -48},
		{s, 6, 6, "h", 0, -13},
		{s, 6, 7, "h", 0, -21},
		{s, 6, 6, "g", -7, -20},
		{s, 6, 7, "f", -20, -41},
		{s, 6, 8, "e", -40, -73},
		{s, 6, 6, "js", 6, -6},
		{s, 6, 6, "k", 15, 2},
		{s, 6, 6, "m", 21, 8},
		{s, 6, 6, "n", 28, 15},
		{s, 6, 6, "p", 35, 22},
		{s, 6, 6, "s", 48, 35},

		// (800, 1000] mm
		{h, 17, 7, "H", 90, 0},
		{s, 17, 6, "g", -26, -82},
	}
}

// Entries converts fixture rows into index entries using the fixture zone codes.
func Entries() []table.Entry {
	zones := ZoneCodes()
	rows := Rows()
	out := make([]table.Entry, 0, len(rows))
	for _, r := range rows {
		key, ok := zones.Key(r.Zone)
		if !ok {
			panic("tabletest: unknown zone " + r.Zone)
		}
		out = append(out, table.Entry{
			Key:       table.Key{Kind: r.Kind, Bucket: r.Bucket, Grade: r.Grade, Zone: key},
			Deviation: table.Deviation{Upper: r.Upper, Lower: r.Lower},
		})
	}
	return out
}

// ZoneCodes returns the fixture zone table.
func ZoneCodes() *table.ZoneCodes {
	z, err := table.NewZoneCodes(Zones)
	if err != nil {
		panic(err)
	}
	return z
}

// GradeTable returns the fixture grade table.
func GradeTable() *table.GradeTable {
	g, err := table.NewGradeTable(Grades())
	if err != nil {
		panic(err)
	}
	return g
}

// Meta returns standard ranges with the fixture grade and zone tables.
func Meta() table.Meta {
	return table.Meta{
		Ranges: table.StandardRanges(),
		Grades: GradeTable(),
		Zones:  ZoneCodes(),
	}
}

// Index builds the fixture index. It panics on error; fixtures are static.
func Index() *table.Index {
	idx, err := table.NewIndex(Meta(), Entries())
	if err != nil {
		panic(err)
	}
	return idx
}
