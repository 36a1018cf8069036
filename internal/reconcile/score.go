package reconcile

import (
	"math"

	"github.com/JonMunkholm/fits/internal/dataset"
	"github.com/JonMunkholm/fits/internal/table"
)

// Sign is the expected sign of a deviation for a zone.
type Sign int

const (
	SignAny Sign = iota
	SignZero
	SignNonNegative
	SignNonPositive
)

// Matches reports whether v has the expected sign.
func (s Sign) Matches(v int64) bool {
	switch s {
	case SignAny:
		return true
	case SignZero:
		return v == 0
	case SignNonNegative:
		return v >= 0
	case SignNonPositive:
		return v <= 0
	default:
		return false
	}
}

// Pattern is the expected sign of the upper and lower deviation.
type Pattern struct {
	Upper Sign
	Lower Sign
}

// ScoreAbsent is the score of a row with a missing deviation. Any complete row beats it.
const ScoreAbsent = math.MinInt

func set(letters ...string) map[string]bool {
	m := make(map[string]bool, len(letters))
	for _, l := range letters {
		m[l] = true
	}
	return m
}

var (
	holeBelow  = set("A", "B", "C", "D", "E", "F", "G")
	holeAbove  = set("K", "M", "N", "P", "R", "S", "T", "U")
	shaftBelow = set("a", "b", "c", "d", "e", "f", "g")
	shaftAbove = set("k", "m", "n", "p", "r", "s", "t", "u", "x", "y", "z")
)

// ExpectedPattern returns the sign pattern used to rank duplicate rows.
func ExpectedPattern(kind table.Kind, zone string) Pattern {
	if kind == table.Hole {
		switch {
		case holeBelow[zone]:
			return Pattern{SignNonPositive, SignNonPositive}
		case zone == "H":
			return Pattern{SignNonNegative, SignZero}
		case zone == "JS":
			return Pattern{SignNonNegative, SignNonPositive}
		case holeAbove[zone]:
			return Pattern{SignNonNegative, SignNonNegative}
		}
		return Pattern{SignAny, SignAny}
	}

	switch {
	case shaftBelow[zone]:
		return Pattern{SignNonPositive, SignNonPositive}
	case zone == "h":
		return Pattern{SignZero, SignNonPositive}
	case zone == "js":
		return Pattern{SignNonNegative, SignNonPositive}
	case shaftAbove[zone]:
		return Pattern{SignNonNegative, SignNonNegative}
	}
	return Pattern{SignAny, SignAny}
}

// Score rates how physically plausible a row is for its zone.
//
// +2 for each deviation matching the expected sign, +1 when upper >= lower
// (else -2), and +1 for the customary zero of H (lower) and h (upper).
func Score(kind table.Kind, zone string, upper, lower dataset.Cell) int {
	if !upper.Valid || !lower.Valid {
		return ScoreAbsent
	}
	exp := ExpectedPattern(kind, zone)
	u, l := upper.Value, lower.Value

	s := 0
	if exp.Upper.Matches(u) {
		s += 2
	}
	if exp.Lower.Matches(l) {
		s += 2
	}
	if u >= l {
		s++
	} else {
		s -= 2
	}
	if (zone == "H" && l == 0) || (zone == "h" && u == 0) {
		s++
	}
	return s
}
