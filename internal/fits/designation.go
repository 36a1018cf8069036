package fits

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fits/internal/table"
)

var designationRegex = regexp.MustCompile(`^([A-Za-z]{1,2})(\d{1,2})$`)

// Designation is a parsed tolerance designation such as H7 or js6.
type Designation struct {
	Zone  string     // zone letters, case preserved ("H", "js")
	Grade int        // grade number (7 for "H07")
	Kind  table.Kind // Hole for upper-case zones, Shaft for lower-case
}

// GradeLabel is the grade as it appears in the grade table.
func (d Designation) GradeLabel() string {
	return strconv.Itoa(d.Grade)
}

// String renders the canonical form, e.g. "H7".
func (d Designation) String() string {
	return d.Zone + d.GradeLabel()
}

// ParseDesignation parses "H7", "g6", "JS7", "js6". Surrounding whitespace is
// ignored; mixed-case zones and a grade of zero are rejected.
func ParseDesignation(s string) (Designation, error) {
	t := strings.TrimSpace(s)
	m := designationRegex.FindStringSubmatch(t)
	if m == nil {
		return Designation{}, fmt.Errorf("%w: %q (expected e.g. H7, g6, JS7, js6)", ErrInvalidDesignation, s)
	}

	zone := m[1]
	var kind table.Kind
	switch zone {
	case strings.ToUpper(zone):
		kind = table.Hole
	case strings.ToLower(zone):
		kind = table.Shaft
	default:
		return Designation{}, fmt.Errorf("%w: %q mixes upper and lower case", ErrInvalidDesignation, s)
	}

	grade, err := strconv.Atoi(m[2])
	if err != nil || grade <= 0 {
		return Designation{}, fmt.Errorf("%w: grade in %q must be positive", ErrInvalidDesignation, s)
	}

	return Designation{Zone: zone, Grade: grade, Kind: kind}, nil
}

// parseAs parses s and checks it names the expected kind.
func parseAs(s string, want table.Kind) (Designation, error) {
	d, err := ParseDesignation(s)
	if err != nil {
		return Designation{}, err
	}
	if d.Kind != want {
		return Designation{}, fmt.Errorf("%w: %q is a %s designation, expected a %s (%s)",
			ErrKindMismatch, strings.TrimSpace(s), d.Kind, want, caseHint(want))
	}
	return d, nil
}

func caseHint(k table.Kind) string {
	if k == table.Hole {
		return "upper-case"
	}
	return "lower-case"
}
