package table

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ZoneOrder selects how zone letters are listed for selection menus.
type ZoneOrder string

const (
	// OrderLexical uses locale collation: letters compare case-insensitively
	// first, so "a" < "B" < "b".
	OrderLexical ZoneOrder = "lexical"

	// OrderUpperFirst lists upper-case zones before lower-case ones, each
	// group in plain byte order.
	OrderUpperFirst ZoneOrder = "upper-first"
)

// ParseZoneOrder validates a configured ordering name. Empty means lexical.
func ParseZoneOrder(s string) (ZoneOrder, error) {
	switch ZoneOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderLexical:
		return OrderLexical, nil
	case OrderUpperFirst:
		return OrderUpperFirst, nil
	default:
		return "", fmt.Errorf("unknown zone order %q (want lexical or upper-first)", s)
	}
}

// SortZones sorts letters in place according to order.
func SortZones(letters []string, order ZoneOrder) {
	if order == OrderUpperFirst {
		sort.SliceStable(letters, func(i, j int) bool {
			ui, uj := isUpperZone(letters[i]), isUpperZone(letters[j])
			if ui != uj {
				return ui
			}
			return letters[i] < letters[j]
		})
		return
	}

	// Collators are not safe for concurrent use.
	c := collate.New(language.Und)
	c.SortStrings(letters)
}

func isUpperZone(s string) bool {
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return s != ""
}
