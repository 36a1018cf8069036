package table

import (
	"fmt"
	"strings"
)

// Kind distinguishes the two mating features.
// The numeric values are part of the persisted index format.
type Kind int

const (
	Hole  Kind = 0
	Shaft Kind = 1
)

// Kinds lists every valid kind in index order.
var Kinds = []Kind{Hole, Shaft}

// Valid reports whether k is Hole or Shaft.
func (k Kind) Valid() bool {
	return k == Hole || k == Shaft
}

func (k Kind) String() string {
	switch k {
	case Hole:
		return "hole"
	case Shaft:
		return "shaft"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts "hole"/"shaft" (any case) or the numeric codes "0"/"1".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hole", "0":
		return Hole, nil
	case "shaft", "1":
		return Shaft, nil
	default:
		return 0, fmt.Errorf("unknown kind %q (want hole or shaft)", s)
	}
}
