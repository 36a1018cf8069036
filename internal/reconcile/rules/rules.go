// Package rules registers the known dataset corrections with the reconciler.
// Import this package for its side effects to enable them.
package rules

import (
	"fmt"

	"github.com/JonMunkholm/fits/internal/dataset"
	"github.com/JonMunkholm/fits/internal/reconcile"
	"github.com/JonMunkholm/fits/internal/table"
)

func init() {
	// Some shaft rows are filed under the hole zone "M" instead of "m".
	reconcile.Register(RemapZone("shaft-M-to-m", table.Shaft, "M", "m", 10))
}

// RemapZone builds a correction that moves rows of the given kind from one
// zone letter to another. The rule is a no-op if either letter is missing
// from the dataset's zone table.
func RemapZone(name string, kind table.Kind, from, to string, order int) reconcile.Correction {
	return reconcile.Correction{
		Name:        name,
		Description: fmt.Sprintf("%s rows in zone %q are moved to zone %q", kind, from, to),
		Order:       order,
		Apply: func(row *dataset.Row, zones *table.ZoneCodes) bool {
			if table.Kind(row.Kind.Value) != kind || row.Kind.Value != int64(kind) {
				return false
			}
			fromKey, ok := zones.Key(from)
			if !ok {
				return false
			}
			toKey, ok := zones.Key(to)
			if !ok {
				return false
			}
			if table.ZoneKey(row.Zone.Value) != fromKey {
				return false
			}
			row.Zone = dataset.Int(int64(toKey))
			return true
		},
	}
}
