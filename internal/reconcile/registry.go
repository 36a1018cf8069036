package reconcile

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/fits/internal/dataset"
	"github.com/JonMunkholm/fits/internal/table"
)

// Correction rewrites a known anomaly in a raw variation row before scoring.
type Correction struct {
	// Name identifies the rule in reports, e.g. "shaft-M-to-m".
	Name string

	// Description is a human-readable summary of what the rule fixes.
	Description string

	// Order controls application order; lower runs first, ties by Name.
	Order int

	// Apply mutates row in place and reports whether it changed anything.
	// Only rows with a readable kind and zone are passed in.
	Apply func(row *dataset.Row, zones *table.ZoneCodes) bool
}

var (
	registry   = make(map[string]Correction)
	registryMu sync.RWMutex
)

// Register adds a correction to the registry.
// Panics if a correction with the same name is already registered.
func Register(c Correction) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if c.Name == "" || c.Apply == nil {
		panic("correction needs a name and an Apply func")
	}
	if _, exists := registry[c.Name]; exists {
		panic(fmt.Sprintf("correction already registered: %s", c.Name))
	}
	registry[c.Name] = c
}

// Get returns a correction by name.
func Get(name string) (Correction, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	c, ok := registry[name]
	return c, ok
}

// All returns the registered corrections in application order.
func All() []Correction {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Correction, 0, len(registry))
	for _, c := range registry {
		result = append(result, c)
	}
	sortCorrections(result)
	return result
}

// Clear removes all registered corrections.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Correction)
}

func sortCorrections(cs []Correction) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Order != cs[j].Order {
			return cs[i].Order < cs[j].Order
		}
		return cs[i].Name < cs[j].Name
	})
}
