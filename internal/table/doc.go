// Package table holds the reference data model for ISO limits and fits.
//
// It defines the keys used to address a deviation pair (kind, nominal size
// bucket, grade and zone), the lookup tables that translate between human
// designations and those keys, and the immutable [Index] built once from a
// reconciled dataset.
//
// # Index Layout
//
// An [Index] is a four-level mapping:
//
//	kind → bucket → grade → zone → (upper, lower)
//
// Every key maps to at most one [Deviation], and every deviation satisfies
// upper >= lower. Both invariants are enforced by [NewIndex]; an Index that
// exists is always well formed.
//
// # Concurrency
//
// An Index is never mutated after construction. Any number of goroutines may
// call its methods concurrently without locking. Accessors that expose slices
// return copies.
package table
