package table

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a diameter falls outside every size range.
var ErrOutOfRange = errors.New("diameter out of supported range")

// Bucket is the 1-based code of a nominal size range.
type Bucket int

// SizeRange is one nominal size interval, in micrometres.
// The first range of a table includes its lower bound; every other
// range is (Low, High].
type SizeRange struct {
	Bucket Bucket `json:"bucket" yaml:"bucket"`
	Low    int64  `json:"low_um" yaml:"low_um"`
	High   int64  `json:"high_um" yaml:"high_um"`
}

// standardBoundsMM are the ISO 286 nominal size steps used by the reference tables.
var standardBoundsMM = []int64{0, 1, 3, 6, 10, 18, 30, 50, 80, 120, 180, 250, 315, 400, 500, 630, 800, 1000}

// StandardRanges returns the 17 nominal size ranges covering (0, 1000] mm.
func StandardRanges() []SizeRange {
	ranges := make([]SizeRange, 0, len(standardBoundsMM)-1)
	for i := 1; i < len(standardBoundsMM); i++ {
		ranges = append(ranges, SizeRange{
			Bucket: Bucket(i),
			Low:    standardBoundsMM[i-1] * 1000,
			High:   standardBoundsMM[i] * 1000,
		})
	}
	return ranges
}

// Resolver maps a diameter to its size bucket.
type Resolver struct {
	ranges []SizeRange
}

// NewResolver validates ranges and returns a resolver over them.
// Ranges must be non-empty, ascending, contiguous and carry unique buckets.
func NewResolver(ranges []SizeRange) (*Resolver, error) {
	if len(ranges) == 0 {
		return nil, errors.New("size ranges: empty table")
	}
	if ranges[0].Low < 0 {
		return nil, fmt.Errorf("size ranges: first lower bound %d is negative", ranges[0].Low)
	}

	seen := make(map[Bucket]bool, len(ranges))
	for i, r := range ranges {
		if r.High <= r.Low {
			return nil, fmt.Errorf("size ranges: bucket %d has empty interval [%d, %d]", r.Bucket, r.Low, r.High)
		}
		if i > 0 && r.Low != ranges[i-1].High {
			return nil, fmt.Errorf("size ranges: bucket %d starts at %d, previous ends at %d", r.Bucket, r.Low, ranges[i-1].High)
		}
		if seen[r.Bucket] {
			return nil, fmt.Errorf("size ranges: duplicate bucket %d", r.Bucket)
		}
		seen[r.Bucket] = true
	}

	return &Resolver{ranges: append([]SizeRange(nil), ranges...)}, nil
}

// Resolve returns the bucket containing the diameter um (micrometres).
func (r *Resolver) Resolve(um int64) (Bucket, error) {
	if um <= 0 {
		return 0, fmt.Errorf("%w: D must be positive", ErrOutOfRange)
	}

	first := r.ranges[0]
	if um >= first.Low && um <= first.High {
		return first.Bucket, nil
	}
	for _, sr := range r.ranges[1:] {
		if um > sr.Low && um <= sr.High {
			return sr.Bucket, nil
		}
	}

	last := r.ranges[len(r.ranges)-1]
	return 0, fmt.Errorf("%w: D exceeds %d mm", ErrOutOfRange, last.High/1000)
}

// Ranges returns a copy of the resolver's ranges.
func (r *Resolver) Ranges() []SizeRange {
	return append([]SizeRange(nil), r.ranges...)
}

// Range returns the interval for a bucket.
func (r *Resolver) Range(b Bucket) (SizeRange, bool) {
	for _, sr := range r.ranges {
		if sr.Bucket == b {
			return sr, true
		}
	}
	return SizeRange{}, false
}
