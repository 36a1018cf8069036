package fits

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/fits/internal/fixed"
	"github.com/JonMunkholm/fits/internal/table"
)

// ZoneOptions lists the zones tabulated for a diameter's size bucket.
type ZoneOptions struct {
	D          string          `json:"D"`
	Bucket     table.Bucket    `json:"bucket"`
	Range      table.SizeRange `json:"range"`
	HoleZones  []string        `json:"holeZones"`
	ShaftZones []string        `json:"shaftZones"`
}

// GradeOptions lists the grade labels tabulated for one zone at a diameter.
type GradeOptions struct {
	D      string       `json:"D"`
	Bucket table.Bucket `json:"bucket"`
	Kind   string       `json:"kind"`
	Zone   string       `json:"zone"`
	Grades []string     `json:"grades"`
}

// Options lists the hole and shaft zones available at diameter d, ordered by
// the engine's zone order.
func (e *Engine) Options(d string) (*ZoneOptions, error) {
	return e.OptionsOrdered(d, e.zoneOrder)
}

// OptionsOrdered is Options with an explicit zone order.
func (e *Engine) OptionsOrdered(d string, order table.ZoneOrder) (*ZoneOptions, error) {
	um, bucket, err := e.resolve(d)
	if err != nil {
		return nil, err
	}
	rng, _ := e.idx.Resolver().Range(bucket)

	return &ZoneOptions{
		D:          fixed.FormatMillimetres(um),
		Bucket:     bucket,
		Range:      rng,
		HoleZones:  e.zoneLetters(table.Hole, bucket, order),
		ShaftZones: e.zoneLetters(table.Shaft, bucket, order),
	}, nil
}

// Grades lists the grade labels available for a zone of the given kind at
// diameter d, finest first ("01" before "0").
func (e *Engine) Grades(d string, kind table.Kind, zone string) (*GradeOptions, error) {
	um, bucket, err := e.resolve(d)
	if err != nil {
		return nil, err
	}

	zone = strings.TrimSpace(zone)
	zk, ok := e.idx.ZoneCodes().Key(zone)
	if !ok {
		return nil, fmt.Errorf("%w: %s zone %q", ErrUnknownZone, kind, zone)
	}

	labels := make([]string, 0)
	seen := make(map[string]bool)
	for _, g := range e.idx.Grades(kind, bucket, zk) {
		label, ok := e.idx.GradeTable().Label(g)
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	table.SortGradeLabels(labels)

	return &GradeOptions{
		D:      fixed.FormatMillimetres(um),
		Bucket: bucket,
		Kind:   kind.String(),
		Zone:   zone,
		Grades: labels,
	}, nil
}

func (e *Engine) resolve(d string) (int64, table.Bucket, error) {
	um, err := fixed.ParseMicrometres(d)
	if err != nil {
		return 0, 0, err
	}
	bucket, err := e.idx.Resolver().Resolve(um)
	if err != nil {
		return 0, 0, fmt.Errorf("D=%s mm: %w", fixed.FormatMillimetres(um), err)
	}
	return um, bucket, nil
}

// zoneLetters returns the letters of zones tabulated for kind at bucket.
// Letters whose case does not match the kind are left out.
func (e *Engine) zoneLetters(kind table.Kind, bucket table.Bucket, order table.ZoneOrder) []string {
	letters := make([]string, 0)
	seen := make(map[string]bool)
	for _, zk := range e.idx.Zones(kind, bucket) {
		letter, ok := e.idx.ZoneCodes().Letter(zk)
		if !ok || seen[letter] || !caseMatches(letter, kind) {
			continue
		}
		seen[letter] = true
		letters = append(letters, letter)
	}
	table.SortZones(letters, order)
	return letters
}

func caseMatches(letter string, kind table.Kind) bool {
	if kind == table.Hole {
		return letter == strings.ToUpper(letter)
	}
	return letter == strings.ToLower(letter)
}
