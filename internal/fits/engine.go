package fits

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/fits/internal/fixed"
	"github.com/JonMunkholm/fits/internal/table"
)

// validate checks request struct tags. Safe for concurrent use.
var validate = validator.New()

// Engine computes fits against one immutable index.
type Engine struct {
	idx       *table.Index
	zoneOrder table.ZoneOrder
}

// Option configures an Engine.
type Option func(*Engine)

// WithZoneOrder sets how option listings order zone letters.
func WithZoneOrder(o table.ZoneOrder) Option {
	return func(e *Engine) {
		e.zoneOrder = o
	}
}

// NewEngine creates an engine over idx. The index is shared, never copied or mutated.
func NewEngine(idx *table.Index, opts ...Option) (*Engine, error) {
	if idx == nil {
		return nil, errors.New("engine needs a reference index")
	}
	e := &Engine{idx: idx, zoneOrder: table.OrderLexical}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Index returns the reference index the engine reads from.
func (e *Engine) Index() *table.Index {
	return e.idx
}

// Calculate is Compute for plain string arguments.
func (e *Engine) Calculate(d, hole, shaft string) (*Result, error) {
	return e.Compute(Request{D: Decimal(d), Hole: hole, Shaft: shaft})
}

// Compute evaluates one request. It is pure and safe for concurrent use.
//
// Checks run in a fixed order so the first failing one determines the error:
// number, designations, size bucket, zones, table lookup.
func (e *Engine) Compute(req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	d, err := fixed.ParseMicrometres(string(req.D))
	if err != nil {
		return nil, err
	}

	hole, err := parseAs(req.Hole, table.Hole)
	if err != nil {
		return nil, fmt.Errorf("hole: %w", err)
	}
	shaft, err := parseAs(req.Shaft, table.Shaft)
	if err != nil {
		return nil, fmt.Errorf("shaft: %w", err)
	}

	bucket, err := e.idx.Resolver().Resolve(d)
	if err != nil {
		return nil, fmt.Errorf("D=%s mm: %w", fixed.FormatMillimetres(d), err)
	}

	holeZone, err := e.zoneKey(hole)
	if err != nil {
		return nil, err
	}
	shaftZone, err := e.zoneKey(shaft)
	if err != nil {
		return nil, err
	}

	holeDev, err := e.lookup(hole, bucket, holeZone)
	if err != nil {
		return nil, err
	}
	shaftDev, err := e.lookup(shaft, bucket, shaftZone)
	if err != nil {
		return nil, err
	}

	um := computeFigures(d, holeDev, shaftDev)
	rng, _ := e.idx.Resolver().Range(bucket)

	return &Result{
		Input: Input{
			D:     fixed.FormatMillimetres(d),
			Hole:  hole.String(),
			Shaft: shaft.String(),
		},
		Bucket:      bucket,
		Range:       rng,
		Micrometres: um,
		Millimetres: millimetres(um),
		Classification: Classification{
			FitType: ClassifyFit(um.Clearance.Smin, um.Clearance.Smax),
			Basis:   ClassifyBasis(um.Deviations.EI, um.Deviations.Es),
		},
	}, nil
}

func (e *Engine) zoneKey(d Designation) (table.ZoneKey, error) {
	k, ok := e.idx.ZoneCodes().Key(d.Zone)
	if !ok {
		return 0, fmt.Errorf("%w: %s zone %q", ErrUnknownZone, d.Kind, d.Zone)
	}
	return k, nil
}

func (e *Engine) lookup(d Designation, bucket table.Bucket, zone table.ZoneKey) (table.Deviation, error) {
	grade, ok := e.idx.GradeTable().ID(d.GradeLabel())
	if !ok {
		return table.Deviation{}, fmt.Errorf("%w: grade %s is not in the grade table", ErrNoTableEntry, d.GradeLabel())
	}
	dev, ok := e.idx.Lookup(table.Key{Kind: d.Kind, Bucket: bucket, Grade: grade, Zone: zone})
	if !ok {
		return table.Deviation{}, fmt.Errorf("%w: %s %s at size bucket %d", ErrNoTableEntry, d.Kind, d, bucket)
	}
	return dev, nil
}

// validateRequest maps struct tag failures onto the engine's error kinds.
func validateRequest(req Request) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Field() {
	case "D":
		return fmt.Errorf("%w: D is %s", ErrInvalidNumber, fe.Tag())
	case "Hole":
		return fmt.Errorf("hole: %w: designation is %s", ErrInvalidDesignation, fe.Tag())
	default:
		return fmt.Errorf("shaft: %w: designation is %s", ErrInvalidDesignation, fe.Tag())
	}
}
