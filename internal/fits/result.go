package fits

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/fits/internal/fixed"
	"github.com/JonMunkholm/fits/internal/table"
)

// Decimal is millimetre text as supplied by the caller. In JSON it accepts
// either a number or a string; numbers are kept verbatim, never parsed
// through float64.
type Decimal string

func (d *Decimal) UnmarshalJSON(b []byte) error {
	t := bytes.TrimSpace(b)
	if bytes.Equal(t, []byte("null")) {
		*d = ""
		return nil
	}
	if len(t) > 0 && t[0] == '"' {
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return fmt.Errorf("D: %w", err)
		}
		*d = Decimal(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(t, &n); err != nil {
		return fmt.Errorf("D must be a number or a string: %w", err)
	}
	*d = Decimal(n.String())
	return nil
}

// Request is one fit computation.
type Request struct {
	D     Decimal `json:"D" validate:"required"`
	Hole  string  `json:"hole" validate:"required"`
	Shaft string  `json:"shaft" validate:"required"`
}

// Input echoes a request in canonical form.
type Input struct {
	D     string `json:"D"`
	Hole  string `json:"hole"`
	Shaft string `json:"shaft"`
}

// Deviations are the tabulated limit deviations.
type Deviations[T int64 | string] struct {
	ES T `json:"ES"`
	EI T `json:"EI"`
	Es T `json:"es"`
	Ei T `json:"ei"`
}

// Limits are the limiting sizes of hole (D) and shaft (d).
type Limits[T int64 | string] struct {
	Dmax T `json:"Dmax"`
	Dmin T `json:"Dmin"`
	DMax T `json:"dmax"`
	DMin T `json:"dmin"`
}

// Means are the mean sizes, mean deviations and mean clearance/interference.
type Means[T int64 | string] struct {
	Dm T `json:"Dm"`
	DM T `json:"dm"`
	Em T `json:"Em"`
	EM T `json:"em"`
	Sm T `json:"Sm"`
	Nm T `json:"Nm"`
}

// Tolerances are the hole (TD) and shaft (Td) tolerances.
type Tolerances[T int64 | string] struct {
	TD T `json:"TD"`
	Td T `json:"Td"`
}

// FitTolerance is the tolerance of the clearance (Ts) and interference (TN).
type FitTolerance[T int64 | string] struct {
	Ts T `json:"Ts"`
	TN T `json:"TN"`
}

// Clearance is the largest and smallest clearance.
type Clearance[T int64 | string] struct {
	Smax T `json:"Smax"`
	Smin T `json:"Smin"`
}

// Interference is the largest and smallest interference.
type Interference[T int64 | string] struct {
	Nmax T `json:"Nmax"`
	Nmin T `json:"Nmin"`
}

// Figures groups every derived quantity in one unit.
type Figures[T int64 | string] struct {
	Deviations   Deviations[T]   `json:"deviations"`
	Limits       Limits[T]       `json:"limits"`
	Means        Means[T]        `json:"means"`
	Tolerances   Tolerances[T]   `json:"tolerances"`
	FitTolerance FitTolerance[T] `json:"fitTolerance"`
	Clearance    Clearance[T]    `json:"clearance"`
	Interference Interference[T] `json:"interference"`
}

// Classification is the fit type and basis system.
type Classification struct {
	FitType FitType `json:"fitType"`
	Basis   Basis   `json:"system"`
}

// Result is an immutable fit computation result. Every figure is given in
// integer micrometres and as exact 3-decimal millimetre text.
type Result struct {
	Input          Input           `json:"input"`
	Bucket         table.Bucket    `json:"bucket"`
	Range          table.SizeRange `json:"range"`
	Micrometres    Figures[int64]  `json:"um"`
	Millimetres    Figures[string] `json:"mm"`
	Classification Classification  `json:"classification"`
}

// Summary is a one-line human description, e.g.
// "25.000 H7/g6: clearance fit, hole-basis system (EI = 0)".
func (r *Result) Summary() string {
	return fmt.Sprintf("%s %s/%s: %s, %s", r.Input.D, r.Input.Hole, r.Input.Shaft,
		r.Classification.FitType.Description(), r.Classification.Basis.Description())
}

// computeFigures derives every quantity from the nominal size and the two
// deviations. All arithmetic is exact integer micrometres.
func computeFigures(d int64, hole, shaft table.Deviation) Figures[int64] {
	ES, EI := hole.Upper, hole.Lower
	es, ei := shaft.Upper, shaft.Lower

	Dmax, Dmin := d+ES, d+EI
	dmax, dmin := d+es, d+ei

	Smax, Smin := Dmax-dmin, Dmin-dmax
	Nmax, Nmin := dmax-Dmin, dmin-Dmax

	Em := fixed.RoundHalfAwayDiv2(ES + EI)
	em := fixed.RoundHalfAwayDiv2(es + ei)
	Sm := Em - em

	return Figures[int64]{
		Deviations:   Deviations[int64]{ES: ES, EI: EI, Es: es, Ei: ei},
		Limits:       Limits[int64]{Dmax: Dmax, Dmin: Dmin, DMax: dmax, DMin: dmin},
		Means:        Means[int64]{Dm: d + Em, DM: d + em, Em: Em, EM: em, Sm: Sm, Nm: -Sm},
		Tolerances:   Tolerances[int64]{TD: ES - EI, Td: es - ei},
		FitTolerance: FitTolerance[int64]{Ts: Smax - Smin, TN: Nmax - Nmin},
		Clearance:    Clearance[int64]{Smax: Smax, Smin: Smin},
		Interference: Interference[int64]{Nmax: Nmax, Nmin: Nmin},
	}
}

// millimetres formats every figure as 3-decimal millimetre text.
func millimetres(f Figures[int64]) Figures[string] {
	mm := fixed.FormatMillimetres
	return Figures[string]{
		Deviations: Deviations[string]{
			ES: mm(f.Deviations.ES), EI: mm(f.Deviations.EI),
			Es: mm(f.Deviations.Es), Ei: mm(f.Deviations.Ei),
		},
		Limits: Limits[string]{
			Dmax: mm(f.Limits.Dmax), Dmin: mm(f.Limits.Dmin),
			DMax: mm(f.Limits.DMax), DMin: mm(f.Limits.DMin),
		},
		Means: Means[string]{
			Dm: mm(f.Means.Dm), DM: mm(f.Means.DM),
			Em: mm(f.Means.Em), EM: mm(f.Means.EM),
			Sm: mm(f.Means.Sm), Nm: mm(f.Means.Nm),
		},
		Tolerances:   Tolerances[string]{TD: mm(f.Tolerances.TD), Td: mm(f.Tolerances.Td)},
		FitTolerance: FitTolerance[string]{Ts: mm(f.FitTolerance.Ts), TN: mm(f.FitTolerance.TN)},
		Clearance:    Clearance[string]{Smax: mm(f.Clearance.Smax), Smin: mm(f.Clearance.Smin)},
		Interference: Interference[string]{Nmax: mm(f.Interference.Nmax), Nmin: mm(f.Interference.Nmin)},
	}
}
