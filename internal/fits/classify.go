package fits

// FitType classifies a hole/shaft pair by its clearance range.
type FitType string

const (
	FitClearance        FitType = "clearance"
	FitClearanceZero    FitType = "clearance-zero"
	FitInterference     FitType = "interference"
	FitInterferenceZero FitType = "interference-zero"
	FitTransition       FitType = "transition"
)

// Description is a short human-readable label.
func (f FitType) Description() string {
	switch f {
	case FitClearance:
		return "clearance fit"
	case FitClearanceZero:
		return "clearance fit (zero minimum clearance)"
	case FitInterference:
		return "interference fit"
	case FitInterferenceZero:
		return "interference fit (zero maximum clearance)"
	case FitTransition:
		return "transition fit"
	default:
		return string(f)
	}
}

// ClassifyFit returns the fit type for the minimum and maximum clearance in µm.
// Smin >= 0 is clearance, Smax <= 0 is interference, anything else is transition.
func ClassifyFit(smin, smax int64) FitType {
	switch {
	case smin > 0:
		return FitClearance
	case smin == 0:
		return FitClearanceZero
	case smax < 0:
		return FitInterference
	case smax == 0:
		return FitInterferenceZero
	default:
		return FitTransition
	}
}

// Basis is the fit system the pair belongs to.
type Basis string

const (
	BasisHole        Basis = "hole-basis"
	BasisShaft       Basis = "shaft-basis"
	BasisNonStandard Basis = "non-standard"
)

// Description is a short human-readable label.
func (b Basis) Description() string {
	switch b {
	case BasisHole:
		return "hole-basis system (EI = 0)"
	case BasisShaft:
		return "shaft-basis system (es = 0)"
	default:
		return "non-standard (neither H nor h)"
	}
}

// ClassifyBasis returns hole-basis when EI = 0, shaft-basis when es = 0,
// and non-standard otherwise. Hole-basis wins when both are zero.
func ClassifyBasis(holeLower, shaftUpper int64) Basis {
	switch {
	case holeLower == 0:
		return BasisHole
	case shaftUpper == 0:
		return BasisShaft
	default:
		return BasisNonStandard
	}
}
