// Package templates renders the HTML views of the fit service as templ
// components. Markup lives in the .templ files; run "templ generate" after
// editing them.
package templates

import (
	"github.com/JonMunkholm/fits/internal/fits"
)

// FitPage is the data behind the /fit view.
type FitPage struct {
	D     string
	Hole  string
	Shaft string

	Result *fits.Result
	Error  *fits.UserMessage
}

// Title names the page after the computed fit, if any.
func (p FitPage) Title() string {
	if p.Result == nil {
		return "Fit calculator"
	}
	in := p.Result.Input
	return in.Hole + "/" + in.Shaft + " at " + in.D + " mm"
}

// Figure is one row of the result table.
type Figure struct {
	Name   string
	Symbol string
	UM     int64
	MM     string
}

// Figures flattens a result into table rows in display order.
func Figures(r *fits.Result) []Figure {
	um, mm := r.Micrometres, r.Millimetres
	return []Figure{
		{"Upper deviation, hole", "ES", um.Deviations.ES, mm.Deviations.ES},
		{"Lower deviation, hole", "EI", um.Deviations.EI, mm.Deviations.EI},
		{"Upper deviation, shaft", "es", um.Deviations.Es, mm.Deviations.Es},
		{"Lower deviation, shaft", "ei", um.Deviations.Ei, mm.Deviations.Ei},
		{"Maximum hole size", "Dmax", um.Limits.Dmax, mm.Limits.Dmax},
		{"Minimum hole size", "Dmin", um.Limits.Dmin, mm.Limits.Dmin},
		{"Maximum shaft size", "dmax", um.Limits.DMax, mm.Limits.DMax},
		{"Minimum shaft size", "dmin", um.Limits.DMin, mm.Limits.DMin},
		{"Mean deviation, hole", "Em", um.Means.Em, mm.Means.Em},
		{"Mean deviation, shaft", "em", um.Means.EM, mm.Means.EM},
		{"Mean hole size", "Dm", um.Means.Dm, mm.Means.Dm},
		{"Mean shaft size", "dm", um.Means.DM, mm.Means.DM},
		{"Maximum clearance", "Smax", um.Clearance.Smax, mm.Clearance.Smax},
		{"Minimum clearance", "Smin", um.Clearance.Smin, mm.Clearance.Smin},
		{"Mean clearance", "Sm", um.Means.Sm, mm.Means.Sm},
		{"Maximum interference", "Nmax", um.Interference.Nmax, mm.Interference.Nmax},
		{"Minimum interference", "Nmin", um.Interference.Nmin, mm.Interference.Nmin},
		{"Mean interference", "Nm", um.Means.Nm, mm.Means.Nm},
		{"Hole tolerance", "TD", um.Tolerances.TD, mm.Tolerances.TD},
		{"Shaft tolerance", "Td", um.Tolerances.Td, mm.Tolerances.Td},
		{"Clearance tolerance", "Ts", um.FitTolerance.Ts, mm.FitTolerance.Ts},
		{"Interference tolerance", "TN", um.FitTolerance.TN, mm.FitTolerance.TN},
	}
}
