package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/JonMunkholm/fits/internal/fits"
)

// Columns is the header of the CSV output.
var Columns = []string{
	"D", "hole", "shaft",
	"ES", "EI", "es", "ei",
	"Dmax", "Dmin", "dmax", "dmin",
	"Em", "em", "Dm", "dm",
	"Smax", "Smin", "Sm",
	"Nmax", "Nmin", "Nm",
	"TD", "Td", "Ts", "TN",
	"fitType", "system",
}

// Record flattens a result into one CSV record in millimetres.
func Record(r *fits.Result) []string {
	mm := r.Millimetres
	return []string{
		r.Input.D, r.Input.Hole, r.Input.Shaft,
		mm.Deviations.ES, mm.Deviations.EI, mm.Deviations.Es, mm.Deviations.Ei,
		mm.Limits.Dmax, mm.Limits.Dmin, mm.Limits.DMax, mm.Limits.DMin,
		mm.Means.Em, mm.Means.EM, mm.Means.Dm, mm.Means.DM,
		mm.Clearance.Smax, mm.Clearance.Smin, mm.Means.Sm,
		mm.Interference.Nmax, mm.Interference.Nmin, mm.Means.Nm,
		mm.Tolerances.TD, mm.Tolerances.Td, mm.FitTolerance.Ts, mm.FitTolerance.TN,
		string(r.Classification.FitType), string(r.Classification.Basis),
	}
}

// WriteCSV writes the header and one ';'-separated, CRLF-terminated record per
// successful row. Failed rows are only reported through the summary counts
// and WriteJSON.
func WriteCSV(w io.Writer, s *Summary) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	cw.UseCRLF = true

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range s.Rows {
		if !row.OK() {
			continue
		}
		if err := cw.Write(Record(row.Result)); err != nil {
			return fmt.Errorf("write line %d: %w", row.Line, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full summary, failures included, as indented JSON.
func WriteJSON(w io.Writer, s *Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
