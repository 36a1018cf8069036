package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/fits/internal/batch"
	"github.com/JonMunkholm/fits/internal/fits"
	"github.com/JonMunkholm/fits/internal/logging"
	"github.com/JonMunkholm/fits/internal/reconcile"
	"github.com/JonMunkholm/fits/internal/table"
)

// maxFitBody bounds a single-computation JSON body.
const maxFitBody = 64 << 10

// handleFit computes one fit from a JSON body {D, hole, shaft}.
func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	var req fits.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFitBody))
	if err := dec.Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: decode body: %v", fits.ErrBadRequest, err))
		return
	}
	s.compute(w, r, req)
}

// handleFitQuery is handleFit with D, hole and shaft as query parameters.
func (s *Server) handleFitQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.compute(w, r, fits.Request{
		D:     fits.Decimal(q.Get("D")),
		Hole:  q.Get("hole"),
		Shaft: q.Get("shaft"),
	})
}

func (s *Server) compute(w http.ResponseWriter, r *http.Request, req fits.Request) {
	res, err := s.computer.Compute(req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Debug("fit computed",
		"D", res.Input.D, "hole", res.Input.Hole, "shaft", res.Input.Shaft,
		"fit_type", res.Classification.FitType)
	writeJSON(w, res)
}

// handleOptions lists hole and shaft zones at a diameter. order overrides
// the configured zone order.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		opts *fits.ZoneOptions
		err  error
	)
	if raw := q.Get("order"); raw != "" {
		order, perr := table.ParseZoneOrder(raw)
		if perr != nil {
			s.respondError(w, r, fmt.Errorf("%w: %v", fits.ErrBadRequest, perr))
			return
		}
		opts, err = s.engine.OptionsOrdered(q.Get("D"), order)
	} else {
		opts, err = s.engine.Options(q.Get("D"))
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, opts)
}

// handleGrades lists grades for one zone at a diameter.
func (s *Server) handleGrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind, err := table.ParseKind(q.Get("kind"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", fits.ErrBadRequest, err))
		return
	}
	opts, err := s.engine.Grades(q.Get("D"), kind, q.Get("zone"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, opts)
}

// IndexSummary describes the loaded reference index.
type IndexSummary struct {
	Entries int               `json:"entries"`
	Ranges  []table.SizeRange `json:"ranges"`
	Grades  int               `json:"grades"`
	Zones   int               `json:"zones"`
	SavedAt *time.Time        `json:"savedAt,omitempty"`
	Report  *reconcile.Report `json:"report,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	idx := s.engine.Index()
	sum := IndexSummary{
		Entries: idx.Len(),
		Ranges:  idx.Ranges(),
		Grades:  len(idx.GradeTable().Entries()),
		Zones:   len(idx.ZoneCodes().Entries()),
	}
	if s.snapshot != nil {
		sum.Report = &s.snapshot.Report
		if !s.snapshot.SavedAt.IsZero() {
			sum.SavedAt = &s.snapshot.SavedAt
		}
	}
	writeJSON(w, sum)
}

// HealthStatus is the /healthz body.
type HealthStatus struct {
	Status  string              `json:"status"`
	Entries int                 `json:"entries"`
	Batches batch.LimiterStatus `json:"batches"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthStatus{
		Status:  "ok",
		Entries: s.engine.Index().Len(),
		Batches: s.limiter.Status(),
	})
}
