package web

import (
	"net/http"

	"github.com/JonMunkholm/fits/internal/fits"
	"github.com/JonMunkholm/fits/internal/logging"
	"github.com/JonMunkholm/fits/internal/web/templates"
)

// handleFitPage renders the HTML calculator. Without parameters it shows
// the empty form; errors are shown inline with the mapped status code.
func (s *Server) handleFitPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := templates.FitPage{
		D:     q.Get("D"),
		Hole:  q.Get("hole"),
		Shaft: q.Get("shaft"),
	}

	status := http.StatusOK
	if page.D != "" || page.Hole != "" || page.Shaft != "" {
		res, err := s.computer.Compute(fits.Request{
			D:     fits.Decimal(page.D),
			Hole:  page.Hole,
			Shaft: page.Shaft,
		})
		if err != nil {
			msg := fits.MapError(err)
			page.Error = &msg
			status = fits.HTTPStatus(msg.Code)
		} else {
			page.Result = res
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Page(page).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render fit page", "error", err)
	}
}
