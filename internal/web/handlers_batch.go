package web

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fits/internal/batch"
	"github.com/JonMunkholm/fits/internal/fits"
	"github.com/JonMunkholm/fits/internal/logging"
)

// Batch output formats.
const (
	formatCSV  = "csv"
	formatJSON = "json"
)

// handleBatch evaluates a delimited batch streamed from the request body,
// either raw or as the "file" part of a multipart form. The body is never
// buffered whole; the configured size limit applies while reading.
//
// CSV output holds successful rows only; X-Batch-Failed counts the others
// and ?format=json returns every row with its error code.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = formatCSV
	}
	if format != formatCSV && format != formatJSON {
		s.respondError(w, r, fmt.Errorf("%w: unknown format %q (want csv or json)", fits.ErrBadRequest, format))
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		s.metrics.observeBatchOutcome("rejected")
		s.respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	id := uuid.NewString()
	ctx := logging.WithBatchID(r.Context(), id)
	logger := logging.FromContext(ctx)
	w.Header().Set("X-Batch-ID", id)

	body, err := batchBody(r)
	if err != nil {
		s.metrics.observeBatchOutcome("failed")
		s.respondError(w, r.WithContext(ctx), err)
		return
	}

	summary, err := batch.ProcessStream(ctx, s.computer, body, s.cfg.Batch.MaxBodySize, s.cfg.Batch.Workers)
	if err != nil {
		s.metrics.observeBatchOutcome("failed")
		s.respondError(w, r.WithContext(ctx), err)
		return
	}
	s.metrics.observeBatch(summary)
	logger.Info("batch complete",
		"format", format,
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)

	h := w.Header()
	h.Set("X-Batch-Total", strconv.Itoa(summary.Total))
	h.Set("X-Batch-Succeeded", strconv.Itoa(summary.Succeeded))
	h.Set("X-Batch-Failed", strconv.Itoa(summary.Failed))

	switch format {
	case formatJSON:
		h.Set("Content-Type", "application/json")
		err = batch.WriteJSON(w, summary)
	default:
		h.Set("Content-Type", "text/csv; charset=utf-8")
		h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="fits-%s.csv"`, id))
		err = batch.WriteCSV(w, summary)
	}
	if err != nil {
		logger.Error("batch write failed", "error", err)
	}
}

// batchBody returns the batch text: the "file" part of a multipart upload,
// or the raw body otherwise.
func batchBody(r *http.Request) (io.Reader, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return r.Body, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fits.ErrBadRequest, err)
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: multipart form has no file part", fits.ErrBadRequest)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", fits.ErrBadRequest, err)
		}
		if part.FormName() == "file" {
			return part, nil
		}
		part.Close()
	}
}
