// Package batch evaluates many fit requests from a delimited text stream.
//
// Each line is computed independently: a failing line is recorded with its
// error and error code and never aborts the batch. Results keep input order.
package batch

import (
	"context"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/fits/internal/fits"
)

// Computer evaluates one fit request. *fits.Engine satisfies it.
type Computer interface {
	Compute(req fits.Request) (*fits.Result, error)
}

// RowResult is the outcome of one input line.
type RowResult struct {
	Line   int          `json:"line"`
	Input  fits.Input   `json:"input"`
	Result *fits.Result `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
	Code   string       `json:"code,omitempty"`
}

// OK reports whether the line computed successfully.
func (r RowResult) OK() bool {
	return r.Result != nil
}

// Summary is the outcome of a whole batch.
type Summary struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Rows      []RowResult `json:"rows"`
}

// Failures returns the rows that did not compute.
func (s *Summary) Failures() []RowResult {
	var out []RowResult
	for _, r := range s.Rows {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Run computes every line with at most workers concurrent evaluations.
// workers <= 0 uses GOMAXPROCS. Only context cancellation stops a batch early.
func Run(ctx context.Context, c Computer, lines []Line, workers int) (*Summary, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	rows := make([]RowResult, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, line := range lines {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = evaluate(c, line)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Summary{Total: len(rows), Rows: rows}
	for _, r := range rows {
		if r.OK() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}

	slog.Debug("batch complete", "total", s.Total, "succeeded", s.Succeeded, "failed", s.Failed)
	return s, nil
}

// ProcessStream parses r and runs it. maxBytes bounds the raw input; 0 means
// unlimited.
func ProcessStream(ctx context.Context, c Computer, r io.Reader, maxBytes int64, workers int) (*Summary, error) {
	lines, err := Parse(WrapForStreaming(r, maxBytes))
	if err != nil {
		return nil, err
	}
	return Run(ctx, c, lines, workers)
}

func evaluate(c Computer, line Line) RowResult {
	row := RowResult{
		Line:  line.Number,
		Input: fits.Input{D: line.D, Hole: line.Hole, Shaft: line.Shaft},
	}

	err := line.Err
	if err == nil {
		var res *fits.Result
		res, err = c.Compute(line.Request())
		if err == nil {
			row.Result = res
			row.Input = res.Input
			return row
		}
	}

	row.Error = err.Error()
	row.Code = fits.MapError(err).Code
	return row
}
