package batch

// streaming.go wraps batch input so it can be parsed line by line without
// buffering the whole body:
//
//   - LimitedReader: counts raw bytes and fails once a size cap is exceeded
//   - a UTF-8 decoder that drops a leading BOM and replaces invalid bytes
//     with U+FFFD
//
// Use WrapForStreaming to apply both in the correct order.

import (
	"errors"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrBatchTooLarge is returned when the input exceeds the configured size.
var ErrBatchTooLarge = errors.New("batch too large")

// LimitedReader wraps an io.Reader to count bytes read and to enforce an
// optional upper bound.
type LimitedReader struct {
	reader    io.Reader
	BytesRead int64
	Max       int64 // 0 means unlimited
}

// NewLimitedReader creates a counting reader that fails after max bytes.
func NewLimitedReader(r io.Reader, max int64) *LimitedReader {
	return &LimitedReader{reader: r, Max: max}
}

// Read implements io.Reader.
func (r *LimitedReader) Read(p []byte) (int, error) {
	if r.Max > 0 && r.BytesRead >= r.Max {
		// Probe one byte so an input of exactly Max bytes still succeeds.
		var one [1]byte
		n, err := r.reader.Read(one[:])
		if n > 0 {
			return 0, ErrBatchTooLarge
		}
		return 0, err
	}
	if r.Max > 0 && int64(len(p)) > r.Max-r.BytesRead {
		p = p[:r.Max-r.BytesRead]
	}
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// WrapForStreaming limits r to max raw bytes, then strips a UTF-8 BOM and
// sanitizes invalid UTF-8.
//
// The limit applies to the raw input, so it wraps first.
func WrapForStreaming(r io.Reader, max int64) io.Reader {
	limited := NewLimitedReader(r, max)
	decoder := unicode.UTF8BOM.NewDecoder()
	return transform.NewReader(limited, decoder)
}
