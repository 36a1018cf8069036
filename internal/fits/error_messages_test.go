package fits

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JonMunkholm/fits/internal/dataset"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{name: "invalid number", err: fmt.Errorf("parse: %w", ErrInvalidNumber), wantCode: "FIT001"},
		{name: "out of range", err: fmt.Errorf("D=2000.000 mm: %w", ErrOutOfRange), wantCode: "FIT002"},
		{name: "invalid designation", err: fmt.Errorf("hole: %w", ErrInvalidDesignation), wantCode: "FIT003"},
		{name: "kind mismatch", err: fmt.Errorf("hole: %w", ErrKindMismatch), wantCode: "FIT004"},
		{name: "unknown zone", err: ErrUnknownZone, wantCode: "FIT005"},
		{name: "no table entry", err: ErrNoTableEntry, wantCode: "FIT006"},
		{name: "malformed dataset", err: fmt.Errorf("load: %w", dataset.ErrMalformedDataset), wantCode: "DATA001"},
		{name: "ambiguous duplicate", err: errors.New("ambiguous duplicate rows: 1 tie(s)"), wantCode: "DATA002"},
		{name: "too many batches", err: errors.New("Too Many Batches in progress"), wantCode: "BAT001"},
		{name: "missing field", err: errors.New("line 3: missing field shaft"), wantCode: "BAT002"},
		{name: "line too long", err: errors.New("line too long: over 65536 bytes"), wantCode: "BAT002"},
		{name: "context canceled", err: fmt.Errorf("batch: %w", context.Canceled), wantCode: "REQ001"},
		{name: "deadline", err: context.DeadlineExceeded, wantCode: "REQ002"},
		{name: "bad request", err: fmt.Errorf("decode body: %w", ErrBadRequest), wantCode: "REQ003"},
		{name: "rate limit", err: errors.New("rate limit exceeded"), wantCode: "RATE001"},
		{name: "unknown falls back", err: errors.New("something odd"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() Code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Action == "" {
				t.Error("MapError() Action is empty")
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
	got := FormatUserError(ErrOutOfRange)
	want := "Nominal diameter is outside the supported range (Code: FIT002). Use a diameter greater than 0 and at most 1000 mm"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if !IsUserFacing(ErrKindMismatch) {
		t.Error("IsUserFacing(ErrKindMismatch) = false")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("IsUserFacing(boom) = true")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := map[string]int{
		"FIT001":  http.StatusUnprocessableEntity,
		"FIT004":  http.StatusUnprocessableEntity,
		"FIT006":  http.StatusNotFound,
		"DATA001": http.StatusInternalServerError,
		"BAT001":  http.StatusServiceUnavailable,
		"BAT002":  http.StatusBadRequest,
		"BAT003":  http.StatusRequestEntityTooLarge,
		"RATE001": http.StatusTooManyRequests,
		"REQ002":  http.StatusGatewayTimeout,
		"REQ003":  http.StatusBadRequest,
		"ERR000":  http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := HTTPStatus(code); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", code, got, want)
		}
	}
}
