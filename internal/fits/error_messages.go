package fits

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/fits/internal/dataset"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern matches either a sentinel (errors.Is) or a message substring.
type errorPattern struct {
	target  error
	pattern string
	msg     UserMessage
}

func (ep errorPattern) matches(err error, lower string) bool {
	if ep.target != nil {
		return errors.Is(err, ep.target)
	}
	return strings.Contains(lower, ep.pattern)
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Fit Errors (FIT001-FIT006)
	// =========================================================================
	{
		target: ErrInvalidNumber,
		msg: UserMessage{
			Message: "Invalid nominal diameter",
			Action:  "Enter D in millimetres with at most 3 decimals, e.g. 25 or 12.5",
			Code:    "FIT001",
		},
	},
	{
		target: ErrOutOfRange,
		msg: UserMessage{
			Message: "Nominal diameter is outside the supported range",
			Action:  "Use a diameter greater than 0 and at most 1000 mm",
			Code:    "FIT002",
		},
	},
	{
		target: ErrInvalidDesignation,
		msg: UserMessage{
			Message: "Invalid tolerance designation",
			Action:  "Use a zone letter and grade such as H7, g6, JS7 or js6",
			Code:    "FIT003",
		},
	},
	{
		target: ErrKindMismatch,
		msg: UserMessage{
			Message: "Hole and shaft designations are swapped",
			Action:  "Use upper-case zones for the hole and lower-case zones for the shaft",
			Code:    "FIT004",
		},
	},
	{
		target: ErrUnknownZone,
		msg: UserMessage{
			Message: "Tolerance zone is not in the reference table",
			Action:  "Pick a zone from the options list for this diameter",
			Code:    "FIT005",
		},
	},
	{
		target: ErrNoTableEntry,
		msg: UserMessage{
			Message: "No tabulated deviation for this zone and grade at this size",
			Action:  "Pick a grade from the options list for this diameter and zone",
			Code:    "FIT006",
		},
	},

	// =========================================================================
	// Dataset Errors (DATA001-DATA002)
	// =========================================================================
	{
		target: dataset.ErrMalformedDataset,
		msg: UserMessage{
			Message: "The reference dataset is malformed",
			Action:  "Check the dataset file and run reconciliation again",
			Code:    "DATA001",
		},
	},
	{
		pattern: "ambiguous duplicate",
		msg: UserMessage{
			Message: "The reference dataset has equally plausible duplicate rows",
			Action:  "Fix the dataset or choose the keep-first or keep-last tie-break",
			Code:    "DATA002",
		},
	},

	// =========================================================================
	// Batch Errors (BAT001-BAT003)
	// =========================================================================
	{
		pattern: "too many batches",
		msg: UserMessage{
			Message: "System is busy processing other batches",
			Action:  "Please wait a moment and try again",
			Code:    "BAT001",
		},
	},
	{
		pattern: "missing field",
		msg: UserMessage{
			Message: "Batch line is missing a value",
			Action:  "Each line needs D, hole and shaft separated by ; or ,",
			Code:    "BAT002",
		},
	},
	{
		pattern: "line too long",
		msg: UserMessage{
			Message: "Batch line is too long",
			Action:  "Keep each line to D, hole and shaft",
			Code:    "BAT002",
		},
	},
	{
		pattern: "batch too large",
		msg: UserMessage{
			Message: "Batch exceeds the maximum size",
			Action:  "Split the batch into smaller files",
			Code:    "BAT003",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ003, RATE001)
	// =========================================================================
	{
		target: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		target: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller batch or try again later",
			Code:    "REQ002",
		},
	},
	{
		target: ErrBadRequest,
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Send JSON with D, hole and shaft, and check the query parameters",
			Code:    "REQ003",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching entry, or ERR000 when nothing matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	lower := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if ep.matches(err, lower) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates "Message (Code: XXX). Action" for display.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// HTTPStatus returns the response status for an error code.
func HTTPStatus(code string) int {
	switch {
	case code == "":
		return http.StatusOK
	case code == "FIT005" || code == "FIT006":
		return http.StatusNotFound
	case strings.HasPrefix(code, "FIT"):
		return http.StatusUnprocessableEntity
	case code == "BAT001":
		return http.StatusServiceUnavailable
	case code == "BAT003":
		return http.StatusRequestEntityTooLarge
	case strings.HasPrefix(code, "BAT"):
		return http.StatusBadRequest
	case code == "REQ001" || code == "REQ003":
		return http.StatusBadRequest
	case code == "REQ002":
		return http.StatusGatewayTimeout
	case code == "RATE001":
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
