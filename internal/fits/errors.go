package fits

import (
	"errors"

	"github.com/JonMunkholm/fits/internal/fixed"
	"github.com/JonMunkholm/fits/internal/table"
)

// Error kinds returned by the engine. All of them are deterministic; retrying
// the same request yields the same error.
var (
	ErrInvalidNumber      = fixed.ErrInvalidNumber
	ErrOutOfRange         = table.ErrOutOfRange
	ErrInvalidDesignation = errors.New("invalid designation")
	ErrKindMismatch       = errors.New("kind mismatch")
	ErrUnknownZone        = errors.New("unknown zone")
	ErrNoTableEntry       = errors.New("no table entry")

	// ErrBadRequest marks malformed transport input: bad JSON, unknown kind
	// or ordering parameters.
	ErrBadRequest = errors.New("bad request")
)
