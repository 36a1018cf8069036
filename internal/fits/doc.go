// Package fits computes ISO 286 limits and fits for a hole/shaft pair.
//
// An Engine is built once over an immutable reconciled index and is safe for
// concurrent use. Compute resolves the nominal diameter to a size bucket, looks
// up the hole and shaft deviations and derives every limit, clearance,
// interference and tolerance in integer micrometres. Millimetre figures are
// formatted from those integers, so no floating point is involved.
//
// # Error Codes Reference
//
// User-facing errors carry a code that can be quoted to support staff.
//
// # Fit Errors (FIT001-FIT099)
//
//	FIT001 - Invalid number: D is not a decimal with up to 3 fractional digits
//	FIT002 - Out of range: D is outside the supported nominal sizes (0, 1000] mm
//	FIT003 - Invalid designation: not of the form H7, g6, JS7, js6
//	FIT004 - Kind mismatch: a shaft designation was given for the hole or vice versa
//	FIT005 - Unknown zone: the zone letter is not in the reference table
//	FIT006 - No table entry: the zone/grade combination is not tabulated for this size
//
// # Dataset Errors (DATA001-DATA099)
//
//	DATA001 - Malformed dataset: a collection is missing or a lookup table is inconsistent
//	DATA002 - Ambiguous duplicate: two rows for the same key scored equally under strict tie-break
//
// # Batch Errors (BAT001-BAT099)
//
//	BAT001 - System busy: too many batch jobs in progress
//	BAT002 - Bad batch line: fewer than three values, or longer than 64 KiB
//	BAT003 - Batch too large: the request body exceeds the configured limit
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//	RATE001 - Rate limited
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check application logs for the technical error
//
// # Matching
//
// Sentinel errors are matched with errors.Is first. Errors from other packages
// that cannot be imported here (batch, web) are matched case-insensitively by
// message pattern. The first match wins.
package fits
