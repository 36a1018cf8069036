// Package fixed converts between millimetre decimal text and integer micrometres
// without ever passing through floating point.
//
// All dimensional arithmetic in the engine happens on int64 micrometres.
// Millimetre strings are produced only for display and always carry exactly
// three fractional digits ("25.000", "-0.007").
package fixed

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidNumber is returned when text is not a decimal with at most 3 fractional digits.
var ErrInvalidNumber = errors.New("invalid number")

// maxIntDigits bounds the integer part so sign*(int*1000+frac) cannot overflow int64.
const maxIntDigits = 15

// decimalRegex accepts an optional sign, integer digits and up to 3 fractional
// digits. A comma is accepted as the decimal separator.
var decimalRegex = regexp.MustCompile(`^([+-])?(\d+)(?:[.,](\d{1,3}))?$`)

// ParseMicrometres converts millimetre text ("25", "12.5", "-0.007", "3,25")
// to integer micrometres.
func ParseMicrometres(s string) (int64, error) {
	t := strings.TrimSpace(s)
	m := decimalRegex.FindStringSubmatch(t)
	if m == nil {
		return 0, fmt.Errorf("%w: %q (use a number with up to 3 decimals)", ErrInvalidNumber, s)
	}

	intPart := strings.TrimLeft(m[2], "0")
	if len(intPart) > maxIntDigits {
		return 0, fmt.Errorf("%w: %q is too large", ErrInvalidNumber, s)
	}

	var whole int64
	if intPart != "" {
		v, err := strconv.ParseInt(intPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
		}
		whole = v
	}

	frac := m[3] + strings.Repeat("0", 3-len(m[3]))
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}

	um := whole*1000 + f
	if m[1] == "-" {
		um = -um
	}
	return um, nil
}

// FormatMillimetres renders micrometres as millimetres with exactly three decimals.
func FormatMillimetres(um int64) string {
	sign := ""
	// Work in uint64 so math.MinInt64 negates safely.
	a := uint64(um)
	if um < 0 {
		sign = "-"
		a = uint64(-(um + 1)) + 1
	}
	return fmt.Sprintf("%s%d.%03d", sign, a/1000, a%1000)
}

// RoundHalfAwayDiv2 halves sum, rounding a .5 remainder away from zero:
// 21 → 11, -21 → -11, 20 → 10.
func RoundHalfAwayDiv2(sum int64) int64 {
	if sum >= 0 {
		return (sum + 1) / 2
	}
	return -((-sum + 1) / 2)
}
