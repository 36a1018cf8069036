package batch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/fits/internal/fits"
)

var (
	// ErrMissingField marks a line with fewer than three usable fields.
	ErrMissingField = errors.New("missing field")

	// ErrLineTooLong marks a line longer than maxLineSize. The line is
	// skipped and parsing continues with the next one.
	ErrLineTooLong = errors.New("line too long")
)

// maxLineSize caps a single input line.
const maxLineSize = 64 * 1024

// fieldNames are the three columns every line must carry, in order.
var fieldNames = [3]string{"D", "hole", "shaft"}

// Line is one data line of a batch input. Err is set when the line could not
// be split into the three fields; such lines still produce a row result.
type Line struct {
	Number int
	Raw    string
	D      string
	Hole   string
	Shaft  string
	Err    error
}

// Request converts the line into an engine request.
func (l Line) Request() fits.Request {
	return fits.Request{D: fits.Decimal(l.D), Hole: l.Hole, Shaft: l.Shaft}
}

// Parse reads a delimited batch stream. Blank lines, '#' comments and header
// lines are skipped. Each remaining line is split on ';' when it contains
// one, otherwise on ','. A read error aborts; an over-long line does not.
func Parse(r io.Reader) ([]Line, error) {
	br := bufio.NewReaderSize(r, 4096)

	var lines []Line
	number := 0
	for {
		text, tooLong, err := readLine(br)
		if err != nil && !errors.Is(err, io.EOF) {
			return lines, fmt.Errorf("read line %d: %w", number+1, err)
		}
		last := err != nil
		if last && text == "" && !tooLong {
			break
		}

		number++
		if line, ok := parseLine(number, text, tooLong); ok {
			lines = append(lines, line)
		}
		if last {
			break
		}
	}
	return lines, nil
}

// readLine returns the next line without its terminator. The rest of a line
// longer than maxLineSize is consumed and discarded.
func readLine(br *bufio.Reader) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return strings.TrimRight(string(buf), "\r\n"), tooLong, err
	}
}

// parseLine turns one input line into a Line. ok is false for lines that
// carry no data.
func parseLine(number int, text string, tooLong bool) (Line, bool) {
	if tooLong {
		return Line{
			Number: number,
			Err:    fmt.Errorf("%w: over %d bytes", ErrLineTooLong, maxLineSize),
		}, true
	}

	raw := strings.TrimSpace(text)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return Line{}, false
	}

	cells := SplitLine(raw)
	if isHeader(cells) {
		return Line{}, false
	}

	got, err := fields(cells)
	return Line{
		Number: number,
		Raw:    raw,
		D:      got[0],
		Hole:   got[1],
		Shaft:  got[2],
		Err:    err,
	}, true
}

// SplitLine splits a line on its delimiter and cleans each cell.
func SplitLine(line string) []string {
	sep := ","
	if strings.Contains(line, ";") {
		sep = ";"
	}
	parts := strings.Split(line, sep)
	for i, p := range parts {
		parts[i] = CleanCell(p)
	}
	return parts
}

// CleanCell normalizes a cell as spreadsheets export it: whitespace trimmed,
// Excel formula wrapping ="..." removed, surrounding quotes removed.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

func isHeader(cells []string) bool {
	if len(cells) < 2 {
		return false
	}
	return strings.EqualFold(cells[0], "d") && strings.Contains(strings.ToLower(cells[1]), "hole")
}

// fields returns the first three cells. Missing cells are left empty and the
// first one missing is reported.
func fields(cells []string) ([3]string, error) {
	var got [3]string
	var err error
	for i := range got {
		if i < len(cells) {
			got[i] = cells[i]
		}
		if got[i] == "" && err == nil {
			err = fmt.Errorf("%w %s", ErrMissingField, fieldNames[i])
		}
	}
	return got, err
}
