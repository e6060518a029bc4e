package csv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

var (
	errBareQuote         = errors.New("bare quote in unquoted field")
	errUnterminatedQuote = errors.New("unterminated quoted field")
)

// scanner steps through CSV records one line at a time, rfc4180
// quoting with a configurable separator. Records do not span lines.
type scanner struct {
	sc     *bufio.Scanner
	sep    byte
	lineno int
}

// maxRecordSize bounds a single CSV record. Long text columns fit well
// under this; anything larger fails the scan rather than the process.
const maxRecordSize = 16 << 20

func newScanner(r io.Reader, sep byte) *scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxRecordSize)

	return &scanner{
		sc:  sc,
		sep: sep,
	}
}

// Next returns the fields of the next non-empty record, or io.EOF when
// the input is exhausted.
func (s *scanner) Next() ([]string, error) {
	var line []byte

	for {
		if !s.sc.Scan() {
			if err := s.sc.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}

		s.lineno++

		line = s.sc.Bytes()
		if len(line) > 0 {
			break
		}
	}

	fields, err := splitRecord(line, s.sep)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", s.lineno, err)
	}

	return fields, nil
}

// splitRecord splits one record into fields, unescaping doubled quotes
// inside quoted fields.
func splitRecord(line []byte, sep byte) ([]string, error) {
	var fields []string

	rest := line
	for {
		field, adv, trail, err := scanField(rest, sep)
		if err != nil {
			return nil, err
		}

		fields = append(fields, field)
		rest = rest[adv:]

		if len(rest) == 0 {
			// A trailing separator means one final empty field.
			if trail {
				fields = append(fields, "")
			}
			return fields, nil
		}
	}
}

// scanField scans one field. trail reports that the field was
// terminated by a separator rather than the end of the line.
func scanField(data []byte, sep byte) (string, int, bool, error) {
	if len(data) == 0 {
		return "", 0, false, nil
	}

	// Quoted field.
	if data[0] == '"' {
		var (
			out    []byte
			quoted = true
		)

		for i := 1; i < len(data); i++ {
			c := data[i]

			if c == '"' {
				// A doubled quote is an escaped quote.
				if quoted && i+1 < len(data) && data[i+1] == '"' {
					out = append(out, '"')
					i++
					continue
				}

				if !quoted {
					return "", 0, false, errBareQuote
				}

				quoted = false
				continue
			}

			if !quoted {
				if c == sep {
					return string(out), i + 1, true, nil
				}
				return "", 0, false, errBareQuote
			}

			out = append(out, c)
		}

		if quoted {
			return "", 0, false, errUnterminatedQuote
		}

		return string(out), len(data), false, nil
	}

	// Unquoted field: runs to the next separator.
	for i, c := range data {
		if c == sep {
			return string(data[:i]), i + 1, true, nil
		}

		if c == '"' {
			return "", 0, false, errBareQuote
		}
	}

	return string(data), len(data), false, nil
}
