package csv

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestSplitRecord(t *testing.T) {
	tests := map[string]struct {
		line string
		sep  byte
		want []string
	}{
		"plain": {
			"a,b,c", ',',
			[]string{"a", "b", "c"},
		},
		"empty-fields": {
			"a,,c", ',',
			[]string{"a", "", "c"},
		},
		"trailing-separator": {
			"a,b,", ',',
			[]string{"a", "b", ""},
		},
		"quoted": {
			`"a,b",c`, ',',
			[]string{"a,b", "c"},
		},
		"escaped-quotes": {
			`"say ""hi""",x`, ',',
			[]string{`say "hi"`, "x"},
		},
		"quoted-last": {
			`a,"b"`, ',',
			[]string{"a", "b"},
		},
		"tab-separated": {
			"a\tb", '\t',
			[]string{"a", "b"},
		},
		"single": {
			"a", ',',
			[]string{"a"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := splitRecord([]byte(test.line), test.sep)
			if err != nil {
				t.Fatal(err)
			}

			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("expected %q, got %q", test.want, got)
			}
		})
	}
}

func TestScannerLongRecord(t *testing.T) {
	// A record beyond bufio's default 64KB token limit must still scan.
	long := strings.Repeat("x", 100<<10)
	sc := newScanner(strings.NewReader("a,"+long+"\n"), ',')

	fields, err := sc.Next()
	if err != nil {
		t.Fatal(err)
	}

	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[1] != long {
		t.Errorf("long field not scanned intact: len %d", len(fields[1]))
	}
}

func TestSplitRecordErrors(t *testing.T) {
	if _, err := splitRecord([]byte(`a,"unterminated`), ','); !errors.Is(err, errUnterminatedQuote) {
		t.Errorf("expected unterminated quote error, got %v", err)
	}

	if _, err := splitRecord([]byte(`a,b"c`), ','); !errors.Is(err, errBareQuote) {
		t.Errorf("expected bare quote error, got %v", err)
	}
}
