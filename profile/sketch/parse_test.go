package sketch

import "testing"

func TestParseDateLayouts(t *testing.T) {
	for _, s := range []string{"2014-02-01", "02/01/2014", "02/01/14", "2/1/14"} {
		if _, ok := ParseDate(s); !ok {
			t.Errorf("expected %q to parse as a date", s)
		}
	}

	if _, ok := ParseDate("not a date"); ok {
		t.Error("expected parse failure")
	}
}

func TestHasLeadingZeros(t *testing.T) {
	if !hasLeadingZeros("0123") {
		t.Error("expected leading zeros")
	}

	if hasLeadingZeros("0") {
		t.Error("a bare zero is not a leading zero")
	}

	if hasLeadingZeros("123") {
		t.Error("unexpected leading zeros")
	}
}

func BenchmarkParseDateValid(b *testing.B) {
	s := "1998-10-01"
	for i := 0; i < b.N; i++ {
		ParseDate(s)
	}
}

func BenchmarkParseDateInvalid(b *testing.B) {
	s := "not a date"
	for i := 0; i < b.N; i++ {
		ParseDate(s)
	}
}

func BenchmarkParseFloatValid(b *testing.B) {
	s := "32.10219"
	for i := 0; i < b.N; i++ {
		ParseFloat(s)
	}
}

func BenchmarkParseIntValid(b *testing.B) {
	s := "3210219"
	for i := 0; i < b.N; i++ {
		ParseInt(s)
	}
}
