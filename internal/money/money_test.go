package money

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseValidAmounts(t *testing.T) {
	cases := map[string]string{
		"100":     "100.00",
		"100.5":   "100.50",
		"0.01":    "0.01",
		"-42.10":  "-42.10",
		"0":       "0.00",
		"9999.99": "9999.99",
	}
	for input, want := range cases {
		m, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		if m.String() != want {
			t.Fatalf("Parse(%q) = %s, want %s", input, m.String(), want)
		}
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	for _, input := range []string{"abc", "", "10.001", "1.234", "0.999", "1e-3", "NaN", "12,50"} {
		if _, err := Parse(input); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Parse(%q): expected ErrInvalidAmount, got %v", input, err)
		}
	}
}

func TestZeroValueRendersAsTwoPlaces(t *testing.T) {
	var m Money
	if m.String() != "0.00" {
		t.Fatalf("zero value = %s, want 0.00", m.String())
	}
	if !m.Equal(Zero()) {
		t.Fatalf("zero value should equal Zero()")
	}
}

func TestArithmetic(t *testing.T) {
	a := MustParse("100.00")
	b := MustParse("0.10")

	sum := a.Add(b)
	if sum.String() != "100.10" {
		t.Fatalf("100.00 + 0.10 = %s", sum.String())
	}

	diff := a.Sub(a)
	if !diff.IsZero() {
		t.Fatalf("a - a should be zero, got %s", diff.String())
	}

	if !b.LessThan(a) {
		t.Fatalf("0.10 should be less than 100.00")
	}
	if a.Cmp(b) != 1 || b.Cmp(a) != -1 || a.Cmp(a) != 0 {
		t.Fatalf("Cmp inconsistent")
	}
}

func TestRepeatedAdditionStaysExact(t *testing.T) {
	// 0.10 added a hundred times must be exactly 10.00, the case binary
	// floating point gets wrong.
	sum := Zero()
	step := MustParse("0.10")
	for i := 0; i < 100; i++ {
		sum = sum.Add(step)
	}
	if sum.String() != "10.00" {
		t.Fatalf("sum = %s, want 10.00", sum.String())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	m := MustParse("15.50")
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"15.50"` {
		t.Fatalf("marshal = %s", data)
	}

	var back Money
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(m) {
		t.Fatalf("round trip mismatch: %s != %s", back.String(), m.String())
	}

	var fromNumber Money
	if err := json.Unmarshal([]byte("12.5"), &fromNumber); err != nil {
		t.Fatalf("unmarshal bare number: %v", err)
	}
	if fromNumber.String() != "12.50" {
		t.Fatalf("bare number = %s", fromNumber.String())
	}

	var overPrecise Money
	if err := json.Unmarshal([]byte(`"1.999"`), &overPrecise); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
