package amount

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestParseFormatRoundTrip(t *testing.T) {
	tests := []struct {
		in    string
		units string
	}{
		{"0", "0"},
		{"1", "1000000000"},
		{"0.000000001", "1"},
		{"1.5", "1500000000"},
		{"123456789.123456789", "123456789123456789"},
		{"98765432109876543210.000000007", "98765432109876543210000000007"},
		{"0.1", "100000000"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			units, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if units.String() != tt.units {
				t.Fatalf("expected %s units, got %s", tt.units, units.String())
			}
			if got := Format(units); got != tt.in {
				t.Fatalf("expected round trip %s, got %s", tt.in, got)
			}
		})
	}
}

func TestParseTrailingZerosAreCanonicalised(t *testing.T) {
	units, err := Parse("2.500000000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if Format(units) != "2.5" {
		t.Fatalf("expected 2.5, got %s", Format(units))
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrInvalid},
		{"-1", ErrInvalid},
		{"1e9", ErrInvalid},
		{"1.", ErrInvalid},
		{".5", ErrInvalid},
		{"abc", ErrInvalid},
		{"1.2.3", ErrInvalid},
		{"0.0000000001", ErrPrecision},
		{"1.1234567891", ErrPrecision},
		{"1" + strings.Repeat("0", 80), ErrTooLarge},
		{strings.Repeat("9", 70), ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Parse(tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseMaxDigits(t *testing.T) {
	// 69 integer digits of TON plus 9 fractional ones fill the column exactly
	largest := strings.Repeat("9", MaxDigits-Decimals) + "." + strings.Repeat("9", Decimals)
	units, err := Parse(largest)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := len(units.String()); got != MaxDigits {
		t.Fatalf("digits = %d, want %d", got, MaxDigits)
	}
}

func TestUnits(t *testing.T) {
	if Format(Units(3)) != "0.000000003" {
		t.Fatalf("unexpected format %s", Format(Units(3)))
	}
}
