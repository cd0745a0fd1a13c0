package core

import (
	"testing"
)

// ----------------------------------------------------------------------------
// ToFloat8 Tests
// ----------------------------------------------------------------------------

func TestToFloat8(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue float64
	}{
		// Valid: integers and decimals
		{name: "positive integer", input: "21", wantValid: true, wantValue: 21},
		{name: "zero", input: "0", wantValid: true, wantValue: 0},
		{name: "negative integer", input: "-456", wantValid: true, wantValue: -456},
		{name: "decimal number", input: "6.71", wantValid: true, wantValue: 6.71},
		{name: "leading decimal point", input: ".99", wantValid: true, wantValue: 0.99},
		{name: "trailing decimal point", input: "99.", wantValid: true, wantValue: 99},
		{name: "explicit plus sign", input: "+3", wantValid: true, wantValue: 3},
		{name: "scientific notation", input: "1.5e3", wantValid: true, wantValue: 1500},
		{name: "surrounding whitespace", input: "  796 ", wantValid: true, wantValue: 796},

		// Invalid: becomes missing
		{name: "empty string", input: "", wantValid: false},
		{name: "whitespace only", input: "   ", wantValid: false},
		{name: "letters", input: "abc", wantValid: false},
		{name: "nan keyword", input: "NaN", wantValid: false},
		{name: "inf keyword", input: "inf", wantValid: false},
		{name: "hex float", input: "0x1p-2", wantValid: false},
		{name: "thousands separator not stripped", input: "1,234", wantValid: false},
		{name: "currency symbol not stripped", input: "$5", wantValid: false},
		{name: "overflow", input: "1e400", wantValid: false},
		{name: "two decimal points", input: "1.2.3", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToFloat8(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToFloat8(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if tt.wantValid && got.Float64 != tt.wantValue {
				t.Errorf("ToFloat8(%q) = %v, want %v", tt.input, got.Float64, tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToCurrencyFloat8 Tests
// ----------------------------------------------------------------------------

func TestToCurrencyFloat8(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue float64
	}{
		{name: "thousands separators", input: "1,234,567", wantValid: true, wantValue: 1234567},
		{name: "dataset gdp value", input: "2,156,624,900", wantValid: true, wantValue: 2156624900},
		{name: "dollar sign and separators", input: "$2,156,624,900", wantValid: true, wantValue: 2156624900},
		{name: "multiple dollar signs", input: "$$1,000", wantValid: true, wantValue: 1000},
		{name: "plain number", input: "796", wantValid: true, wantValue: 796},
		{name: "decimal with separators", input: "1,234.50", wantValid: true, wantValue: 1234.5},
		{name: "empty", input: "", wantValid: false},
		{name: "only separators", input: "$,", wantValid: false},
		{name: "euro sign is not stripped", input: "€1,000", wantValid: false},
		{name: "text", input: "unknown", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToCurrencyFloat8(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToCurrencyFloat8(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if tt.wantValid && got.Float64 != tt.wantValue {
				t.Errorf("ToCurrencyFloat8(%q) = %v, want %v", tt.input, got.Float64, tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// NormalizeColumnName Tests
// ----------------------------------------------------------------------------

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"country", "country"},
		{"suicides/100k pop", "suicides/100k_pop"},
		{"country-year", "country-year"},
		{"gdp_for_year ($)", "gdp_for_year_$"},
		{" gdp_for_year ($) ", "_gdp_for_year_$_"},
		{"gdp_per_capita ($)", "gdp_per_capita_$"},
		{"HDI for year", "hdi_for_year"},
		{"Suicides_No", "suicides_no"},
		{"a  b", "a__b"},
		{"((x))", "x"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeColumnName(tt.input); got != tt.want {
				t.Errorf("NormalizeColumnName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
