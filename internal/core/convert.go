package core

// convert.go provides the total coercion functions used by the cleaner.
//
// Every function here returns a value instead of an error: input that cannot
// be interpreted becomes pgtype.Float8{Valid: false}, the missing marker.

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// numericRegex validates that a string is a plain numeric literal.
// Matches integers, decimals, and scientific notation. Keywords such as
// "nan" or "inf" and hex floats are rejected here before strconv sees them.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// currencyStripper removes the characters allowed in currency strings.
var currencyStripper = strings.NewReplacer("$", "", ",", "")

// columnNameReplacer applies the space and parenthesis rewrites.
var columnNameReplacer = strings.NewReplacer(" ", "_", "(", "", ")", "")

// ToFloat8 parses s as a number. Surrounding whitespace is ignored.
// Returns invalid for empty, malformed, or out-of-range input.
func ToFloat8(s string) pgtype.Float8 {
	s = strings.TrimSpace(s)
	if s == "" || !numericRegex.MatchString(s) {
		return pgtype.Float8{Valid: false}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}

// ToCurrencyFloat8 removes every "$" and "," from s and parses the rest.
// "$2,156,624,900" and "2,156,624,900" both become 2156624900.
func ToCurrencyFloat8(s string) pgtype.Float8 {
	return ToFloat8(currencyStripper.Replace(s))
}

// NormalizeColumnName lowercases name, replaces each space with an
// underscore and removes parentheses: "gdp_for_year ($)" -> "gdp_for_year_$".
func NormalizeColumnName(name string) string {
	lower := cases.Lower(language.Und).String(name)
	return columnNameReplacer.Replace(lower)
}
