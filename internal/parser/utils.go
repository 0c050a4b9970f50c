package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeHeader trims a header cell and folds line breaks and runs of
// whitespace into single spaces. Case is preserved: headers match case-sensitively.
func NormalizeHeader(name string) string {
	name = strings.TrimSpace(name)
	return reSpaces.ReplaceAllString(name, " ")
}

// ParseNumber parses a numeric-looking cell. Thousands separators (commas and
// spaces) are ignored. NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// CoerceInt rounds a numeric cell to an int, or returns def when the cell is
// empty, not a number or negative.
func CoerceInt(c Cell, def int) int {
	f, ok := ParseNumber(c.Value)
	if !ok || f < 0 {
		return def
	}
	return int(math.Round(f))
}

// OptionalPositiveInt rounds a numeric cell; empty, zero or invalid cells give nil.
func OptionalPositiveInt(c Cell) *int {
	f, ok := ParseNumber(c.Value)
	if !ok {
		return nil
	}
	n := int(math.Round(f))
	if n <= 0 {
		return nil
	}
	return &n
}

// OptionalPrice parses a price cell; empty, zero or invalid cells are null.
func OptionalPrice(c Cell) decimal.NullDecimal {
	s := strings.ReplaceAll(strings.TrimSpace(c.Value), ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// OptionalString returns nil for an empty cell.
func OptionalString(c Cell) *string {
	if c.Empty() {
		return nil
	}
	v := c.Value
	return &v
}

// StringOr returns the cell value, or def when the cell is empty.
func StringOr(c Cell, def string) string {
	if c.Empty() {
		return def
	}
	return c.Value
}

// SplitTags splits a delimited category cell on ',' or ';'. Entries are
// trimmed, empty entries dropped and exact duplicates removed, keeping the
// first occurrence. The result is never nil.
func SplitTags(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})
	tags := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		tags = append(tags, p)
	}
	return tags
}
