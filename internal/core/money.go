// Package core holds the ledger's record types and the small value helpers
// shared by every other package.
//
// This file contains the amount helpers: the single zero-coercion point used by
// every sum, tolerant parsing of user-entered amounts and locale-aware display
// formatting.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Amount returns the value of an optional amount, coercing a missing value to
// zero. Every sum in the ledger reads its operands through Amount so that the
// fail-open policy for malformed records lives in exactly one place.
func Amount(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// NewAmount wraps v as a present amount.
func NewAmount(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

// NoAmount is a missing amount.
func NoAmount() decimal.NullDecimal {
	return decimal.NullDecimal{}
}

// ParseAmount parses a user-entered amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. When both
// appear, the last one is the decimal separator and the other is treated as a
// grouping mark, so "1.234,50" and "1,234.50" both parse to 1234.50. A lone
// comma is always a decimal mark here, so "1,234" is 1.234; use ParseAmountIn
// when the writer's locale is known. An empty string yields a missing amount,
// not an error. Negative values are rejected.
func ParseAmount(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return NoAmount(), nil
	}
	if strings.HasPrefix(s, "-") {
		return NoAmount(), ErrInvalidAmount
	}
	s = strings.TrimPrefix(s, "+")
	s = strings.ReplaceAll(s, " ", "")

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0 && lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return NoAmount(), ErrInvalidAmount
	}
	return decimal.NewNullDecimal(d), nil
}

// ParseAmountIn is ParseAmount for text written under tag. Commas in an
// amount without a dot are grouping marks when tag writes decimals with a dot,
// so "1,234" is 1234 in English and 1.234 in Turkish.
func ParseAmountIn(s string, tag language.Tag) (decimal.NullDecimal, error) {
	if DecimalMark(tag) == '.' && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	}
	return ParseAmount(s)
}

// DecimalMark returns the decimal separator tag uses for numbers.
func DecimalMark(tag language.Tag) rune {
	if strings.ContainsRune(message.NewPrinter(tag).Sprintf("%.1f", 1.5), ',') {
		return ','
	}
	return '.'
}

// FormatAmount renders d with two decimals using the number conventions of tag
// (grouping and decimal marks). It is a display helper only.
func FormatAmount(d decimal.Decimal, tag language.Tag) string {
	return message.NewPrinter(tag).Sprintf("%.2f", d.Round(2).InexactFloat64())
}
