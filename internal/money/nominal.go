// Package money normalizes and formats Rupiah amounts.
package money

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	// ErrZeroNominal empty or zero input; callers may derive the amount instead
	ErrZeroNominal = errors.New("nominal is empty or zero")
	// ErrInvalidNominal unparseable or negative input
	ErrInvalidNominal = errors.New("invalid nominal format")
)

var (
	nominalPattern  = regexp.MustCompile(`^([\d.,]+)\s*(k|rb|ribu|jt|juta|m|milyar|miliar)?$`)
	dotGrouping     = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	commaGrouping   = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)
	currencyPrefix  = regexp.MustCompile(`^rp\.?\s*`)
	maxNominal      = decimal.NewFromInt(math.MaxInt64)
	suffixMultipler = map[string]int64{
		"k":      1_000,
		"rb":     1_000,
		"ribu":   1_000,
		"jt":     1_000_000,
		"juta":   1_000_000,
		"m":      1_000_000_000,
		"milyar": 1_000_000_000,
		"miliar": 1_000_000_000,
	}
)

// ParseNominal turns "5000k", "Rp30.000", "1,5jt" or "30000" into a whole Rupiah amount.
func ParseNominal(s string) (int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = currencyPrefix.ReplaceAllString(s, "")
	if s == "" {
		return 0, ErrZeroNominal
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNominal, s)
	}

	m := nominalPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNominal, s)
	}
	number, suffix := m[1], m[2]

	value, err := decimal.NewFromString(normalizeSeparators(number, suffix != ""))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNominal, s)
	}
	if mult, ok := suffixMultipler[suffix]; ok {
		value = value.Mul(decimal.NewFromInt(mult))
	}
	value = value.Round(0)
	if value.GreaterThan(maxNominal) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidNominal, s)
	}
	amount := value.IntPart()
	if amount <= 0 {
		return 0, ErrZeroNominal
	}
	return amount, nil
}

// normalizeSeparators rewrites Indonesian grouping/decimal marks into a plain decimal literal.
// "." is a thousands separator when it forms 3-digit groups; "," is the decimal mark
// except for 3-digit groups without a suffix ("30,000").
func normalizeSeparators(n string, hasSuffix bool) string {
	hasDot := strings.Contains(n, ".")
	hasComma := strings.Contains(n, ",")
	switch {
	case hasDot && hasComma:
		return strings.Replace(strings.ReplaceAll(n, ".", ""), ",", ".", 1)
	case hasDot && dotGrouping.MatchString(n):
		return strings.ReplaceAll(n, ".", "")
	case hasComma && !hasSuffix && commaGrouping.MatchString(n):
		return strings.ReplaceAll(n, ",", "")
	case hasComma:
		return strings.Replace(n, ",", ".", 1)
	default:
		return n
	}
}

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders 5000000 as "Rp5.000.000"
func FormatRupiah(amount int64) string {
	return "Rp" + idPrinter.Sprintf("%d", amount)
}

// FormatRupiahCents renders 1234 as "Rp1.234,00"
func FormatRupiahCents(amount int64) string {
	return "Rp" + idPrinter.Sprintf("%.2f", float64(amount))
}

// FormatNumber renders a decimal with Indonesian separators, trimming trailing zeros ("2,5")
func FormatNumber(d decimal.Decimal) string {
	if d.IsInteger() {
		return idPrinter.Sprintf("%d", d.IntPart())
	}
	return strings.Replace(d.String(), ".", ",", 1)
}
