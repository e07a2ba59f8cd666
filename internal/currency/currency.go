// Package currency formats and converts money amounts using ISO 4217 metadata.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCode is used when no currency is configured.
const DefaultCode = "USD"

var (
	// ErrUnknownCurrency is returned for codes go-money does not know.
	ErrUnknownCurrency = errors.New("currency: unknown currency code")
	// ErrNoRate is returned when no conversion rate exists for a currency.
	ErrNoRate = errors.New("currency: no conversion rate")
)

// Formatter renders decimal amounts in one currency.
type Formatter struct {
	cur *money.Currency
}

// New returns a formatter for the given ISO code. An empty code means USD.
func New(code string) (*Formatter, error) {
	code = normalize(code)
	cur := money.GetCurrency(code)
	if cur == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return &Formatter{cur: cur}, nil
}

// MustNew is like New but falls back to USD for unknown codes.
func MustNew(code string) *Formatter {
	f, err := New(code)
	if err != nil {
		f, _ = New(DefaultCode)
	}
	return f
}

// Code returns the ISO code.
func (f *Formatter) Code() string { return f.cur.Code }

// Symbol returns the currency grapheme, e.g. "$".
func (f *Formatter) Symbol() string { return f.cur.Grapheme }

// Fraction returns the number of minor-unit digits.
func (f *Formatter) Fraction() int { return f.cur.Fraction }

// Round rounds d to the currency's minor unit.
func (f *Formatter) Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(int32(f.cur.Fraction))
}

// Format renders d with the currency's symbol and separators.
func (f *Formatter) Format(d decimal.Decimal) string {
	minor := d.Shift(int32(f.cur.Fraction)).Round(0).IntPart()
	return f.cur.Formatter().Format(minor)
}

var compactUnits = []struct {
	size   decimal.Decimal
	suffix string
}{
	{decimal.NewFromInt(1_000), "K"},
	{decimal.NewFromInt(1_000_000), "M"},
	{decimal.NewFromInt(1_000_000_000), "B"},
}

// FormatCompact renders large amounts with K/M/B suffixes.
// Amounts under one thousand use Format.
func (f *Formatter) FormatCompact(d decimal.Decimal) string {
	abs := d.Abs()
	idx := -1
	for i, u := range compactUnits {
		if abs.GreaterThanOrEqual(u.size) {
			idx = i
		}
	}
	if idx < 0 {
		return f.Format(d)
	}

	num := abs.Div(compactUnits[idx].size).Round(1)
	// 999,950 rounds to 1000.0K; show it as 1.0M.
	if num.GreaterThanOrEqual(decimal.NewFromInt(1_000)) && idx < len(compactUnits)-1 {
		idx++
		num = abs.Div(compactUnits[idx].size).Round(1)
	}

	out := f.applyTemplate(strings.Replace(num.StringFixed(1), ".", f.cur.Decimal, 1) + compactUnits[idx].suffix)
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}

// FormatDelta renders a signed amount: "+$2.60", "-$1.00".
func (f *Formatter) FormatDelta(d decimal.Decimal) string {
	if d.IsNegative() {
		return f.Format(d)
	}
	return "+" + f.Format(d)
}

// Parse reads an amount written with or without the currency symbol or
// code. Both "1,234.50" and "1.234,50" are accepted: when both marks appear
// the last one is the decimal mark. A single mark followed by exactly three
// digits ("1,234", "1.234") could be either and is rejected, unless the
// currency settles it: no minor unit makes it a thousands mark, three minor
// digits make it the decimal mark.
func (f *Formatter) Parse(s string) (decimal.Decimal, error) {
	orig := s
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, f.cur.Grapheme, "")
	s = strings.ReplaceAll(s, f.cur.Code, "")
	s = groupSpaces.Replace(s)

	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if s == "" {
		return decimal.Zero, fmt.Errorf("currency: parsing %q: empty amount", orig)
	}

	num, err := f.normalizeNumber(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("currency: parsing %q: %w", orig, err)
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, fmt.Errorf("currency: parsing %q: %w", orig, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// groupSpaces strips the space-like thousands marks (plain, no-break,
// narrow no-break, apostrophes as in 1'234.50).
var groupSpaces = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "", "\u2019", "")

// errAmbiguous is returned for "1,234"-style input.
var errAmbiguous = errors.New("ambiguous separator; write 1234, 1,234.00 or 1.234,00")

// normalizeNumber rewrites s with "." as the decimal mark and no grouping.
func (f *Formatter) normalizeNumber(s string) (string, error) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	if lastDot >= 0 && lastComma >= 0 {
		mark, group := ".", ","
		at := lastDot
		if lastComma > lastDot {
			mark, group, at = ",", ".", lastComma
		}
		intPart, frac := s[:at], s[at+1:]
		if strings.Contains(intPart, mark) || !validGroups(intPart, group) {
			return "", fmt.Errorf("misplaced separators in %q", s)
		}
		return strings.ReplaceAll(intPart, group, "") + "." + frac, nil
	}

	sep := ""
	switch {
	case lastDot >= 0:
		sep = "."
	case lastComma >= 0:
		sep = ","
	default:
		return s, nil
	}

	if strings.Count(s, sep) > 1 {
		if !validGroups(s, sep) {
			return "", fmt.Errorf("misplaced separators in %q", s)
		}
		return strings.ReplaceAll(s, sep, ""), nil
	}

	at := strings.Index(s, sep)
	intPart, frac := s[:at], s[at+1:]
	if len(frac) == 3 && isDigits(frac) && validLeadGroup(intPart) {
		switch {
		case f.cur.Fraction == 0 && sep == f.cur.Thousand:
			return intPart + frac, nil
		case f.cur.Fraction == 3 && sep == f.cur.Decimal:
		default:
			return "", errAmbiguous
		}
	}
	return intPart + "." + frac, nil
}

// validGroups reports whether s is digit groups split by sep: a lead group
// of one to three digits followed by groups of exactly three.
func validGroups(s, sep string) bool {
	parts := strings.Split(s, sep)
	if !validLeadGroup(parts[0]) && !(len(parts) == 1 && isDigits(parts[0])) {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 || !isDigits(p) {
			return false
		}
	}
	return true
}

// validLeadGroup reports whether s can start a grouped number: one to
// three digits, not a lone zero prefix like "0" or "01".
func validLeadGroup(s string) bool {
	return len(s) >= 1 && len(s) <= 3 && isDigits(s) && s[0] != '0'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (f *Formatter) applyTemplate(num string) string {
	out := strings.Replace(f.cur.Template, "1", num, 1)
	return strings.Replace(out, "$", f.cur.Grapheme, 1)
}

func normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCode
	}
	return code
}
