package valueobject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency describes how money is displayed. It is passed explicitly to
// every renderer instead of living in a package-level constant.
type Currency struct {
	Code   string
	Symbol string
	Locale language.Tag
}

// NGN is the Nigerian Naira, the platform currency
var NGN = Currency{Code: "NGN", Symbol: "₦", Locale: language.MustParse("en-NG")}

// NewCurrency creates a Currency from config values
func NewCurrency(code, symbol, locale string) (Currency, error) {
	if strings.TrimSpace(code) == "" {
		return Currency{}, errors.New("currency code cannot be empty")
	}
	tag := language.English
	if locale != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			return Currency{}, fmt.Errorf("invalid currency locale %q: %w", locale, err)
		}
		tag = parsed
	}
	if symbol == "" {
		symbol = strings.ToUpper(code) + " "
	}
	return Currency{Code: strings.ToUpper(code), Symbol: symbol, Locale: tag}, nil
}

// IsZero returns true for an unconfigured currency
func (c Currency) IsZero() bool {
	return c.Code == ""
}

// Format renders a whole-unit amount with digit grouping, e.g. ₦1,000
func (c Currency) Format(amount int64) string {
	p := message.NewPrinter(c.Locale)
	if amount < 0 {
		return "-" + c.Symbol + p.Sprintf("%d", -amount)
	}
	return c.Symbol + p.Sprintf("%d", amount)
}

// FormatDecimal renders a decimal amount, keeping two fraction digits only when needed
func (c Currency) FormatDecimal(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return c.Format(amount.IntPart())
	}
	p := message.NewPrinter(c.Locale)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	return sign + c.Symbol + p.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2)))
}

// AmountRange is an inclusive amount window, typically provider min/max
type AmountRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// NewAmountRange creates a range; a zero Max means unbounded
func NewAmountRange(min, max int64) AmountRange {
	return AmountRange{Min: decimal.NewFromInt(min), Max: decimal.NewFromInt(max)}
}

// Contains reports whether the amount lies inside the range
func (r AmountRange) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(r.Min) {
		return false
	}
	if !r.Max.IsZero() && amount.GreaterThan(r.Max) {
		return false
	}
	return true
}

// Intersect narrows the range with another one
func (r AmountRange) Intersect(other AmountRange) AmountRange {
	out := r
	if other.Min.GreaterThan(out.Min) {
		out.Min = other.Min
	}
	if !other.Max.IsZero() && (out.Max.IsZero() || other.Max.LessThan(out.Max)) {
		out.Max = other.Max
	}
	return out
}

// Describe renders the range for error messages
func (r AmountRange) Describe(c Currency) string {
	if r.Max.IsZero() {
		return "at least " + c.FormatDecimal(r.Min)
	}
	return "between " + c.FormatDecimal(r.Min) + " and " + c.FormatDecimal(r.Max)
}
