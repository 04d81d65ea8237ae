package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by stored amounts.
const Scale int32 = 2

var (
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrNegativeAmount  = errors.New("negative_amount")
	ErrInvalidQuantity = errors.New("invalid_quantity")
)

// Totals is the aggregate result for one invoice.
type Totals struct {
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal returns unitPrice × quantity rounded to two places, halves away
// from zero (30.375 → 30.38).
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(quantity).Round(Scale)
}

// InvoiceTotals sums line totals into a subtotal and applies tax and
// discount. No rounding is applied beyond the operands' own scale.
func InvoiceTotals(lineTotals []decimal.Decimal, tax, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, lt := range lineTotals {
		subtotal = subtotal.Add(lt)
	}
	return Totals{
		Subtotal: subtotal,
		Total:    subtotal.Add(tax).Sub(discount),
	}
}

// Normalize maps a nil pointer to zero.
func Normalize(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// ParseAmount parses a non-negative decimal string such as "125.50".
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// Format renders d with exactly two fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}

// FormatWithCurrency renders "USD 1,250.00" style strings for documents.
func FormatWithCurrency(currency string, d decimal.Decimal) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	formatted := groupThousands(Format(d))
	if currency == "" {
		return formatted
	}
	return currency + " " + formatted
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
