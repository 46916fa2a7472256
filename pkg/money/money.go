// Package money provides precise parsing and formatting for the dollar
// amounts found in estimate documents. Parsing uses shopspring/decimal so
// no precision is lost between extraction and the accounting API; display
// formatting goes through go-money for proper currency rendering.
package money

import (
	"errors"
	"regexp"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ErrEmptyAmount indicates the input contained no digits at all.
var ErrEmptyAmount = errors.New("empty amount")

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// ParseAmount converts an amount string as it appears in a document
// ("$1,989.40", "2,574.00", "1989.4") into a decimal. Currency symbols,
// thousands separators and stray characters are stripped first.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := nonNumeric.ReplaceAllString(strings.TrimSpace(s), "")
	if cleaned == "" || cleaned == "." {
		return decimal.Zero, ErrEmptyAmount
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ParseLoose is ParseAmount with the extractor's never-fail policy: any
// input that cannot be parsed becomes zero.
func ParseLoose(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatUSD renders a decimal amount as a US dollar string for
// notifications and the dashboard, e.g. "$132,991.96".
func FormatUSD(d decimal.Decimal) string {
	cents := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return gomoney.New(cents, gomoney.USD).Display()
}
