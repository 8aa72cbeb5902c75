package bot

import (
	"errors"
	"strings"
	"unicode"

	"travel-wallet/internal/models"

	"github.com/shopspring/decimal"
)

// ErrNotANumber is returned by ParseAmount for text that is not a decimal.
var ErrNotANumber = errors.New("not a number")

// ParseAmount parses a positive decimal typed by a user. Spaces are ignored
// and either '.' or ',' is accepted as the decimal separator, so "1 234,5"
// parses as 1234.5. Non-positive values yield models.ErrInvalidAmount.
func ParseAmount(text string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		if r == ',' {
			return '.'
		}
		return r
	}, text)
	if cleaned == "" || strings.ContainsAny(cleaned, "eE") {
		return decimal.Zero, ErrNotANumber
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrNotANumber
	}
	if !d.IsPositive() {
		return decimal.Zero, models.ErrInvalidAmount
	}
	return d, nil
}
