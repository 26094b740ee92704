// Package symbol encodes and decodes OCC option symbols
// (underlying + YYMMDD + C/P + strike*1000 zero-padded to 8 digits,
// e.g. SPY250611C00600000).
package symbol

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Contract is a decoded OCC option symbol.
type Contract struct {
	Underlying string
	Expiry     time.Time
	IsCall     bool
	Strike     decimal.Decimal
}

var thousand = decimal.NewFromInt(1000)

// FormatOCC builds the OCC symbol for one contract.
func FormatOCC(underlying string, expiry time.Time, isCall bool, strike decimal.Decimal) string {
	cp := "P"
	if isCall {
		cp = "C"
	}
	milli := strike.Mul(thousand).IntPart()
	return fmt.Sprintf("%s%s%s%08d", strings.ToUpper(strings.TrimSpace(underlying)), expiry.Format("060102"), cp, milli)
}

// ParseOCC decodes an OCC symbol. The underlying is everything before the
// first digit; the remainder must be YYMMDD + C/P + 8 strike digits.
func ParseOCC(sym string) (Contract, error) {
	sym = strings.ToUpper(strings.TrimSpace(sym))
	idx := firstDigit(sym)
	if idx <= 0 {
		return Contract{}, fmt.Errorf("symbol %q: no OCC date segment", sym)
	}
	rest := sym[idx:]
	if len(rest) != 6+1+8 {
		return Contract{}, fmt.Errorf("symbol %q: OCC tail has %d chars, want 15", sym, len(rest))
	}
	expiry, err := time.Parse("060102", rest[:6])
	if err != nil {
		return Contract{}, fmt.Errorf("symbol %q: bad expiry: %w", sym, err)
	}
	var isCall bool
	switch rest[6] {
	case 'C':
		isCall = true
	case 'P':
		isCall = false
	default:
		return Contract{}, fmt.Errorf("symbol %q: type byte %q is not C/P", sym, rest[6])
	}
	milli, err := strconv.ParseInt(rest[7:], 10, 64)
	if err != nil {
		return Contract{}, fmt.Errorf("symbol %q: bad strike digits: %w", sym, err)
	}
	return Contract{
		Underlying: sym[:idx],
		Expiry:     expiry,
		IsCall:     isCall,
		Strike:     decimal.NewFromInt(milli).Div(thousand),
	}, nil
}

// Underlying extracts the underlying ticker from an option symbol, or
// returns the input unchanged when it carries no OCC tail (already a stock
// ticker).
func Underlying(sym string) string {
	sym = strings.ToUpper(strings.TrimSpace(sym))
	if idx := firstDigit(sym); idx > 0 {
		return sym[:idx]
	}
	return sym
}

// IsOption reports whether the symbol parses as an OCC contract.
func IsOption(sym string) bool {
	_, err := ParseOCC(sym)
	return err == nil
}

func firstDigit(s string) int {
	for i, r := range s {
		if unicode.IsDigit(r) {
			return i
		}
	}
	return -1
}
