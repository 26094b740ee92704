package exits

import "github.com/shopspring/decimal"

var decHundred = decimal.NewFromInt(100)

// signedMove returns (price-entry)/entry, negated for shorts so a positive
// value always means profit. Zero entry returns zero.
func signedMove(entry, price decimal.Decimal, short bool) decimal.Decimal {
	if entry.IsZero() {
		return decimal.Zero
	}
	move := price.Sub(entry).Div(entry)
	if short {
		move = move.Neg()
	}
	return move
}

func fracGTE(d decimal.Decimal, f float64) bool {
	return d.GreaterThanOrEqual(decimal.NewFromFloat(f))
}

func fracLTE(d decimal.Decimal, f float64) bool {
	return d.LessThanOrEqual(decimal.NewFromFloat(f))
}

// strikeGap returns the distance from the underlying to a short strike as a
// fraction of the underlying, signed so that moving toward the strike shrinks
// it: positive outside the strike, negative once through it. Zero underlying
// returns a gap that never triggers.
func strikeGap(underlying, strike decimal.Decimal, callSide bool) decimal.Decimal {
	if underlying.IsZero() {
		return decimal.NewFromInt(1)
	}
	if callSide {
		return strike.Sub(underlying).Div(underlying)
	}
	return underlying.Sub(strike).Div(underlying)
}
