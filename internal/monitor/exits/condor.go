package exits

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"condor/internal/gateway/broker"
	"condor/internal/marketclock"
	"condor/internal/types"
)

// Iron condor exit thresholds.
const (
	condorProfitTarget = 0.50 // fraction of entry credit captured
	condorLossMultiple = 2.0  // loss cap as a multiple of entry credit
	strikeBreachBuffer = 0.02 // underlying within 2% of a short strike, or through it
)

const (
	ReasonCreditLoss   = "loss exceeded 2x credit"
	ReasonEndOfDay     = "end of day close"
	ReasonStrikeBreach = "short strike breach"
)

// IronCondor evaluates multi-leg credit positions. Every leg is repriced
// each cycle; a single missing leg quote aborts the evaluation for this
// position, because a partial picture of a hedged structure is worse than
// none.
type IronCondor struct {
	Quotes broker.QuoteSource
	Clock  *marketclock.Clock
}

func (e *IronCondor) Evaluate(ctx context.Context, pos *types.Position) (string, error) {
	if len(pos.Legs) == 0 {
		return "", fmt.Errorf("condor %s: no legs recorded", pos.ID)
	}
	if pos.NetCredit == nil || pos.NetCredit.IsZero() {
		return "", fmt.Errorf("condor %s: no entry credit recorded", pos.ID)
	}

	symbols := make([]string, 0, len(pos.Legs))
	for _, leg := range pos.Legs {
		symbols = append(symbols, leg.Symbol)
	}
	quotes, err := broker.FetchQuotes(ctx, e.Quotes, symbols)
	if err != nil {
		return "", fmt.Errorf("condor %s: %w", pos.ID, err)
	}

	// Cost to close: sold legs must be bought back, bought legs are sold.
	costToClose := decimal.Zero
	var underlying decimal.Decimal
	for _, leg := range pos.Legs {
		q := quotes[leg.Symbol]
		legValue := q.Mid().Mul(decimal.NewFromInt(int64(leg.Quantity))).Mul(decHundred)
		if leg.Side == types.SideSell {
			costToClose = costToClose.Sub(legValue)
		} else {
			costToClose = costToClose.Add(legValue)
		}
		underlying = q.UnderlyingPrice
	}
	costToClose = costToClose.Abs()

	credit := *pos.NetCredit
	pnl := credit.Sub(costToClose)
	pnlPct := pnl.Div(credit)

	if fracGTE(pnlPct, condorProfitTarget) {
		return ReasonProfitTarget, nil
	}
	if fracLTE(pnlPct, -condorLossMultiple) {
		return ReasonCreditLoss, nil
	}
	if e.Clock.AtOrAfter(15, 50) {
		return ReasonEndOfDay, nil
	}

	shortCall, shortPut := pos.ShortStrikes()
	if shortCall != nil && fracLTE(strikeGap(underlying, *shortCall, true), strikeBreachBuffer) {
		return ReasonStrikeBreach, nil
	}
	if shortPut != nil && fracLTE(strikeGap(underlying, *shortPut, false), strikeBreachBuffer) {
		return ReasonStrikeBreach, nil
	}
	return "", nil
}
