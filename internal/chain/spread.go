package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"condor/internal/gateway/broker"
	"condor/internal/logger"
	"condor/internal/marketclock"
	"condor/internal/pkg/symbol"
	"condor/internal/risk"
	"condor/internal/types"
)

// Spread construction parameters for SPY/QQQ-class underlyings.
var (
	// SpreadWidth is the distance between short and protection strikes.
	SpreadWidth = decimal.NewFromInt(5)
	// MinCreditPerSpread is the floor for each vertical; a condor collecting
	// less than 2x this total is not worth its pin risk.
	MinCreditPerSpread = decimal.NewFromFloat(0.50)
)

// IronCondorSetup is a fully priced 4-leg condor candidate.
type IronCondorSetup struct {
	Underlying string
	Expiry     time.Time
	Quantity   int

	ShortCallStrike decimal.Decimal
	LongCallStrike  decimal.Decimal
	ShortPutStrike  decimal.Decimal
	LongPutStrike   decimal.Decimal

	// Leg mid prices at build time; these become the order limit prices so
	// the signed net of the order reproduces TotalCredit exactly.
	ShortCallPrice decimal.Decimal
	LongCallPrice  decimal.Decimal
	ShortPutPrice  decimal.Decimal
	LongPutPrice   decimal.Decimal

	CallSpreadCredit decimal.Decimal
	PutSpreadCredit  decimal.Decimal
	TotalCredit      decimal.Decimal
	MaxProfit        decimal.Decimal
	MaxLossPerSide   decimal.Decimal

	UnderlyingPriceAtEntry decimal.Decimal
	EntryTime              time.Time
	DTE                    int
}

// Resize re-derives the quantity-scaled aggregates after the risk manager
// settles the final position size. Per-spread figures are untouched.
func (s *IronCondorSetup) Resize(quantity int) {
	s.Quantity = quantity
	qty := decimal.NewFromInt(int64(quantity))
	s.MaxProfit = s.TotalCredit.Mul(qty)
	s.MaxLossPerSide = SpreadWidth.Sub(s.TotalCredit).Mul(qty)
}

// Proposal converts the setup into the risk manager's sizing input.
func (s *IronCondorSetup) Proposal() risk.SpreadProposal {
	return risk.SpreadProposal{
		Strategy:         types.StrategyIronCondor,
		Underlying:       s.Underlying,
		NetCredit:        s.TotalCredit,
		MaxLossPerSpread: SpreadWidth.Sub(s.TotalCredit),
	}
}

// Builder assembles iron condors from live chain data.
type Builder struct {
	chains broker.ChainSource
	quotes broker.QuoteSource
	clock  *marketclock.Clock
}

func NewBuilder(chains broker.ChainSource, quotes broker.QuoteSource, clock *marketclock.Clock) *Builder {
	return &Builder{chains: chains, quotes: quotes, clock: clock}
}

// EntryWindowOpen reports whether exchange-local time is inside the condor
// entry window (first 15 minutes after the open).
func (b *Builder) EntryWindowOpen() bool {
	return b.clock.Within(9, 31, 9, 45)
}

// BuildIronCondor selects the four strikes by delta, reprices the legs from
// fresh quotes, and returns the candidate. It errors rather than returning a
// setup that violates the credit floor.
func (b *Builder) BuildIronCondor(ctx context.Context, underlying string, expiry time.Time, quantity int) (*IronCondorSetup, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("build condor: quantity %d", quantity)
	}

	snapshot, err := b.chains.GetOptionChain(ctx, underlying, expiry)
	if err != nil {
		return nil, fmt.Errorf("build condor: %w", err)
	}
	fillMissingDeltas(snapshot, time.Now().UTC())

	shortCall, err := FindStrikeByDelta(snapshot, types.OptionCall, TargetDelta, DeltaTolerance)
	if err != nil {
		return nil, fmt.Errorf("build condor: short call: %w", err)
	}
	shortPut, err := FindStrikeByDelta(snapshot, types.OptionPut, TargetDelta, DeltaTolerance)
	if err != nil {
		return nil, fmt.Errorf("build condor: short put: %w", err)
	}

	longCallStrike := shortCall.Strike.Add(SpreadWidth)
	longPutStrike := shortPut.Strike.Sub(SpreadWidth)
	longCall, ok := findByStrike(snapshot, types.OptionCall, longCallStrike)
	if !ok {
		return nil, fmt.Errorf("build condor: no call at protection strike %s", longCallStrike)
	}
	longPut, ok := findByStrike(snapshot, types.OptionPut, longPutStrike)
	if !ok {
		return nil, fmt.Errorf("build condor: no put at protection strike %s", longPutStrike)
	}

	// Reprice the four legs off fresh quotes; the chain snapshot may be a
	// few seconds stale by the time strikes are chosen.
	legSymbols := []string{
		symbol.FormatOCC(underlying, expiry, true, shortCall.Strike),
		symbol.FormatOCC(underlying, expiry, true, longCall.Strike),
		symbol.FormatOCC(underlying, expiry, false, shortPut.Strike),
		symbol.FormatOCC(underlying, expiry, false, longPut.Strike),
	}
	fresh, err := broker.FetchQuotes(ctx, b.quotes, legSymbols)
	if err != nil {
		return nil, fmt.Errorf("build condor: reprice legs: %w", err)
	}

	shortCallMid := fresh[legSymbols[0]].Mid()
	longCallMid := fresh[legSymbols[1]].Mid()
	shortPutMid := fresh[legSymbols[2]].Mid()
	longPutMid := fresh[legSymbols[3]].Mid()

	callCredit := shortCallMid.Sub(longCallMid)
	putCredit := shortPutMid.Sub(longPutMid)
	totalCredit := callCredit.Add(putCredit)

	minTotal := MinCreditPerSpread.Mul(decimal.NewFromInt(2))
	if totalCredit.LessThan(minTotal) {
		return nil, fmt.Errorf("build condor: credit %s below floor %s", totalCredit.StringFixed(2), minTotal.StringFixed(2))
	}

	qty := decimal.NewFromInt(int64(quantity))
	setup := &IronCondorSetup{
		Underlying:             underlying,
		Expiry:                 expiry,
		Quantity:               quantity,
		ShortCallStrike:        shortCall.Strike,
		LongCallStrike:         longCall.Strike,
		ShortPutStrike:         shortPut.Strike,
		LongPutStrike:          longPut.Strike,
		ShortCallPrice:         shortCallMid,
		LongCallPrice:          longCallMid,
		ShortPutPrice:          shortPutMid,
		LongPutPrice:           longPutMid,
		CallSpreadCredit:       callCredit,
		PutSpreadCredit:        putCredit,
		TotalCredit:            totalCredit,
		MaxProfit:              totalCredit.Mul(qty),
		MaxLossPerSide:         SpreadWidth.Sub(totalCredit).Mul(qty),
		UnderlyingPriceAtEntry: shortCall.UnderlyingPrice,
		EntryTime:              time.Now().UTC(),
		DTE:                    int(time.Until(expiry).Hours() / 24),
	}

	logger.Infof("condor built: %s %s/%s calls %s/%s puts credit=%s",
		underlying,
		setup.ShortCallStrike, setup.LongCallStrike,
		setup.ShortPutStrike, setup.LongPutStrike,
		totalCredit.StringFixed(2))
	return setup, nil
}

// CreateMultiLegOrder maps a setup to the generic 4-leg order descriptor.
// Pure: no quotes, no clock. Leg limit prices are the setup's recorded mids,
// so the order's signed net equals TotalCredit.
func CreateMultiLegOrder(setup *IronCondorSetup) types.MultiLegOrder {
	leg := func(isCall bool, side types.Side, strike, price decimal.Decimal) types.OptionLeg {
		optType := types.OptionPut
		if isCall {
			optType = types.OptionCall
		}
		p := price
		return types.OptionLeg{
			Symbol:     symbol.FormatOCC(setup.Underlying, setup.Expiry, isCall, strike),
			Side:       side,
			Quantity:   setup.Quantity,
			OptionType: optType,
			Strike:     strike,
			Expiry:     setup.Expiry,
			LimitPrice: &p,
		}
	}

	maxLoss := setup.MaxLossPerSide.Mul(decimal.NewFromInt(2))
	netCredit := setup.TotalCredit
	maxProfit := setup.MaxProfit
	return types.MultiLegOrder{
		StrategyType: types.SpreadIronCondor,
		Legs: []types.OptionLeg{
			leg(true, types.SideSell, setup.ShortCallStrike, setup.ShortCallPrice),
			leg(true, types.SideBuy, setup.LongCallStrike, setup.LongCallPrice),
			leg(false, types.SideSell, setup.ShortPutStrike, setup.ShortPutPrice),
			leg(false, types.SideBuy, setup.LongPutStrike, setup.LongPutPrice),
		},
		NetCredit: &netCredit,
		MaxProfit: &maxProfit,
		MaxLoss:   &maxLoss,
	}
}
