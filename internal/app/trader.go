package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"condor/internal/chain"
	"condor/internal/gateway/broker"
	"condor/internal/logger"
	"condor/internal/risk"
	"condor/internal/scan"
	"condor/internal/types"
)

// positionInserter is the slice of the store the entry path needs.
type positionInserter interface {
	InsertPosition(ctx context.Context, pos *types.Position) error
}

// momentumSource and breakoutSource let tests drive Cycle with canned
// signals.
type momentumSource interface {
	Scan(ctx context.Context) []types.TradeSignal
}

type breakoutSource interface {
	UpdateRanges(ctx context.Context)
	ScanBreakouts(ctx context.Context) []scan.BreakoutSignal
}

// condorSource builds the daily iron-condor candidate.
type condorSource interface {
	EntryWindowOpen() bool
	BuildIronCondor(ctx context.Context, underlying string, expiry time.Time, quantity int) (*chain.IronCondorSetup, error)
}

// Trader runs the entry half of the engine: collect scan signals, put each
// through risk approval, submit the approved ones and persist the fills.
type Trader struct {
	risk      *risk.Manager
	store     positionInserter
	exec      broker.OrderExecutor
	account   broker.AccountSource
	momentum  momentumSource
	breakouts breakoutSource
	condor    condorSource

	condorUnderlying string
	condorQuantity   int
	lastCondorDay    string

	nowFn func() time.Time
}

type TraderConfig struct {
	Risk      *risk.Manager
	Store     positionInserter
	Executor  broker.OrderExecutor
	Account   broker.AccountSource
	Momentum  momentumSource
	Breakouts breakoutSource

	Condor           condorSource
	CondorUnderlying string
	CondorQuantity   int
}

func NewTrader(cfg TraderConfig) *Trader {
	quantity := cfg.CondorQuantity
	if quantity < 1 {
		quantity = 1
	}
	return &Trader{
		risk:             cfg.Risk,
		store:            cfg.Store,
		exec:             cfg.Executor,
		account:          cfg.Account,
		momentum:         cfg.Momentum,
		breakouts:        cfg.Breakouts,
		condor:           cfg.Condor,
		condorUnderlying: cfg.CondorUnderlying,
		condorQuantity:   quantity,
		nowFn:            time.Now,
	}
}

// WithNow overrides the clock for tests.
func (t *Trader) WithNow(fn func() time.Time) *Trader {
	if fn != nil {
		t.nowFn = fn
	}
	return t
}

// Cycle is one scan pass. Every signal is approved against a portfolio
// snapshot fetched fresh this cycle; a failed entry never blocks the rest.
func (t *Trader) Cycle(ctx context.Context) {
	if t == nil {
		return
	}
	if t.breakouts != nil {
		t.breakouts.UpdateRanges(ctx)
	}
	t.maybeEnterCondor(ctx)

	var signals []types.TradeSignal
	var breakoutMeta map[string]*scan.BreakoutSignal
	if t.momentum != nil {
		signals = append(signals, t.momentum.Scan(ctx)...)
	}
	if t.breakouts != nil {
		for _, b := range t.breakouts.ScanBreakouts(ctx) {
			b := b
			if breakoutMeta == nil {
				breakoutMeta = make(map[string]*scan.BreakoutSignal)
			}
			breakoutMeta[b.ID] = &b
			signals = append(signals, b.TradeSignal)
		}
	}
	if len(signals) == 0 {
		return
	}

	snapshot, err := t.account.GetPortfolioSnapshot(ctx)
	if err != nil {
		logger.Errorf("trader: portfolio snapshot: %v", err)
		return
	}

	for _, sig := range signals {
		if err := t.enter(ctx, sig, breakoutMeta[sig.ID], snapshot); err != nil {
			logger.Errorf("trader: enter %s (%s): %v", sig.Symbol, sig.Strategy, err)
		}
	}
}

// maybeEnterCondor opens at most one iron condor per trading day, inside the
// entry window. Build failures (thin chain, credit floor) retry on the next
// tick while the window is open; a risk rejection ends the attempt for the
// day since the portfolio state that caused it will not improve within the
// window.
func (t *Trader) maybeEnterCondor(ctx context.Context) {
	if t.condor == nil || t.condorUnderlying == "" || !t.condor.EntryWindowOpen() {
		return
	}
	day := t.nowFn().UTC().Format("2006-01-02")
	if t.lastCondorDay == day {
		return
	}

	snapshot, err := t.account.GetPortfolioSnapshot(ctx)
	if err != nil {
		logger.Errorf("trader: condor snapshot: %v", err)
		return
	}

	now := t.nowFn().UTC()
	expiry := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	setup, err := t.condor.BuildIronCondor(ctx, t.condorUnderlying, expiry, t.condorQuantity)
	if err != nil {
		logger.Warnf("trader: condor build: %v", err)
		return
	}

	decision := t.risk.ApproveSpread(ctx, setup.Proposal(), snapshot)
	if !decision.Approved {
		logger.Infof("trader: condor rejected: %s", decision.Reasoning)
		t.lastCondorDay = day
		return
	}
	setup.Resize(decision.PositionSize)

	result, err := t.exec.SubmitMultiLeg(ctx, chain.CreateMultiLegOrder(setup))
	if err != nil {
		logger.Errorf("trader: condor submit: %v", err)
		return
	}
	if !result.Filled {
		logger.Warnf("trader: condor order %s not filled", result.BrokerOrderID)
		return
	}
	t.lastCondorDay = day

	pos := condorPosition(setup, decision, now)
	if err := t.store.InsertPosition(ctx, pos); err != nil {
		logger.Errorf("trader: persist condor: %v", err)
		return
	}
	logger.Infof("trader: condor opened %s x%d credit=%s (order %s)",
		setup.Underlying, setup.Quantity, setup.TotalCredit.StringFixed(2), result.BrokerOrderID)
}

func condorPosition(setup *chain.IronCondorSetup, decision types.RiskDecision, now time.Time) *types.Position {
	order := chain.CreateMultiLegOrder(setup)
	legs := make([]types.LegSnapshot, 0, len(order.Legs))
	for _, leg := range order.Legs {
		legs = append(legs, types.LegSnapshot{
			Symbol:     leg.Symbol,
			Side:       leg.Side,
			OptionType: leg.OptionType,
			Strike:     leg.Strike,
			Quantity:   leg.Quantity,
			EntryPrice: leg.LimitPrice,
		})
	}
	// Dollar credit collected at fill; exit evaluation works in dollars.
	netCredit := setup.TotalCredit.
		Mul(decimal.NewFromInt(int64(setup.Quantity))).
		Mul(decimal.NewFromInt(100))
	maxLoss := decision.MaxLoss
	return &types.Position{
		ID:         uuid.NewString(),
		Symbol:     setup.Underlying,
		Strategy:   types.StrategyIronCondor,
		Kind:       types.KindSpread,
		Quantity:   setup.Quantity,
		EntryPrice: setup.TotalCredit,
		Status:     types.PositionStatusOpen,
		OpenedAt:   now,
		Legs:       legs,
		NetCredit:  &netCredit,
		MaxLoss:    &maxLoss,
	}
}

func (t *Trader) enter(ctx context.Context, sig types.TradeSignal, meta *scan.BreakoutSignal, snapshot types.PortfolioSnapshot) error {
	decision := t.risk.Approve(ctx, sig, snapshot)
	if !decision.Approved {
		logger.Infof("trader: rejected %s (%s): %s", sig.Symbol, sig.Strategy, decision.Reasoning)
		return nil
	}

	limit := sig.EntryPrice
	order := types.MultiLegOrder{
		StrategyType: types.SpreadSingle,
		Legs: []types.OptionLeg{{
			Symbol:     sig.Symbol,
			Side:       sig.Direction,
			Quantity:   decision.PositionSize,
			LimitPrice: &limit,
		}},
		MaxLoss: &decision.MaxLoss,
	}
	result, err := t.exec.SubmitMultiLeg(ctx, order)
	if err != nil {
		return err
	}
	if !result.Filled {
		logger.Warnf("trader: order %s not filled for %s", result.BrokerOrderID, sig.Symbol)
		return nil
	}

	pos := t.positionFromSignal(sig, meta, decision.PositionSize)
	if err := t.store.InsertPosition(ctx, pos); err != nil {
		return err
	}
	logger.Infof("trader: opened %s %s qty=%d entry=%s (order %s)",
		pos.Kind, pos.Symbol, pos.Quantity, pos.EntryPrice, result.BrokerOrderID)
	return nil
}

func (t *Trader) positionFromSignal(sig types.TradeSignal, meta *scan.BreakoutSignal, quantity int) *types.Position {
	kind := types.KindLong
	if sig.Direction == types.SideSell {
		kind = types.KindShort
	}
	pos := &types.Position{
		ID:         uuid.NewString(),
		Symbol:     sig.Symbol,
		Strategy:   sig.Strategy,
		Kind:       kind,
		Quantity:   quantity,
		EntryPrice: sig.EntryPrice,
		Status:     types.PositionStatusOpen,
		OpenedAt:   t.nowFn().UTC(),
	}
	if meta != nil {
		rangeHigh := meta.RangeHigh
		rangeLow := meta.RangeLow
		target := meta.TargetPrice
		pos.RangeHigh = &rangeHigh
		pos.RangeLow = &rangeLow
		pos.TargetPrice = &target
		pos.Direction = meta.Direction
	}
	return pos
}
