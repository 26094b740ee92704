package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpreadType names the multi-leg strategy shape of an order.
type SpreadType string

const (
	SpreadSingle     SpreadType = "single"
	SpreadIronCondor SpreadType = "iron_condor"
	SpreadCallSpread SpreadType = "call_spread"
	SpreadPutSpread  SpreadType = "put_spread"
	SpreadStraddle   SpreadType = "straddle"
	SpreadStrangle   SpreadType = "strangle"
)

// OptionLeg is one leg of a multi-leg order as handed to execution.
type OptionLeg struct {
	Symbol     string           `json:"symbol"`
	Side       Side             `json:"side"`
	Quantity   int              `json:"quantity"`
	OptionType OptionType       `json:"option_type"`
	Strike     decimal.Decimal  `json:"strike"`
	Expiry     time.Time        `json:"expiry"`
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
}

// MultiLegOrder is the generic multi-leg order descriptor consumed by order
// execution. Exactly one of NetCredit/NetDebit is set for a priced order.
type MultiLegOrder struct {
	StrategyType SpreadType       `json:"strategy_type"`
	Legs         []OptionLeg      `json:"legs"`
	NetCredit    *decimal.Decimal `json:"net_credit,omitempty"`
	NetDebit     *decimal.Decimal `json:"net_debit,omitempty"`
	MaxProfit    *decimal.Decimal `json:"max_profit,omitempty"`
	MaxLoss      *decimal.Decimal `json:"max_loss,omitempty"`
}

// SignedNet sums leg limit prices with sells positive and buys negative,
// i.e. the credit the order collects at fill.
func (o MultiLegOrder) SignedNet() decimal.Decimal {
	net := decimal.Zero
	for _, leg := range o.Legs {
		if leg.LimitPrice == nil {
			continue
		}
		if leg.Side == SideSell {
			net = net.Add(*leg.LimitPrice)
		} else {
			net = net.Sub(*leg.LimitPrice)
		}
	}
	return net
}

// OrderResult is execution's answer to a submitted order.
type OrderResult struct {
	Filled        bool
	BrokerOrderID string
	FilledLegs    int
}
