package broker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condor/internal/types"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestGetLatestQuoteParsesGreeks(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SPY251217C00600000", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `{
			"underlying_price": 597.25, "strike": 600, "bid": 1.10, "ask": 1.20,
			"expiry": "2025-12-17T00:00:00Z",
			"greeks": {"delta": 0.15, "gamma": 0.02, "theta": -0.45, "vega": 0.08, "iv": 0.22}
		}`)
	}))

	q, err := c.GetLatestQuote(context.Background(), "SPY251217C00600000")
	require.NoError(t, err)
	assert.True(t, q.Bid.Equal(decimal.NewFromFloat(1.10)))
	assert.True(t, q.Mid().Equal(decimal.NewFromFloat(1.15)))
	assert.Equal(t, 0.15, q.Delta)
	assert.Equal(t, 0.22, q.IV)
}

func TestGetLatestQuoteNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.GetLatestQuote(context.Background(), "SPY")
	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestGetLatestQuoteRejectsCrossedMarket(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"bid": 2.00, "ask": 1.00, "greeks": {}}`)
	}))

	_, err := c.GetLatestQuote(context.Background(), "SPY")
	assert.Error(t, err)
}

func TestSubmitMultiLegPartialFill(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"filled": false, "order_id": "ord-9", "filled_legs": 2}`)
	}))

	order := types.MultiLegOrder{
		StrategyType: types.SpreadIronCondor,
		Legs:         make([]types.OptionLeg, 4),
	}
	result, err := c.SubmitMultiLeg(context.Background(), order)

	var partial *PartialFillError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 2, partial.FilledLegs)
	assert.Equal(t, 4, partial.TotalLegs)
	assert.Equal(t, "ord-9", result.BrokerOrderID)
}

type fakeQuoteSource struct {
	calls atomic.Int64
	fail  map[string]bool
}

func (f *fakeQuoteSource) GetLatestQuote(_ context.Context, sym string) (types.OptionQuote, error) {
	f.calls.Add(1)
	if f.fail[sym] {
		return types.OptionQuote{}, fmt.Errorf("quote %s: %w", sym, ErrQuoteUnavailable)
	}
	return types.OptionQuote{Symbol: sym, Bid: decimal.NewFromInt(1), Ask: decimal.NewFromInt(2)}, nil
}

func TestFetchQuotesFanOut(t *testing.T) {
	src := &fakeQuoteSource{}
	quotes, err := FetchQuotes(context.Background(), src, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Len(t, quotes, 3)
	assert.Equal(t, "B", quotes["B"].Symbol)
}

func TestFetchQuotesFailsWhole(t *testing.T) {
	src := &fakeQuoteSource{fail: map[string]bool{"B": true}}
	_, err := FetchQuotes(context.Background(), src, []string{"A", "B", "C"})
	assert.True(t, errors.Is(err, ErrQuoteUnavailable))
}
