package enginehttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condor/internal/chain"
	"condor/internal/risk"
	"condor/internal/types"
)

type stubStats struct {
	stats types.StrategyStats
}

func (s *stubStats) GetStats(context.Context, types.Strategy) (types.StrategyStats, error) {
	return s.stats, nil
}

type stubPositions struct {
	positions []*types.Position
	err       error
}

func (s *stubPositions) ListOpenPositions(context.Context) ([]*types.Position, error) {
	return s.positions, s.err
}

func (s *stubPositions) UpdatePositionStatus(context.Context, string, types.PositionStatus, string, time.Time) error {
	return nil
}

type stubBuilder struct {
	setup *chain.IronCondorSetup
	err   error
}

func (s *stubBuilder) BuildIronCondor(context.Context, string, time.Time, int) (*chain.IronCondorSetup, error) {
	return s.setup, s.err
}

func testServer(t *testing.T, positions *stubPositions, builder *stubBuilder) *Server {
	t.Helper()
	stats := &stubStats{stats: types.StrategyStats{
		Strategy:   types.StrategyIVMeanReversion,
		WinRate:    0.55,
		AvgWin:     decimal.NewFromInt(100),
		AvgLoss:    decimal.NewFromInt(50),
		SampleSize: 40,
	}}
	srv, err := NewServer(ServerConfig{
		Addr:   ":0",
		Router: NewRouter(risk.NewManager(stats), positions, builder),
	})
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := testServer(t, &stubPositions{}, &stubBuilder{})
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLimitsEndpoint(t *testing.T) {
	srv := testServer(t, &stubPositions{}, &stubBuilder{})
	rec := doJSON(t, srv, http.MethodGet, "/api/risk/limits", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var limits risk.Limits
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &limits))
	assert.Equal(t, 0.02, limits.MaxPortfolioRisk)
	assert.Equal(t, 0.05, limits.MaxPositionSize)
	assert.Equal(t, -0.03, limits.DailyLossLimit)
	assert.Equal(t, 3, limits.MaxConsecutiveLosses)
	assert.Equal(t, 100, limits.ContractMultiplier)
}

func TestApproveEndpoint(t *testing.T) {
	srv := testServer(t, &stubPositions{}, &stubBuilder{})
	body := `{
		"signal": {
			"symbol": "SPY251219C00600000",
			"direction": "buy",
			"strategy": "iv_mean_reversion",
			"confidence": 0.8,
			"entry_price": "2.00",
			"stop_loss": "1.00"
		},
		"portfolio": {"balance": "10000", "daily_pnl": "0"}
	}`
	rec := doJSON(t, srv, http.MethodPost, "/api/risk/approve", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var decision types.RiskDecision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.True(t, decision.Approved)
	assert.Equal(t, 2, decision.PositionSize)
}

func TestApproveRejectionIs200(t *testing.T) {
	srv := testServer(t, &stubPositions{}, &stubBuilder{})
	body := `{
		"signal": {
			"symbol": "SPY",
			"direction": "buy",
			"strategy": "iv_mean_reversion",
			"entry_price": "2.00",
			"stop_loss": "1.00"
		},
		"portfolio": {"balance": "10000", "daily_pnl": "-300"}
	}`
	rec := doJSON(t, srv, http.MethodPost, "/api/risk/approve", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var decision types.RiskDecision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.False(t, decision.Approved)
	assert.Contains(t, decision.Reasoning, "daily loss")
}

func TestApproveBadPayload(t *testing.T) {
	srv := testServer(t, &stubPositions{}, &stubBuilder{})
	rec := doJSON(t, srv, http.MethodPost, "/api/risk/approve", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPositionsEndpoint(t *testing.T) {
	positions := &stubPositions{positions: []*types.Position{{
		ID:         "p1",
		Symbol:     "SPY251219C00600000",
		Strategy:   types.StrategyIVMeanReversion,
		Kind:       types.KindLong,
		Quantity:   2,
		EntryPrice: decimal.NewFromFloat(2.00),
		Status:     types.PositionStatusOpen,
		OpenedAt:   time.Now().UTC(),
	}}}
	srv := testServer(t, positions, &stubBuilder{})

	rec := doJSON(t, srv, http.MethodGet, "/api/positions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Count     int            `json:"count"`
		Positions []positionView `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Count)
	require.Len(t, payload.Positions, 1)
	assert.Equal(t, "p1", payload.Positions[0].ID)
	assert.Equal(t, "open", payload.Positions[0].Status)
}

func TestCondorBuildEndpoint(t *testing.T) {
	setup := &chain.IronCondorSetup{
		Underlying:      "SPY",
		Expiry:          time.Date(2025, 12, 19, 0, 0, 0, 0, time.UTC),
		Quantity:        1,
		ShortCallStrike: decimal.NewFromInt(610),
		LongCallStrike:  decimal.NewFromInt(615),
		ShortPutStrike:  decimal.NewFromInt(580),
		LongPutStrike:   decimal.NewFromInt(575),
		ShortCallPrice:  decimal.NewFromFloat(1.25),
		LongCallPrice:   decimal.NewFromFloat(0.60),
		ShortPutPrice:   decimal.NewFromFloat(1.15),
		LongPutPrice:    decimal.NewFromFloat(0.55),
		TotalCredit:     decimal.NewFromFloat(1.25),
	}
	srv := testServer(t, &stubPositions{}, &stubBuilder{setup: setup})

	rec := doJSON(t, srv, http.MethodPost, "/api/condor/build",
		`{"underlying": "SPY", "expiry": "2025-12-19", "quantity": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Order types.MultiLegOrder `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(t, payload.Order.Legs, 4)
	assert.Equal(t, types.SpreadIronCondor, payload.Order.StrategyType)
}

func TestCondorBuildRejections(t *testing.T) {
	srv := testServer(t, &stubPositions{}, &stubBuilder{err: fmt.Errorf("build condor: credit 0.80 below floor 1.00")})

	rec := doJSON(t, srv, http.MethodPost, "/api/condor/build",
		`{"underlying": "SPY", "expiry": "not-a-date"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/condor/build",
		`{"underlying": "SPY", "expiry": "2025-12-19"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
