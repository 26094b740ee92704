package enginehttp

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"condor/internal/chain"
	"condor/internal/gateway/broker"
	"condor/internal/logger"
	"condor/internal/risk"
	"condor/internal/types"
)

// CondorBuilder is the slice of chain.Builder the API needs.
type CondorBuilder interface {
	BuildIronCondor(ctx context.Context, underlying string, expiry time.Time, quantity int) (*chain.IronCondorSetup, error)
}

// Router exposes the engine's operations over HTTP.
type Router struct {
	Risk      *risk.Manager
	Positions broker.PositionStore
	Builder   CondorBuilder
}

func NewRouter(riskMgr *risk.Manager, positions broker.PositionStore, builder CondorBuilder) *Router {
	return &Router{Risk: riskMgr, Positions: positions, Builder: builder}
}

// Register mounts the API routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/risk/limits", r.handleLimits)
	group.POST("/risk/approve", r.handleApprove)
	group.GET("/positions", r.handlePositions)
	group.POST("/condor/build", r.handleCondorBuild)
}

func (r *Router) handleLimits(c *gin.Context) {
	c.JSON(http.StatusOK, risk.CurrentLimits())
}

type approveRequest struct {
	Signal struct {
		Symbol     string          `json:"symbol"`
		Direction  types.Side      `json:"direction"`
		Strategy   string          `json:"strategy"`
		Confidence float64         `json:"confidence"`
		EntryPrice decimal.Decimal `json:"entry_price"`
		StopLoss   decimal.Decimal `json:"stop_loss"`
		TakeProfit decimal.Decimal `json:"take_profit"`
	} `json:"signal"`
	Portfolio struct {
		Balance           decimal.Decimal `json:"balance"`
		DailyPnL          decimal.Decimal `json:"daily_pnl"`
		WinRate           float64         `json:"win_rate"`
		ConsecutiveLosses int             `json:"consecutive_losses"`
		ActivePositions   int             `json:"active_positions"`
		TotalTrades       int             `json:"total_trades"`
	} `json:"portfolio"`
}

// handleApprove runs a signal through the risk manager. Rejections are 200s:
// a policy "no" is a successful evaluation, not a transport error.
func (r *Router) handleApprove(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	signal := types.TradeSignal{
		Symbol:     req.Signal.Symbol,
		Direction:  req.Signal.Direction,
		Strategy:   types.ParseStrategy(req.Signal.Strategy),
		Confidence: req.Signal.Confidence,
		EntryPrice: req.Signal.EntryPrice,
		StopLoss:   req.Signal.StopLoss,
		TakeProfit: req.Signal.TakeProfit,
	}
	portfolio := types.PortfolioSnapshot{
		Balance:           req.Portfolio.Balance,
		DailyPnL:          req.Portfolio.DailyPnL,
		WinRate:           req.Portfolio.WinRate,
		ConsecutiveLosses: req.Portfolio.ConsecutiveLosses,
		ActivePositions:   req.Portfolio.ActivePositions,
		TotalTrades:       req.Portfolio.TotalTrades,
	}

	decision := r.Risk.Approve(c.Request.Context(), signal, portfolio)
	c.JSON(http.StatusOK, decision)
}

type positionView struct {
	ID            string               `json:"id"`
	Symbol        string               `json:"symbol"`
	Strategy      string               `json:"strategy"`
	Kind          string               `json:"kind"`
	Quantity      int                  `json:"quantity"`
	EntryPrice    decimal.Decimal      `json:"entry_price"`
	CurrentPrice  *decimal.Decimal     `json:"current_price,omitempty"`
	UnrealizedPnL *decimal.Decimal     `json:"unrealized_pnl,omitempty"`
	Status        string               `json:"status"`
	OpenedAt      time.Time            `json:"opened_at"`
	Legs          []types.LegSnapshot  `json:"legs,omitempty"`
}

func (r *Router) handlePositions(c *gin.Context) {
	positions, err := r.Positions.ListOpenPositions(c.Request.Context())
	if err != nil {
		logger.Errorf("http: list positions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list positions failed"})
		return
	}
	views := make([]positionView, 0, len(positions))
	for _, p := range positions {
		views = append(views, positionView{
			ID:            p.ID,
			Symbol:        p.Symbol,
			Strategy:      string(p.Strategy),
			Kind:          string(p.Kind),
			Quantity:      p.Quantity,
			EntryPrice:    p.EntryPrice,
			CurrentPrice:  p.CurrentPrice,
			UnrealizedPnL: p.UnrealizedPnL,
			Status:        p.Status.String(),
			OpenedAt:      p.OpenedAt,
			Legs:          p.Legs,
		})
	}
	c.JSON(http.StatusOK, gin.H{"positions": views, "count": len(views)})
}

type condorBuildRequest struct {
	Underlying string `json:"underlying" binding:"required"`
	Expiry     string `json:"expiry" binding:"required"` // 2006-01-02
	Quantity   int    `json:"quantity"`
}

// handleCondorBuild constructs a condor candidate and returns the setup with
// its order preview. Nothing is submitted from this endpoint.
func (r *Router) handleCondorBuild(c *gin.Context) {
	var req condorBuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	expiry, err := time.Parse("2006-01-02", req.Expiry)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expiry must be YYYY-MM-DD"})
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	setup, err := r.Builder.BuildIronCondor(c.Request.Context(), req.Underlying, expiry, req.Quantity)
	if err != nil {
		// Construction failures (thin chain, credit floor) are client-visible
		// outcomes, not server faults.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"setup": setup,
		"order": chain.CreateMultiLegOrder(setup),
	})
}
