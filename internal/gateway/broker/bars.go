package broker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"condor/internal/scan"
	"condor/internal/types"
)

var (
	_ scan.BarSource = (*Client)(nil)
	_ AccountSource  = (*Client)(nil)
)

// GetBars fetches the most recent limit one-minute bars, oldest first.
func (c *Client) GetBars(ctx context.Context, symbol string, limit int) ([]scan.Bar, error) {
	endpoint := fmt.Sprintf("%s/v2/bars?symbol=%s&timeframe=1Min&limit=%d",
		c.baseURL, url.QueryEscape(symbol), limit)
	return c.fetchBars(ctx, symbol, endpoint)
}

// GetBarsBetween fetches the one-minute bars inside [start, end], oldest
// first.
func (c *Client) GetBarsBetween(ctx context.Context, symbol string, start, end time.Time) ([]scan.Bar, error) {
	endpoint := fmt.Sprintf("%s/v2/bars?symbol=%s&timeframe=1Min&start=%s&end=%s",
		c.baseURL, url.QueryEscape(symbol),
		url.QueryEscape(start.UTC().Format(time.RFC3339)),
		url.QueryEscape(end.UTC().Format(time.RFC3339)))
	return c.fetchBars(ctx, symbol, endpoint)
}

func (c *Client) fetchBars(ctx context.Context, symbol, endpoint string) ([]scan.Bar, error) {
	body, status, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("bars %s: %w", symbol, err)
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("bars %s: %w", symbol, ErrQuoteUnavailable)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("bars %s: broker returned %d", symbol, status)
	}

	var bars []scan.Bar
	gjson.ParseBytes(body).Get("bars").ForEach(func(_, bar gjson.Result) bool {
		t, err := time.Parse(time.RFC3339, bar.Get("t").String())
		if err != nil {
			return true
		}
		bars = append(bars, scan.Bar{
			Time:   t,
			Open:   bar.Get("o").Float(),
			High:   bar.Get("h").Float(),
			Low:    bar.Get("l").Float(),
			Close:  bar.Get("c").Float(),
			Volume: bar.Get("v").Int(),
		})
		return true
	})
	return bars, nil
}

// GetPortfolioSnapshot fetches current account state for risk approval.
func (c *Client) GetPortfolioSnapshot(ctx context.Context) (types.PortfolioSnapshot, error) {
	body, status, err := c.get(ctx, c.baseURL+"/v2/account")
	if err != nil {
		return types.PortfolioSnapshot{}, fmt.Errorf("account: %w", err)
	}
	if status != http.StatusOK {
		return types.PortfolioSnapshot{}, fmt.Errorf("account: broker returned %d", status)
	}

	root := gjson.ParseBytes(body)
	snapshot := types.PortfolioSnapshot{
		Balance:           decimal.NewFromFloat(root.Get("balance").Float()),
		DailyPnL:          decimal.NewFromFloat(root.Get("daily_pnl").Float()),
		WinRate:           root.Get("win_rate").Float(),
		ConsecutiveLosses: int(root.Get("consecutive_losses").Int()),
		ActivePositions:   int(root.Get("active_positions").Int()),
		TotalTrades:       int(root.Get("total_trades").Int()),
	}
	if snapshot.Balance.IsZero() {
		return types.PortfolioSnapshot{}, fmt.Errorf("account: zero balance in response")
	}
	return snapshot, nil
}
