package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"condor/internal/logger"
	"condor/internal/pkg/circuit"
	"condor/internal/types"
)

// Client is a REST implementation of QuoteSource and OrderExecutor against a
// broker gateway. Order submission runs behind a circuit breaker so a dying
// broker endpoint degrades to fast failures instead of piling up timeouts.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuit.Breaker
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("broker client: base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		breaker: circuit.NewBreaker("broker-orders", 5, 30*time.Second),
	}, nil
}

var (
	_ QuoteSource   = (*Client)(nil)
	_ ChainSource   = (*Client)(nil)
	_ OrderExecutor = (*Client)(nil)
)

// GetLatestQuote fetches the latest quote for a stock or option symbol.
// A 404 maps to ErrQuoteUnavailable.
func (c *Client) GetLatestQuote(ctx context.Context, sym string) (types.OptionQuote, error) {
	endpoint := fmt.Sprintf("%s/v2/quotes/latest?symbol=%s", c.baseURL, url.QueryEscape(sym))
	body, status, err := c.get(ctx, endpoint)
	if err != nil {
		return types.OptionQuote{}, fmt.Errorf("quote %s: %w", sym, err)
	}
	if status == http.StatusNotFound {
		return types.OptionQuote{}, fmt.Errorf("quote %s: %w", sym, ErrQuoteUnavailable)
	}
	if status != http.StatusOK {
		return types.OptionQuote{}, fmt.Errorf("quote %s: broker returned %d", sym, status)
	}

	root := gjson.ParseBytes(body)
	q := types.OptionQuote{
		Symbol:          sym,
		UnderlyingPrice: decimal.NewFromFloat(root.Get("underlying_price").Float()),
		Strike:          decimal.NewFromFloat(root.Get("strike").Float()),
		Bid:             decimal.NewFromFloat(root.Get("bid").Float()),
		Ask:             decimal.NewFromFloat(root.Get("ask").Float()),
		Delta:           root.Get("greeks.delta").Float(),
		Gamma:           root.Get("greeks.gamma").Float(),
		Theta:           root.Get("greeks.theta").Float(),
		Vega:            root.Get("greeks.vega").Float(),
		IV:              root.Get("greeks.iv").Float(),
		ObservedAt:      time.Now().UTC(),
	}
	if expiry := root.Get("expiry").String(); expiry != "" {
		if t, err := time.Parse(time.RFC3339, expiry); err == nil {
			q.Expiry = t
		}
	}
	if err := q.Validate(); err != nil {
		return types.OptionQuote{}, fmt.Errorf("quote %s: %w", sym, err)
	}
	return q, nil
}

// GetOptionChain fetches the full chain snapshot for one underlying and
// expiry. Contracts without a parsable type byte are skipped.
func (c *Client) GetOptionChain(ctx context.Context, underlying string, expiry time.Time) ([]types.OptionQuote, error) {
	endpoint := fmt.Sprintf("%s/v2/chains?underlying=%s&expiry=%s",
		c.baseURL, url.QueryEscape(underlying), expiry.Format("2006-01-02"))
	body, status, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("chain %s: %w", underlying, err)
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("chain %s: %w", underlying, ErrQuoteUnavailable)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("chain %s: broker returned %d", underlying, status)
	}

	observed := time.Now().UTC()
	var chain []types.OptionQuote
	gjson.ParseBytes(body).Get("contracts").ForEach(func(_, contract gjson.Result) bool {
		q := types.OptionQuote{
			Symbol:          contract.Get("symbol").String(),
			UnderlyingPrice: decimal.NewFromFloat(contract.Get("underlying_price").Float()),
			Strike:          decimal.NewFromFloat(contract.Get("strike").Float()),
			Expiry:          expiry,
			Bid:             decimal.NewFromFloat(contract.Get("bid").Float()),
			Ask:             decimal.NewFromFloat(contract.Get("ask").Float()),
			Delta:           contract.Get("greeks.delta").Float(),
			Gamma:           contract.Get("greeks.gamma").Float(),
			Theta:           contract.Get("greeks.theta").Float(),
			Vega:            contract.Get("greeks.vega").Float(),
			IV:              contract.Get("greeks.iv").Float(),
			ObservedAt:      observed,
		}
		switch strings.ToLower(contract.Get("type").String()) {
		case "call":
			q.OptionType = types.OptionCall
		case "put":
			q.OptionType = types.OptionPut
		default:
			return true
		}
		if q.Validate() == nil {
			chain = append(chain, q)
		}
		return true
	})
	if len(chain) == 0 {
		return nil, fmt.Errorf("chain %s: empty: %w", underlying, ErrQuoteUnavailable)
	}
	return chain, nil
}

// SubmitMultiLeg posts the order as a single atomic request. A response
// reporting fewer filled legs than submitted becomes *PartialFillError.
func (c *Client) SubmitMultiLeg(ctx context.Context, order types.MultiLegOrder) (types.OrderResult, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("submit multi-leg: encode: %w", err)
	}

	var result types.OrderResult
	err = c.breaker.Do(func() error {
		body, status, err := c.post(ctx, c.baseURL+"/v2/orders/multileg", payload)
		if err != nil {
			return err
		}
		if status != http.StatusOK && status != http.StatusCreated {
			return fmt.Errorf("broker returned %d: %s", status, truncate(body, 200))
		}
		root := gjson.ParseBytes(body)
		result = types.OrderResult{
			Filled:        root.Get("filled").Bool(),
			BrokerOrderID: root.Get("order_id").String(),
			FilledLegs:    int(root.Get("filled_legs").Int()),
		}
		return nil
	})
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("submit multi-leg: %w", err)
	}
	if result.FilledLegs > 0 && result.FilledLegs < len(order.Legs) {
		return result, &PartialFillError{
			BrokerOrderID: result.BrokerOrderID,
			FilledLegs:    result.FilledLegs,
			TotalLegs:     len(order.Legs),
		}
	}
	return result, nil
}

// ClosePosition asks the broker to flatten the position at market.
func (c *Client) ClosePosition(ctx context.Context, pos *types.Position) error {
	if pos == nil {
		return fmt.Errorf("close: nil position")
	}
	endpoint := fmt.Sprintf("%s/v2/positions/%s/close", c.baseURL, url.PathEscape(pos.ID))
	return c.breaker.Do(func() error {
		body, status, err := c.post(ctx, endpoint, nil)
		if err != nil {
			return fmt.Errorf("close %s: %w", pos.ID, err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("close %s: broker returned %d: %s", pos.ID, status, truncate(body, 200))
		}
		return nil
	})
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, endpoint string, payload []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		logger.Warnf("broker: %s %s -> %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
