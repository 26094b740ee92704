package broker

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"condor/internal/types"
)

// fanOutLimit bounds concurrent quote requests so a wide chain scan does not
// stampede the data provider.
const fanOutLimit = 8

// FetchQuotes fetches quotes for independent symbols concurrently and
// returns them keyed by symbol. Any failed symbol fails the whole call; the
// caller decides whether that aborts its own evaluation (it does for
// multi-leg positions, where a partial picture is worse than none).
func FetchQuotes(ctx context.Context, src QuoteSource, symbols []string) (map[string]types.OptionQuote, error) {
	out := make(map[string]types.OptionQuote, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for _, sym := range symbols {
		g.Go(func() error {
			q, err := src.GetLatestQuote(ctx, sym)
			if err != nil {
				return err
			}
			mu.Lock()
			out[sym] = q
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
