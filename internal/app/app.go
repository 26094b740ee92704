// Package app wires configuration into the engine's services and runs them.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"condor/internal/chain"
	"condor/internal/config"
	"condor/internal/gateway/broker"
	"condor/internal/logger"
	"condor/internal/marketclock"
	"condor/internal/monitor"
	"condor/internal/monitor/exits"
	"condor/internal/risk"
	"condor/internal/scan"
	"condor/internal/scheduler"
	"condor/internal/store"
	enginehttp "condor/internal/transport/http"
)

// scanOffset delays each scan tick past the minute boundary so the bar the
// scanners read has closed broker-side.
const scanOffset = 2 * time.Second

// App owns the engine's long-running services: the HTTP API, the position
// monitor and the scan/entry loop.
type App struct {
	cfg     *config.Config
	store   *store.Store
	monitor *monitor.Monitor
	trader  *Trader
	httpSrv *enginehttp.Server
}

// NewApp builds the full dependency graph from config. Nothing starts until
// Run.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	client, err := broker.NewClient(broker.ClientConfig{
		BaseURL: cfg.Broker.BaseURL,
		Timeout: time.Duration(cfg.Broker.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("broker client: %w", err)
	}

	clock := marketclock.New()
	riskMgr := risk.NewManager(db)
	registry := exits.NewRegistry(client, clock, marketclock.StubEarnings{})
	mon := monitor.New(db, client, registry,
		time.Duration(cfg.Monitor.IntervalSeconds)*time.Second)

	builder := chain.NewBuilder(client, client, clock)
	trader := NewTrader(TraderConfig{
		Risk:             riskMgr,
		Store:            db,
		Executor:         client,
		Account:          client,
		Momentum:         scan.NewMomentumScanner(client, clock, cfg.Scan.MomentumSymbols),
		Breakouts:        scan.NewOpeningRangeTracker(client, clock, cfg.Scan.BreakoutSymbols),
		Condor:           builder,
		CondorUnderlying: cfg.Condor.Underlying,
		CondorQuantity:   cfg.Condor.Quantity,
	})

	httpSrv, err := enginehttp.NewServer(enginehttp.ServerConfig{
		Addr:   cfg.App.HTTPAddr,
		Router: enginehttp.NewRouter(riskMgr, db, builder),
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("http server: %w", err)
	}

	return &App{
		cfg:     cfg,
		store:   db,
		monitor: mon,
		trader:  trader,
		httpSrv: httpSrv,
	}, nil
}

// Run starts every service and blocks until ctx is cancelled or one of them
// fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.store.Close()

	logger.Infof("condor: starting env=%s http=%s monitor_interval=%ds",
		a.cfg.App.Env, a.cfg.App.HTTPAddr, a.cfg.Monitor.IntervalSeconds)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.httpSrv.Start(ctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		return a.monitor.Run(ctx)
	})

	group.Go(func() error {
		sched := scheduler.NewAligned("scan", time.Minute, scanOffset)
		sched.Start(ctx, a.trader.Cycle)
		return ctx.Err()
	})

	return group.Wait()
}
