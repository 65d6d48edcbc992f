package cli

import (
	"context"
	"fmt"
	"time"

	"spendboard/internal/assets"
	"spendboard/internal/backend"
	"spendboard/internal/cache"
	"spendboard/internal/config"
	"spendboard/internal/metrics"
	"spendboard/internal/services"
)

// Display bundles a ready DisplayService with the resources behind it.
type Display struct {
	Service *services.DisplayService
	Backend *backend.BackendResult
	Assets  *assets.Store
	caches  *cache.Manager
}

// NewDisplay wires the configured source, the asset store and the display
// service. A nil collector records nothing.
func NewDisplay(ctx context.Context, cfg *config.Config, collector metrics.Collector) (*Display, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(collector).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}

	store := assets.New(assets.Config{Dir: cfg.AssetsDir, FontsDir: cfg.FontsDir})
	caches := cache.NewManager()
	store.RegisterCaches(caches)
	caches.StartCleanup(5 * time.Minute)

	deps := services.Deps{
		Transactions:   res.Transactions,
		Weather:        res.Weather,
		Assets:         store,
		Metrics:        collector,
		Policy:         cfg.Policy(),
		Location:       cfg.Location(),
		Layout:         cfg.Layout(),
		DefaultAccount: cfg.Account,
	}
	if res.Ledger != nil {
		deps.Recorder = res.Ledger
	}
	svc, err := services.NewDisplayService(deps)
	if err != nil {
		caches.Stop()
		res.Close()
		return nil, err
	}
	return &Display{Service: svc, Backend: res, Assets: store, caches: caches}, nil
}

// Generate renders account, substituting demo totals when no source is
// configured.
func (d *Display) Generate(ctx context.Context, req services.Request) (*services.Result, error) {
	if d.Backend.Demo {
		return d.Service.RenderTotals(ctx, req.Account, services.DemoTotals)
	}
	return d.Service.Generate(ctx, req)
}

// Close stops cache cleanup and releases the backend.
func (d *Display) Close() error {
	d.caches.Stop()
	return d.Backend.Close()
}
