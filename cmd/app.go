package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/where2work/internal/cache"
	"github.com/sells-group/where2work/internal/dataset"
	"github.com/sells-group/where2work/internal/model"
	"github.com/sells-group/where2work/internal/store"
	"github.com/sells-group/where2work/internal/web"
)

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrapf(err, "init %s store", cfg.Store.Driver)
	}
	return st, nil
}

// loadDataset reads the data file, preferring path over the configured one.
func loadDataset(path string) (*dataset.Dataset, error) {
	bands, err := model.LoadBands(cfg.Data.BandsFile)
	if err != nil {
		return nil, err
	}
	return dataset.Load(resolveDataPath(path, cfg.Data.Path), bands)
}

func resolveDataPath(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}

func resolvePort(flag, configured int) int {
	if flag > 0 {
		return flag
	}
	return configured
}

func newViewCache() *cache.ViewCache {
	return cache.NewViewCache(
		time.Duration(cfg.Cache.TTLSecs)*time.Second,
		time.Duration(cfg.Cache.CleanupSecs)*time.Second,
	)
}

func webOptions() web.Options {
	return web.Options{
		ChartSeed:      cfg.Chart.Seed,
		ChartWidth:     cfg.Chart.Width,
		ChartHeight:    cfg.Chart.Height,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		CORSOrigins:    cfg.Server.CORSOrigins,
		SessionTTL:     time.Duration(cfg.Server.SessionTTLHours) * time.Hour,
		TrustProxy:     cfg.Server.TrustProxy,
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
