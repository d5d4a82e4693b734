package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/where2work/internal/cache"
	"github.com/sells-group/where2work/internal/dataset"
	"github.com/sells-group/where2work/internal/model"
	"github.com/sells-group/where2work/internal/store"
	"github.com/sells-group/where2work/internal/web"
)

var (
	servePort int
	serveData string
)

const pruneInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the company browser",
	Long:  "Loads the data file and serves the filter page, bubble charts and JSON API until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg.Data.Path = resolveDataPath(serveData, cfg.Data.Path)
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		bands, err := model.LoadBands(cfg.Data.BandsFile)
		if err != nil {
			return err
		}
		src, err := dataset.NewSource(cfg.Data.Path, bands)
		if err != nil {
			return err
		}
		d := src.Current()
		zap.L().Info("dataset loaded",
			zap.String("path", d.Path),
			zap.String("version", d.Version),
			zap.Int("records", d.Len()),
		)

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := resolvePort(servePort, cfg.Server.Port)
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildMux(src, st, newViewCache(), webOptions()),
			ReadHeaderTimeout: 10 * time.Second,
		}

		lis, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			return eris.Wrap(err, "server listen")
		}
		zap.L().Info("starting server", zap.Int("port", port), zap.String("store", cfg.Store.Driver))

		return runServer(ctx, srv, lis, serverDeps{
			source:          src,
			store:           st,
			watch:           cfg.Data.Watch,
			sessionTTL:      time.Duration(cfg.Server.SessionTTLHours) * time.Hour,
			shutdownTimeout: time.Duration(cfg.Server.ShutdownTimeoutSecs) * time.Second,
		})
	},
}

// buildMux assembles the HTTP handler for the browser and API.
func buildMux(src *dataset.Source, st store.Store, views *cache.ViewCache, opts web.Options) http.Handler {
	return web.NewServer(src, st, views, opts).Routes()
}

type serverDeps struct {
	source          *dataset.Source
	store           store.Store
	watch           bool
	sessionTTL      time.Duration
	shutdownTimeout time.Duration
}

// runServer serves on lis until ctx is done, alongside the data file watcher
// and shortlist pruning, then shuts the server down gracefully.
func runServer(ctx context.Context, srv *http.Server, lis net.Listener, deps serverDeps) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		timeout := deps.shutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
	})

	if deps.watch && deps.source != nil {
		g.Go(func() error {
			return deps.source.Watch(gctx)
		})
	}

	if deps.store != nil && deps.sessionTTL > 0 {
		g.Go(func() error {
			pruneShortlists(gctx, deps.store, deps.sessionTTL, pruneInterval)
			return nil
		})
	}

	return g.Wait()
}

// pruneShortlists drops shortlist entries older than ttl every interval
// until ctx is done.
func pruneShortlists(ctx context.Context, st store.Store, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := st.PruneShortlists(ctx, time.Now().Add(-ttl))
			if err != nil {
				zap.L().Warn("prune shortlists", zap.Error(err))
				continue
			}
			if n > 0 {
				zap.L().Info("pruned shortlists", zap.Int("entries", n))
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveData, "data", "", "data file, .csv or .xlsx (default from config)")
	rootCmd.AddCommand(serveCmd)
}
