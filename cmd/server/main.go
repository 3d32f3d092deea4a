package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/auction-chess-backend/internal/config"
	"github.com/DoyleJ11/auction-chess-backend/internal/httpapi"
	"github.com/DoyleJ11/auction-chess-backend/internal/hub"
	"github.com/DoyleJ11/auction-chess-backend/internal/lobby"
	"github.com/DoyleJ11/auction-chess-backend/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := hub.Options{Logger: logger}
	var st *store.Store
	if cfg.DatabaseURL != "" {
		st, err = store.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, st.Close()) }()
		opts.Store = st
	} else {
		logger.Warn("DATABASE_URL not set, games are kept in memory only")
	}

	h := hub.NewHub(ctx, opts)
	if st != nil {
		if err := restore(ctx, h, st, logger); err != nil {
			return err
		}
	}

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpapi.SetupRoutes(h, httpapi.Options{Logger: logger, OriginPatterns: cfg.OriginPatterns}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		tick := time.NewTicker(cfg.SweepInterval)
		defer tick.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-tick.C:
				select {
				case h.Inbox() <- hub.Sweep{}:
				case <-gctx.Done():
					return nil
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		serr := srv.Shutdown(sctx)
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		}
		return serr
	})

	return g.Wait()
}

// restore restarts every unfinished game found in the store.
func restore(ctx context.Context, h *hub.Hub, st *store.Store, logger *zap.Logger) error {
	recs, err := st.Unfinished(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		s, err := rec.Decode()
		if err != nil {
			logger.Error("skipping unreadable game", zap.String("code", rec.Code), zap.Error(err))
			continue
		}
		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.EnsureLobby{Code: rec.Code, State: s, Version: rec.Version, Reply: reply}
		<-reply
	}
	logger.Info("games restored", zap.Int("count", len(recs)))
	return nil
}
