package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/live-scoreboard/internal/config"
	"github.com/DoyleJ11/live-scoreboard/internal/httpapi"
	"github.com/DoyleJ11/live-scoreboard/internal/hub"
	"github.com/DoyleJ11/live-scoreboard/internal/logging"
	"github.com/DoyleJ11/live-scoreboard/internal/mirror"
	"github.com/DoyleJ11/live-scoreboard/internal/store"
	"github.com/DoyleJ11/live-scoreboard/internal/ws"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(db) }()

	st := store.New(db, log)
	if err := st.Migrate(ctx, cfg.GameName); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	deps := hub.Deps{Teams: st, Game: st, Logger: log}
	if cfg.RedisAddr != "" {
		rdb, err := mirror.Dial(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("leaderboard mirror disabled", zap.Error(err))
		} else {
			defer func() { _ = rdb.Close() }()
			m := mirror.NewRedis(rdb, cfg.RedisKey, log)
			deps.Mirror = m
			g.Go(func() error { return m.Run(gctx) })
			log.Info("mirroring leaderboard to redis", zap.String("addr", cfg.RedisAddr), zap.String("key", cfg.RedisKey))
		}
	}

	// The hub stops with gctx and closes every session on its way out.
	h := hub.New(gctx, deps)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:       h,
			Teams:     st,
			Logger:    log,
			PublicURL: cfg.PublicURL,
			WS: ws.Options{
				OriginPatterns: cfg.AllowedOrigins,
				WriteTimeout:   cfg.WSWriteTimeout,
				OutboxSize:     cfg.OutboxSize,
			},
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("db_driver", cfg.DBDriver), zap.String("game", cfg.GameName))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		<-h.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if cfg.BackupDir != "" {
		backup(st, cfg.BackupDir, log)
	}
	return err
}

// backup is best effort; a failed backup never fails shutdown.
func backup(st *store.Store, dir string, log *zap.Logger) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("create backup dir", zap.String("dir", dir), zap.Error(err))
		return
	}
	path := filepath.Join(dir, "backup_leaderboard_"+time.Now().UTC().Format("20060102-150405")+".db")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := st.Backup(ctx, path)
	switch {
	case errors.Is(err, store.ErrBackupUnsupported):
		log.Info("skipping backup", zap.Error(err))
	case err != nil:
		log.Error("backup failed", zap.String("path", path), zap.Error(err))
	}
}
