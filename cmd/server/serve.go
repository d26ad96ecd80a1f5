package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/maternal-health/internal/artifact"
	"github.com/iliyamo/maternal-health/internal/config"
	"github.com/iliyamo/maternal-health/internal/database"
	"github.com/iliyamo/maternal-health/internal/handler"
	"github.com/iliyamo/maternal-health/internal/middleware"
	"github.com/iliyamo/maternal-health/internal/predictor"
	"github.com/iliyamo/maternal-health/internal/queue"
	"github.com/iliyamo/maternal-health/internal/repository"
	"github.com/iliyamo/maternal-health/internal/router"
	"github.com/iliyamo/maternal-health/internal/service"
)

var (
	skipMigrate     bool
	withConsumer    bool
	shutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply the schema on start-up")
	cmd.Flags().BoolVar(&withConsumer, "with-consumer", false, "also run the submission event consumer in this process")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period for in-flight requests")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.With(zap.String("env", cfg.Env))

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if !skipMigrate {
		mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := database.Migrate(mctx, db)
		cancel()
		if err != nil {
			return err
		}
	}

	predCfg := config.LoadPredictorConfig()
	pred := predictor.New(predCfg)
	defer pred.CloseIdleConnections()

	artCfg := config.LoadArtifactConfig()
	store, err := artifact.New(ctx, artCfg)
	if err != nil {
		return fmt.Errorf("artifact store: %w", err)
	}

	queueCfg := config.LoadQueueConfig()
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Info("redis unavailable, cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	maternal := repository.NewMaternalRepo(db)
	postDelivery := repository.NewPostDeliveryRepo(db)

	purger := middleware.NewCachePurger(cacheCfg, rdb)
	subs := service.NewSubmissionService(maternal, pred, store, service.NewPublisher(queueCfg), log)

	e := router.New(router.Deps{
		Cfg:          cfg,
		Cache:        cacheCfg,
		RateLimit:    rateCfg,
		Redis:        rdb,
		Log:          log,
		Auth:         handler.NewAuthHandler(cfg, users, tokens, log),
		Maternal:     handler.NewMaternalHandler(maternal, subs, purger, log),
		Dashboard:    handler.NewDashboardHandler(maternal, purger, log),
		PostDelivery: handler.NewPostDeliveryHandler(postDelivery, log),
		Predictions:  handler.NewPredictionsHandler(store, log),
		Health:       handler.NewHealthHandler(db, pred),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("listening",
			zap.String("addr", addr),
			zap.String("predictor", pred.BaseURL()),
			zap.String("artifacts", artCfg.Backend),
			zap.Bool("auth_disabled", cfg.DisableAuth),
			zap.Bool("events", queueCfg.Enabled),
		)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})
	g.Go(func() error {
		pruneTokens(gctx, tokens, log)
		return nil
	})
	if withConsumer && queueCfg.Enabled {
		g.Go(func() error {
			err := queue.StartSubmissionConsumer(gctx, queueCfg, log.Named("consumer"))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// pruneTokens deletes expired refresh tokens once an hour until ctx ends.
func pruneTokens(ctx context.Context, tokens *repository.TokenRepo, log *zap.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		n, err := tokens.DeleteExpired(ctx, time.Now())
		switch {
		case err != nil && ctx.Err() == nil:
			log.Warn("pruning refresh tokens failed", zap.Error(err))
		case n > 0:
			log.Info("pruned expired refresh tokens", zap.Int64("count", n))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
