package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/myquiz/backend/internal/auth"
	"github.com/myquiz/backend/internal/config"
	"github.com/myquiz/backend/internal/database"
	"github.com/myquiz/backend/internal/handler/health"
	"github.com/myquiz/backend/internal/migrations"
	"github.com/myquiz/backend/internal/quiz"
	"github.com/myquiz/backend/internal/seed"
	"github.com/myquiz/backend/internal/server"
	"github.com/myquiz/backend/internal/store/memory"
	"github.com/myquiz/backend/internal/store/mongodb"
	"github.com/myquiz/backend/internal/store/sqlite"
)

func newServeCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), stdout)
		},
	}
}

func runServe(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	proxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return err
	}

	// --- Store ---
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	checks := map[string]health.Checker{
		"store": health.CheckerFunc(st.Ping),
	}

	// --- Login limiter ---
	var limiter auth.Limiter = auth.NewMemoryLimiter(cfg.LoginMaxAttempts, cfg.LoginWindow)
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		limiter = auth.NewRedisLimiter(rdb, cfg.LoginMaxAttempts, cfg.LoginWindow)
		checks["redis"] = redisChecker{rdb}
	}

	// --- Seed ---
	if err := seed.Admin(ctx, st, cfg.AdminEmail, cfg.AdminPassword, auth.DefaultCost, logger); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	if cfg.SeedSampleQuizzes {
		if _, err := seed.Quizzes(ctx, st, logger); err != nil {
			return fmt.Errorf("seeding quizzes: %w", err)
		}
	}

	authSvc := auth.NewService(st, auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL), limiter, logger,
		auth.WithDefaultCredential(cfg.AdminEmail, cfg.AdminPassword),
	)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, server.Deps{
		Logger:         logger,
		Quizzes:        quiz.NewService(st),
		Auth:           authSvc,
		Checks:         checks,
		Environment:    cfg.Environment,
		Production:     cfg.Production(),
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: proxies,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		SPADir:         cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver, "environment", cfg.Environment)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// openStore connects the configured driver. A configured driver that
// cannot connect is an error; there is no fallback to memory.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (quiz.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		st, err := mongodb.New(ctx, client, cfg.MongoDatabase)
		if err != nil {
			client.Disconnect(context.Background())
			return nil, fmt.Errorf("preparing mongodb store: %w", err)
		}
		logger.Info("connected to mongodb", "database", cfg.MongoDatabase)
		return st, nil

	case config.DriverSQLite:
		db, err := database.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("connecting to sqlite: %w", err)
		}
		if err := migrations.Run(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to sqlite", "path", cfg.SQLitePath)
		return sqlite.New(db), nil

	default:
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.New(), nil
	}
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
