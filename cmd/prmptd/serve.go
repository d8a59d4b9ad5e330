package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	api "github.com/prmpt-academy/prmpt-api/internal/api/http"
	auth "github.com/prmpt-academy/prmpt-api/internal/auth/middleware"
	"github.com/prmpt-academy/prmpt-api/internal/config"
	"github.com/prmpt-academy/prmpt-api/internal/credits"
	"github.com/prmpt-academy/prmpt-api/internal/db"
	"github.com/prmpt-academy/prmpt-api/internal/events"
	"github.com/prmpt-academy/prmpt-api/internal/judge"
	"github.com/prmpt-academy/prmpt-api/internal/lesson"
	"github.com/prmpt-academy/prmpt-api/internal/logging"
	"github.com/prmpt-academy/prmpt-api/internal/users"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg := loadConfig(cmd)
	logger := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer dbh.Close()

	lessons := lesson.NewService(lesson.NewSQLStore(dbh, cfg.DBDriver))
	if cfg.SeedLessons != "" {
		if err := seedFrom(ctx, lessons, cfg.SeedLessons); err != nil {
			return err
		}
	}

	// --- Credits ---
	ready := map[string]api.Pinger{"db": dbh}
	store, closeStore, err := openCreditStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if rs, ok := store.(*credits.RedisStore); ok {
		ready["redis"] = api.PingFunc(rs.Ping)
	}
	ledger := credits.NewLedger(store, cfg.DefaultCredits)

	// --- Events ---
	eventLog := events.NewEventRepo(dbh, string(cfg.Mode))
	pub, closePub, err := openPublisher(eventLog, cfg)
	if err != nil {
		return err
	}
	defer closePub()

	judgeSvc := judge.NewService(lessons,
		judge.WithLogger(logger),
		judge.WithPublisher(pub),
		judge.WithResilience(judge.DefaultResilienceConfig()),
	)

	if cfg.EnableLocalAuth && cfg.AdminPassHash == "" {
		logger.Warn("local auth enabled without ADMIN_PASS_HASH; admin login is disabled")
	}

	h := api.NewRouter(api.Deps{
		Auth:            auth.NewAuthService(cfg.JWTSecret, cfg.JWTAudience, cfg.JWTIssuer),
		Lessons:         lessons,
		Judge:           judgeSvc,
		Ledger:          ledger,
		Users:           users.NewSQLStore(dbh),
		Events:          pub,
		EventLog:        eventLog,
		Logger:          logger,
		Ready:           ready,
		CORSOrigins:     cfg.CORSOrigins,
		RequestTimeout:  cfg.RequestTimeout,
		EnableLocalAuth: cfg.EnableLocalAuth,
		Login:           auth.LoginConfig{AdminUser: cfg.AdminUser, AdminPassHash: cfg.AdminPassHash},
		AllowClaimRole:  cfg.Mode == config.ModeOffline,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver, "credits", cfg.CreditsBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openCreditStore(ctx context.Context, cfg config.Config) (credits.Store, func(), error) {
	switch cfg.CreditsBackend {
	case "memory":
		return credits.NewMemoryStore(), func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return credits.NewRedisStore(client, ""), func() { client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown CREDITS_BACKEND %q (want memory or redis)", cfg.CreditsBackend)
	}
}

func openPublisher(repo *events.EventRepo, cfg config.Config) (events.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		return repo, func() {}, nil
	}
	amqpPub, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, nil, err
	}
	return events.Multi{repo, amqpPub}, func() { amqpPub.Close() }, nil
}

func seedFrom(ctx context.Context, svc *lesson.Service, path string) error {
	drafts, err := lesson.LoadSeedFile(path)
	if err != nil {
		return err
	}
	n, err := lesson.Seed(ctx, svc, drafts)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("seeded lessons", "count", n, "file", path)
	}
	return nil
}
