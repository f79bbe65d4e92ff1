package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderledger-backend/api/routes"
	"github.com/angelmondragon/orderledger-backend/internal/auth"
	"github.com/angelmondragon/orderledger-backend/internal/customers"
	"github.com/angelmondragon/orderledger-backend/internal/orders"
	product "github.com/angelmondragon/orderledger-backend/internal/products"
	"github.com/angelmondragon/orderledger-backend/internal/users"
	"github.com/angelmondragon/orderledger-backend/pkg/auth/session"
	"github.com/angelmondragon/orderledger-backend/pkg/config"
	"github.com/angelmondragon/orderledger-backend/pkg/db"
	"github.com/angelmondragon/orderledger-backend/pkg/instance"
	"github.com/angelmondragon/orderledger-backend/pkg/logger"
	"github.com/angelmondragon/orderledger-backend/pkg/metrics"
	"github.com/angelmondragon/orderledger-backend/pkg/migrate"
	"github.com/angelmondragon/orderledger-backend/pkg/redis"
)

const readHeaderTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	orderMetrics := metrics.NewOrderMetrics(registry)

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	customerRepo := customers.NewRepository(conn)
	productRepo := product.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		CustomerRepo:   customerRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		UserRepo:           userRepo,
		PasswordConfig:     cfg.Password,
		AllowAdminRegister: cfg.FeatureFlags.AllowAdminRegister,
	})
	if err != nil {
		return err
	}

	productService, err := product.NewService(productRepo)
	if err != nil {
		return err
	}

	customerService, err := customers.NewService(customerRepo, dbClient)
	if err != nil {
		return err
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo: orders.NewRepository(conn),
		Tx:   dbClient,
		Products: func(tx *gorm.DB) orders.ProductFinder {
			return productRepo.WithTx(tx)
		},
		Metrics: orderMetrics,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			registry,
			httpMetrics,
			authService,
			registerService,
			productService,
			customerService,
			orderService,
		),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logg.Info(logCtx, "shutting down api server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return err
	}
	logg.Info(logCtx, "api server stopped gracefully")
	return nil
}
