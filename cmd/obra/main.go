package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/obra-erp/obra-erp/internal/accounting/accounts"
	"github.com/obra-erp/obra-erp/internal/accounting/ledger"
	"github.com/obra-erp/obra-erp/internal/app"
	"github.com/obra-erp/obra-erp/internal/billing"
	"github.com/obra-erp/obra-erp/internal/cashflow"
	"github.com/obra-erp/obra-erp/internal/observability"
	"github.com/obra-erp/obra-erp/internal/platform/cache"
	"github.com/obra-erp/obra-erp/internal/platform/db"
	"github.com/obra-erp/obra-erp/internal/treasury/balances"
	"github.com/obra-erp/obra-erp/internal/treasury/checks"
	"github.com/obra-erp/obra-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	accountRepo := accounts.NewRepository(dbpool)
	accountService := accounts.NewService(accountRepo, logger)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, accountService, logger).
		WithMetrics(metrics).
		WithRetryEnqueuer(jobClient)

	balanceRepo := balances.NewRepository(dbpool)
	balanceService := balances.NewService(balanceRepo, logger)

	checkRepo := checks.NewRepository(dbpool)
	checkService := checks.NewService(checkRepo, ledgerService, balanceService, accountService, logger)

	billingRepo := billing.NewRepository(dbpool)
	cashflowService := cashflow.NewService(billingRepo, checkRepo, logger, cfg.ProjectionHorizonMonths)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		LedgerHandler:   ledger.NewHandler(logger, ledgerService),
		BalanceHandler:  balances.NewHandler(logger, balanceService),
		CheckHandler:    checks.NewHandler(logger, checkService),
		CashflowHandler: cashflow.NewHandler(logger, cashflowService),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Pool:            dbpool,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
