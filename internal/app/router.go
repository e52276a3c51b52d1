package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-erp/obra-erp/internal/accounting/ledger"
	"github.com/obra-erp/obra-erp/internal/cashflow"
	"github.com/obra-erp/obra-erp/internal/observability"
	"github.com/obra-erp/obra-erp/internal/treasury/balances"
	"github.com/obra-erp/obra-erp/internal/treasury/checks"
	"github.com/obra-erp/obra-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	LedgerHandler   *ledger.Handler
	BalanceHandler  *balances.Handler
	CheckHandler    *checks.Handler
	CashflowHandler *cashflow.Handler
	JobHandler      *jobs.Handler
	Pool            *pgxpool.Pool
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Obra defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				params.Logger.Warn("readiness ping", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/orgs/{orgID}", func(r chi.Router) {
		if params.LedgerHandler != nil {
			r.Route("/ledger", params.LedgerHandler.MountRoutes)
		}
		if params.BalanceHandler != nil {
			r.Route("/balances", params.BalanceHandler.MountRoutes)
		}
		if params.CheckHandler != nil {
			r.Route("/checks", params.CheckHandler.MountRoutes)
		}
		if params.CashflowHandler != nil {
			r.Route("/cashflow", params.CashflowHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/internal/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
