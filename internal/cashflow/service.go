package cashflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/obra-erp/obra-erp/internal/billing"
	"github.com/obra-erp/obra-erp/internal/shared"
	"github.com/obra-erp/obra-erp/internal/treasury/checks"
)

// BillingSource supplies scheduled obligations and open invoices.
type BillingSource interface {
	ListActivePaymentTerms(ctx context.Context, orgID int64) ([]billing.PaymentTerm, error)
	ListOpenBills(ctx context.Context, orgID int64, dueBefore time.Time) ([]billing.Bill, error)
}

// CheckSource supplies checks still expected to move money.
type CheckSource interface {
	ListPendingOrIssued(ctx context.Context, orgID int64, dueBefore time.Time) ([]checks.Check, error)
}

// Service loads projection inputs and runs the projector on demand. Results
// are never cached: a projection is only as good as the data under it.
type Service struct {
	bills          BillingSource
	checks         CheckSource
	logger         *slog.Logger
	defaultHorizon int
	now            func() time.Time
}

// NewService wires a projection service with the given default horizon in
// months.
func NewService(bills BillingSource, chks CheckSource, logger *slog.Logger, defaultHorizon int) *Service {
	return &Service{
		bills:          bills,
		checks:         chks,
		logger:         logger,
		defaultHorizon: defaultHorizon,
		now:            time.Now,
	}
}

// WithNow overrides the clock. Test hook.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Request carries the per-call projection parameters.
type Request struct {
	OrganizationID int64
	HorizonMonths  int
	Filters        Filters
}

// Project loads the three sources concurrently and expands them into a
// timeline. The caller's scope must match the requested organization.
func (s *Service) Project(ctx context.Context, req Request) (Projection, error) {
	if _, err := shared.RequireScope(ctx, req.OrganizationID); err != nil {
		return Projection{}, err
	}
	horizon := req.HorizonMonths
	if horizon <= 0 {
		horizon = s.defaultHorizon
	}
	window := HorizonWindow(s.now(), horizon)

	var (
		terms       []billing.PaymentTerm
		bills       []billing.Bill
		outstanding []checks.Check
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		terms, err = s.bills.ListActivePaymentTerms(gctx, req.OrganizationID)
		if err != nil {
			return fmt.Errorf("load payment terms: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bills, err = s.bills.ListOpenBills(gctx, req.OrganizationID, window.To)
		if err != nil {
			return fmt.Errorf("load open bills: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		outstanding, err = s.checks.ListPendingOrIssued(gctx, req.OrganizationID, window.To)
		if err != nil {
			return fmt.Errorf("load outstanding checks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Projection{}, err
	}

	projection := NewProjector(window).Project(terms, bills, outstanding, req.Filters)
	if len(projection.Skipped) > 0 {
		s.logger.Warn("cashflow projection skipped inputs",
			"org_id", req.OrganizationID,
			"skipped", len(projection.Skipped))
	}
	return projection, nil
}
