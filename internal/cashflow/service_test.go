package cashflow

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-erp/obra-erp/internal/billing"
	"github.com/obra-erp/obra-erp/internal/money"
	"github.com/obra-erp/obra-erp/internal/shared"
	"github.com/obra-erp/obra-erp/internal/treasury/checks"
)

type fakeBillingSource struct {
	terms    []billing.PaymentTerm
	bills    []billing.Bill
	termsErr error
}

func (f *fakeBillingSource) ListActivePaymentTerms(_ context.Context, _ int64) ([]billing.PaymentTerm, error) {
	return f.terms, f.termsErr
}

func (f *fakeBillingSource) ListOpenBills(_ context.Context, _ int64, _ time.Time) ([]billing.Bill, error) {
	return f.bills, nil
}

type fakeCheckSource struct {
	checks []checks.Check
}

func (f *fakeCheckSource) ListPendingOrIssued(_ context.Context, _ int64, _ time.Time) ([]checks.Check, error) {
	return f.checks, nil
}

func scopedContext(orgID int64) context.Context {
	return shared.ContextWithScope(context.Background(), shared.Scope{OrganizationID: orgID, UserID: 1})
}

func TestServiceMergesAllSources(t *testing.T) {
	bills := &fakeBillingSource{
		terms: []billing.PaymentTerm{monthlyTerm(t, 7, "1000.00", today, 2)},
		bills: []billing.Bill{{
			ID: 21, Type: billing.EntityClient, Total: amt(t, "500.00"),
			Currency: money.ARS, DueDate: date(2025, time.April, 2), Status: billing.BillStatusPending,
		}},
	}
	chks := &fakeCheckSource{checks: []checks.Check{{
		ID: 31, CheckNumber: "99", Amount: amt(t, "250.00"),
		Currency: money.ARS, DueDate: date(2025, time.March, 20), Status: checks.StatusPending,
	}}}
	svc := NewService(bills, chks, slog.Default(), 12).WithNow(func() time.Time { return today })

	projection, err := svc.Project(scopedContext(1), Request{OrganizationID: 1})
	require.NoError(t, err)

	require.Len(t, projection.Timeline, 4)
	assert.Equal(t, SourcePaymentTerm, projection.Timeline[0].Source)
	assert.Equal(t, SourceCheck, projection.Timeline[1].Source)
	assert.True(t, projection.TotalsByCurrency[money.ARS].Income.Equal(amt(t, "2750.00")))
}

func TestServiceRejectsForeignScope(t *testing.T) {
	svc := NewService(&fakeBillingSource{}, &fakeCheckSource{}, slog.Default(), 12)

	_, err := svc.Project(scopedContext(2), Request{OrganizationID: 1})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Project(context.Background(), Request{OrganizationID: 1})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestServicePropagatesSourceErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(&fakeBillingSource{termsErr: boom}, &fakeCheckSource{}, slog.Default(), 12).
		WithNow(func() time.Time { return today })

	_, err := svc.Project(scopedContext(1), Request{OrganizationID: 1})
	assert.ErrorIs(t, err, boom)
}
