package checks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-erp/obra-erp/internal/accounting/accounts"
	"github.com/obra-erp/obra-erp/internal/accounting/ledger"
	"github.com/obra-erp/obra-erp/internal/money"
	"github.com/obra-erp/obra-erp/internal/shared"
	"github.com/obra-erp/obra-erp/internal/treasury/balances"
)

type mockRepository struct {
	checks map[int64]*Check
}

func newMockRepository() *mockRepository {
	return &mockRepository{checks: make(map[int64]*Check)}
}

func (m *mockRepository) Get(ctx context.Context, orgID, checkID int64) (Check, error) {
	c, ok := m.checks[checkID]
	if !ok || c.OrganizationID != orgID {
		return Check{}, shared.ErrNotFound
	}
	return *c, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, orgID, checkID int64, expected, next CheckStatus, clearedFrom *CheckStatus) error {
	c, ok := m.checks[checkID]
	if !ok || c.OrganizationID != orgID || c.Status != expected {
		return shared.ErrConcurrency
	}
	c.Status = next
	if clearedFrom != nil {
		c.ClearedFrom = clearedFrom
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, orgID, checkID int64) error {
	c, ok := m.checks[checkID]
	if !ok || c.OrganizationID != orgID {
		return shared.ErrNotFound
	}
	delete(m.checks, checkID)
	return nil
}

func (m *mockRepository) ListPendingOrIssued(ctx context.Context, orgID int64, dueBefore time.Time) ([]Check, error) {
	var out []Check
	for _, c := range m.checks {
		if c.OrganizationID == orgID && (c.Status == StatusPending || c.Status == StatusIssued) && !c.DueDate.After(dueBefore) {
			out = append(out, *c)
		}
	}
	return out, nil
}

type mockLedger struct {
	recorded []ledger.AutomaticInput
	reversed []uuid.UUID
}

func (m *mockLedger) RecordAutomaticEntry(ctx context.Context, input ledger.AutomaticInput) (ledger.PostResult, error) {
	m.recorded = append(m.recorded, input)
	return ledger.PostResult{EntryNumber: "000001"}, nil
}

func (m *mockLedger) ReverseAutomaticEntries(ctx context.Context, orgID int64, sourceType string, sourceID uuid.UUID) error {
	m.reversed = append(m.reversed, sourceID)
	return nil
}

type mockBalances struct {
	applied []balances.Increment
}

func (m *mockBalances) Apply(ctx context.Context, in balances.Increment) (balances.Balance, error) {
	m.applied = append(m.applied, in)
	return balances.Balance{Balance: in.Delta}, nil
}

func (m *mockBalances) Revert(ctx context.Context, original balances.Increment) (balances.Balance, error) {
	return m.Apply(ctx, original.Negated())
}

type mockTreasury struct{}

func (mockTreasury) ResolveTreasuryAccount(ctx context.Context, orgID int64, subtype string) (accounts.Account, error) {
	if subtype == string(balances.KindCashBox) {
		return accounts.Account{ID: 101, Code: "1.1.01"}, nil
	}
	return accounts.Account{ID: 102, Code: "1.1.02"}, nil
}

func newTestService(repo *mockRepository) (*Service, *mockLedger, *mockBalances) {
	lp := &mockLedger{}
	bp := &mockBalances{}
	return NewService(repo, lp, bp, mockTreasury{}, nil), lp, bp
}

func seedCheck(repo *mockRepository, status CheckStatus) *Check {
	bank := int64(9)
	c := &Check{
		ID:             1,
		CheckNumber:    "00012345",
		Amount:         decimal.RequireFromString("5000.00"),
		Currency:       money.ARS,
		DueDate:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:         status,
		IssuerName:     "Constructora Sur",
		BankAccountID:  &bank,
		OrganizationID: 1,
	}
	repo.checks[c.ID] = c
	return c
}

func TestClearIssuedCheck(t *testing.T) {
	repo := newMockRepository()
	seedCheck(repo, StatusIssued)
	svc, lp, bp := newTestService(repo)

	check, err := svc.Transition(context.Background(), 1, 1, StatusCleared)
	require.NoError(t, err)
	assert.Equal(t, StatusCleared, check.Status)
	require.NotNil(t, check.ClearedFrom)
	assert.Equal(t, StatusIssued, *check.ClearedFrom)

	require.Len(t, bp.applied, 1)
	assert.Equal(t, "-5000.00", bp.applied[0].Delta.StringFixed(2), "issued check is an outflow")
	assert.Equal(t, balances.KindBankAccount, bp.applied[0].Kind)

	require.Len(t, lp.recorded, 1)
	assert.False(t, lp.recorded[0].IsIncome, "issued check posts through the expense rubro")
	assert.Equal(t, int64(102), lp.recorded[0].CounterAccountID)
}

func TestClearPendingCheck(t *testing.T) {
	repo := newMockRepository()
	seedCheck(repo, StatusPending)
	svc, lp, bp := newTestService(repo)

	_, err := svc.Transition(context.Background(), 1, 1, StatusCleared)
	require.NoError(t, err)

	require.Len(t, bp.applied, 1)
	assert.Equal(t, "5000.00", bp.applied[0].Delta.StringFixed(2), "received check is an inflow")
	require.Len(t, lp.recorded, 1)
	assert.True(t, lp.recorded[0].IsIncome)
}

func TestRejectHasNoMoneyEffect(t *testing.T) {
	repo := newMockRepository()
	seedCheck(repo, StatusIssued)
	svc, lp, bp := newTestService(repo)

	check, err := svc.Transition(context.Background(), 1, 1, StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, check.Status)
	assert.Empty(t, bp.applied)
	assert.Empty(t, lp.recorded)
}

func TestTerminalStatusRejectsTransitions(t *testing.T) {
	repo := newMockRepository()
	seedCheck(repo, StatusIssued)
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Transition(ctx, 1, 1, StatusCancelled)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, 1, 1, StatusCleared)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteClearedCheckReversesEverything(t *testing.T) {
	repo := newMockRepository()
	seedCheck(repo, StatusIssued)
	svc, lp, bp := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Transition(ctx, 1, 1, StatusCleared)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, 1, 1))

	require.Len(t, lp.reversed, 1)
	require.Len(t, bp.applied, 2)
	assert.Equal(t, "-5000.00", bp.applied[0].Delta.StringFixed(2))
	assert.Equal(t, "5000.00", bp.applied[1].Delta.StringFixed(2), "deletion applies the exact negation")
	assert.Empty(t, repo.checks)
}

func TestDeleteUnclearedCheckSkipsLedger(t *testing.T) {
	repo := newMockRepository()
	seedCheck(repo, StatusPending)
	svc, lp, bp := newTestService(repo)

	require.NoError(t, svc.Delete(context.Background(), 1, 1))
	assert.Empty(t, lp.reversed)
	assert.Empty(t, bp.applied)
}
