package balances

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-erp/obra-erp/internal/money"
	"github.com/obra-erp/obra-erp/internal/shared"
)

type balanceKey struct {
	accountID int64
	kind      Kind
	currency  money.Currency
}

type mockRepository struct {
	balances map[balanceKey]*Balance
}

func newMockRepository() *mockRepository {
	return &mockRepository{balances: make(map[balanceKey]*Balance)}
}

func (m *mockRepository) ApplyIncrement(ctx context.Context, in Increment) (Balance, error) {
	key := balanceKey{accountID: in.AccountID, kind: in.Kind, currency: in.Currency}
	b, ok := m.balances[key]
	if !ok {
		b = &Balance{
			AccountID:      in.AccountID,
			Kind:           in.Kind,
			Currency:       in.Currency,
			OrganizationID: in.OrganizationID,
			Balance:        money.Zero(),
		}
		m.balances[key] = b
	}
	b.Balance = b.Balance.Add(in.Delta)
	b.UpdatedAt = time.Now()
	return *b, nil
}

func (m *mockRepository) Get(ctx context.Context, orgID, accountID int64, kind Kind, currency string) (Balance, error) {
	b, ok := m.balances[balanceKey{accountID: accountID, kind: kind, currency: money.Currency(currency)}]
	if !ok {
		return Balance{}, shared.ErrNotFound
	}
	return *b, nil
}

func (m *mockRepository) ListForOrganization(ctx context.Context, orgID int64) ([]Balance, error) {
	var out []Balance
	for _, b := range m.balances {
		if b.OrganizationID == orgID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func inc(delta string) Increment {
	return Increment{
		AccountID:      7,
		Kind:           KindBankAccount,
		Currency:       money.ARS,
		OrganizationID: 1,
		Delta:          decimal.RequireFromString(delta),
	}
}

func TestApplyCreatesThenIncrements(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	ctx := context.Background()

	b, err := svc.Apply(ctx, inc("100.00"))
	require.NoError(t, err)
	assert.Equal(t, "100.00", b.Balance.StringFixed(2))

	b, err = svc.Apply(ctx, inc("-30.50"))
	require.NoError(t, err)
	assert.Equal(t, "69.50", b.Balance.StringFixed(2))
}

func TestApplyValidation(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	ctx := context.Background()

	bad := inc("10.00")
	bad.Kind = "WALLET"
	_, err := svc.Apply(ctx, bad)
	assert.ErrorIs(t, err, shared.ErrValidation)

	zero := inc("0")
	_, err = svc.Apply(ctx, zero)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestKeysAreIndependent(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, inc("100.00"))
	require.NoError(t, err)

	usd := inc("40.00")
	usd.Currency = money.USD
	b, err := svc.Apply(ctx, usd)
	require.NoError(t, err)
	assert.Equal(t, "40.00", b.Balance.StringFixed(2), "currency is part of the key")

	cash := inc("5.00")
	cash.Kind = KindCashBox
	b, err = svc.Apply(ctx, cash)
	require.NoError(t, err)
	assert.Equal(t, "5.00", b.Balance.StringFixed(2), "kind is part of the key")
}

// Applying an increment then its exact negation returns the balance to its
// prior value, for any interleaving.
func TestRevertIdempotence(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, inc("250.00"))
	require.NoError(t, err)

	deltas := []string{"10.00", "-42.42", "0.01", "999.99", "-0.01"}
	for _, d := range deltas {
		_, err := svc.Apply(ctx, inc(d))
		require.NoError(t, err)
	}
	// Interleave reversals in a different order than application.
	for _, d := range []string{"999.99", "10.00", "-0.01", "-42.42", "0.01"} {
		_, err := svc.Revert(ctx, inc(d))
		require.NoError(t, err)
	}

	b, err := svc.Get(ctx, 1, 7, KindBankAccount, "ARS")
	require.NoError(t, err)
	assert.Equal(t, "250.00", b.Balance.StringFixed(2))
}
