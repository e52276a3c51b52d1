package balances

import (
	"fmt"
	"time"

	"github.com/obra-erp/obra-erp/internal/money"
	"github.com/obra-erp/obra-erp/internal/shared"
)

// Kind distinguishes the treasury account classes a balance is kept for.
type Kind string

const (
	KindCashBox     Kind = "CASH_BOX"
	KindBankAccount Kind = "BANK_ACCOUNT"
)

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	return k == KindCashBox || k == KindBankAccount
}

// Balance is the cached running total for one (account, kind, currency) key.
// It is never recomputed from journal rows; it only ever moves by signed
// increments applied alongside the event that caused them.
type Balance struct {
	AccountID      int64
	Kind           Kind
	Currency       money.Currency
	Balance        money.Amount
	OrganizationID int64
	UpdatedAt      time.Time
}

// Increment is one signed mutation of a balance key. Inflows are positive,
// outflows negative.
type Increment struct {
	AccountID      int64
	Kind           Kind
	Currency       money.Currency
	OrganizationID int64
	Delta          money.Amount
}

// Validate checks the increment identifies a complete key.
func (in Increment) Validate() error {
	if in.AccountID == 0 || in.OrganizationID == 0 {
		return fmt.Errorf("balances: account and organization required: %w", shared.ErrValidation)
	}
	if !in.Kind.Valid() {
		return fmt.Errorf("balances: unknown kind %q: %w", in.Kind, shared.ErrValidation)
	}
	if !in.Currency.Valid() {
		return fmt.Errorf("balances: unknown currency %q: %w", in.Currency, shared.ErrValidation)
	}
	if in.Delta.IsZero() {
		return fmt.Errorf("balances: zero delta: %w", shared.ErrValidation)
	}
	return nil
}

// Negated returns the exact reversal of the increment.
func (in Increment) Negated() Increment {
	out := in
	out.Delta = in.Delta.Neg()
	return out
}
