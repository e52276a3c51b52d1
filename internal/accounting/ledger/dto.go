package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obra-erp/obra-erp/internal/accounting/shared"
	"github.com/obra-erp/obra-erp/internal/money"
	internalShared "github.com/obra-erp/obra-erp/internal/shared"
)

// Side marks which half of an entry a leg belongs to.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// Leg describes one half-row of a posting request. Splits by account are
// allowed as long as both sides sum equal overall.
type Leg struct {
	AccountID int64
	Side      Side
	Amount    money.Amount
}

// PostingInput groups fields required to create a balanced entry.
type PostingInput struct {
	OrganizationID int64
	Description    string
	Date           time.Time
	Currency       money.Currency
	ExchangeRate   *decimal.Decimal
	SourceType     string
	SourceID       uuid.UUID
	IsAutomatic    bool
	CreatedBy      int64
	Legs           []Leg
}

// Validate ensures posting input meets structural criteria. The balance law
// itself is checked by balanceDrift so the caller can distinguish exchange
// rate rounding from a genuine imbalance.
func (in PostingInput) Validate() error {
	if in.OrganizationID == 0 {
		return fmt.Errorf("ledger: organization required: %w", internalShared.ErrValidation)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("ledger: date required: %w", internalShared.ErrValidation)
	}
	if !in.Currency.Valid() {
		return fmt.Errorf("ledger: invalid currency %q: %w", in.Currency, internalShared.ErrValidation)
	}
	if len(in.Legs) < 2 {
		return shared.ErrTooFewLegs
	}
	var debits, credits int
	for idx, leg := range in.Legs {
		if leg.AccountID == 0 {
			return fmt.Errorf("ledger: leg %d missing account: %w", idx, internalShared.ErrValidation)
		}
		if leg.Amount.Sign() <= 0 {
			return fmt.Errorf("ledger: leg %d amount must be positive: %w", idx, internalShared.ErrValidation)
		}
		switch leg.Side {
		case SideDebit:
			debits++
		case SideCredit:
			credits++
		default:
			return fmt.Errorf("ledger: leg %d has unknown side %q: %w", idx, leg.Side, internalShared.ErrValidation)
		}
	}
	if debits == 0 || credits == 0 {
		return shared.ErrTooFewLegs
	}
	return nil
}

// balanceDrift returns |Σdebit − Σcredit|. Zero means the entry balances
// exactly; anything else is acceptable only under an exchange rate and within
// money.RoundingTolerance.
func (in PostingInput) balanceDrift() decimal.Decimal {
	debit := money.Zero()
	credit := money.Zero()
	for _, leg := range in.Legs {
		switch leg.Side {
		case SideDebit:
			debit = debit.Add(leg.Amount)
		case SideCredit:
			credit = credit.Add(leg.Amount)
		}
	}
	return debit.Sub(credit).Abs()
}

// PostResult reports the persisted rows of one balanced transaction.
type PostResult struct {
	EntryNumber string
	Entries     []JournalEntry
	Warnings    []string
}

// WarningRoundingDrift marks an accepted sub-tolerance imbalance caused by
// exchange rate rounding.
const WarningRoundingDrift = "RoundingDrift"

// AutomaticInput describes an automatic entry generated from a business
// event (payroll paid, collection recorded, check cleared). The category is
// resolved to an income or expense account through the rubro mapping; the
// counter account is the treasury account the money moved through.
type AutomaticInput struct {
	OrganizationID   int64     `json:"organization_id"`
	SourceType       string    `json:"source_type"`
	SourceID         uuid.UUID `json:"source_id"`
	Category         string    `json:"category"`
	IsIncome         bool      `json:"is_income"`
	CounterAccountID int64     `json:"counter_account_id"`
	Amount           string    `json:"amount"`
	Currency         string    `json:"currency"`
	Date             time.Time `json:"date"`
	Description      string    `json:"description"`
	CreatedBy        int64     `json:"created_by"`
}

// Validate checks the automatic input before account resolution.
func (in AutomaticInput) Validate() error {
	if in.OrganizationID == 0 {
		return fmt.Errorf("ledger: organization required: %w", internalShared.ErrValidation)
	}
	if in.SourceType == "" || in.SourceID == uuid.Nil {
		return fmt.Errorf("ledger: source reference required: %w", internalShared.ErrValidation)
	}
	if in.Category == "" {
		return fmt.Errorf("ledger: category required: %w", internalShared.ErrValidation)
	}
	if in.CounterAccountID == 0 {
		return fmt.Errorf("ledger: counter account required: %w", internalShared.ErrValidation)
	}
	amount, err := money.FromString(in.Amount)
	if err != nil || amount.Sign() <= 0 {
		return fmt.Errorf("ledger: amount must be positive: %w", internalShared.ErrValidation)
	}
	if _, err := money.ParseCurrency(in.Currency); err != nil {
		return fmt.Errorf("ledger: %v: %w", err, internalShared.ErrValidation)
	}
	return nil
}
