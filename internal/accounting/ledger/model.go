package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obra-erp/obra-erp/internal/money"
)

// EntryNumberWidth is the zero-padding applied to sequential entry numbers.
const EntryNumberWidth = 6

// JournalEntry is one leg of a balanced transaction. Exactly one of
// DebitAccountID/CreditAccountID is set, and the matching amount carries the
// value while the other side is zero. A logical transaction is the set of
// rows sharing an EntryNumber within an organization; their debit and credit
// totals always match.
type JournalEntry struct {
	ID              int64
	EntryNumber     string
	Date            time.Time
	Description     string
	DebitAccountID  *int64
	CreditAccountID *int64
	Debit           money.Amount
	Credit          money.Amount
	Currency        money.Currency
	ExchangeRate    *decimal.Decimal
	SourceType      string
	SourceID        uuid.UUID
	IsAutomatic     bool
	CreatedBy       int64
	OrganizationID  int64
	CreatedAt       time.Time
}

// LedgerFailure records an automatic entry attempt that could not be posted.
// Business events never roll back on accounting failure; the row is replayed
// by the worker and kept for manual reconciliation.
type LedgerFailure struct {
	ID             int64
	OrganizationID int64
	SourceType     string
	SourceID       uuid.UUID
	Payload        []byte
	Reason         string
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}
