package checks

import (
	"time"

	"github.com/obra-erp/obra-erp/internal/money"
)

// CheckStatus enumerates the check lifecycle.
type CheckStatus string

const (
	// StatusIssued marks a check this organization wrote.
	StatusIssued CheckStatus = "ISSUED"
	// StatusPending marks a third-party check this organization is collecting.
	StatusPending CheckStatus = "PENDING"
	// StatusCleared is terminal: money has moved and the ledger plus the
	// balance cache already reflect it.
	StatusCleared   CheckStatus = "CLEARED"
	StatusRejected  CheckStatus = "REJECTED"
	StatusCancelled CheckStatus = "CANCELLED"
)

// Valid reports whether the status is a known lifecycle value.
func (s CheckStatus) Valid() bool {
	switch s {
	case StatusIssued, StatusPending, StatusCleared, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s CheckStatus) Terminal() bool {
	switch s {
	case StatusCleared, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Check models a physical check in or out of the organization's treasury.
// Exactly one of CashBoxID/BankAccountID names the treasury account the money
// moves through when the check clears.
type Check struct {
	ID             int64
	CheckNumber    string
	Amount         money.Amount
	Currency       money.Currency
	DueDate        time.Time
	Status         CheckStatus
	IssuerName     string
	IssuerBank     string
	CashBoxID      *int64
	BankAccountID  *int64
	OrganizationID int64
	ProjectID      *int64
	// ClearedFrom records the pre-clear status so a later deletion can
	// reconstruct and negate the exact balance increment clearing applied.
	ClearedFrom *CheckStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
