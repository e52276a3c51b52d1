// Package billing holds the payment-term and bill models the cashflow
// projector reads. The projector never mutates them; their lifecycles belong
// to the surrounding CRUD layer.
package billing

import (
	"fmt"
	"time"

	"github.com/obra-erp/obra-erp/internal/money"
)

// Direction splits scheduled money movement into inflow and outflow.
type Direction string

const (
	DirectionIncome  Direction = "INCOME"
	DirectionExpense Direction = "EXPENSE"
)

// EntityKind names the counterpart of a payment term.
type EntityKind string

const (
	EntityClient   EntityKind = "CLIENT"
	EntityProvider EntityKind = "PROVIDER"
)

// Recurrence enumerates the supported installment cadences.
type Recurrence string

const (
	RecurrenceMonthly     Recurrence = "MONTHLY"
	RecurrenceBimonthly   Recurrence = "BIMONTHLY"
	RecurrenceQuarterly   Recurrence = "QUARTERLY"
	RecurrenceFourMonthly Recurrence = "FOUR_MONTHLY"
	RecurrenceSemiannual  Recurrence = "SEMIANNUAL"
	RecurrenceAnnual      Recurrence = "ANNUAL"
)

// MonthStep returns how many months separate consecutive installments.
func (r Recurrence) MonthStep() (int, error) {
	switch r {
	case RecurrenceMonthly:
		return 1, nil
	case RecurrenceBimonthly:
		return 2, nil
	case RecurrenceQuarterly:
		return 3, nil
	case RecurrenceFourMonthly:
		return 4, nil
	case RecurrenceSemiannual:
		return 6, nil
	case RecurrenceAnnual:
		return 12, nil
	}
	return 0, fmt.Errorf("billing: unknown recurrence %q", r)
}

// TermStatus enumerates payment-term lifecycle values.
type TermStatus string

const (
	TermStatusActive   TermStatus = "ACTIVE"
	TermStatusFinished TermStatus = "FINISHED"
	TermStatusPaused   TermStatus = "PAUSED"
)

// PaymentTerm is a recurring scheduled income or expense obligation.
type PaymentTerm struct {
	ID             int64
	Type           Direction
	EntityType     EntityKind
	ClientID       *int64
	ProviderID     *int64
	EntityName     string
	Amount         money.Amount
	Currency       money.Currency
	StartDate      time.Time
	Recurrence     Recurrence
	Periods        int
	Status         TermStatus
	ProjectID      *int64
	Description    string
	OrganizationID int64
}

// BillStatus enumerates bill lifecycle values.
type BillStatus string

const (
	BillStatusPending BillStatus = "PENDING"
	BillStatusPartial BillStatus = "PARTIAL"
	BillStatusSent    BillStatus = "SENT"
	BillStatusPaid    BillStatus = "PAID"
	BillStatusVoid    BillStatus = "VOID"
)

// Open reports whether the bill still participates in projection.
func (s BillStatus) Open() bool {
	switch s {
	case BillStatusPending, BillStatusPartial, BillStatusSent:
		return true
	}
	return false
}

// Bill is an invoice with payments possibly already applied against it.
type Bill struct {
	ID             int64
	Type           EntityKind
	EntityName     string
	Total          money.Amount
	Currency       money.Currency
	DueDate        time.Time
	Status         BillStatus
	Payments       []money.Amount
	ProjectID      *int64
	OrganizationID int64
}

// PendingAmount is the bill total minus the payments already applied.
func (b Bill) PendingAmount() money.Amount {
	pending := b.Total
	for _, p := range b.Payments {
		pending = pending.Sub(p)
	}
	return pending
}

// Direction maps the bill's counterpart to a cash direction: client bills
// are money coming in, provider bills money going out.
func (b Bill) Direction() Direction {
	if b.Type == EntityClient {
		return DirectionIncome
	}
	return DirectionExpense
}
