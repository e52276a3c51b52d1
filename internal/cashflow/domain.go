// Package cashflow builds forward-looking cash timelines from payment terms,
// open bills and outstanding checks. Projection is pure read/compute: nothing
// is persisted and nothing is cached between calls.
package cashflow

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/obra-erp/obra-erp/internal/billing"
	"github.com/obra-erp/obra-erp/internal/money"
)

// EventSource identifies which collaborator produced an event. The order of
// the constants is the documented tie-break for same-date events.
type EventSource int

const (
	SourcePaymentTerm EventSource = iota
	SourceBill
	SourceCheck
)

// String returns the wire name of the source.
func (s EventSource) String() string {
	switch s {
	case SourcePaymentTerm:
		return "PAYMENT_TERM"
	case SourceBill:
		return "BILL"
	case SourceCheck:
		return "CHECK"
	}
	return "UNKNOWN"
}

// MarshalText renders the source by name in JSON payloads.
func (s EventSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event is one expected cash movement in the projection timeline.
type Event struct {
	Date        time.Time
	Type        billing.Direction
	Amount      money.Amount
	Currency    money.Currency
	Source      EventSource
	SourceID    int64
	EntityKind  billing.EntityKind
	EntityName  string
	Description string
	ProjectID   *int64
	// Reference is the human identifier: a check number, a bill id, the
	// installment ordinal of a payment term.
	Reference string
}

// Filters narrows the projection. Zero values mean "no filter".
type Filters struct {
	ProjectID  *int64
	Direction  billing.Direction
	EntityKind billing.EntityKind
	Currency   money.Currency
	Search     string
}

var fold = cases.Fold()

// matches applies every requested filter uniformly across sources.
func (f Filters) matches(e Event) bool {
	if f.ProjectID != nil {
		if e.ProjectID == nil || *e.ProjectID != *f.ProjectID {
			return false
		}
	}
	if f.Direction != "" && e.Type != f.Direction {
		return false
	}
	if f.EntityKind != "" && e.EntityKind != f.EntityKind {
		return false
	}
	if f.Currency != "" && e.Currency != f.Currency {
		return false
	}
	if f.Search != "" {
		needle := fold.String(f.Search)
		haystack := fold.String(strings.Join([]string{
			e.EntityName,
			e.Description,
			e.Reference,
			e.Amount.StringFixed(2),
			e.Date.Format("2006-01-02"),
		}, "\n"))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

// SkippedItem reports a projection input that could not be expanded. It is a
// warning, never fatal to the projection.
type SkippedItem struct {
	Source   EventSource `json:"source"`
	SourceID int64       `json:"source_id"`
	Reason   string      `json:"reason"`
}

// MonthlySummary aggregates the filtered timeline for one calendar month.
type MonthlySummary struct {
	Month        string
	TotalIncome  money.Amount
	TotalExpense money.Amount
	ByCurrency   map[money.Currency]*DirectionTotals
}

// DirectionTotals accumulates income and expense for one currency.
type DirectionTotals struct {
	Income  money.Amount
	Expense money.Amount
}

// Net is income minus expense.
func (t DirectionTotals) Net() money.Amount {
	return t.Income.Sub(t.Expense)
}

// Projection is the full result of one cashflow run.
type Projection struct {
	Timeline         []Event
	MonthlySummaries []MonthlySummary
	TotalsByCurrency map[money.Currency]*DirectionTotals
	Skipped          []SkippedItem
}
