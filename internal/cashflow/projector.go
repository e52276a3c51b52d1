package cashflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/obra-erp/obra-erp/internal/billing"
	"github.com/obra-erp/obra-erp/internal/money"
	"github.com/obra-erp/obra-erp/internal/treasury/checks"
)

// Window is the inclusive date range a projection covers.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether d falls inside the window. Inputs are compared at
// date granularity; callers must normalize with DateOnly first.
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.From) && !d.After(w.To)
}

// DateOnly strips the clock and timezone from t.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// HorizonWindow builds the projection window: from today through the last
// calendar day of the month horizonMonths ahead. Events due earlier today are
// still expected; events due yesterday are not.
func HorizonWindow(today time.Time, horizonMonths int) Window {
	from := DateOnly(today)
	firstOfMonth := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	// First day of the month after the horizon, minus one day.
	to := firstOfMonth.AddDate(0, horizonMonths+1, 0).AddDate(0, 0, -1)
	return Window{From: from, To: to}
}

// addMonths advances d by n months clamping to the last day of the target
// month, so a term starting Jan 31 lands on Feb 28 rather than Mar 3.
func addMonths(d time.Time, n int) time.Time {
	firstOfTarget := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}

// Projector expands raw inputs into a filtered, sorted, aggregated timeline.
type Projector struct {
	window Window
}

// NewProjector builds a projector for one window.
func NewProjector(window Window) *Projector {
	return &Projector{window: window}
}

// Project runs the full pipeline over the already-loaded inputs.
func (p *Projector) Project(terms []billing.PaymentTerm, bills []billing.Bill, outstanding []checks.Check, filters Filters) Projection {
	result := Projection{
		Timeline:         []Event{},
		TotalsByCurrency: map[money.Currency]*DirectionTotals{},
	}

	for _, term := range terms {
		events, err := p.expandTerm(term)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedItem{
				Source:   SourcePaymentTerm,
				SourceID: term.ID,
				Reason:   err.Error(),
			})
			continue
		}
		result.Timeline = append(result.Timeline, events...)
	}
	for _, bill := range bills {
		if e, ok := p.billEvent(bill); ok {
			result.Timeline = append(result.Timeline, e)
		}
	}
	for _, check := range outstanding {
		if e, ok := p.checkEvent(check); ok {
			result.Timeline = append(result.Timeline, e)
		}
	}

	filtered := result.Timeline[:0]
	for _, e := range result.Timeline {
		if filters.matches(e) {
			filtered = append(filtered, e)
		}
	}
	result.Timeline = filtered

	sort.SliceStable(result.Timeline, func(i, j int) bool {
		a, b := result.Timeline[i], result.Timeline[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Source < b.Source
	})

	result.MonthlySummaries = summarizeMonths(result.Timeline)
	for _, e := range result.Timeline {
		accumulate(result.TotalsByCurrency, e)
	}
	return result
}

// expandTerm produces one event per installment that falls inside the window.
// Installments already in the past are dropped silently; an unparsable
// recurrence skips the whole term.
func (p *Projector) expandTerm(term billing.PaymentTerm) ([]Event, error) {
	step, err := term.Recurrence.MonthStep()
	if err != nil {
		return nil, err
	}
	if term.Periods <= 0 {
		return nil, fmt.Errorf("billing: payment term has %d periods", term.Periods)
	}
	start := DateOnly(term.StartDate)
	var events []Event
	for i := 0; i < term.Periods; i++ {
		due := addMonths(start, i*step)
		if due.After(p.window.To) {
			break
		}
		if !p.window.Contains(due) {
			continue
		}
		events = append(events, Event{
			Date:        due,
			Type:        term.Type,
			Amount:      term.Amount,
			Currency:    term.Currency,
			Source:      SourcePaymentTerm,
			SourceID:    term.ID,
			EntityKind:  term.EntityType,
			EntityName:  term.EntityName,
			Description: term.Description,
			ProjectID:   term.ProjectID,
			Reference:   fmt.Sprintf("%d/%d", i+1, term.Periods),
		})
	}
	return events, nil
}

// billEvent projects the unpaid remainder of an open bill on its due date.
func (p *Projector) billEvent(bill billing.Bill) (Event, bool) {
	if !bill.Status.Open() {
		return Event{}, false
	}
	pending := bill.PendingAmount()
	if !pending.IsPositive() {
		return Event{}, false
	}
	due := DateOnly(bill.DueDate)
	if !p.window.Contains(due) {
		return Event{}, false
	}
	return Event{
		Date:        due,
		Type:        bill.Direction(),
		Amount:      pending,
		Currency:    bill.Currency,
		Source:      SourceBill,
		SourceID:    bill.ID,
		EntityKind:  bill.Type,
		EntityName:  bill.EntityName,
		Description: fmt.Sprintf("Factura #%d", bill.ID),
		ProjectID:   bill.ProjectID,
		Reference:   fmt.Sprintf("#%d", bill.ID),
	}, true
}

// checkEvent projects an outstanding check on its due date. Checks in the
// wallet are projected as income regardless of direction; cleared, rejected
// and cancelled checks never reach the projector.
func (p *Projector) checkEvent(check checks.Check) (Event, bool) {
	if check.Status != checks.StatusPending && check.Status != checks.StatusIssued {
		return Event{}, false
	}
	due := DateOnly(check.DueDate)
	if !p.window.Contains(due) {
		return Event{}, false
	}
	return Event{
		Date:        due,
		Type:        billing.DirectionIncome,
		Amount:      check.Amount,
		Currency:    check.Currency,
		Source:      SourceCheck,
		SourceID:    check.ID,
		EntityName:  check.IssuerName,
		Description: fmt.Sprintf("Cheque %s %s", check.CheckNumber, check.IssuerBank),
		ProjectID:   check.ProjectID,
		Reference:   check.CheckNumber,
	}, true
}

// summarizeMonths folds a sorted timeline into one summary per calendar month,
// ordered chronologically. Months without events are omitted.
func summarizeMonths(timeline []Event) []MonthlySummary {
	var out []MonthlySummary
	index := map[string]int{}
	for _, e := range timeline {
		key := e.Date.Format("2006-01")
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, MonthlySummary{
				Month:        key,
				TotalIncome:  money.Zero(),
				TotalExpense: money.Zero(),
				ByCurrency:   map[money.Currency]*DirectionTotals{},
			})
		}
		if e.Type == billing.DirectionIncome {
			out[i].TotalIncome = out[i].TotalIncome.Add(e.Amount)
		} else {
			out[i].TotalExpense = out[i].TotalExpense.Add(e.Amount)
		}
		accumulate(out[i].ByCurrency, e)
	}
	return out
}

func accumulate(totals map[money.Currency]*DirectionTotals, e Event) {
	t, ok := totals[e.Currency]
	if !ok {
		t = &DirectionTotals{Income: money.Zero(), Expense: money.Zero()}
		totals[e.Currency] = t
	}
	if e.Type == billing.DirectionIncome {
		t.Income = t.Income.Add(e.Amount)
	} else {
		t.Expense = t.Expense.Add(e.Amount)
	}
}
