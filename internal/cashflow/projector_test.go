package cashflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-erp/obra-erp/internal/billing"
	"github.com/obra-erp/obra-erp/internal/money"
	"github.com/obra-erp/obra-erp/internal/treasury/checks"
)

var today = time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

func amt(t *testing.T, raw string) money.Amount {
	t.Helper()
	a, err := money.FromString(raw)
	require.NoError(t, err)
	return a
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyTerm(t *testing.T, id int64, amount string, start time.Time, periods int) billing.PaymentTerm {
	t.Helper()
	return billing.PaymentTerm{
		ID:             id,
		Type:           billing.DirectionIncome,
		EntityType:     billing.EntityClient,
		EntityName:     "Constructora Sur",
		Amount:         amt(t, amount),
		Currency:       money.ARS,
		StartDate:      start,
		Recurrence:     billing.RecurrenceMonthly,
		Periods:        periods,
		Status:         billing.TermStatusActive,
		OrganizationID: 1,
	}
}

func TestHorizonWindow(t *testing.T) {
	w := HorizonWindow(time.Date(2025, time.March, 15, 13, 42, 7, 0, time.UTC), 12)
	assert.Equal(t, date(2025, time.March, 15), w.From)
	assert.Equal(t, date(2026, time.March, 31), w.To)

	assert.True(t, w.Contains(w.From))
	assert.True(t, w.Contains(w.To))
	assert.False(t, w.Contains(date(2025, time.March, 14)))
	assert.False(t, w.Contains(date(2026, time.April, 1)))
}

func TestMonthlyTermExpandsOneEventPerPeriod(t *testing.T) {
	p := NewProjector(HorizonWindow(today, 12))
	term := monthlyTerm(t, 7, "1000.00", today, 12)

	result := p.Project([]billing.PaymentTerm{term}, nil, nil, Filters{})

	require.Len(t, result.Timeline, 12)
	for i, e := range result.Timeline {
		assert.Equal(t, date(2025, time.March+time.Month(i), 15), e.Date)
		assert.Equal(t, billing.DirectionIncome, e.Type)
		assert.True(t, e.Amount.Equal(amt(t, "1000.00")))
	}
	assert.Equal(t, "1/12", result.Timeline[0].Reference)
	assert.Equal(t, "12/12", result.Timeline[11].Reference)
}

func TestPastInstallmentsAreDropped(t *testing.T) {
	p := NewProjector(HorizonWindow(today, 12))
	// Started three months ago: installments 1-3 are history, 4 is due today.
	term := monthlyTerm(t, 7, "1000.00", date(2024, time.December, 15), 6)

	result := p.Project([]billing.PaymentTerm{term}, nil, nil, Filters{})

	require.Len(t, result.Timeline, 3)
	assert.Equal(t, today, result.Timeline[0].Date)
	assert.Equal(t, "4/6", result.Timeline[0].Reference)
	assert.Equal(t, date(2025, time.May, 15), result.Timeline[2].Date)
}

func TestInstallmentsBeyondHorizonAreDropped(t *testing.T) {
	p := NewProjector(HorizonWindow(today, 3))
	term := monthlyTerm(t, 7, "1000.00", today, 24)

	result := p.Project([]billing.PaymentTerm{term}, nil, nil, Filters{})

	// Window ends 2025-06-30, so only March through June installments fit.
	require.Len(t, result.Timeline, 4)
	assert.Equal(t, date(2025, time.June, 15), result.Timeline[3].Date)
}

func TestMonthEndStartClampsShortMonths(t *testing.T) {
	p := NewProjector(HorizonWindow(date(2025, time.January, 31), 4))
	term := monthlyTerm(t, 7, "1000.00", date(2025, time.January, 31), 3)

	result := p.Project([]billing.PaymentTerm{term}, nil, nil, Filters{})

	require.Len(t, result.Timeline, 3)
	assert.Equal(t, date(2025, time.January, 31), result.Timeline[0].Date)
	assert.Equal(t, date(2025, time.February, 28), result.Timeline[1].Date)
	assert.Equal(t, date(2025, time.March, 31), result.Timeline[2].Date)
}

func TestQuarterlyRecurrenceSteps(t *testing.T) {
	p := NewProjector(HorizonWindow(today, 12))
	term := monthlyTerm(t, 7, "1000.00", today, 4)
	term.Recurrence = billing.RecurrenceQuarterly

	result := p.Project([]billing.PaymentTerm{term}, nil, nil, Filters{})

	require.Len(t, result.Timeline, 4)
	assert.Equal(t, date(2025, time.June, 15), result.Timeline[1].Date)
	assert.Equal(t, date(2025, time.December, 15), result.Timeline[3].Date)
}

func TestUnknownRecurrenceSkipsTermNotProjection(t *testing.T) {
	p := NewProjector(HorizonWindow(today, 12))
	bad := monthlyTerm(t, 9, "500.00", today, 3)
	bad.Recurrence = billing.Recurrence("WEEKLY")
	good := monthlyTerm(t, 10, "1000.00", today, 1)

	result := p.Project([]billing.PaymentTerm{bad, good}, nil, nil, Filters{})

	require.Len(t, result.Timeline, 1)
	assert.Equal(t, int64(10), result.Timeline[0].SourceID)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, SourcePaymentTerm, result.Skipped[0].Source)
	assert.Equal(t, int64(9), result.Skipped[0].SourceID)
	assert.Contains(t, result.Skipped[0].Reason, "WEEKLY")
}

func TestBillProjectsPendingRemainder(t *testing.T) {
	p := NewProjector(HorizonWindow(today, 12))
	bill := billing.Bill{
		ID:             21,
		Type:           billing.EntityProvider,
		EntityName:     "Corralon Norte",
		Total:          amt(t, "500.00"),
		Currency:       money.ARS,
		DueDate:        date(2025, time.April, 10),
		Status:         billing.BillStatusPartial,
		Payments:       []money.Amount{amt(t, "200.00")},
		OrganizationID: 1,
	}

	result := p.Project(nil, []billing.Bill{bill}, nil, Filters{})

	require.Len(t, result.Timeline, 1)
	e := result.Timeline[0]
	assert.True(t, e.Amount.Equal(amt(t, "300.00")))
	assert.Equal(t, billing.DirectionExpense, e.Type)
	assert.Equal(t, SourceBill, e.Source)
	assert.Equal(t, billing.EntityProvider, e.EntityKind)
}

func TestFullyPaidBillIsExcluded(t *testing.T) {
	p := NewProjector(HorizonWindow(today, 12))
	bill := billing.Bill{
		ID:       21,
		Type:     billing.EntityClient,
		Total:    amt(t, "500.00"),
		Currency: money.ARS,
		DueDate:  date(2025, time.April, 10),
		Status:   billing.BillStatusSent,
		Payments: []money.Amount{amt(t, "400.00"), amt(t, "100.00")},
	}

	result := p.Project(nil, []billing.Bill{bill}, nil, Filters{})
	assert.Empty(t, result.Timeline)
}

func TestOutstandingCheckProjectsAsIncome(t *testing.T) {
	p := NewProjector(HorizonWindow(today, 12))
	pending := checks.Check{
		ID:          31,
		CheckNumber: "00012345",
		Amount:      amt(t, "7500.00"),
		Currency:    money.ARS,
		DueDate:     date(2025, time.May, 2),
		Status:      checks.StatusPending,
		IssuerName:  "Banco Rio",
	}
	cleared := pending
	cleared.ID = 32
	cleared.Status = checks.StatusCleared

	result := p.Project(nil, nil, []checks.Check{pending, cleared}, Filters{})

	require.Len(t, result.Timeline, 1)
	assert.Equal(t, int64(31), result.Timeline[0].SourceID)
	assert.Equal(t, billing.DirectionIncome, result.Timeline[0].Type)
	assert.Equal(t, "00012345", result.Timeline[0].Reference)
}

func TestSameDateEventsKeepSourceOrder(t *testing.T) {
	due := date(2025, time.April, 10)
	p := NewProjector(HorizonWindow(today, 12))
	term := monthlyTerm(t, 7, "1000.00", due, 1)
	bill := billing.Bill{
		ID: 21, Type: billing.EntityClient, Total: amt(t, "500.00"),
		Currency: money.ARS, DueDate: due, Status: billing.BillStatusPending,
	}
	check := checks.Check{
		ID: 31, CheckNumber: "1", Amount: amt(t, "100.00"),
		Currency: money.ARS, DueDate: due, Status: checks.StatusIssued,
	}

	// Feed checks first to prove ordering is by source, not input order.
	result := p.Project([]billing.PaymentTerm{term}, []billing.Bill{bill}, []checks.Check{check}, Filters{})

	require.Len(t, result.Timeline, 3)
	assert.Equal(t, SourcePaymentTerm, result.Timeline[0].Source)
	assert.Equal(t, SourceBill, result.Timeline[1].Source)
	assert.Equal(t, SourceCheck, result.Timeline[2].Source)
}

func TestUSDTimelineAndTotals(t *testing.T) {
	p := NewProjector(HorizonWindow(today, 12))
	term := monthlyTerm(t, 7, "1000.00", today, 3)
	term.Currency = money.USD

	result := p.Project([]billing.PaymentTerm{term}, nil, nil, Filters{})

	require.Len(t, result.Timeline, 3)
	require.Len(t, result.MonthlySummaries, 3)
	assert.Equal(t, "2025-03", result.MonthlySummaries[0].Month)
	assert.Equal(t, "2025-05", result.MonthlySummaries[2].Month)
	for _, m := range result.MonthlySummaries {
		assert.True(t, m.TotalIncome.Equal(amt(t, "1000.00")))
		assert.True(t, m.TotalExpense.IsZero())
	}

	totals := result.TotalsByCurrency[money.USD]
	require.NotNil(t, totals)
	assert.True(t, totals.Income.Equal(amt(t, "3000.00")))
	assert.True(t, totals.Expense.IsZero())
	assert.True(t, totals.Net().Equal(amt(t, "3000.00")))
}

func TestCurrenciesNeverMix(t *testing.T) {
	due := date(2025, time.April, 10)
	p := NewProjector(HorizonWindow(today, 12))
	ars := monthlyTerm(t, 7, "1000.00", due, 1)
	usd := monthlyTerm(t, 8, "200.00", due, 1)
	usd.Currency = money.USD
	usd.Type = billing.DirectionExpense

	result := p.Project([]billing.PaymentTerm{ars, usd}, nil, nil, Filters{})

	require.Len(t, result.TotalsByCurrency, 2)
	assert.True(t, result.TotalsByCurrency[money.ARS].Income.Equal(amt(t, "1000.00")))
	assert.True(t, result.TotalsByCurrency[money.USD].Expense.Equal(amt(t, "200.00")))

	m := result.MonthlySummaries[0]
	assert.True(t, m.TotalIncome.Equal(amt(t, "1000.00")))
	assert.True(t, m.TotalExpense.Equal(amt(t, "200.00")))
	assert.True(t, m.ByCurrency[money.USD].Expense.Equal(amt(t, "200.00")))
}

func TestFilters(t *testing.T) {
	due := date(2025, time.April, 10)
	projectID := int64(3)
	p := NewProjector(HorizonWindow(today, 12))
	client := monthlyTerm(t, 7, "1000.00", due, 1)
	provider := monthlyTerm(t, 8, "400.00", due, 1)
	provider.Type = billing.DirectionExpense
	provider.EntityType = billing.EntityProvider
	provider.EntityName = "Ferretería Centro"
	provider.ProjectID = &projectID

	base := []billing.PaymentTerm{client, provider}

	t.Run("by direction", func(t *testing.T) {
		result := p.Project(base, nil, nil, Filters{Direction: billing.DirectionExpense})
		require.Len(t, result.Timeline, 1)
		assert.Equal(t, int64(8), result.Timeline[0].SourceID)
	})
	t.Run("by entity kind", func(t *testing.T) {
		result := p.Project(base, nil, nil, Filters{EntityKind: billing.EntityClient})
		require.Len(t, result.Timeline, 1)
		assert.Equal(t, int64(7), result.Timeline[0].SourceID)
	})
	t.Run("by project", func(t *testing.T) {
		result := p.Project(base, nil, nil, Filters{ProjectID: &projectID})
		require.Len(t, result.Timeline, 1)
		assert.Equal(t, int64(8), result.Timeline[0].SourceID)
	})
	t.Run("search folds case", func(t *testing.T) {
		result := p.Project(base, nil, nil, Filters{Search: "FERRETERÍA"})
		require.Len(t, result.Timeline, 1)
		assert.Equal(t, int64(8), result.Timeline[0].SourceID)
	})
	t.Run("search misses", func(t *testing.T) {
		result := p.Project(base, nil, nil, Filters{Search: "no existe"})
		assert.Empty(t, result.Timeline)
	})
	t.Run("filtered events leave totals", func(t *testing.T) {
		result := p.Project(base, nil, nil, Filters{Direction: billing.DirectionIncome})
		_, hasExpenseCurrency := result.TotalsByCurrency[money.ARS]
		require.True(t, hasExpenseCurrency)
		assert.True(t, result.TotalsByCurrency[money.ARS].Expense.IsZero())
	})
}
