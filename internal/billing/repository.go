package billing

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-erp/obra-erp/internal/money"
)

// Repository exposes the read-side queries the cashflow projector needs.
type Repository interface {
	ListActivePaymentTerms(ctx context.Context, orgID int64) ([]PaymentTerm, error)
	ListOpenBills(ctx context.Context, orgID int64, dueBefore time.Time) ([]Bill, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListActivePaymentTerms(ctx context.Context, orgID int64) ([]PaymentTerm, error) {
	rows, err := r.db.Query(ctx, `SELECT pt.id, pt.type, pt.entity_type, pt.client_id, pt.provider_id,
COALESCE(c.name, p.name, ''), pt.amount, pt.currency, pt.start_date, pt.recurrence, pt.periods,
pt.status, pt.project_id, pt.description, pt.organization_id
FROM payment_terms pt
LEFT JOIN clients c ON c.id = pt.client_id
LEFT JOIN providers p ON p.id = pt.provider_id
WHERE pt.organization_id=$1 AND pt.status='ACTIVE'
ORDER BY pt.start_date, pt.id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var terms []PaymentTerm
	for rows.Next() {
		var t PaymentTerm
		err := rows.Scan(&t.ID, &t.Type, &t.EntityType, &t.ClientID, &t.ProviderID, &t.EntityName,
			&t.Amount, &t.Currency, &t.StartDate, &t.Recurrence, &t.Periods, &t.Status,
			&t.ProjectID, &t.Description, &t.OrganizationID)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

func (r *repository) ListOpenBills(ctx context.Context, orgID int64, dueBefore time.Time) ([]Bill, error) {
	rows, err := r.db.Query(ctx, `SELECT b.id, b.type, COALESCE(c.name, p.name, ''), b.total, b.currency,
b.due_date, b.status, b.project_id, b.organization_id,
COALESCE((SELECT SUM(bp.amount) FROM bill_payments bp WHERE bp.bill_id = b.id), 0)
FROM bills b
LEFT JOIN clients c ON c.id = b.client_id
LEFT JOIN providers p ON p.id = b.provider_id
WHERE b.organization_id=$1 AND b.status IN ('PENDING','PARTIAL','SENT') AND b.due_date <= $2
ORDER BY b.due_date, b.id`, orgID, dueBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bills []Bill
	for rows.Next() {
		var b Bill
		var paid money.Amount
		err := rows.Scan(&b.ID, &b.Type, &b.EntityName, &b.Total, &b.Currency, &b.DueDate, &b.Status,
			&b.ProjectID, &b.OrganizationID, &paid)
		if err != nil {
			return nil, err
		}
		if !paid.IsZero() {
			b.Payments = []money.Amount{paid}
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}
