package checks

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-erp/obra-erp/internal/shared"
)

// Repository encapsulates DB operations for checks.
type Repository interface {
	Get(ctx context.Context, orgID, checkID int64) (Check, error)
	// UpdateStatus flips the status only when the row still holds expected;
	// a raced transition surfaces as ErrConcurrency.
	UpdateStatus(ctx context.Context, orgID, checkID int64, expected, next CheckStatus, clearedFrom *CheckStatus) error
	Delete(ctx context.Context, orgID, checkID int64) error
	ListPendingOrIssued(ctx context.Context, orgID int64, dueBefore time.Time) ([]Check, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const checkColumns = `id, check_number, amount, currency, due_date, status, issuer_name, issuer_bank,
cash_box_id, bank_account_id, organization_id, project_id, cleared_from, created_at, updated_at`

func scanCheck(row pgx.Row) (Check, error) {
	var c Check
	err := row.Scan(&c.ID, &c.CheckNumber, &c.Amount, &c.Currency, &c.DueDate, &c.Status, &c.IssuerName,
		&c.IssuerBank, &c.CashBoxID, &c.BankAccountID, &c.OrganizationID, &c.ProjectID, &c.ClearedFrom,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) Get(ctx context.Context, orgID, checkID int64) (Check, error) {
	c, err := scanCheck(r.db.QueryRow(ctx, `SELECT `+checkColumns+`
FROM checks WHERE id=$1 AND organization_id=$2`, checkID, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Check{}, shared.ErrNotFound
		}
		return Check{}, err
	}
	return c, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orgID, checkID int64, expected, next CheckStatus, clearedFrom *CheckStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE checks SET status=$4, cleared_from=COALESCE($5, cleared_from), updated_at=NOW()
WHERE id=$1 AND organization_id=$2 AND status=$3`, checkID, orgID, expected, next, clearedFrom)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrConcurrency
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, orgID, checkID int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM checks WHERE id=$1 AND organization_id=$2`, checkID, orgID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListPendingOrIssued(ctx context.Context, orgID int64, dueBefore time.Time) ([]Check, error) {
	rows, err := r.db.Query(ctx, `SELECT `+checkColumns+`
FROM checks WHERE organization_id=$1 AND status IN ('PENDING','ISSUED') AND due_date <= $2
ORDER BY due_date, id`, orgID, dueBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Check
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
