package balances

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-erp/obra-erp/internal/shared"
)

// Repository encapsulates DB operations for cached account balances.
type Repository interface {
	// ApplyIncrement upserts the key and adds the signed delta atomically,
	// returning the resulting balance.
	ApplyIncrement(ctx context.Context, in Increment) (Balance, error)
	Get(ctx context.Context, orgID, accountID int64, kind Kind, currency string) (Balance, error)
	ListForOrganization(ctx context.Context, orgID int64) ([]Balance, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ApplyIncrement(ctx context.Context, in Increment) (Balance, error) {
	var b Balance
	err := r.db.QueryRow(ctx, `INSERT INTO account_balances (account_id, account_type, currency, organization_id, balance, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (account_id, account_type, currency)
DO UPDATE SET balance = account_balances.balance + EXCLUDED.balance, updated_at = NOW()
RETURNING account_id, account_type, currency, balance, organization_id, updated_at`,
		in.AccountID, in.Kind, in.Currency, in.OrganizationID, in.Delta).
		Scan(&b.AccountID, &b.Kind, &b.Currency, &b.Balance, &b.OrganizationID, &b.UpdatedAt)
	if err != nil {
		return Balance{}, err
	}
	return b, nil
}

func (r *repository) Get(ctx context.Context, orgID, accountID int64, kind Kind, currency string) (Balance, error) {
	var b Balance
	err := r.db.QueryRow(ctx, `SELECT account_id, account_type, currency, balance, organization_id, updated_at
FROM account_balances WHERE account_id=$1 AND account_type=$2 AND currency=$3 AND organization_id=$4`,
		accountID, kind, currency, orgID).
		Scan(&b.AccountID, &b.Kind, &b.Currency, &b.Balance, &b.OrganizationID, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, shared.ErrNotFound
		}
		return Balance{}, err
	}
	return b, nil
}

func (r *repository) ListForOrganization(ctx context.Context, orgID int64) ([]Balance, error) {
	rows, err := r.db.Query(ctx, `SELECT account_id, account_type, currency, balance, organization_id, updated_at
FROM account_balances WHERE organization_id=$1 ORDER BY account_id, account_type, currency`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var balances []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.AccountID, &b.Kind, &b.Currency, &b.Balance, &b.OrganizationID, &b.UpdatedAt); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
