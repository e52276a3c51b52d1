package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-erp/obra-erp/internal/accounting/shared"
	internalShared "github.com/obra-erp/obra-erp/internal/shared"
)

// Repository encapsulates DB operations for the chart of accounts and its
// category (rubro) mappings.
type Repository interface {
	List(ctx context.Context, orgID int64) ([]Account, error)
	GetActive(ctx context.Context, orgID, accountID int64) (Account, error)
	GetByCode(ctx context.Context, orgID int64, code string) (Account, error)
	GetActiveBySubtype(ctx context.Context, orgID int64, subtype string) (Account, error)
	Insert(ctx context.Context, account Account) (Account, error)
	CountForOrganization(ctx context.Context, orgID int64) (int64, error)
	GetCategoryMapping(ctx context.Context, orgID int64, category string, isIncome bool) (int64, error)
	UpsertCategoryMapping(ctx context.Context, orgID int64, category string, isIncome bool, accountID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func errDuplicateCode(code string) error {
	return fmt.Errorf("accounts: code %q already exists: %w", code, internalShared.ErrValidation)
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, orgID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, type, subtype, parent_id, organization_id, is_active, created_at, updated_at
FROM accounts WHERE organization_id=$1 ORDER BY code`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Subtype, &a.ParentID, &a.OrganizationID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) GetActive(ctx context.Context, orgID, accountID int64) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT id, code, name, type, subtype, parent_id, organization_id, is_active, created_at, updated_at
FROM accounts WHERE id=$1 AND organization_id=$2 AND is_active`, accountID, orgID).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Subtype, &a.ParentID, &a.OrganizationID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) GetByCode(ctx context.Context, orgID int64, code string) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT id, code, name, type, subtype, parent_id, organization_id, is_active, created_at, updated_at
FROM accounts WHERE organization_id=$1 AND code=$2`, orgID, code).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Subtype, &a.ParentID, &a.OrganizationID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) GetActiveBySubtype(ctx context.Context, orgID int64, subtype string) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT id, code, name, type, subtype, parent_id, organization_id, is_active, created_at, updated_at
FROM accounts WHERE organization_id=$1 AND subtype=$2 AND is_active ORDER BY code LIMIT 1`, orgID, subtype).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Subtype, &a.ParentID, &a.OrganizationID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) Insert(ctx context.Context, account Account) (Account, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO accounts (code, name, type, subtype, parent_id, organization_id, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at, updated_at`,
		account.Code, account.Name, account.Type, account.Subtype, account.ParentID, account.OrganizationID, account.IsActive).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_accounts_org_code" {
			return Account{}, errDuplicateCode(account.Code)
		}
		return Account{}, err
	}
	return account, nil
}

func (r *repository) CountForOrganization(ctx context.Context, orgID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE organization_id=$1`, orgID).Scan(&count)
	return count, err
}

func (r *repository) GetCategoryMapping(ctx context.Context, orgID int64, category string, isIncome bool) (int64, error) {
	var accountID int64
	err := r.db.QueryRow(ctx, `SELECT account_id FROM account_category_mappings
WHERE organization_id=$1 AND category=$2 AND is_income=$3`, orgID, category, isIncome).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrMappingNotFound
		}
		return 0, err
	}
	return accountID, nil
}

func (r *repository) UpsertCategoryMapping(ctx context.Context, orgID int64, category string, isIncome bool, accountID int64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO account_category_mappings (organization_id, category, is_income, account_id)
VALUES ($1,$2,$3,$4)
ON CONFLICT (organization_id, category, is_income) DO UPDATE SET account_id=EXCLUDED.account_id`,
		orgID, category, isIncome, accountID)
	return err
}
