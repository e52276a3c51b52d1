package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-erp/obra-erp/internal/accounting/accounts"
	"github.com/obra-erp/obra-erp/internal/accounting/shared"
)

// Repository encapsulates DB operations for the ledger.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListBySource(ctx context.Context, orgID int64, sourceType string, sourceID uuid.UUID) ([]JournalEntry, error)
	OrganizationAccountingEnabled(ctx context.Context, orgID int64) (bool, error)
	InsertFailure(ctx context.Context, failure LedgerFailure) (LedgerFailure, error)
	GetFailure(ctx context.Context, failureID int64) (LedgerFailure, error)
	ListUnresolvedFailures(ctx context.Context, limit int) ([]LedgerFailure, error)
	MarkFailureResolved(ctx context.Context, failureID int64) error
}

// TxRepository exposes the operations available inside a posting transaction.
type TxRepository interface {
	// NextEntryNumber atomically advances the organization's sequence. The
	// upsert-with-increment serializes concurrent postings on the sequence
	// row, which closes the read-max-then-write race.
	NextEntryNumber(ctx context.Context, orgID int64) (string, error)
	GetActiveAccount(ctx context.Context, orgID, accountID int64) (accounts.Account, error)
	InsertEntry(ctx context.Context, entry JournalEntry, legIndex int) (JournalEntry, error)
	DeleteBySource(ctx context.Context, orgID int64, sourceType string, sourceID uuid.UUID) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const entryColumns = `id, entry_number, date, description, debit_account_id, credit_account_id,
debit, credit, currency, exchange_rate, source_type, source_id, is_automatic, created_by, organization_id, created_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.EntryNumber, &e.Date, &e.Description, &e.DebitAccountID, &e.CreditAccountID,
		&e.Debit, &e.Credit, &e.Currency, &e.ExchangeRate, &e.SourceType, &e.SourceID, &e.IsAutomatic,
		&e.CreatedBy, &e.OrganizationID, &e.CreatedAt)
	return e, err
}

func (r *repository) ListBySource(ctx context.Context, orgID int64, sourceType string, sourceID uuid.UUID) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+`
FROM journal_entries WHERE organization_id=$1 AND source_type=$2 AND source_id=$3 ORDER BY id ASC`,
		orgID, sourceType, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) OrganizationAccountingEnabled(ctx context.Context, orgID int64) (bool, error) {
	var enabled bool
	err := r.db.QueryRow(ctx, `SELECT accounting_enabled FROM organizations WHERE id=$1`, orgID).Scan(&enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, shared.ErrOrganizationNotFound
		}
		return false, err
	}
	return enabled, nil
}

func (r *repository) InsertFailure(ctx context.Context, failure LedgerFailure) (LedgerFailure, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO ledger_failures (organization_id, source_type, source_id, payload, reason)
VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at`,
		failure.OrganizationID, failure.SourceType, failure.SourceID, failure.Payload, failure.Reason).
		Scan(&failure.ID, &failure.CreatedAt)
	if err != nil {
		return LedgerFailure{}, err
	}
	return failure, nil
}

func (r *repository) GetFailure(ctx context.Context, failureID int64) (LedgerFailure, error) {
	var f LedgerFailure
	err := r.db.QueryRow(ctx, `SELECT id, organization_id, source_type, source_id, payload, reason, created_at, resolved_at
FROM ledger_failures WHERE id=$1`, failureID).
		Scan(&f.ID, &f.OrganizationID, &f.SourceType, &f.SourceID, &f.Payload, &f.Reason, &f.CreatedAt, &f.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LedgerFailure{}, shared.ErrEntryNotFound
		}
		return LedgerFailure{}, err
	}
	return f, nil
}

func (r *repository) ListUnresolvedFailures(ctx context.Context, limit int) ([]LedgerFailure, error) {
	rows, err := r.db.Query(ctx, `SELECT id, organization_id, source_type, source_id, payload, reason, created_at, resolved_at
FROM ledger_failures WHERE resolved_at IS NULL ORDER BY id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var failures []LedgerFailure
	for rows.Next() {
		var f LedgerFailure
		if err := rows.Scan(&f.ID, &f.OrganizationID, &f.SourceType, &f.SourceID, &f.Payload, &f.Reason, &f.CreatedAt, &f.ResolvedAt); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

func (r *repository) MarkFailureResolved(ctx context.Context, failureID int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE ledger_failures SET resolved_at=NOW() WHERE id=$1 AND resolved_at IS NULL`, failureID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) NextEntryNumber(ctx context.Context, orgID int64) (string, error) {
	var number int64
	err := r.tx.QueryRow(ctx, `INSERT INTO entry_sequences (organization_id, last_number) VALUES ($1, 1)
ON CONFLICT (organization_id) DO UPDATE SET last_number = entry_sequences.last_number + 1
RETURNING last_number`, orgID).Scan(&number)
	if err != nil {
		return "", err
	}
	return FormatEntryNumber(number), nil
}

func (r *txRepository) GetActiveAccount(ctx context.Context, orgID, accountID int64) (accounts.Account, error) {
	var a accounts.Account
	err := r.tx.QueryRow(ctx, `SELECT id, code, name, type, subtype, parent_id, organization_id, is_active, created_at, updated_at
FROM accounts WHERE id=$1 AND organization_id=$2 AND is_active`, accountID, orgID).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Subtype, &a.ParentID, &a.OrganizationID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) InsertEntry(ctx context.Context, entry JournalEntry, legIndex int) (JournalEntry, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO journal_entries
(entry_number, leg_index, date, description, debit_account_id, credit_account_id, debit, credit, currency, exchange_rate, source_type, source_id, is_automatic, created_by, organization_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING id, created_at`,
		entry.EntryNumber, legIndex, entry.Date, entry.Description, entry.DebitAccountID, entry.CreditAccountID,
		entry.Debit, entry.Credit, entry.Currency, entry.ExchangeRate, entry.SourceType, entry.SourceID,
		entry.IsAutomatic, entry.CreatedBy, entry.OrganizationID).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_journal_entries_org_number_leg" {
			return JournalEntry{}, shared.ErrEntryNumberConflict
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) DeleteBySource(ctx context.Context, orgID int64, sourceType string, sourceID uuid.UUID) (int64, error) {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE organization_id=$1 AND source_type=$2 AND source_id=$3`,
		orgID, sourceType, sourceID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// FormatEntryNumber zero-pads a sequence value to the canonical width.
func FormatEntryNumber(n int64) string {
	return fmt.Sprintf("%0*d", EntryNumberWidth, n)
}
