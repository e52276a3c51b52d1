package checks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/obra-erp/obra-erp/internal/accounting/accounts"
	"github.com/obra-erp/obra-erp/internal/accounting/ledger"
	"github.com/obra-erp/obra-erp/internal/shared"
	"github.com/obra-erp/obra-erp/internal/treasury/balances"
)

// SourceType links check-generated journal rows back to their check.
const SourceType = "CHECK"

// CategoryCheck is the rubro automatic check entries resolve through.
const CategoryCheck = "CHECK"

// ErrInvalidTransition rejects moves out of a terminal status.
var ErrInvalidTransition = fmt.Errorf("checks: invalid status transition: %w", shared.ErrValidation)

// LedgerPort is the slice of the ledger the check lifecycle needs.
type LedgerPort interface {
	RecordAutomaticEntry(ctx context.Context, input ledger.AutomaticInput) (ledger.PostResult, error)
	ReverseAutomaticEntries(ctx context.Context, orgID int64, sourceType string, sourceID uuid.UUID) error
}

// BalancePort applies and reverts treasury balance increments.
type BalancePort interface {
	Apply(ctx context.Context, in balances.Increment) (balances.Balance, error)
	Revert(ctx context.Context, original balances.Increment) (balances.Balance, error)
}

// TreasuryResolver maps a balance kind to its chart account.
type TreasuryResolver interface {
	ResolveTreasuryAccount(ctx context.Context, orgID int64, subtype string) (accounts.Account, error)
}

// Service drives the check state machine. Clearing a check is the only
// transition that moves money: it posts one ledger transaction and applies
// one balance increment; everything else is a plain status flip.
type Service struct {
	repo     Repository
	ledger   LedgerPort
	balances BalancePort
	treasury TreasuryResolver
	logger   *slog.Logger
}

func NewService(repo Repository, ledgerPort LedgerPort, balancePort BalancePort, treasury TreasuryResolver, logger *slog.Logger) *Service {
	return &Service{repo: repo, ledger: ledgerPort, balances: balancePort, treasury: treasury, logger: logger}
}

// Transition moves a check to the next status, with the ledger and balance
// effects clearing implies.
func (s *Service) Transition(ctx context.Context, orgID, checkID int64, next CheckStatus) (Check, error) {
	if !next.Valid() {
		return Check{}, fmt.Errorf("checks: unknown status %q: %w", next, shared.ErrValidation)
	}
	check, err := s.repo.Get(ctx, orgID, checkID)
	if err != nil {
		return Check{}, err
	}
	if check.Status == next {
		return check, nil
	}
	if check.Status.Terminal() {
		return Check{}, ErrInvalidTransition
	}

	if next != StatusCleared {
		// REJECTED, CANCELLED, or an ISSUED<->PENDING correction: the money
		// never moved, so no ledger or balance effect.
		if err := s.repo.UpdateStatus(ctx, orgID, checkID, check.Status, next, nil); err != nil {
			return Check{}, err
		}
		check.Status = next
		return check, nil
	}

	clearedFrom := check.Status
	if err := s.repo.UpdateStatus(ctx, orgID, checkID, check.Status, StatusCleared, &clearedFrom); err != nil {
		return Check{}, err
	}

	increment, err := s.clearingIncrement(check, clearedFrom)
	if err != nil {
		return Check{}, err
	}
	if _, err := s.balances.Apply(ctx, increment); err != nil {
		// Put the check back so the money movement is not half-recorded.
		if revert := s.repo.UpdateStatus(ctx, orgID, checkID, StatusCleared, clearedFrom, nil); revert != nil && s.logger != nil {
			s.logger.Error("revert check status after balance failure",
				slog.Int64("check", checkID), slog.Any("error", revert))
		}
		return Check{}, err
	}

	// Best-effort accounting: a posting failure is deferred for
	// reconciliation, never unwound onto the cleared check.
	treasuryAccount, err := s.treasury.ResolveTreasuryAccount(ctx, orgID, string(increment.Kind))
	if err != nil {
		return Check{}, err
	}
	isIncome := clearedFrom == StatusPending
	description := fmt.Sprintf("Check %s cleared (%s)", check.CheckNumber, check.IssuerName)
	if _, err := s.ledger.RecordAutomaticEntry(ctx, ledger.AutomaticInput{
		OrganizationID:   orgID,
		SourceType:       SourceType,
		SourceID:         checkSourceID(check.ID),
		Category:         CategoryCheck,
		IsIncome:         isIncome,
		CounterAccountID: treasuryAccount.ID,
		Amount:           check.Amount.StringFixed(2),
		Currency:         string(check.Currency),
		Date:             check.DueDate,
		Description:      description,
	}); err != nil {
		return Check{}, err
	}

	check.Status = StatusCleared
	check.ClearedFrom = &clearedFrom
	return check, nil
}

// Delete removes a check. A cleared check first has its ledger rows deleted
// and the exact negation of its clearing increment applied, reconstructed
// from the amount and the pre-clear status.
func (s *Service) Delete(ctx context.Context, orgID, checkID int64) error {
	check, err := s.repo.Get(ctx, orgID, checkID)
	if err != nil {
		return err
	}
	if check.Status == StatusCleared {
		if check.ClearedFrom == nil {
			return fmt.Errorf("checks: cleared check %d has no pre-clear status: %w", checkID, shared.ErrValidation)
		}
		if err := s.ledger.ReverseAutomaticEntries(ctx, orgID, SourceType, checkSourceID(check.ID)); err != nil {
			return err
		}
		increment, err := s.clearingIncrement(check, *check.ClearedFrom)
		if err != nil {
			return err
		}
		if _, err := s.balances.Revert(ctx, increment); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, orgID, checkID)
}

// clearingIncrement derives the signed balance mutation clearing the check
// applies: received checks (PENDING) flow in, written checks (ISSUED) flow out.
func (s *Service) clearingIncrement(check Check, clearedFrom CheckStatus) (balances.Increment, error) {
	kind := balances.KindCashBox
	accountID := int64(0)
	switch {
	case check.CashBoxID != nil:
		accountID = *check.CashBoxID
	case check.BankAccountID != nil:
		kind = balances.KindBankAccount
		accountID = *check.BankAccountID
	default:
		return balances.Increment{}, fmt.Errorf("checks: check %d has no treasury account: %w", check.ID, shared.ErrValidation)
	}
	delta := check.Amount
	if clearedFrom == StatusIssued {
		delta = delta.Neg()
	}
	return balances.Increment{
		AccountID:      accountID,
		Kind:           kind,
		Currency:       check.Currency,
		OrganizationID: check.OrganizationID,
		Delta:          delta,
	}, nil
}

// checkSourceID derives a stable UUID for a check's ledger source link.
func checkSourceID(checkID int64) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("check:%d", checkID)))
}
