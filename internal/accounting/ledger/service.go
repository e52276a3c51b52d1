package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/obra-erp/obra-erp/internal/accounting/accounts"
	"github.com/obra-erp/obra-erp/internal/accounting/shared"
	"github.com/obra-erp/obra-erp/internal/money"
	internalShared "github.com/obra-erp/obra-erp/internal/shared"
)

// AccountResolver maps a business category (rubro) to a posting account.
type AccountResolver interface {
	ResolveAccountForCategory(ctx context.Context, orgID int64, category string, isIncome bool) (accounts.Account, error)
}

// MetricsPort counts posted entries and deferred failures.
type MetricsPort interface {
	ObserveEntryPosted(source string)
	ObserveEntryFailure()
}

// RetryEnqueuer schedules a deferred automatic entry for replay.
type RetryEnqueuer interface {
	EnqueueLedgerRetry(ctx context.Context, failureID int64) error
}

// Service creates, sequences and reverses balanced journal entries.
type Service struct {
	repo     Repository
	resolver AccountResolver
	logger   *slog.Logger
	metrics  MetricsPort
	enqueue  RetryEnqueuer
	now      func() time.Time
}

func NewService(repo Repository, resolver AccountResolver, logger *slog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, logger: logger, now: time.Now}
}

// WithMetrics attaches an optional metrics sink.
func (s *Service) WithMetrics(metrics MetricsPort) *Service {
	s.metrics = metrics
	return s
}

// WithRetryEnqueuer attaches the background replay queue.
func (s *Service) WithRetryEnqueuer(enqueue RetryEnqueuer) *Service {
	s.enqueue = enqueue
	return s
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// PostEntry creates one balanced transaction: a fresh entry number for the
// organization and one persisted row per leg. Same-currency postings must
// balance exactly; postings carrying an exchange rate may drift up to
// money.RoundingTolerance, surfaced as a RoundingDrift warning.
func (s *Service) PostEntry(ctx context.Context, input PostingInput) (PostResult, error) {
	if err := input.Validate(); err != nil {
		return PostResult{}, err
	}

	var warnings []string
	if drift := input.balanceDrift(); !drift.IsZero() {
		if input.ExchangeRate == nil || drift.Cmp(money.RoundingTolerance) > 0 {
			return PostResult{}, shared.ErrUnbalanced
		}
		warnings = append(warnings, WarningRoundingDrift)
	}

	enabled, err := s.repo.OrganizationAccountingEnabled(ctx, input.OrganizationID)
	if err != nil {
		return PostResult{}, err
	}
	if !enabled {
		return PostResult{}, shared.ErrAccountingDisabled
	}

	var result PostResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seen := make(map[int64]bool)
		for _, leg := range input.Legs {
			if seen[leg.AccountID] {
				continue
			}
			if _, err := tx.GetActiveAccount(ctx, input.OrganizationID, leg.AccountID); err != nil {
				return fmt.Errorf("leg account %d: %w", leg.AccountID, err)
			}
			seen[leg.AccountID] = true
		}

		number, err := tx.NextEntryNumber(ctx, input.OrganizationID)
		if err != nil {
			return err
		}

		rows := make([]JournalEntry, 0, len(input.Legs))
		for idx, leg := range input.Legs {
			row := JournalEntry{
				EntryNumber:    number,
				Date:           input.Date,
				Description:    input.Description,
				Currency:       input.Currency,
				ExchangeRate:   input.ExchangeRate,
				SourceType:     input.SourceType,
				SourceID:       input.SourceID,
				IsAutomatic:    input.IsAutomatic,
				CreatedBy:      input.CreatedBy,
				OrganizationID: input.OrganizationID,
				Debit:          money.Zero(),
				Credit:         money.Zero(),
			}
			accountID := leg.AccountID
			switch leg.Side {
			case SideDebit:
				row.DebitAccountID = &accountID
				row.Debit = leg.Amount
			case SideCredit:
				row.CreditAccountID = &accountID
				row.Credit = leg.Amount
			}
			inserted, err := tx.InsertEntry(ctx, row, idx)
			if err != nil {
				return err
			}
			rows = append(rows, inserted)
		}
		result = PostResult{EntryNumber: number, Entries: rows, Warnings: warnings}
		return nil
	})
	if err != nil {
		return PostResult{}, err
	}

	if s.metrics != nil {
		source := input.SourceType
		if source == "" {
			source = "MANUAL"
		}
		s.metrics.ObserveEntryPosted(source)
	}
	if len(result.Warnings) > 0 && s.logger != nil {
		s.logger.Warn("posting accepted with rounding drift",
			slog.String("entry", result.EntryNumber),
			slog.Int64("org", input.OrganizationID))
	}
	return result, nil
}

// GenerateAutomaticEntry resolves accounts through the rubro mapping and
// posts with isAutomatic=true. Income events debit the treasury account and
// credit the category account; expense events do the opposite. Idempotency is
// the caller's responsibility: calling twice for the same source posts twice.
func (s *Service) GenerateAutomaticEntry(ctx context.Context, input AutomaticInput) (PostResult, error) {
	if err := input.Validate(); err != nil {
		return PostResult{}, err
	}
	category, err := s.resolver.ResolveAccountForCategory(ctx, input.OrganizationID, input.Category, input.IsIncome)
	if err != nil {
		return PostResult{}, err
	}
	amount, err := money.FromString(input.Amount)
	if err != nil {
		return PostResult{}, err
	}
	currency, err := money.ParseCurrency(input.Currency)
	if err != nil {
		return PostResult{}, err
	}

	debitAccount, creditAccount := input.CounterAccountID, category.ID
	if !input.IsIncome {
		debitAccount, creditAccount = category.ID, input.CounterAccountID
	}
	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	return s.PostEntry(ctx, PostingInput{
		OrganizationID: input.OrganizationID,
		Description:    input.Description,
		Date:           date,
		Currency:       currency,
		SourceType:     input.SourceType,
		SourceID:       input.SourceID,
		IsAutomatic:    true,
		CreatedBy:      input.CreatedBy,
		Legs: []Leg{
			{AccountID: debitAccount, Side: SideDebit, Amount: amount},
			{AccountID: creditAccount, Side: SideCredit, Amount: amount},
		},
	})
}

// RecordAutomaticEntry is the two-phase entry point business events use: the
// event has already committed, and a posting failure here must not undo it.
// On failure the input is persisted to ledger_failures and queued for replay;
// the returned error is non-nil only when even that bookkeeping failed.
func (s *Service) RecordAutomaticEntry(ctx context.Context, input AutomaticInput) (PostResult, error) {
	result, err := s.GenerateAutomaticEntry(ctx, input)
	if err == nil {
		return result, nil
	}

	if s.logger != nil {
		s.logger.Error("automatic entry deferred",
			slog.String("source_type", input.SourceType),
			slog.String("source_id", input.SourceID.String()),
			slog.Any("error", err))
	}
	if s.metrics != nil {
		s.metrics.ObserveEntryFailure()
	}

	payload, marshalErr := json.Marshal(input)
	if marshalErr != nil {
		return PostResult{}, marshalErr
	}
	failure, insErr := s.repo.InsertFailure(ctx, LedgerFailure{
		OrganizationID: input.OrganizationID,
		SourceType:     input.SourceType,
		SourceID:       input.SourceID,
		Payload:        payload,
		Reason:         err.Error(),
	})
	if insErr != nil {
		return PostResult{}, fmt.Errorf("record failure for %s/%s: %w", input.SourceType, input.SourceID, insErr)
	}
	if s.enqueue != nil {
		if qErr := s.enqueue.EnqueueLedgerRetry(ctx, failure.ID); qErr != nil && s.logger != nil {
			s.logger.Warn("enqueue ledger retry", slog.Int64("failure", failure.ID), slog.Any("error", qErr))
		}
	}
	return PostResult{}, nil
}

// ReverseAutomaticEntries deletes every row linked to the source document.
// Both legs of each transaction go together, so the balance law holds after
// the delete.
func (s *Service) ReverseAutomaticEntries(ctx context.Context, orgID int64, sourceType string, sourceID uuid.UUID) error {
	if orgID == 0 || sourceType == "" || sourceID == uuid.Nil {
		return fmt.Errorf("ledger: source reference required: %w", internalShared.ErrValidation)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		deleted, err := tx.DeleteBySource(ctx, orgID, sourceType, sourceID)
		if err != nil {
			return err
		}
		if deleted > 0 && s.logger != nil {
			s.logger.Info("reversed automatic entries",
				slog.String("source_type", sourceType),
				slog.String("source_id", sourceID.String()),
				slog.Int64("rows", deleted))
		}
		return nil
	})
}

// ListBySource returns the rows posted for a source document.
func (s *Service) ListBySource(ctx context.Context, orgID int64, sourceType string, sourceID uuid.UUID) ([]JournalEntry, error) {
	return s.repo.ListBySource(ctx, orgID, sourceType, sourceID)
}

// RetryFailure replays a deferred automatic entry from its stored payload.
func (s *Service) RetryFailure(ctx context.Context, failureID int64) error {
	failure, err := s.repo.GetFailure(ctx, failureID)
	if err != nil {
		return err
	}
	if failure.ResolvedAt != nil {
		return nil
	}
	var input AutomaticInput
	if err := json.Unmarshal(failure.Payload, &input); err != nil {
		return fmt.Errorf("failure %d payload: %w", failureID, err)
	}
	if _, err := s.GenerateAutomaticEntry(ctx, input); err != nil {
		return err
	}
	return s.repo.MarkFailureResolved(ctx, failureID)
}

// UnresolvedFailures lists deferred automatic entries still awaiting replay.
func (s *Service) UnresolvedFailures(ctx context.Context, limit int) ([]LedgerFailure, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListUnresolvedFailures(ctx, limit)
}
