package balances

import (
	"context"
	"log/slog"
)

// Service is the single ownership boundary for balance mutations. Every
// business feature that moves money goes through Apply/Revert here; nothing
// else in the repo touches account_balances.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Apply adds a signed increment to the key, creating it when absent.
func (s *Service) Apply(ctx context.Context, in Increment) (Balance, error) {
	if err := in.Validate(); err != nil {
		return Balance{}, err
	}
	balance, err := s.repo.ApplyIncrement(ctx, in)
	if err != nil {
		return Balance{}, err
	}
	if s.logger != nil {
		s.logger.Debug("balance increment applied",
			slog.Int64("account", in.AccountID),
			slog.String("kind", string(in.Kind)),
			slog.String("currency", string(in.Currency)),
			slog.String("delta", in.Delta.StringFixed(2)),
			slog.String("balance", balance.Balance.StringFixed(2)))
	}
	return balance, nil
}

// Revert applies the exact negation of a previously applied increment. The
// balance is never recomputed from scratch; deleting or reversing an event
// always goes through here with the original increment.
func (s *Service) Revert(ctx context.Context, original Increment) (Balance, error) {
	return s.Apply(ctx, original.Negated())
}

// Get reads one cached balance.
func (s *Service) Get(ctx context.Context, orgID, accountID int64, kind Kind, currency string) (Balance, error) {
	return s.repo.Get(ctx, orgID, accountID, kind, currency)
}

// ListForOrganization reads every cached balance of the organization.
func (s *Service) ListForOrganization(ctx context.Context, orgID int64) ([]Balance, error) {
	return s.repo.ListForOrganization(ctx, orgID)
}
