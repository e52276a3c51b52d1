package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	internalShared "github.com/obra-erp/obra-erp/internal/shared"
)

// Service seeds and resolves the chart of accounts for an organization.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context, orgID int64) ([]Account, error) {
	return s.repo.List(ctx, orgID)
}

// SeedDefaultChart installs the default account hierarchy for a fresh
// organization. It is a no-op when the organization already has accounts.
// The child-type-equals-parent-type invariant is enforced here, once, rather
// than on every read.
func (s *Service) SeedDefaultChart(ctx context.Context, orgID int64) error {
	if orgID == 0 {
		return fmt.Errorf("accounts: organization required: %w", internalShared.ErrValidation)
	}
	count, err := s.repo.CountForOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	idsByCode := make(map[string]int64, len(defaultChart))
	for _, node := range defaultChart {
		account := Account{
			Code:           node.Code,
			Name:           node.Name,
			Type:           node.Type,
			OrganizationID: orgID,
			IsActive:       true,
		}
		if node.Subtype != "" {
			subtype := node.Subtype
			account.Subtype = &subtype
		}
		if parentCode := parentCodeOf(node.Code); parentCode != "" {
			parentID, ok := idsByCode[parentCode]
			if !ok {
				return fmt.Errorf("accounts: seed node %s has no parent %s", node.Code, parentCode)
			}
			account.ParentID = &parentID
			if parent := chartNodeByCode(parentCode); parent != nil && parent.Type != node.Type {
				return fmt.Errorf("accounts: seed node %s type %s differs from parent type %s", node.Code, node.Type, parent.Type)
			}
		}
		inserted, err := s.repo.Insert(ctx, account)
		if err != nil {
			return err
		}
		idsByCode[node.Code] = inserted.ID
	}
	for _, m := range defaultMappings {
		accountID, ok := idsByCode[m.Code]
		if !ok {
			return fmt.Errorf("accounts: mapping %s references unknown code %s", m.Category, m.Code)
		}
		if err := s.repo.UpsertCategoryMapping(ctx, orgID, m.Category, m.IsIncome, accountID); err != nil {
			return err
		}
	}
	if s.logger != nil {
		s.logger.Info("seeded default chart", slog.Int64("org", orgID), slog.Int("accounts", len(defaultChart)))
	}
	return nil
}

// ResolveAccountForCategory maps a business category (rubro) to the income or
// expense account automatic entries should post against.
func (s *Service) ResolveAccountForCategory(ctx context.Context, orgID int64, category string, isIncome bool) (Account, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return Account{}, fmt.Errorf("accounts: category required: %w", internalShared.ErrValidation)
	}
	accountID, err := s.repo.GetCategoryMapping(ctx, orgID, category, isIncome)
	if err != nil {
		return Account{}, err
	}
	account, err := s.repo.GetActive(ctx, orgID, accountID)
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

// ResolveTreasuryAccount finds the chart account that mirrors a treasury
// account class (CASH_BOX or BANK_ACCOUNT subtype).
func (s *Service) ResolveTreasuryAccount(ctx context.Context, orgID int64, subtype string) (Account, error) {
	return s.repo.GetActiveBySubtype(ctx, orgID, subtype)
}

// MapCategory points a rubro at an account, replacing any previous mapping.
func (s *Service) MapCategory(ctx context.Context, orgID int64, category string, isIncome bool, accountID int64) error {
	account, err := s.repo.GetActive(ctx, orgID, accountID)
	if err != nil {
		return err
	}
	wantType := AccountTypeExpense
	if isIncome {
		wantType = AccountTypeIncome
	}
	if account.Type != wantType {
		return fmt.Errorf("accounts: %s mapping requires a %s account, got %s: %w",
			category, wantType, account.Type, internalShared.ErrValidation)
	}
	return s.repo.UpsertCategoryMapping(ctx, orgID, category, isIncome, accountID)
}

func parentCodeOf(code string) string {
	idx := strings.LastIndex(code, ".")
	if idx < 0 {
		return ""
	}
	return code[:idx]
}
