// Package shared holds sentinel errors common to the accounting packages.
// Each sentinel wraps the application-wide taxonomy so the HTTP layer can map
// it without knowing accounting internals.
package shared

import (
	"fmt"

	internalShared "github.com/obra-erp/obra-erp/internal/shared"
)

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = fmt.Errorf("accounting: journal legs must balance: %w", internalShared.ErrImbalance)
	// ErrTooFewLegs indicates less than two legs.
	ErrTooFewLegs = fmt.Errorf("accounting: entry requires a debit leg and a credit leg: %w", internalShared.ErrValidation)
	// ErrAccountingDisabled indicates the organization has accounting turned off.
	ErrAccountingDisabled = fmt.Errorf("accounting: organization has accounting disabled: %w", internalShared.ErrValidation)
	// ErrAccountNotFound indicates a missing or inactive account.
	ErrAccountNotFound = fmt.Errorf("accounting: account not found or inactive: %w", internalShared.ErrNotFound)
	// ErrEntryNotFound indicates a missing journal entry.
	ErrEntryNotFound = fmt.Errorf("accounting: journal entry not found: %w", internalShared.ErrNotFound)
	// ErrEntryNumberConflict indicates two postings raced for the same number.
	ErrEntryNumberConflict = fmt.Errorf("accounting: entry number already taken: %w", internalShared.ErrConcurrency)
	// ErrMappingNotFound indicates the rubro has no account mapping.
	ErrMappingNotFound = fmt.Errorf("accounting: no account mapped for category: %w", internalShared.ErrNotFound)
	// ErrOrganizationNotFound indicates a missing organization.
	ErrOrganizationNotFound = fmt.Errorf("accounting: organization not found: %w", internalShared.ErrNotFound)
)
