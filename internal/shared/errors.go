package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates missing or invalid input.
	ErrValidation = errors.New("validation failed")
	// ErrConcurrency indicates a write raced another writer and lost.
	ErrConcurrency = errors.New("concurrent update conflict")
	// ErrForbidden indicates the caller lacks organization scope.
	ErrForbidden = errors.New("forbidden")
	// ErrImbalance indicates debits and credits do not match.
	ErrImbalance = errors.New("ledger imbalance")
)
