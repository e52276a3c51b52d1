package accounts

import "time"

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether the type is one of the known categories.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// Account models a chart of accounts node. Codes form a dotted hierarchy
// ("5.1.01") unique per organization; a child's type always equals its
// parent's (checked at seed time).
type Account struct {
	ID             int64
	Code           string
	Name           string
	Type           AccountType
	Subtype        *string
	ParentID       *int64
	OrganizationID int64
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
