package dto

import (
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// CreateAccountRequest defines the data needed to create a new account.
// AccountType must be set for root accounts and left empty for children.
type CreateAccountRequest struct {
	Name            string             `json:"name" binding:"required"`
	Code            string             `json:"code"`
	ParentAccountID string             `json:"parentAccountID"`
	AccountType     domain.AccountType `json:"accountType" binding:"omitempty,oneof=ASSET LIABILITY INCOME EXPENSE EQUITY TRADING"`
	Currencies      []string           `json:"currencies" binding:"omitempty,dive,iso4217"`
	IsBankAccount   bool               `json:"isBankAccount"`
}

// UpdateAccountRequest defines the data allowed for updating an account.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateAccountRequest struct {
	Name            *string             `json:"name"`
	Code            *string             `json:"code"`
	ParentAccountID *string             `json:"parentAccountID"` // empty string makes the account a root
	AccountType     *domain.AccountType `json:"accountType" binding:"omitempty,oneof=ASSET LIABILITY INCOME EXPENSE EQUITY TRADING"`
	Currencies      []string            `json:"currencies" binding:"omitempty,dive,iso4217"`
	IsBankAccount   *bool               `json:"isBankAccount"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID       string             `json:"accountID"`
	ParentAccountID string             `json:"parentAccountID,omitempty"`
	Name            string             `json:"name"`
	Code            string             `json:"code,omitempty"`
	FullCode        string             `json:"fullCode,omitempty"`
	AccountType     domain.AccountType `json:"accountType"`
	IsBankAccount   bool               `json:"isBankAccount"`
	Currencies      []string           `json:"currencies"`
	CreatedAt       time.Time          `json:"createdAt"`
	CreatedBy       string             `json:"createdBy,omitempty"`
	LastUpdatedAt   time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy   string             `json:"lastUpdatedBy,omitempty"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	currencies := acc.Currencies
	if currencies == nil {
		currencies = []string{}
	}
	return AccountResponse{
		AccountID:       acc.AccountID,
		ParentAccountID: acc.ParentAccountID,
		Name:            acc.Name,
		Code:            acc.Code,
		FullCode:        acc.FullCode,
		AccountType:     acc.AccountType,
		IsBankAccount:   acc.IsBankAccount,
		Currencies:      currencies,
		CreatedAt:       acc.CreatedAt,
		CreatedBy:       acc.CreatedBy,
		LastUpdatedAt:   acc.LastUpdatedAt,
		LastUpdatedBy:   acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Limit  int `form:"limit,default=100" binding:"min=0,max=1000"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}
