package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the request conflicts with the current state of a resource.
var ErrConflict = errors.New("resource conflict")

// ErrInternal wraps unexpected storage or runtime failures.
var ErrInternal = errors.New("internal error")

// Structural errors. The caller can always recover from these by correcting the input,
// and they are detected before anything is written.
var (
	ErrZeroAmount                = fmt.Errorf("%w: leg amount must not be zero", ErrValidation)
	ErrUnsupportedCurrency       = fmt.Errorf("%w: currency not supported", ErrValidation)
	ErrUnbalancedTransaction     = fmt.Errorf("%w: transaction legs do not sum to zero", ErrValidation)
	ErrTooFewLegs                = fmt.Errorf("%w: transaction must have at least two legs", ErrValidation)
	ErrInvalidAccountType        = fmt.Errorf("%w: invalid account type", ErrValidation)
	ErrBankAccountMustBeAsset    = fmt.Errorf("%w: bank account must be an asset account", ErrValidation)
	ErrBankAccountSingleCurrency = fmt.Errorf("%w: bank account must have exactly one currency", ErrValidation)
	ErrNonMoneyAmount            = fmt.Errorf("%w: value is not an exact money amount", ErrValidation)
	ErrAccountInUse              = fmt.Errorf("%w: account has legs or children", ErrConflict)
)

// ErrAccountingEquationViolation is an integrity error: it means a bug or a race escaped
// the per-transaction checks. It is reported, never retried.
var ErrAccountingEquationViolation = errors.New("accounting equation violated")

// ErrConcurrentModification is returned when a running total row could not be locked or the
// store resolved a concurrent write as a conflict. Retry the whole operation.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// ErrBalanceComparison is returned when two balances cannot be ordered.
var ErrBalanceComparison = errors.New("balances are not comparable")

// AppError carries an HTTP-ish status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e.Err == nil && e.Code >= http.StatusInternalServerError {
		return ErrInternal
	}
	return e.Err
}

// NewNotFoundError creates an error wrapping ErrNotFound for the given resource.
func NewNotFoundError(resource string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, resource)
}

// UnbalancedTransactionError lists the per-currency residue of a transaction whose legs
// do not sum to zero.
type UnbalancedTransactionError struct {
	TransactionID string
	Residue       map[string]decimal.Decimal
}

func (e *UnbalancedTransactionError) Error() string {
	parts := make([]string, 0, len(e.Residue))
	for currency, amount := range e.Residue {
		parts = append(parts, amount.String()+" "+currency)
	}
	if e.TransactionID != "" {
		return fmt.Sprintf("transaction %s does not balance: %s", e.TransactionID, strings.Join(parts, ", "))
	}
	return "transaction does not balance: " + strings.Join(parts, ", ")
}

func (e *UnbalancedTransactionError) Unwrap() error {
	return ErrUnbalancedTransaction
}

// AccountingEquationViolationError carries the non-zero sum found across all root accounts.
type AccountingEquationViolationError struct {
	Total string
}

func (e *AccountingEquationViolationError) Error() string {
	return "accounting equation violated: roots sum to " + e.Total
}

func (e *AccountingEquationViolationError) Unwrap() error {
	return ErrAccountingEquationViolation
}

// BalanceComparisonError explains why two balances could not be compared.
type BalanceComparisonError struct {
	Reason string
}

func (e *BalanceComparisonError) Error() string {
	return "cannot compare balances: " + e.Reason
}

func (e *BalanceComparisonError) Unwrap() error {
	return ErrBalanceComparison
}

// IsRetryable reports whether the caller may retry the whole operation unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError reports whether err was caused by bad input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrBalanceComparison)
}

// IsIntegrity reports whether err signals a broken ledger invariant.
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrAccountingEquationViolation)
}

// IsNotFound is shorthand for errors.Is(err, ErrNotFound).
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	var appErr *AppError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConflict), IsRetryable(err):
		return http.StatusConflict
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBalanceComparison):
		return http.StatusBadRequest
	case errors.As(err, &appErr) && appErr.Code > 0:
		return appErr.Code
	default:
		return http.StatusInternalServerError
	}
}
