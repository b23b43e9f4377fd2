package crowdsale

import (
	"errors"

	"token-crowdsale/internal/token"
)

// Coordinator errors. Each sentinel belongs to exactly one category; the
// HTTP layer maps categories to status codes via Category.
var (
	// Authorization
	ErrNotAdministrator = errors.New("caller is not the administrator")

	// Phase
	ErrAlreadyStarted    = errors.New("sale already started")
	ErrSaleNotActive     = errors.New("sale is not active")
	ErrSaleStillActive   = errors.New("sale is still active")
	ErrAlreadyReleased   = errors.New("tokens already released")
	ErrTokensNotReleased = errors.New("tokens not released yet")

	// Configuration
	ErrInvalidDuration        = errors.New("duration must be positive")
	ErrInvalidUnitPrice       = errors.New("unit price must be positive")
	ErrInvalidInventory       = errors.New("invalid token inventory")
	ErrInvalidMinContribution = errors.New("invalid minimum contribution")
	ErrInvalidMaxContribution = errors.New("invalid maximum contribution")

	// Eligibility
	ErrNotEligible = errors.New("participant is not allowlisted")

	// Bounds
	ErrNonMultipleOfPrice = errors.New("value is not a multiple of the unit price")
	ErrOutOfBounds        = errors.New("value outside contribution bounds")

	// Inventory
	ErrInsufficientInventory = errors.New("insufficient remaining inventory")

	// Ledger
	ErrInsufficientFunds = errors.New("insufficient collected funds")
)

// ErrorCategory groups coordinator errors for callers that only care about
// the class of failure.
type ErrorCategory string

const (
	CategoryAuthorization ErrorCategory = "AUTHORIZATION"
	CategoryPhase         ErrorCategory = "PHASE"
	CategoryConfiguration ErrorCategory = "CONFIGURATION"
	CategoryEligibility   ErrorCategory = "ELIGIBILITY"
	CategoryBounds        ErrorCategory = "BOUNDS"
	CategoryInventory     ErrorCategory = "INVENTORY"
	CategoryLedger        ErrorCategory = "LEDGER"
	CategoryInternal      ErrorCategory = "INTERNAL"
)

// Category classifies err into an ErrorCategory. Unrecognized errors
// (store failures, context cancellation) are CategoryInternal.
func Category(err error) ErrorCategory {
	switch {
	case errors.Is(err, ErrNotAdministrator):
		return CategoryAuthorization
	case errors.Is(err, ErrAlreadyStarted),
		errors.Is(err, ErrSaleNotActive),
		errors.Is(err, ErrSaleStillActive),
		errors.Is(err, ErrAlreadyReleased),
		errors.Is(err, ErrTokensNotReleased):
		return CategoryPhase
	case errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrInvalidUnitPrice),
		errors.Is(err, ErrInvalidInventory),
		errors.Is(err, ErrInvalidMinContribution),
		errors.Is(err, ErrInvalidMaxContribution):
		return CategoryConfiguration
	case errors.Is(err, ErrNotEligible):
		return CategoryEligibility
	case errors.Is(err, ErrNonMultipleOfPrice),
		errors.Is(err, ErrOutOfBounds):
		return CategoryBounds
	case errors.Is(err, ErrInsufficientInventory):
		return CategoryInventory
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance),
		errors.Is(err, token.ErrInvalidAmount):
		return CategoryLedger
	default:
		return CategoryInternal
	}
}
