// Package token defines the fungible token ledger the coordinator
// disburses allocations through. The ledger is an external collaborator:
// the coordinator only ever calls TotalSupply, BalanceOf and Transfer;
// the approval surface exists for general ERC20-style use.
package token

import (
	"context"
	"errors"

	"github.com/holiman/uint256"

	"token-crowdsale/internal/domain"
)

// Ledger errors.
var (
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("invalid token amount")
	ErrInvalidIdentity       = errors.New("invalid ledger identity")
)

// TransferEvent is the change notification a ledger emits on every
// balance movement.
type TransferEvent struct {
	From   domain.Identity
	To     domain.Identity
	Amount *uint256.Int
}

// Ledger is a balance-transfer-allowance store keyed by identity.
// Amounts are uint256 in the smallest indivisible unit; implementations
// must never lose or create supply.
type Ledger interface {
	// TotalSupply returns the fixed total token supply.
	TotalSupply(ctx context.Context) (*uint256.Int, error)

	// BalanceOf returns the balance held by id.
	BalanceOf(ctx context.Context, id domain.Identity) (*uint256.Int, error)

	// Transfer moves amount from from to to. Returns ErrInsufficientBalance
	// if from holds less than amount.
	Transfer(ctx context.Context, from, to domain.Identity, amount *uint256.Int) error

	// Approve lets spender move up to amount out of owner's balance.
	Approve(ctx context.Context, owner, spender domain.Identity, amount *uint256.Int) error

	// Allowance returns the remaining amount spender may move out of owner.
	Allowance(ctx context.Context, owner, spender domain.Identity) (*uint256.Int, error)

	// TransferFrom moves amount from from to to on behalf of spender,
	// consuming allowance. Returns ErrInsufficientAllowance or
	// ErrInsufficientBalance.
	TransferFrom(ctx context.Context, spender, from, to domain.Identity, amount *uint256.Int) error
}
