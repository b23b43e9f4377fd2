package token

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"token-crowdsale/internal/domain"
)

// subscriberBuffer is the per-subscriber channel capacity. Notifications
// are dropped rather than blocking a ledger mutation.
const subscriberBuffer = 256

// MemoryLedger is a mutex-guarded in-memory Ledger. The full supply is
// minted to a designated holder at construction; no later minting or
// burning exists.
type MemoryLedger struct {
	mu          sync.RWMutex
	supply      *uint256.Int
	balances    map[domain.Identity]*uint256.Int
	allowances  map[allowanceKey]*uint256.Int
	subscribers []chan TransferEvent
	dropped     uint64
}

type allowanceKey struct {
	owner   domain.Identity
	spender domain.Identity
}

// NewMemoryLedger creates a ledger with supply minted to holder.
func NewMemoryLedger(holder domain.Identity, supply *uint256.Int) *MemoryLedger {
	l := &MemoryLedger{
		supply:     supply.Clone(),
		balances:   make(map[domain.Identity]*uint256.Int),
		allowances: make(map[allowanceKey]*uint256.Int),
	}
	l.balances[holder] = supply.Clone()
	return l
}

var _ Ledger = (*MemoryLedger)(nil)

// TotalSupply returns the fixed total token supply.
func (l *MemoryLedger) TotalSupply(_ context.Context) (*uint256.Int, error) {
	return l.supply.Clone(), nil
}

// BalanceOf returns the balance held by id. Unknown identities hold zero.
func (l *MemoryLedger) BalanceOf(_ context.Context, id domain.Identity) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if b, ok := l.balances[id]; ok {
		return b.Clone(), nil
	}
	return uint256.NewInt(0), nil
}

// Transfer moves amount from from to to.
func (l *MemoryLedger) Transfer(_ context.Context, from, to domain.Identity, amount *uint256.Int) error {
	if err := checkTransferArgs(from, to, amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.move(from, to, amount); err != nil {
		return err
	}
	l.notify(TransferEvent{From: from, To: to, Amount: amount.Clone()})
	return nil
}

// Approve lets spender move up to amount out of owner's balance.
// Re-approving overwrites the previous allowance.
func (l *MemoryLedger) Approve(_ context.Context, owner, spender domain.Identity, amount *uint256.Int) error {
	if owner == "" || spender == "" {
		return ErrInvalidIdentity
	}
	if amount == nil {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.allowances[allowanceKey{owner, spender}] = amount.Clone()
	return nil
}

// Allowance returns the remaining amount spender may move out of owner.
func (l *MemoryLedger) Allowance(_ context.Context, owner, spender domain.Identity) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if a, ok := l.allowances[allowanceKey{owner, spender}]; ok {
		return a.Clone(), nil
	}
	return uint256.NewInt(0), nil
}

// TransferFrom moves amount from from to to on behalf of spender.
func (l *MemoryLedger) TransferFrom(_ context.Context, spender, from, to domain.Identity, amount *uint256.Int) error {
	if spender == "" {
		return ErrInvalidIdentity
	}
	if err := checkTransferArgs(from, to, amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := allowanceKey{from, spender}
	allowed, ok := l.allowances[key]
	if !ok || allowed.Lt(amount) {
		return ErrInsufficientAllowance
	}

	if err := l.move(from, to, amount); err != nil {
		return err
	}

	l.allowances[key] = new(uint256.Int).Sub(allowed, amount)
	l.notify(TransferEvent{From: from, To: to, Amount: amount.Clone()})
	return nil
}

// Subscribe returns a channel of change notifications. Events are dropped
// for subscribers that fall behind; Dropped reports the total.
func (l *MemoryLedger) Subscribe() <-chan TransferEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan TransferEvent, subscriberBuffer)
	l.subscribers = append(l.subscribers, ch)
	return ch
}

// Dropped returns the number of notifications dropped so far.
func (l *MemoryLedger) Dropped() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dropped
}

// move debits from and credits to. Caller holds the write lock.
func (l *MemoryLedger) move(from, to domain.Identity, amount *uint256.Int) error {
	balance, ok := l.balances[from]
	if !ok || balance.Lt(amount) {
		return ErrInsufficientBalance
	}

	l.balances[from] = new(uint256.Int).Sub(balance, amount)
	if dst, ok := l.balances[to]; ok {
		l.balances[to] = new(uint256.Int).Add(dst, amount)
	} else {
		l.balances[to] = amount.Clone()
	}
	return nil
}

// notify fans the event out without blocking. Caller holds the write lock.
func (l *MemoryLedger) notify(ev TransferEvent) {
	for _, ch := range l.subscribers {
		select {
		case ch <- ev:
		default:
			l.dropped++
		}
	}
}

func checkTransferArgs(from, to domain.Identity, amount *uint256.Int) error {
	if from == "" || to == "" {
		return ErrInvalidIdentity
	}
	if amount == nil {
		return ErrInvalidAmount
	}
	return nil
}
