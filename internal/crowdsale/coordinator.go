// Package crowdsale implements the sale coordinator: the state machine
// that runs one token crowdsale from start through release and withdrawal.
package crowdsale

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/events"
	"token-crowdsale/internal/idhash"
	"token-crowdsale/internal/observability"
	"token-crowdsale/internal/storage"
	"token-crowdsale/internal/token"
)

// StartParams configures a sale. All values are fixed at start.
type StartParams struct {
	Duration        time.Duration
	UnitPrice       int64
	AvailableTokens int64
	MinContribution int64
	MaxContribution int64
}

// Status is a read-only snapshot of the coordinator state.
type Status struct {
	State            domain.SaleState `json:"state"`
	SaleID           string           `json:"sale_id,omitempty"`
	EndTime          time.Time        `json:"end_time"`
	UnitPrice        int64            `json:"unit_price"`
	InventoryAtStart int64            `json:"inventory_at_start"`
	Remaining        int64            `json:"remaining"`
	Collected        int64            `json:"collected"`
	Withdrawn        int64            `json:"withdrawn"`
	MinContribution  int64            `json:"min_contribution"`
	MaxContribution  int64            `json:"max_contribution"`
	Released         bool             `json:"released"`
	Purchases        int64            `json:"purchases"`
}

// Deps are the coordinator's injected collaborators.
type Deps struct {
	Administrator domain.Identity // the only identity allowed to start, release, withdraw
	Account       domain.Identity // coordinator's own token ledger account

	Ledger    token.Ledger
	Clock     Clock
	Sales     storage.SaleStore
	Purchases storage.PurchaseStore
	Allowlist storage.AllowlistStore
	Bus       *events.Bus
	Logger    *log.Logger
}

// Coordinator runs a single crowdsale. All mutating operations are
// serialized by one mutex; each performs at most one durable store write,
// so every operation is all-or-nothing. Remaining inventory and collected
// value live only in memory and are rebuilt from the purchase sequence.
type Coordinator struct {
	mu sync.Mutex

	admin   domain.Identity
	account domain.Identity

	ledger    token.Ledger
	clock     Clock
	sales     storage.SaleStore
	purchases storage.PurchaseStore
	allowlist storage.AllowlistStore
	bus       *events.Bus
	logger    *log.Logger

	sale      *domain.SaleRecord
	remaining int64
	collected int64
	nextSeq   int64
}

// NewCoordinator creates a coordinator. Call Restore before serving if the
// stores may already hold a sale.
func NewCoordinator(deps Deps) *Coordinator {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &Coordinator{
		admin:     deps.Administrator,
		account:   deps.Account,
		ledger:    deps.Ledger,
		clock:     clock,
		sales:     deps.Sales,
		purchases: deps.Purchases,
		allowlist: deps.Allowlist,
		bus:       deps.Bus,
		logger:    logger,
	}
}

// Restore rebuilds in-memory state from the stores after a restart.
// Remaining inventory and collected value are folded from the purchase
// sequence; they are never read from a stored column.
func (c *Coordinator) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sale, err := c.sales.Get(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load sale: %w", err)
	}

	purchases, err := c.purchases.ListBySale(ctx, sale.SaleID)
	if err != nil {
		return fmt.Errorf("failed to load purchases: %w", err)
	}

	remaining := sale.InventoryAtStart
	var collected int64
	for _, p := range purchases {
		remaining -= p.Quantity
		collected += p.Value
	}

	c.sale = sale
	c.remaining = remaining
	c.collected = collected
	c.nextSeq = int64(len(purchases))

	observability.SetInventoryRemaining(remaining)
	observability.SetCollectedValue(collected - sale.Withdrawn)

	c.logger.Printf("[coordinator] restored sale %s: %d purchases, remaining=%d, collected=%d",
		sale.SaleID, len(purchases), remaining, collected)
	return nil
}

// Start configures and activates the sale. Only the administrator may
// call it, and only once.
func (c *Coordinator) Start(ctx context.Context, caller domain.Identity, p StartParams) (*domain.SaleRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.admin {
		return nil, ErrNotAdministrator
	}
	if c.sale != nil {
		return nil, ErrAlreadyStarted
	}
	if p.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if p.UnitPrice <= 0 {
		return nil, ErrInvalidUnitPrice
	}
	if p.AvailableTokens <= 0 {
		return nil, ErrInvalidInventory
	}
	supply, err := c.ledger.TotalSupply(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query total supply: %w", err)
	}
	if uint256.NewInt(uint64(p.AvailableTokens)).Cmp(supply) > 0 {
		return nil, fmt.Errorf("%w: %d exceeds total supply", ErrInvalidInventory, p.AvailableTokens)
	}
	if p.MinContribution <= 0 {
		return nil, ErrInvalidMinContribution
	}
	if p.MaxContribution <= 0 || p.MaxContribution < p.MinContribution || p.MaxContribution > p.AvailableTokens {
		return nil, ErrInvalidMaxContribution
	}

	now := c.clock.Now()
	sale := &domain.SaleRecord{
		SaleID:           uuid.NewString(),
		Administrator:    c.admin,
		StartedAt:        now,
		EndTime:          now.Add(p.Duration),
		UnitPrice:        p.UnitPrice,
		InventoryAtStart: p.AvailableTokens,
		MinContribution:  p.MinContribution,
		MaxContribution:  p.MaxContribution,
	}

	if err := c.sales.Save(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	c.sale = sale
	c.remaining = p.AvailableTokens
	c.collected = 0
	c.nextSeq = 0

	observability.SetInventoryRemaining(c.remaining)
	observability.SetCollectedValue(0)

	c.publish(domain.SaleEvent{
		SaleID:      sale.SaleID,
		Type:        domain.EventSaleStarted,
		Quantity:    p.AvailableTokens,
		TimestampMs: now.UnixMilli(),
	})

	c.logger.Printf("[coordinator] sale %s started: price=%d inventory=%d bounds=[%d,%d] ends=%s",
		sale.SaleID, p.UnitPrice, p.AvailableTokens, p.MinContribution, p.MaxContribution,
		sale.EndTime.Format(time.RFC3339))
	return sale, nil
}

// Allow adds participant to the allowlist. Admin-only, idempotent, and
// permitted in any phase; membership is never revoked.
func (c *Coordinator) Allow(ctx context.Context, caller, participant domain.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.admin {
		return ErrNotAdministrator
	}

	if err := c.allowlist.Add(ctx, participant); err != nil {
		return fmt.Errorf("failed to add to allowlist: %w", err)
	}

	if n, err := c.allowlist.Count(ctx); err == nil {
		observability.SetAllowlistSize(n)
	}

	saleID := ""
	if c.sale != nil {
		saleID = c.sale.SaleID
	}
	c.publish(domain.SaleEvent{
		SaleID:      saleID,
		Type:        domain.EventParticipantAllowed,
		Participant: participant,
		TimestampMs: c.clock.Now().UnixMilli(),
	})
	return nil
}

// Contribute records a purchase of value worth of tokens by caller.
// The purchase insert is the single durable write; the in-memory inventory
// decrement follows only on success.
func (c *Coordinator) Contribute(ctx context.Context, caller domain.Identity, value int64) (*domain.Purchase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok, err := c.allowlist.Contains(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to check allowlist: %w", err)
	}
	if !ok {
		observability.RecordContributionRejected("not_eligible")
		return nil, ErrNotEligible
	}

	now := c.clock.Now()
	if c.stateAt(now) != domain.SaleStateActive {
		observability.RecordContributionRejected("sale_not_active")
		return nil, ErrSaleNotActive
	}

	if value%c.sale.UnitPrice != 0 {
		observability.RecordContributionRejected("non_multiple_of_price")
		return nil, ErrNonMultipleOfPrice
	}
	// MinContribution is always positive, so this also rejects value <= 0.
	if value < c.sale.MinContribution || value > c.sale.MaxContribution {
		observability.RecordContributionRejected("out_of_bounds")
		return nil, ErrOutOfBounds
	}

	quantity := value * c.sale.UnitPrice
	if quantity/value != c.sale.UnitPrice {
		observability.RecordContributionRejected("out_of_bounds")
		return nil, fmt.Errorf("%w: quantity overflows", ErrOutOfBounds)
	}
	if quantity > c.remaining {
		observability.RecordContributionRejected("insufficient_inventory")
		return nil, ErrInsufficientInventory
	}

	purchase := &domain.Purchase{
		PurchaseID:  idhash.ComputePurchaseID(c.sale.SaleID, string(caller), c.nextSeq),
		SaleID:      c.sale.SaleID,
		Seq:         c.nextSeq,
		Participant: caller,
		Value:       value,
		Quantity:    quantity,
		Timestamp:   now.UnixMilli(),
	}

	if err := c.purchases.Insert(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	c.remaining -= quantity
	c.collected += value
	c.nextSeq++

	observability.RecordContribution(value, quantity)
	observability.SetInventoryRemaining(c.remaining)
	observability.SetCollectedValue(c.collected - c.sale.Withdrawn)

	c.publish(domain.SaleEvent{
		SaleID:      c.sale.SaleID,
		Type:        domain.EventContribution,
		Participant: caller,
		Value:       value,
		Quantity:    quantity,
		TimestampMs: now.UnixMilli(),
	})

	c.logger.Printf("[coordinator] purchase seq=%d by %s: value=%d quantity=%d remaining=%d",
		purchase.Seq, caller, value, quantity, c.remaining)
	return purchase, nil
}

// Release transfers every recorded allocation out of the coordinator's
// ledger account, in purchase order, then durably flips Released. The
// coordinator's balance is pre-checked so an underfunded account rejects
// with no side effects; a mid-batch transfer failure is compensated by
// reversing the transfers already applied. Safe to retry after failure.
func (c *Coordinator) Release(ctx context.Context, caller domain.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.admin {
		return ErrNotAdministrator
	}
	if c.sale == nil {
		return ErrSaleStillActive
	}
	now := c.clock.Now()
	switch c.stateAt(now) {
	case domain.SaleStateActive:
		return ErrSaleStillActive
	case domain.SaleStateEndedReleased:
		return ErrAlreadyReleased
	}

	purchases, err := c.purchases.ListBySale(ctx, c.sale.SaleID)
	if err != nil {
		return fmt.Errorf("failed to load purchases: %w", err)
	}

	total := uint256.NewInt(0)
	for _, p := range purchases {
		total.Add(total, uint256.NewInt(uint64(p.Quantity)))
	}

	balance, err := c.ledger.BalanceOf(ctx, c.account)
	if err != nil {
		return fmt.Errorf("failed to query balance: %w", err)
	}
	if balance.Cmp(total) < 0 {
		return fmt.Errorf("%w: need %s, have %s", token.ErrInsufficientBalance, total, balance)
	}

	started := time.Now()
	for i, p := range purchases {
		amount := uint256.NewInt(uint64(p.Quantity))
		if err := c.ledger.Transfer(ctx, c.account, p.Participant, amount); err != nil {
			c.reverseTransfers(ctx, purchases[:i])
			return fmt.Errorf("transfer for purchase seq=%d failed: %w", p.Seq, err)
		}
	}

	updated := *c.sale
	updated.Released = true
	if err := c.sales.Save(ctx, &updated); err != nil {
		c.reverseTransfers(ctx, purchases)
		return fmt.Errorf("failed to persist release: %w", err)
	}
	c.sale = &updated

	observability.RecordRelease(len(purchases), time.Since(started).Seconds())

	c.publish(domain.SaleEvent{
		SaleID:      c.sale.SaleID,
		Type:        domain.EventRelease,
		Quantity:    int64(total.Uint64()),
		TimestampMs: now.UnixMilli(),
	})

	c.logger.Printf("[coordinator] released sale %s: %d transfers, %s tokens distributed",
		c.sale.SaleID, len(purchases), total)
	return nil
}

// reverseTransfers compensates a failed release batch by moving already
// distributed allocations back to the coordinator's account. Errors are
// logged, not returned: the batch is retried wholesale anyway.
func (c *Coordinator) reverseTransfers(ctx context.Context, applied []*domain.Purchase) {
	for i := len(applied) - 1; i >= 0; i-- {
		p := applied[i]
		amount := uint256.NewInt(uint64(p.Quantity))
		if err := c.ledger.Transfer(ctx, p.Participant, c.account, amount); err != nil {
			c.logger.Printf("[coordinator] WARNING: failed to reverse transfer seq=%d: %v", p.Seq, err)
		}
	}
}

// Withdraw moves amount of collected value to destination. Admin-only and
// only after release; repeatable while retained funds last.
func (c *Coordinator) Withdraw(ctx context.Context, caller, destination domain.Identity, amount int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.admin {
		return ErrNotAdministrator
	}
	if c.sale != nil && c.stateAt(c.clock.Now()) == domain.SaleStateActive {
		return ErrSaleStillActive
	}
	if c.sale == nil || !c.sale.Released {
		return ErrTokensNotReleased
	}
	if amount < 0 {
		return ErrOutOfBounds
	}
	if amount > c.collected-c.sale.Withdrawn {
		return fmt.Errorf("%w: requested %d, retained %d", ErrInsufficientFunds, amount, c.collected-c.sale.Withdrawn)
	}

	updated := *c.sale
	updated.Withdrawn += amount
	if err := c.sales.Save(ctx, &updated); err != nil {
		return fmt.Errorf("failed to persist withdrawal: %w", err)
	}
	c.sale = &updated

	observability.RecordWithdrawal(amount)
	observability.SetCollectedValue(c.collected - c.sale.Withdrawn)

	now := c.clock.Now()
	c.publish(domain.SaleEvent{
		SaleID:      c.sale.SaleID,
		Type:        domain.EventWithdrawal,
		Destination: destination,
		Value:       amount,
		TimestampMs: now.UnixMilli(),
	})

	c.logger.Printf("[coordinator] withdrawal of %d to %s (total withdrawn %d)",
		amount, destination, c.sale.Withdrawn)
	return nil
}

// Status returns a snapshot of the coordinator state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sale == nil {
		return Status{State: domain.SaleStateNotStarted}
	}
	return Status{
		State:            c.stateAt(c.clock.Now()),
		SaleID:           c.sale.SaleID,
		EndTime:          c.sale.EndTime,
		UnitPrice:        c.sale.UnitPrice,
		InventoryAtStart: c.sale.InventoryAtStart,
		Remaining:        c.remaining,
		Collected:        c.collected,
		Withdrawn:        c.sale.Withdrawn,
		MinContribution:  c.sale.MinContribution,
		MaxContribution:  c.sale.MaxContribution,
		Released:         c.sale.Released,
		Purchases:        c.nextSeq,
	}
}

// stateAt must be called with the mutex held.
func (c *Coordinator) stateAt(now time.Time) domain.SaleState {
	return c.sale.StateAt(now, c.remaining)
}

func (c *Coordinator) publish(ev domain.SaleEvent) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}
