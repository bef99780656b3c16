// Package noncer issues exclusive per-chain transaction sequence numbers for
// concurrent submissions. The allocator is the single point of mutual
// exclusion in the pipeline: everything around it (hashing, Gateway calls,
// receipt waits) may interleave freely, but two concurrent allocations for
// the same chain never return the same value.
package noncer

import (
	"context"
	"log/slog"
	"sync"

	promptmint "github.com/promptmint/promptmint"
)

// SeedFunc returns the ledger's current pending sequence number for a chain.
// The ledger is authoritative; the allocator never persists its counters.
type SeedFunc func(ctx context.Context, chainID uint64) (uint64, error)

// Allocator holds the process-wide chain -> next-unused-nonce mapping.
// Constructed once at startup and passed explicitly to every component that
// needs it.
type Allocator struct {
	mu          sync.Mutex
	next        map[uint64]uint64
	initialized map[uint64]bool
	log         *slog.Logger
}

var _ promptmint.NonceSource = (*Allocator)(nil)

// New creates an empty allocator. Allocate fails for any chain until
// Initialize has seeded it.
func New(log *slog.Logger) *Allocator {
	if log == nil {
		log = slog.Default()
	}
	return &Allocator{
		next:        make(map[uint64]uint64),
		initialized: make(map[uint64]bool),
		log:         log.With("component", "noncer"),
	}
}

// Initialize seeds the counter for each chain from the ledger. A seeding
// failure falls back to zero with a loud log instead of aborting startup;
// submissions on that chain may then hit sequence-number conflicts at the
// ledger layer, which surface as retryable errors one layer up.
func (a *Allocator) Initialize(ctx context.Context, chainIDs []uint64, seed SeedFunc) {
	for _, chainID := range chainIDs {
		start, err := seed(ctx, chainID)
		if err != nil {
			a.log.Error("nonce seeding failed, falling back to zero",
				"chainId", chainID, "err", err)
			start = 0
		}
		a.mu.Lock()
		a.next[chainID] = start
		a.initialized[chainID] = true
		a.mu.Unlock()
		a.log.Info("nonce allocator seeded", "chainId", chainID, "next", start)
	}
}

// Allocate returns the next unused sequence number for the chain and
// atomically increments the stored counter.
func (a *Allocator) Allocate(chainID uint64) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized[chainID] {
		return 0, promptmint.Errorf(promptmint.ErrCodeNonceNotInitialized,
			"nonce allocator not initialized for chain %d", chainID)
	}
	n := a.next[chainID]
	a.next[chainID] = n + 1
	return n, nil
}

// Peek returns the next value without consuming it. Diagnostics only.
func (a *Allocator) Peek(chainID uint64) (uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized[chainID] {
		return 0, false
	}
	return a.next[chainID], true
}
