// Package keys provides per-player, per-case key accounting.
//
// Balances are non-negative integers keyed by (case, player) and are only
// mutated through the ledger operations. A removal that would underflow
// clamps the stored value at zero; it is not surfaced as an error. The
// ledger itself gives no atomicity across a get followed by a later
// remove; callers needing that must serialize around the pair.
package keys

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidKey    = errors.New("case and player must be non-empty")
)

// Store is the persistence contract behind the ledger. Two interchangeable
// implementations exist: a local YAML file store and a PostgreSQL store.
type Store interface {
	// Get returns the balance, zero for unknown (case, player) pairs.
	Get(ctx context.Context, caseID, player string) (int, error)
	// Set overwrites the balance. Negative values are stored as zero.
	Set(ctx context.Context, caseID, player string, amount int) error
	// Add increments the balance and returns the new value.
	Add(ctx context.Context, caseID, player string, amount int) (int, error)
	// Remove decrements the balance, clamping at zero, and returns the
	// new value.
	Remove(ctx context.Context, caseID, player string, amount int) (int, error)
	// Close releases the backing resource, flushing pending writes.
	Close() error
}

// Ledger validates and logs key operations on top of a Store.
type Ledger struct {
	store Store
	log   *zap.Logger
}

// NewLedger creates a ledger over the given store.
func NewLedger(store Store, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, log: log.Named("keys")}
}

// Get returns the current balance for (caseID, player).
func (l *Ledger) Get(ctx context.Context, caseID, player string) (int, error) {
	if err := validateKey(caseID, player); err != nil {
		return 0, err
	}
	return l.store.Get(ctx, caseID, normalize(player))
}

// Set overwrites the balance for (caseID, player). Negative amounts clamp
// to zero.
func (l *Ledger) Set(ctx context.Context, caseID, player string, amount int) error {
	if err := validateKey(caseID, player); err != nil {
		return err
	}
	if amount < 0 {
		amount = 0
	}
	if err := l.store.Set(ctx, caseID, normalize(player), amount); err != nil {
		return fmt.Errorf("set keys: %w", err)
	}
	l.log.Info("keys set",
		zap.String("case", caseID), zap.String("player", player), zap.Int("amount", amount))
	return nil
}

// Add grants keys and returns the new balance.
func (l *Ledger) Add(ctx context.Context, caseID, player string, amount int) (int, error) {
	if err := validateKey(caseID, player); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := l.store.Add(ctx, caseID, normalize(player), amount)
	if err != nil {
		return 0, fmt.Errorf("add keys: %w", err)
	}
	l.log.Info("keys added",
		zap.String("case", caseID), zap.String("player", player),
		zap.Int("amount", amount), zap.Int("balance", balance))
	return balance, nil
}

// Remove consumes keys, clamping the stored balance at zero, and returns
// the new balance.
func (l *Ledger) Remove(ctx context.Context, caseID, player string, amount int) (int, error) {
	if err := validateKey(caseID, player); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := l.store.Remove(ctx, caseID, normalize(player), amount)
	if err != nil {
		return 0, fmt.Errorf("remove keys: %w", err)
	}
	l.log.Info("keys removed",
		zap.String("case", caseID), zap.String("player", player),
		zap.Int("amount", amount), zap.Int("balance", balance))
	return balance, nil
}

// Close flushes and closes the backing store.
func (l *Ledger) Close() error {
	return l.store.Close()
}

func validateKey(caseID, player string) error {
	if strings.TrimSpace(caseID) == "" || strings.TrimSpace(player) == "" {
		return ErrInvalidKey
	}
	return nil
}

// normalize keeps player lookups case-insensitive, matching how player
// names arrive from chat-style frontends.
func normalize(player string) string {
	return strings.ToLower(player)
}
