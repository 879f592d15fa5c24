package keys

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "keys.yml"), nil)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	return NewLedger(store, nil)
}

func TestLedgerAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("GrantsKeys", func(t *testing.T) {
		l := newTestLedger(t)
		balance, err := l.Add(ctx, "weekly", "steve", 5)
		if err != nil {
			t.Fatalf("Failed to add keys: %v", err)
		}
		if balance != 5 {
			t.Errorf("Expected balance 5, got %d", balance)
		}

		balance, err = l.Add(ctx, "weekly", "steve", 3)
		if err != nil {
			t.Fatalf("Failed to add keys: %v", err)
		}
		if balance != 8 {
			t.Errorf("Expected balance 8, got %d", balance)
		}
	})

	t.Run("RejectsNonPositiveAmount", func(t *testing.T) {
		l := newTestLedger(t)
		if _, err := l.Add(ctx, "weekly", "steve", 0); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Expected ErrInvalidAmount for zero, got %v", err)
		}
		if _, err := l.Add(ctx, "weekly", "steve", -2); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Expected ErrInvalidAmount for negative, got %v", err)
		}
	})

	t.Run("RejectsEmptyIdentifiers", func(t *testing.T) {
		l := newTestLedger(t)
		if _, err := l.Add(ctx, "", "steve", 1); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Expected ErrInvalidKey, got %v", err)
		}
		if _, err := l.Add(ctx, "weekly", "  ", 1); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Expected ErrInvalidKey, got %v", err)
		}
	})
}

func TestLedgerRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("ConsumesKeys", func(t *testing.T) {
		l := newTestLedger(t)
		l.Add(ctx, "weekly", "steve", 5)

		balance, err := l.Remove(ctx, "weekly", "steve", 2)
		if err != nil {
			t.Fatalf("Failed to remove keys: %v", err)
		}
		if balance != 3 {
			t.Errorf("Expected balance 3, got %d", balance)
		}
	})

	t.Run("ClampsAtZero", func(t *testing.T) {
		l := newTestLedger(t)
		l.Add(ctx, "weekly", "steve", 5)

		balance, err := l.Remove(ctx, "weekly", "steve", 100)
		if err != nil {
			t.Fatalf("Failed to remove keys: %v", err)
		}
		if balance != 0 {
			t.Errorf("Expected balance clamped to 0, got %d", balance)
		}

		balance, _ = l.Get(ctx, "weekly", "steve")
		if balance != 0 {
			t.Errorf("Stored balance should be 0, got %d", balance)
		}
	})

	t.Run("RemoveFromUnknownPairStaysZero", func(t *testing.T) {
		l := newTestLedger(t)
		balance, err := l.Remove(ctx, "weekly", "ghost", 3)
		if err != nil {
			t.Fatalf("Failed to remove keys: %v", err)
		}
		if balance != 0 {
			t.Errorf("Expected balance 0, got %d", balance)
		}
	})
}

func TestLedgerSet(t *testing.T) {
	ctx := context.Background()

	t.Run("OverwritesBalance", func(t *testing.T) {
		l := newTestLedger(t)
		l.Add(ctx, "weekly", "steve", 5)

		if err := l.Set(ctx, "weekly", "steve", 2); err != nil {
			t.Fatalf("Failed to set keys: %v", err)
		}
		balance, _ := l.Get(ctx, "weekly", "steve")
		if balance != 2 {
			t.Errorf("Expected balance 2, got %d", balance)
		}
	})

	t.Run("NegativeClampsToZero", func(t *testing.T) {
		l := newTestLedger(t)
		if err := l.Set(ctx, "weekly", "steve", -7); err != nil {
			t.Fatalf("Failed to set keys: %v", err)
		}
		balance, _ := l.Get(ctx, "weekly", "steve")
		if balance != 0 {
			t.Errorf("Expected balance 0, got %d", balance)
		}
	})
}

func TestLedgerNormalizesPlayer(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	l.Add(ctx, "weekly", "Steve", 4)
	balance, err := l.Get(ctx, "weekly", "sTeVe")
	if err != nil {
		t.Fatalf("Failed to get keys: %v", err)
	}
	if balance != 4 {
		t.Errorf("Expected case-insensitive lookup to find 4 keys, got %d", balance)
	}
}

func TestFileStorePersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keys.yml")

	store, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	store.Add(ctx, "weekly", "steve", 7)
	store.Add(ctx, "daily", "alex", 2)
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close file store: %v", err)
	}

	reopened, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("Failed to reopen file store: %v", err)
	}
	balance, _ := reopened.Get(ctx, "weekly", "steve")
	if balance != 7 {
		t.Errorf("Expected persisted balance 7, got %d", balance)
	}
	balance, _ = reopened.Get(ctx, "daily", "alex")
	if balance != 2 {
		t.Errorf("Expected persisted balance 2, got %d", balance)
	}
}

func TestFileStoreFlushIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yml")
	store, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	// Nothing dirty yet; flush must not create the file.
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush on clean store failed: %v", err)
	}

	store.Set(context.Background(), "weekly", "steve", 1)
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("Second flush failed: %v", err)
	}
}
