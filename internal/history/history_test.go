package history

import (
	"fmt"
	"testing"

	"github.com/hexforge/lootcase/internal/domain"
)

func entry(n int) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:     fmt.Sprintf("id-%d", n),
		CaseID: "weekly",
		Player: fmt.Sprintf("player%d", n),
		Group:  "common",
		Item:   fmt.Sprintf("item%d", n),
	}
}

func TestAppend(t *testing.T) {
	t.Run("WrapsAfterTenEntries", func(t *testing.T) {
		l := NewLog(nil)
		for i := 1; i <= 11; i++ {
			l.Append("weekly", entry(i))
		}

		// Slot 0 held entry 1 and must now hold entry 11.
		got, ok := l.Get("weekly", 0)
		if !ok {
			t.Fatal("Slot 0 unexpectedly empty")
		}
		if got.ID != "id-11" {
			t.Errorf("Slot 0 holds %q, expected the entry that overwrote the oldest", got.ID)
		}

		// Entries 2 through 10 survive in their original slots.
		for i := 2; i <= 10; i++ {
			got, ok := l.Get("weekly", i-1)
			if !ok {
				t.Fatalf("Slot %d unexpectedly empty", i-1)
			}
			if got.ID != fmt.Sprintf("id-%d", i) {
				t.Errorf("Slot %d holds %q, expected id-%d", i-1, got.ID, i)
			}
		}
	})

	t.Run("CasesAreIndependent", func(t *testing.T) {
		l := NewLog(nil)
		l.Append("weekly", entry(1))
		l.Append("daily", entry(2))

		got, ok := l.Get("weekly", 0)
		if !ok || got.ID != "id-1" {
			t.Errorf("weekly slot 0 = %v, ok=%v", got.ID, ok)
		}
		got, ok = l.Get("daily", 0)
		if !ok || got.ID != "id-2" {
			t.Errorf("daily slot 0 = %v, ok=%v", got.ID, ok)
		}
	})
}

func TestGet(t *testing.T) {
	t.Run("EmptySlotNotOK", func(t *testing.T) {
		l := NewLog(nil)
		l.Append("weekly", entry(1))

		if _, ok := l.Get("weekly", 5); ok {
			t.Error("Expected ok=false for a never-written slot")
		}
		if _, ok := l.Get("unknown", 0); ok {
			t.Error("Expected ok=false for an unknown case")
		}
	})

	t.Run("IndexWrapsModuloTen", func(t *testing.T) {
		l := NewLog(nil)
		l.Append("weekly", entry(1))

		got, ok := l.Get("weekly", 10)
		if !ok || got.ID != "id-1" {
			t.Errorf("Index 10 should wrap to slot 0: got %v, ok=%v", got.ID, ok)
		}
	})
}

func TestRecent(t *testing.T) {
	t.Run("NewestFirst", func(t *testing.T) {
		l := NewLog(nil)
		for i := 1; i <= 3; i++ {
			l.Append("weekly", entry(i))
		}

		recent := l.Recent("weekly")
		if len(recent) != 3 {
			t.Fatalf("Expected 3 entries, got %d", len(recent))
		}
		for i, want := range []string{"id-3", "id-2", "id-1"} {
			if recent[i].ID != want {
				t.Errorf("Recent[%d] = %q, expected %q", i, recent[i].ID, want)
			}
		}
	})

	t.Run("FullRingHoldsTen", func(t *testing.T) {
		l := NewLog(nil)
		for i := 1; i <= 25; i++ {
			l.Append("weekly", entry(i))
		}

		recent := l.Recent("weekly")
		if len(recent) != domain.HistorySize {
			t.Fatalf("Expected %d entries, got %d", domain.HistorySize, len(recent))
		}
		if recent[0].ID != "id-25" {
			t.Errorf("Newest entry is %q, expected id-25", recent[0].ID)
		}
		if recent[9].ID != "id-16" {
			t.Errorf("Oldest retained entry is %q, expected id-16", recent[9].ID)
		}
	})

	t.Run("UnknownCaseEmpty", func(t *testing.T) {
		l := NewLog(nil)
		if got := l.Recent("ghost"); len(got) != 0 {
			t.Errorf("Expected no entries, got %d", len(got))
		}
	})
}

func TestReset(t *testing.T) {
	l := NewLog(nil)
	l.Append("weekly", entry(1))
	l.Reset()

	if _, ok := l.Get("weekly", 0); ok {
		t.Error("Expected empty log after reset")
	}
}
