// Package history keeps the fixed-size rotating log of past case outcomes.
//
// Each case owns exactly ten slots. Appends advance a modulo-ten cursor and
// overwrite the oldest entry; slots that were never written stay empty and
// are distinguishable from real entries. Capacity is fixed for the life of
// a case definition and there is no delete operation.
package history

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hexforge/lootcase/internal/domain"
)

// ring is one case's slot array plus its write cursor.
type ring struct {
	slots  [domain.HistorySize]*domain.HistoryEntry
	cursor int
}

// Log stores outcome rings keyed by case ID.
type Log struct {
	log *zap.Logger

	mu    sync.RWMutex
	rings map[string]*ring
}

// NewLog creates an empty history log.
func NewLog(log *zap.Logger) *Log {
	if log == nil {
		log = zap.NewNop()
	}
	return &Log{
		log:   log.Named("history"),
		rings: make(map[string]*ring),
	}
}

// Append writes the entry into the next slot of the case's ring,
// overwriting the oldest entry once the ring has wrapped.
func (l *Log) Append(caseID string, entry domain.HistoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.rings[caseID]
	if !ok {
		r = &ring{}
		l.rings[caseID] = r
	}

	e := entry
	r.slots[r.cursor] = &e
	r.cursor = (r.cursor + 1) % domain.HistorySize

	l.log.Debug("history entry recorded",
		zap.String("case", caseID),
		zap.String("player", entry.Player),
		zap.String("group", entry.Group))
}

// Get returns the entry at the given slot index (0..9, wrapped modulo ten)
// or ok=false if that slot was never written.
func (l *Log) Get(caseID string, index int) (domain.HistoryEntry, bool) {
	if index < 0 {
		index = -index
	}
	index %= domain.HistorySize

	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.rings[caseID]
	if !ok || r.slots[index] == nil {
		return domain.HistoryEntry{}, false
	}
	return *r.slots[index], true
}

// Recent returns the written entries for a case, newest first.
func (l *Log) Recent(caseID string) []domain.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.rings[caseID]
	if !ok {
		return nil
	}

	out := make([]domain.HistoryEntry, 0, domain.HistorySize)
	for i := 1; i <= domain.HistorySize; i++ {
		idx := (r.cursor - i + domain.HistorySize) % domain.HistorySize
		if r.slots[idx] == nil {
			continue
		}
		out = append(out, *r.slots[idx])
	}
	return out
}

// Reset drops all rings. Called when the case registry is torn down.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rings = make(map[string]*ring)
}
