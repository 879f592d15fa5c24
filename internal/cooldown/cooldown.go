// Package cooldown limits how often one player may open one case.
//
// The window is purely in-memory: a restart clears it, which is acceptable
// because the keys themselves are the real scarcity. A zero default
// disables the check entirely.
package cooldown

import (
	"errors"
	"sync"
	"time"
)

// ErrCoolingDown is returned while a player's window is still open.
var ErrCoolingDown = errors.New("case was opened too recently")

// Service tracks last-open timestamps per (case, player).
type Service struct {
	def time.Duration

	mu        sync.Mutex
	lastOpens map[string]time.Time
	overrides map[string]time.Duration // per-case window
	now       func() time.Time
}

// New creates a service with the given default window. Zero disables it.
func New(def time.Duration) *Service {
	return &Service{
		def:       def,
		lastOpens: make(map[string]time.Time),
		overrides: make(map[string]time.Duration),
		now:       time.Now,
	}
}

// SetCaseWindow overrides the window for one case. Zero removes the
// override; the default applies again.
func (s *Service) SetCaseWindow(caseID string, window time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if window <= 0 {
		delete(s.overrides, caseID)
		return
	}
	s.overrides[caseID] = window
}

// Check returns ErrCoolingDown when the player opened the case inside the
// active window, nil otherwise.
func (s *Service) Check(caseID, player string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := s.def
	if w, ok := s.overrides[caseID]; ok {
		window = w
	}
	if window <= 0 {
		return nil
	}

	last, ok := s.lastOpens[key(caseID, player)]
	if ok && s.now().Sub(last) < window {
		return ErrCoolingDown
	}
	return nil
}

// Touch records a successful open for the pair.
func (s *Service) Touch(caseID, player string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOpens[key(caseID, player)] = s.now()
}

// Prune drops expired entries. Called from a periodic job to keep the map
// from growing with one-time players.
func (s *Service) Prune() {
	s.mu.Lock()
	defer s.mu.Unlock()

	max := s.def
	for _, w := range s.overrides {
		if w > max {
			max = w
		}
	}
	if max <= 0 {
		s.lastOpens = make(map[string]time.Time)
		return
	}
	cutoff := s.now().Add(-max)
	for k, t := range s.lastOpens {
		if t.Before(cutoff) {
			delete(s.lastOpens, k)
		}
	}
}

func key(caseID, player string) string {
	return caseID + "\x00" + player
}
