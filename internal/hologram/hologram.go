// Package hologram renders the floating text lines shown above placed
// cases and refreshes them on a schedule.
//
// Rendering is pure text: placeholders are substituted from the registry
// and the history log, and the result is handed to a Display. The real
// display layer lives in the host; the reference display keeps the last
// rendered lines in memory for the API to serve.
package hologram

import (
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hexforge/lootcase/internal/cases"
	"github.com/hexforge/lootcase/internal/history"
)

// Display receives rendered hologram lines per case.
type Display interface {
	Update(caseID string, lines []string)
}

// Manager renders hologram lines for every case with holograms enabled.
type Manager struct {
	registry *cases.Registry
	history  *history.Log
	display  Display
	log      *zap.Logger

	cron    *cron.Cron
	entryID cron.EntryID
}

// NewManager creates a manager over the registry and history log.
func NewManager(registry *cases.Registry, hist *history.Log, display Display, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if display == nil {
		display = &MemoryDisplay{}
	}
	return &Manager{
		registry: registry,
		history:  hist,
		display:  display,
		log:      log.Named("hologram"),
	}
}

// Start refreshes all holograms immediately and then on the given cron
// schedule (e.g. "@every 30s").
func (m *Manager) Start(schedule string) error {
	m.RefreshAll()

	m.cron = cron.New()
	id, err := m.cron.AddFunc(schedule, m.RefreshAll)
	if err != nil {
		return fmt.Errorf("hologram schedule %q: %w", schedule, err)
	}
	m.entryID = id
	m.cron.Start()
	return nil
}

// Stop halts the refresh schedule.
func (m *Manager) Stop() {
	if m.cron != nil {
		m.cron.Stop()
	}
}

// RefreshAll re-renders every enabled hologram against the current
// registry snapshot.
func (m *Manager) RefreshAll() {
	for id, def := range m.registry.All() {
		if !def.Hologram.Enabled {
			continue
		}
		m.display.Update(id, m.render(id, def.DisplayName, def.Hologram.Message))
	}
}

// render substitutes placeholders in the configured message lines:
// %case% and the %history-N-player% / %history-N-group% family, where N
// counts back from the most recent outcome (1-based).
func (m *Manager) render(caseID, displayName string, message []string) []string {
	recent := m.history.Recent(caseID)

	lines := make([]string, len(message))
	for i, line := range message {
		line = strings.ReplaceAll(line, "%case%", displayName)
		for n := 1; n <= len(recent); n++ {
			e := recent[n-1]
			line = strings.ReplaceAll(line, fmt.Sprintf("%%history-%d-player%%", n), e.Player)
			line = strings.ReplaceAll(line, fmt.Sprintf("%%history-%d-group%%", n), e.Group)
		}
		lines[i] = line
	}
	return lines
}

// MemoryDisplay stores the last rendered lines per case.
type MemoryDisplay struct {
	mu    sync.RWMutex
	lines map[string][]string
}

// NewMemoryDisplay creates an in-memory display.
func NewMemoryDisplay() *MemoryDisplay {
	return &MemoryDisplay{lines: make(map[string][]string)}
}

func (d *MemoryDisplay) Update(caseID string, lines []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lines == nil {
		d.lines = make(map[string][]string)
	}
	d.lines[caseID] = lines
}

// Lines returns the last rendered lines for a case.
func (d *MemoryDisplay) Lines(caseID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lines[caseID]
}
