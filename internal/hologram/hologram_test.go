package hologram

import (
	"testing"

	"github.com/hexforge/lootcase/internal/cases"
	"github.com/hexforge/lootcase/internal/domain"
	"github.com/hexforge/lootcase/internal/history"
)

func holoCase(id string, enabled bool, message []string) *domain.CaseDefinition {
	return &domain.CaseDefinition{
		CaseID:      id,
		DisplayName: "&aWeekly",
		Hologram: domain.Hologram{
			Enabled: enabled,
			Message: message,
		},
	}
}

func TestRefreshAll(t *testing.T) {
	t.Run("RendersEnabledHolograms", func(t *testing.T) {
		registry := cases.NewRegistry()
		registry.Replace(map[string]*domain.CaseDefinition{
			"weekly": holoCase("weekly", true, []string{"%case%", "open me"}),
			"silent": holoCase("silent", false, []string{"never shown"}),
		})

		display := NewMemoryDisplay()
		m := NewManager(registry, history.NewLog(nil), display, nil)
		m.RefreshAll()

		lines := display.Lines("weekly")
		if len(lines) != 2 {
			t.Fatalf("Expected 2 lines, got %d", len(lines))
		}
		if lines[0] != "&aWeekly" {
			t.Errorf("Case placeholder not substituted: %q", lines[0])
		}
		if display.Lines("silent") != nil {
			t.Error("Disabled hologram must not be rendered")
		}
	})

	t.Run("SubstitutesHistoryPlaceholders", func(t *testing.T) {
		registry := cases.NewRegistry()
		registry.Replace(map[string]*domain.CaseDefinition{
			"weekly": holoCase("weekly", true, []string{
				"last: %history-1-player% (%history-1-group%)",
				"before: %history-2-player%",
			}),
		})

		hist := history.NewLog(nil)
		hist.Append("weekly", domain.HistoryEntry{Player: "alex", Group: "common"})
		hist.Append("weekly", domain.HistoryEntry{Player: "steve", Group: "rare"})

		display := &MemoryDisplay{}
		m := NewManager(registry, hist, display, nil)
		m.RefreshAll()

		lines := display.Lines("weekly")
		if lines[0] != "last: steve (rare)" {
			t.Errorf("Unexpected first line: %q", lines[0])
		}
		if lines[1] != "before: alex" {
			t.Errorf("Unexpected second line: %q", lines[1])
		}
	})

	t.Run("UnfilledPlaceholdersStay", func(t *testing.T) {
		registry := cases.NewRegistry()
		registry.Replace(map[string]*domain.CaseDefinition{
			"weekly": holoCase("weekly", true, []string{"%history-1-player%"}),
		})

		display := &MemoryDisplay{}
		m := NewManager(registry, history.NewLog(nil), display, nil)
		m.RefreshAll()

		lines := display.Lines("weekly")
		if lines[0] != "%history-1-player%" {
			t.Errorf("Placeholder without history should pass through: %q", lines[0])
		}
	})
}

func TestStartValidatesSchedule(t *testing.T) {
	registry := cases.NewRegistry()
	registry.Replace(map[string]*domain.CaseDefinition{})
	m := NewManager(registry, history.NewLog(nil), &MemoryDisplay{}, nil)

	if err := m.Start("not a schedule"); err == nil {
		t.Error("Expected an error for a malformed schedule")
	}

	if err := m.Start("@every 30s"); err != nil {
		t.Errorf("Valid schedule rejected: %v", err)
	}
	m.Stop()
}
