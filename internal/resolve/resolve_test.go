package resolve

import (
	"errors"
	"math"
	"testing"

	"github.com/hexforge/lootcase/internal/domain"
	"github.com/hexforge/lootcase/internal/rng"
)

func caseWithChances(chances map[string]float64, order []string) *domain.CaseDefinition {
	def := &domain.CaseDefinition{
		CaseID:    "test",
		Items:     make(map[string]*domain.Item),
		ItemOrder: order,
	}
	for name, chance := range chances {
		def.Items[name] = &domain.Item{
			Name:   name,
			Group:  "group_" + name,
			Chance: chance,
		}
	}
	return def
}

func TestResolveItem(t *testing.T) {
	t.Run("ConvergesToWeights", func(t *testing.T) {
		def := caseWithChances(map[string]float64{
			"common": 1, "uncommon": 1, "rare": 2,
		}, []string{"common", "uncommon", "rare"})

		r := New(rng.NewSeeded(42))
		const draws = 20000
		counts := make(map[string]int)
		for i := 0; i < draws; i++ {
			item, err := r.ResolveItem(def)
			if err != nil {
				t.Fatalf("Failed to resolve item: %v", err)
			}
			counts[item.Name]++
		}

		expected := map[string]float64{"common": 0.25, "uncommon": 0.25, "rare": 0.5}
		for name, want := range expected {
			got := float64(counts[name]) / draws
			if math.Abs(got-want) > 0.02 {
				t.Errorf("Item %q frequency %f, expected ~%f", name, got, want)
			}
		}
	})

	t.Run("ZeroWeightNeverSelected", func(t *testing.T) {
		def := caseWithChances(map[string]float64{
			"real": 5, "phantom": 0,
		}, []string{"real", "phantom"})

		r := New(rng.NewSeeded(7))
		for i := 0; i < 5000; i++ {
			item, err := r.ResolveItem(def)
			if err != nil {
				t.Fatalf("Failed to resolve item: %v", err)
			}
			if item.Name == "phantom" {
				t.Fatal("Zero-weight item was selected")
			}
		}
	})

	t.Run("SingleCandidateAlwaysWins", func(t *testing.T) {
		def := caseWithChances(map[string]float64{"only": 0.001}, []string{"only"})

		r := New(rng.NewSeeded(3))
		for i := 0; i < 100; i++ {
			item, err := r.ResolveItem(def)
			if err != nil {
				t.Fatalf("Failed to resolve item: %v", err)
			}
			if item.Name != "only" {
				t.Fatalf("Expected the only candidate, got %q", item.Name)
			}
		}
	})

	t.Run("EmptyPoolError", func(t *testing.T) {
		def := caseWithChances(map[string]float64{
			"a": 0, "b": 0,
		}, []string{"a", "b"})

		r := New(rng.NewSeeded(1))
		if _, err := r.ResolveItem(def); !errors.Is(err, ErrEmptyPool) {
			t.Errorf("Expected ErrEmptyPool, got %v", err)
		}
	})

	t.Run("NoItemsError", func(t *testing.T) {
		def := caseWithChances(nil, nil)
		r := New(rng.NewSeeded(1))
		if _, err := r.ResolveItem(def); !errors.Is(err, ErrEmptyPool) {
			t.Errorf("Expected ErrEmptyPool, got %v", err)
		}
	})

	t.Run("NegativeWeightTreatedAsZero", func(t *testing.T) {
		def := caseWithChances(map[string]float64{
			"good": 1, "broken": -5,
		}, []string{"good", "broken"})

		r := New(rng.NewSeeded(9))
		for i := 0; i < 1000; i++ {
			item, err := r.ResolveItem(def)
			if err != nil {
				t.Fatalf("Failed to resolve item: %v", err)
			}
			if item.Name == "broken" {
				t.Fatal("Negative-weight item was selected")
			}
		}
	})
}

func TestResolveGroup(t *testing.T) {
	def := caseWithChances(map[string]float64{"win": 1}, []string{"win"})

	r := New(rng.NewSeeded(5))
	group, err := r.ResolveGroup(def)
	if err != nil {
		t.Fatalf("Failed to resolve group: %v", err)
	}
	if group != "group_win" {
		t.Errorf("Expected group_win, got %q", group)
	}
}

func TestResolveRandomAction(t *testing.T) {
	t.Run("NoActionsYieldsNone", func(t *testing.T) {
		item := &domain.Item{Name: "plain"}
		r := New(rng.NewSeeded(1))
		ra, err := r.ResolveRandomAction(item)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if ra != nil {
			t.Errorf("Expected no random action, got %q", ra.Name)
		}
	})

	t.Run("ZeroWeightPoolYieldsNone", func(t *testing.T) {
		item := &domain.Item{
			Name: "hollow",
			RandomActions: map[string]*domain.RandomAction{
				"never": {Name: "never", Chance: 0},
			},
			RandomActionOrder: []string{"never"},
		}
		r := New(rng.NewSeeded(1))
		ra, err := r.ResolveRandomAction(item)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if ra != nil {
			t.Errorf("Expected no random action, got %q", ra.Name)
		}
	})

	t.Run("ConvergesToWeights", func(t *testing.T) {
		item := &domain.Item{
			Name: "loaded",
			RandomActions: map[string]*domain.RandomAction{
				"often":  {Name: "often", Chance: 3},
				"rarely": {Name: "rarely", Chance: 1},
			},
			RandomActionOrder: []string{"often", "rarely"},
		}

		r := New(rng.NewSeeded(11))
		const draws = 20000
		counts := make(map[string]int)
		for i := 0; i < draws; i++ {
			ra, err := r.ResolveRandomAction(item)
			if err != nil {
				t.Fatalf("Failed to resolve random action: %v", err)
			}
			counts[ra.Name]++
		}

		often := float64(counts["often"]) / draws
		if math.Abs(often-0.75) > 0.02 {
			t.Errorf("Random action frequency %f, expected ~0.75", often)
		}
	})
}
