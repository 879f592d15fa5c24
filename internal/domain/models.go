// Package domain contains the core case model: definitions, items,
// reward groups, GUI layouts and per-case history.
//
// Everything in this package is plain data. A CaseDefinition is built once
// by the loader, never mutated afterwards, and replaced wholesale on
// reload so concurrent readers always see a consistent snapshot.
package domain

import (
	"time"
)

// OpenType determines how a case is presented to the player.
type OpenType string

const (
	// OpenTypeGUI opens the case through its configured inventory GUI.
	OpenTypeGUI OpenType = "GUI"
	// OpenTypeBlock opens the case directly from its placed block.
	OpenTypeBlock OpenType = "BLOCK"
)

// ParseOpenType maps a raw config value to an OpenType, defaulting to GUI.
func ParseOpenType(s string) OpenType {
	if OpenType(s) == OpenTypeBlock {
		return OpenTypeBlock
	}
	return OpenTypeGUI
}

// HistorySize is the fixed number of past outcomes retained per case.
const HistorySize = 10

// CaseDefinition is one fully-loaded loot case.
type CaseDefinition struct {
	CaseID        string           `json:"case_id"`
	Title         string           `json:"title"`
	DisplayName   string           `json:"display_name"`
	AnimationName string           `json:"animation"`
	OpenType      OpenType         `json:"open_type"`
	Items         map[string]*Item `json:"items"`
	// ItemOrder preserves the declared order of Items so iteration stays
	// deterministic; map iteration order is not.
	ItemOrder    []string       `json:"item_order"`
	LevelGroups  map[string]int `json:"level_groups,omitempty"`
	GUI          *GUI           `json:"gui,omitempty"`
	Hologram     Hologram       `json:"hologram"`
	NoKeyActions []string       `json:"no_key_actions,omitempty"`
	// AnimationSettings is a free-form blob interpreted by the animation
	// implementation named by AnimationName.
	AnimationSettings map[string]any `json:"animation_settings,omitempty"`
}

// OrderedItems returns the case items in declared order.
func (c *CaseDefinition) OrderedItems() []*Item {
	out := make([]*Item, 0, len(c.ItemOrder))
	for _, name := range c.ItemOrder {
		if it, ok := c.Items[name]; ok {
			out = append(out, it)
		}
	}
	return out
}

// GiveType controls how a won item is granted.
type GiveType string

const (
	GiveTypeOne GiveType = "ONE"
	GiveTypeAll GiveType = "ALL"
)

// Item is one possible reward inside a case.
type Item struct {
	Name     string   `json:"name"`
	Group    string   `json:"group"`
	Chance   float64  `json:"chance"`
	Index    int      `json:"index"`
	GiveType GiveType `json:"give_type"`
	Material Material `json:"material"`
	Actions            []string                 `json:"actions,omitempty"`
	AlternativeActions []string                 `json:"alternative_actions,omitempty"`
	RandomActions      map[string]*RandomAction `json:"random_actions,omitempty"`
	RandomActionOrder  []string                 `json:"random_action_order,omitempty"`
}

// OrderedRandomActions returns the item's random actions in declared order.
func (i *Item) OrderedRandomActions() []*RandomAction {
	out := make([]*RandomAction, 0, len(i.RandomActionOrder))
	for _, name := range i.RandomActionOrder {
		if ra, ok := i.RandomActions[name]; ok {
			out = append(out, ra)
		}
	}
	return out
}

// RandomAction is a secondary weighted choice nested inside a single item.
// Its draw is independent of the item draw and scoped to the owning item.
type RandomAction struct {
	Name        string   `json:"name"`
	Chance      float64  `json:"chance"`
	Actions     []string `json:"actions"`
	DisplayName string   `json:"display_name,omitempty"`
}

// Material describes how a reward or GUI entry is rendered.
type Material struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name,omitempty"`
	Lore        []string `json:"lore,omitempty"`
	Enchanted   bool     `json:"enchanted,omitempty"`
	ModelData   int      `json:"model_data,omitempty"`
	RGB         *RGB     `json:"rgb,omitempty"`
}

// RGB is an optional tint applied to a material.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Hologram holds the floating display settings above a placed case.
type Hologram struct {
	Enabled bool     `json:"enabled"`
	Height  float64  `json:"height,omitempty"`
	Range   int      `json:"range,omitempty"`
	Message []string `json:"message,omitempty"`
}

// GUI is the inventory layout shown for a case with OpenTypeGUI.
type GUI struct {
	Title      string              `json:"title"`
	Size       int                 `json:"size"`
	UpdateRate int                 `json:"update_rate"`
	Items      map[string]*GUIItem `json:"items"`
	ItemOrder  []string            `json:"item_order"`
}

// GUIItem is one entry in a case GUI. Slots are disjoint across all items
// of one GUI after loading; conflicting slots are resolved first-claim-wins.
type GUIItem struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Material Material `json:"material"`
	Slots    []int    `json:"slots"`
}

// ValidGUISize reports whether size is a legal inventory size:
// a multiple of 9 between 9 and 54.
func ValidGUISize(size int) bool {
	return size >= 9 && size <= 54 && size%9 == 0
}

// Location is where a case block sits in the world. The engine treats it
// as an opaque anchor for visual effects and events.
type Location struct {
	World string  `json:"world"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Yaw   float64 `json:"yaw,omitempty"`
	Pitch float64 `json:"pitch,omitempty"`
}

// HistoryEntry is one recorded case outcome.
type HistoryEntry struct {
	ID       string    `json:"id"`
	CaseID   string    `json:"case_id"`
	Player   string    `json:"player"`
	Group    string    `json:"group"`
	Item     string    `json:"item"`
	Action   string    `json:"action,omitempty"`
	OpenedAt time.Time `json:"opened_at"`
}
