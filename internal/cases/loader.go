// Package cases loads case definitions from YAML documents and maintains
// the live case registry.
//
// Loading is tolerant by design: a malformed case, item or GUI entry is
// skipped with a warning and never aborts the rest of the load. The
// registry is replaced wholesale after a load, so readers holding the
// previous snapshot are never exposed to a half-updated set.
package cases

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hexforge/lootcase/internal/domain"
	"github.com/hexforge/lootcase/internal/events"
)

// raw config mirrors the on-disk YAML schema. Ordered sections (Items,
// Gui.Items, RandomActions) stay as yaml.Node so declared order survives
// decoding; plain Go maps would lose it.
type rawCaseFile struct {
	Case *rawCase `yaml:"case"`
}

type rawCase struct {
	Title             string         `yaml:"Title"`
	DisplayName       string         `yaml:"DisplayName"`
	Animation         string         `yaml:"Animation"`
	AnimationSettings map[string]any `yaml:"AnimationSettings"`
	OpenType          string         `yaml:"OpenType"`
	Hologram          *rawHologram   `yaml:"Hologram"`
	LevelGroups       map[string]int `yaml:"LevelGroups"`
	NoKeyActions      []string       `yaml:"NoKeyActions"`
	Items             yaml.Node      `yaml:"Items"`
	Gui               *rawGUI        `yaml:"Gui"`
}

type rawHologram struct {
	Toggle  bool     `yaml:"Toggle"`
	Height  float64  `yaml:"Height"`
	Range   int      `yaml:"Range"`
	Message []string `yaml:"Message"`
}

type rawItem struct {
	Group              string       `yaml:"Group"`
	Chance             float64      `yaml:"Chance"`
	Index              int          `yaml:"Index"`
	GiveType           string       `yaml:"GiveType"`
	Actions            []string     `yaml:"Actions"`
	AlternativeActions []string     `yaml:"AlternativeActions"`
	RandomActions      yaml.Node    `yaml:"RandomActions"`
	Item               *rawMaterial `yaml:"Item"`
}

type rawRandomAction struct {
	Chance      float64  `yaml:"Chance"`
	Actions     []string `yaml:"Actions"`
	DisplayName string   `yaml:"DisplayName"`
}

type rawMaterial struct {
	ID          string   `yaml:"ID"`
	Material    string   `yaml:"Material"`
	DisplayName string   `yaml:"DisplayName"`
	Lore        []string `yaml:"Lore"`
	Enchanted   bool     `yaml:"Enchanted"`
	ModelData   *int     `yaml:"ModelData"`
	Rgb         string   `yaml:"Rgb"`
}

type rawGUI struct {
	Title      string    `yaml:"Title"`
	Size       *int      `yaml:"Size"`
	UpdateRate *int      `yaml:"UpdateRate"`
	Items      yaml.Node `yaml:"Items"`
}

type rawGUIItem struct {
	Type        string    `yaml:"Type"`
	Material    string    `yaml:"Material"`
	ID          string    `yaml:"ID"`
	DisplayName string    `yaml:"DisplayName"`
	Lore        []string  `yaml:"Lore"`
	Enchanted   bool      `yaml:"Enchanted"`
	ModelData   *int      `yaml:"ModelData"`
	Rgb         string    `yaml:"Rgb"`
	Slots       yaml.Node `yaml:"Slots"`
}

// Loader parses case documents and swaps the registry.
type Loader struct {
	dir      string
	registry *Registry
	bus      *events.Bus
	log      *zap.Logger
}

// NewLoader creates a loader reading case files from dir.
func NewLoader(dir string, registry *Registry, bus *events.Bus, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		dir:      dir,
		registry: registry,
		bus:      bus,
		log:      log.Named("cases"),
	}
}

// LoadAll reads every .yml/.yaml document in the case directory, builds the
// new registry and swaps it in atomically. It returns the number of cases
// loaded. Individual malformed cases are skipped with a warning; only a
// completely unreadable directory is an error.
func (l *Loader) LoadAll() (int, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return 0, fmt.Errorf("read case directory %s: %w", l.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	loaded := make(map[string]*domain.CaseDefinition, len(names))
	for _, name := range names {
		caseID := strings.TrimSuffix(name, filepath.Ext(name))
		def, ok := l.loadFile(caseID, filepath.Join(l.dir, name))
		if !ok {
			continue
		}
		if _, dup := loaded[caseID]; dup {
			l.log.Warn("duplicate case id, keeping first", zap.String("case", caseID))
			continue
		}
		loaded[caseID] = def
	}

	l.registry.Replace(loaded)

	if l.bus != nil {
		l.bus.Publish(&events.ReloadEvent{Count: len(loaded)})
	}
	l.log.Info("cases loaded", zap.Int("count", len(loaded)))
	return len(loaded), nil
}

// loadFile parses one case document. ok=false means the case was skipped.
func (l *Loader) loadFile(caseID, path string) (*domain.CaseDefinition, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		l.log.Warn("case file unreadable, skipped",
			zap.String("case", caseID), zap.Error(err))
		return nil, false
	}

	var file rawCaseFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		l.log.Warn("case file is not valid YAML, skipped",
			zap.String("case", caseID), zap.Error(err))
		return nil, false
	}

	if file.Case == nil {
		l.log.Warn("case has a broken case section, skipped", zap.String("case", caseID))
		return nil, false
	}

	return l.buildCase(caseID, file.Case)
}

func (l *Loader) buildCase(caseID string, rc *rawCase) (*domain.CaseDefinition, bool) {
	if strings.TrimSpace(rc.Animation) == "" {
		l.log.Warn("case has no animation, skipped", zap.String("case", caseID))
		return nil, false
	}

	def := &domain.CaseDefinition{
		CaseID:            caseID,
		Title:             rc.Title,
		DisplayName:       rc.DisplayName,
		AnimationName:     rc.Animation,
		AnimationSettings: rc.AnimationSettings,
		OpenType:          domain.ParseOpenType(rc.OpenType),
		LevelGroups:       rc.LevelGroups,
		NoKeyActions:      rc.NoKeyActions,
		Hologram:          buildHologram(rc.Hologram),
		Items:             make(map[string]*domain.Item),
	}

	l.loadItems(caseID, rc, def)
	def.GUI = l.loadGUI(caseID, rc.Gui, rc.Title)

	return def, true
}

func buildHologram(rh *rawHologram) domain.Hologram {
	if rh == nil || !rh.Toggle {
		return domain.Hologram{}
	}
	return domain.Hologram{
		Enabled: true,
		Height:  rh.Height,
		Range:   rh.Range,
		Message: rh.Message,
	}
}

func (l *Loader) loadItems(caseID string, rc *rawCase, def *domain.CaseDefinition) {
	pairs, err := mappingPairs(&rc.Items)
	if err != nil {
		l.log.Warn("case has a broken Items section", zap.String("case", caseID))
		return
	}

	for _, p := range pairs {
		var ri rawItem
		if err := p.value.Decode(&ri); err != nil {
			l.log.Warn("case item section is broken, skipped",
				zap.String("case", caseID), zap.String("item", p.key), zap.Error(err))
			continue
		}
		item := l.buildItem(caseID, p.key, &ri)
		if item == nil {
			continue
		}
		def.Items[p.key] = item
		def.ItemOrder = append(def.ItemOrder, p.key)
	}
}

func (l *Loader) buildItem(caseID, name string, ri *rawItem) *domain.Item {
	if ri.Item == nil {
		l.log.Warn("case item has no material section, skipped",
			zap.String("case", caseID), zap.String("item", name))
		return nil
	}
	if ri.Chance < 0 {
		l.log.Warn("case item has a negative chance, clamped to zero",
			zap.String("case", caseID), zap.String("item", name))
		ri.Chance = 0
	}

	item := &domain.Item{
		Name:               name,
		Group:              ri.Group,
		Chance:             ri.Chance,
		Index:              ri.Index,
		GiveType:           parseGiveType(ri.GiveType),
		Material:           buildMaterial(ri.Item.ID, ri.Item.Material, ri.Item.DisplayName, ri.Item.Lore, ri.Item.Enchanted, ri.Item.ModelData, ri.Item.Rgb),
		Actions:            ri.Actions,
		AlternativeActions: ri.AlternativeActions,
		RandomActions:      make(map[string]*domain.RandomAction),
	}

	raPairs, err := mappingPairs(&ri.RandomActions)
	if err != nil {
		l.log.Warn("item has a broken RandomActions section",
			zap.String("case", caseID), zap.String("item", name))
		return item
	}
	for _, rp := range raPairs {
		var rra rawRandomAction
		if err := rp.value.Decode(&rra); err != nil {
			l.log.Warn("random action section is broken, skipped",
				zap.String("case", caseID), zap.String("item", name),
				zap.String("action", rp.key))
			continue
		}
		item.RandomActions[rp.key] = &domain.RandomAction{
			Name:        rp.key,
			Chance:      rra.Chance,
			Actions:     rra.Actions,
			DisplayName: rra.DisplayName,
		}
		item.RandomActionOrder = append(item.RandomActionOrder, rp.key)
	}

	return item
}

func parseGiveType(s string) domain.GiveType {
	if strings.EqualFold(s, string(domain.GiveTypeAll)) {
		return domain.GiveTypeAll
	}
	return domain.GiveTypeOne
}

func buildMaterial(id, materialID, displayName string, lore []string, enchanted bool, modelData *int, rgb string) domain.Material {
	if id == "" {
		id = materialID
	}
	md := -1
	if modelData != nil {
		md = *modelData
	}
	return domain.Material{
		ID:          id,
		DisplayName: displayName,
		Lore:        lore,
		Enchanted:   enchanted,
		ModelData:   md,
		RGB:         parseRGB(rgb),
	}
}

// parseRGB accepts "r g b" or "r,g,b"; anything else yields no tint.
func parseRGB(s string) *domain.RGB {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) != 3 {
		return nil
	}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return nil
		}
		vals[i] = v
	}
	return &domain.RGB{R: vals[0], G: vals[1], B: vals[2]}
}

func (l *Loader) loadGUI(caseID string, rg *rawGUI, caseTitle string) *domain.GUI {
	if rg == nil {
		return nil
	}

	size := 45
	if rg.Size != nil {
		size = *rg.Size
	}
	if !domain.ValidGUISize(size) {
		l.log.Warn("wrong GUI size, using 54",
			zap.String("case", caseID), zap.Int("size", size))
		size = 54
	}

	updateRate := -1
	if rg.UpdateRate != nil {
		updateRate = *rg.UpdateRate
	}

	title := rg.Title
	if title == "" {
		title = caseTitle
	}

	gui := &domain.GUI{
		Title:      title,
		Size:       size,
		UpdateRate: updateRate,
		Items:      make(map[string]*domain.GUIItem),
	}

	pairs, err := mappingPairs(&rg.Items)
	if err != nil {
		l.log.Warn("case has a broken Gui.Items section", zap.String("case", caseID))
		return gui
	}

	claimed := make(map[int]bool)
	for _, p := range pairs {
		var rgi rawGUIItem
		if err := p.value.Decode(&rgi); err != nil {
			l.log.Warn("GUI item section is broken, skipped",
				zap.String("case", caseID), zap.String("item", p.key))
			continue
		}
		item := l.buildGUIItem(caseID, p.key, &rgi, claimed)
		if item == nil {
			continue
		}
		gui.Items[p.key] = item
		gui.ItemOrder = append(gui.ItemOrder, p.key)
	}

	return gui
}

// buildGUIItem resolves the item's slots against the already-claimed set.
// First claim wins: colliding slots are dropped with a warning, and an
// item left without any slot is discarded entirely.
func (l *Loader) buildGUIItem(caseID, name string, rgi *rawGUIItem, claimed map[int]bool) *domain.GUIItem {
	slots, err := parseSlots(&rgi.Slots)
	if err != nil {
		l.log.Warn("GUI item has unparseable slots, skipped",
			zap.String("case", caseID), zap.String("item", name), zap.Error(err))
		return nil
	}
	if len(slots) == 0 {
		l.log.Warn("GUI item has no specified slots, skipped",
			zap.String("case", caseID), zap.String("item", name))
		return nil
	}

	kept := slots[:0]
	dropped := 0
	for _, s := range slots {
		if claimed[s] {
			dropped++
			continue
		}
		claimed[s] = true
		kept = append(kept, s)
	}
	if dropped > 0 {
		l.log.Warn("GUI item contains duplicated slots, removing",
			zap.String("case", caseID), zap.String("item", name), zap.Int("dropped", dropped))
	}
	if len(kept) == 0 {
		l.log.Warn("GUI item lost all slots to earlier items, skipped",
			zap.String("case", caseID), zap.String("item", name))
		return nil
	}

	itemType := rgi.Type
	if itemType == "" {
		itemType = "DEFAULT"
	}

	return &domain.GUIItem{
		Name:     name,
		Type:     itemType,
		Material: buildMaterial(rgi.ID, rgi.Material, rgi.DisplayName, rgi.Lore, rgi.Enchanted, rgi.ModelData, rgi.Rgb),
		Slots:    kept,
	}
}

// parseSlots accepts either a scalar ("10" or "10-20") or a list whose
// entries may themselves be single slots or "a-b" ranges.
func parseSlots(node *yaml.Node) ([]int, error) {
	if node == nil || node.Kind == 0 {
		return nil, nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		return parseSlotSpec(node.Value)
	case yaml.SequenceNode:
		var out []int
		for _, child := range node.Content {
			vals, err := parseSlotSpec(child.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, vals...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("slots must be a scalar or a list")
	}
}

func parseSlotSpec(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	parts := strings.SplitN(spec, "-", 2)
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("bad slot %q: %w", spec, err)
	}
	hi := lo
	if len(parts) == 2 {
		hi, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("bad slot range %q: %w", spec, err)
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	out := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	return out, nil
}

// nodePair is one key/value entry of a YAML mapping, in document order.
type nodePair struct {
	key   string
	value *yaml.Node
}

// mappingPairs returns the entries of a mapping node in declared order.
// A zero node yields no pairs; a non-mapping node is an error.
func mappingPairs(node *yaml.Node) ([]nodePair, error) {
	if node == nil || node.Kind == 0 || node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping")
	}
	pairs := make([]nodePair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		pairs = append(pairs, nodePair{
			key:   node.Content[i].Value,
			value: node.Content[i+1],
		})
	}
	return pairs, nil
}
