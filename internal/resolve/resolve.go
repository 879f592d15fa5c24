// Package resolve implements weighted reward resolution for loot cases.
//
// Selection is a two-stage draw: first an item (and with it its reward
// group) is drawn from the case pool, then a random action may be drawn
// from the pool scoped to that single item. The two draws are independent;
// the probability of a terminal effect is the product of both.
package resolve

import (
	"errors"
	"fmt"

	"github.com/hexforge/lootcase/internal/domain"
	"github.com/hexforge/lootcase/internal/rng"
)

// ErrEmptyPool is returned when a pool's total weight is zero. An open
// attempt hitting this must not proceed to an animation.
var ErrEmptyPool = errors.New("reward pool has no positive weight")

// entry is one candidate in a flattened pool, carrying the cumulative
// weight up to and including itself.
type entry struct {
	index int
	cumul float64
}

// pool is a flattened candidate list with cumulative weights in stable
// (declared) order.
type pool struct {
	entries []entry
	total   float64
}

func buildPool(weights []float64) pool {
	p := pool{entries: make([]entry, 0, len(weights))}
	for i, w := range weights {
		if w < 0 {
			w = 0
		}
		p.total += w
		p.entries = append(p.entries, entry{index: i, cumul: p.total})
	}
	return p
}

// pick draws a uniform value in [0, total) and walks the entries in
// declared order until the cumulative weight exceeds the draw. Zero-weight
// candidates own an empty interval and can never win.
func (p pool) pick(src rng.Source) (int, error) {
	if p.total <= 0 {
		return 0, ErrEmptyPool
	}
	f, err := src.Float64()
	if err != nil {
		return 0, fmt.Errorf("draw: %w", err)
	}
	target := f * p.total
	for _, e := range p.entries {
		if target < e.cumul {
			return e.index, nil
		}
	}
	// Floating point edge: target == total after rounding. The last
	// positive-weight candidate owns the closing boundary.
	for i := len(p.entries) - 1; i >= 0; i-- {
		if i == 0 || p.entries[i].cumul > p.entries[i-1].cumul {
			return p.entries[i].index, nil
		}
	}
	return 0, ErrEmptyPool
}

// Resolver performs weighted draws against a random source.
type Resolver struct {
	src rng.Source
}

// New creates a resolver using the given random source.
func New(src rng.Source) *Resolver {
	return &Resolver{src: src}
}

// ResolveItem draws one item from the case pool. Items are weighted by
// their Chance; a case whose items sum to zero weight yields ErrEmptyPool.
func (r *Resolver) ResolveItem(def *domain.CaseDefinition) (*domain.Item, error) {
	items := def.OrderedItems()
	if len(items) == 0 {
		return nil, ErrEmptyPool
	}
	weights := make([]float64, len(items))
	for i, it := range items {
		weights[i] = it.Chance
	}
	idx, err := buildPool(weights).pick(r.src)
	if err != nil {
		return nil, err
	}
	return items[idx], nil
}

// ResolveGroup draws an item and returns its reward group name.
func (r *Resolver) ResolveGroup(def *domain.CaseDefinition) (string, error) {
	item, err := r.ResolveItem(def)
	if err != nil {
		return "", err
	}
	return item.Group, nil
}

// ResolveRandomAction draws one of the item's random actions. Items
// without random actions, or whose random actions all carry zero weight,
// yield (nil, nil): the win simply has no secondary effect.
func (r *Resolver) ResolveRandomAction(item *domain.Item) (*domain.RandomAction, error) {
	actions := item.OrderedRandomActions()
	if len(actions) == 0 {
		return nil, nil
	}
	weights := make([]float64, len(actions))
	for i, ra := range actions {
		weights[i] = ra.Chance
	}
	idx, err := buildPool(weights).pick(r.src)
	if err != nil {
		if errors.Is(err, ErrEmptyPool) {
			return nil, nil
		}
		return nil, err
	}
	return actions[idx], nil
}
