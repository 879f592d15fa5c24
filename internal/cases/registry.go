package cases

import (
	"sort"
	"sync/atomic"

	"github.com/hexforge/lootcase/internal/domain"
)

// Registry holds the live set of case definitions. The whole map is
// replaced on reload; readers that already fetched a snapshot keep seeing
// the old set until they look again, never a mix of both.
type Registry struct {
	defs atomic.Value // map[string]*domain.CaseDefinition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.defs.Store(map[string]*domain.CaseDefinition{})
	return r
}

// Get returns the definition for one case ID.
func (r *Registry) Get(caseID string) (*domain.CaseDefinition, bool) {
	defs := r.defs.Load().(map[string]*domain.CaseDefinition)
	def, ok := defs[caseID]
	return def, ok
}

// All returns the current snapshot. Callers must not mutate it.
func (r *Registry) All() map[string]*domain.CaseDefinition {
	return r.defs.Load().(map[string]*domain.CaseDefinition)
}

// IDs returns the case IDs of the current snapshot, sorted.
func (r *Registry) IDs() []string {
	defs := r.All()
	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of loaded cases.
func (r *Registry) Len() int {
	return len(r.All())
}

// Replace swaps in a completely new definition set.
func (r *Registry) Replace(defs map[string]*domain.CaseDefinition) {
	if defs == nil {
		defs = map[string]*domain.CaseDefinition{}
	}
	r.defs.Store(defs)
}
