// Package gui routes clicks on typed GUI items to their handlers.
//
// GUI items carry a free-form type tag ("OPEN", "DEFAULT", ...). The
// registry maps tags to click handlers; unknown tags fall back to the
// default handler, so decorative items and config typos are both inert
// rather than fatal. A tag of the form "OPEN_<case>" targets another case
// than the one the GUI belongs to.
package gui

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hexforge/lootcase/internal/animation"
	"github.com/hexforge/lootcase/internal/domain"
)

// Click describes one click on a GUI item.
type Click struct {
	CaseID   string
	Player   string
	Location domain.Location
	Item     *domain.GUIItem
}

// ClickHandler reacts to a click. The argument after Click is the tag
// remainder: for "OPEN_weekly" it is "weekly".
type ClickHandler func(ctx context.Context, click Click, arg string) error

// Registry maps item-type tags to click handlers. Registration is safe
// to interleave with click handling.
type Registry struct {
	log *zap.Logger

	mu       sync.RWMutex
	handlers map[string]ClickHandler
	fallback ClickHandler
}

// NewRegistry creates a registry whose default handler ignores the click.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		log:      log.Named("gui"),
		handlers: make(map[string]ClickHandler),
	}
	r.fallback = func(_ context.Context, click Click, _ string) error {
		r.log.Debug("decorative item clicked",
			zap.String("case", click.CaseID), zap.String("item", click.Item.Name))
		return nil
	}
	return r
}

// Register binds a handler to an item-type tag.
func (r *Registry) Register(tag string, h ClickHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToUpper(tag)] = h
}

// HandleClick resolves the item's type tag and runs the matching handler.
func (r *Registry) HandleClick(ctx context.Context, click Click) error {
	tag := strings.ToUpper(click.Item.Type)
	arg := ""
	if i := strings.Index(tag, "_"); i >= 0 {
		tag, arg = tag[:i], click.Item.Type[i+1:]
	}
	r.mu.RLock()
	h, ok := r.handlers[tag]
	if !ok {
		h = r.fallback
	}
	r.mu.RUnlock()
	return h(ctx, click, arg)
}

// RegisterOpenHandler wires the OPEN item type to the animation engine.
// An "OPEN_<case>" tag opens that case instead of the GUI's own.
func (r *Registry) RegisterOpenHandler(engine *animation.Engine) {
	r.Register("OPEN", func(ctx context.Context, click Click, arg string) error {
		caseID := click.CaseID
		if arg != "" {
			caseID = arg
		}
		_, err := engine.Open(ctx, caseID, click.Player, click.Location)
		return err
	})
}
