// Package events provides the in-process notification bus.
//
// Dispatch is synchronous and listeners run in registration order, so a
// listener can veto a cancellable event (pre-open, open) before the caller
// continues. The bus is deliberately a black box to the rest of the system:
// publishers hand over an event, subscribers observe or veto it.
package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hexforge/lootcase/internal/domain"
)

// Type identifies a notification kind.
type Type string

const (
	TypeReload       Type = "reload"
	TypePreOpen      Type = "pre_open"
	TypeOpen         Type = "open"
	TypeAnimationEnd Type = "animation_end"
	TypeEnable       Type = "enable"
	TypeDisable      Type = "disable"
)

// Event is implemented by every notification published on the bus.
type Event interface {
	EventType() Type
}

// ReloadEvent fires once after a full case registry load, carrying the
// number of successfully loaded cases.
type ReloadEvent struct {
	Count int
}

func (*ReloadEvent) EventType() Type { return TypeReload }

// PreOpenEvent fires before gating. Listeners may cancel the open outright
// or mark the run as exempt from key accounting.
type PreOpenEvent struct {
	CaseID   string
	Player   string
	Location domain.Location

	cancelled  bool
	ignoreKeys bool
}

func (*PreOpenEvent) EventType() Type { return TypePreOpen }

// Cancel vetoes the open. The run terminates with no visual effect and no
// key consumed.
func (e *PreOpenEvent) Cancel() { e.cancelled = true }

// Cancelled reports whether any listener vetoed the open.
func (e *PreOpenEvent) Cancelled() bool { return e.cancelled }

// SetIgnoreKeys exempts this run from the key balance gate and the key
// deduction at commit time.
func (e *PreOpenEvent) SetIgnoreKeys(v bool) { e.ignoreKeys = v }

// IgnoreKeys reports whether a listener requested key exemption.
func (e *PreOpenEvent) IgnoreKeys() bool { return e.ignoreKeys }

// OpenEvent fires after gating passes and before the outcome is resolved.
// It is the last chance to veto the run.
type OpenEvent struct {
	CaseID   string
	Player   string
	Location domain.Location

	cancelled bool
}

func (*OpenEvent) EventType() Type { return TypeOpen }

func (e *OpenEvent) Cancel()         { e.cancelled = true }
func (e *OpenEvent) Cancelled() bool { return e.cancelled }

// AnimationEndEvent fires once per run after all transient visual
// resources have been released.
type AnimationEndEvent struct {
	CaseID    string
	Animation string
	Player    string
	Location  domain.Location
}

func (*AnimationEndEvent) EventType() Type { return TypeAnimationEnd }

// EnableEvent marks the service (or one case) becoming available.
type EnableEvent struct {
	CaseID string // empty for the whole service
}

func (*EnableEvent) EventType() Type { return TypeEnable }

// DisableEvent marks the service (or one case) being switched off.
type DisableEvent struct {
	CaseID string // empty for the whole service
	Reason string
}

func (*DisableEvent) EventType() Type { return TypeDisable }

// Handler receives a published event. Handlers for cancellable events may
// mutate them through their exported methods.
type Handler func(Event)

// Bus is a synchronous publish/subscribe dispatcher.
type Bus struct {
	log *zap.Logger

	mu       sync.RWMutex
	handlers map[Type][]Handler
}

// NewBus creates an empty bus.
func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		log:      log.Named("events"),
		handlers: make(map[Type][]Handler),
	}
}

// Subscribe registers a handler for one event type. Handlers run in
// registration order.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Publish dispatches the event to all handlers of its type, in order, on
// the calling goroutine. A panicking handler is recovered and logged; the
// remaining handlers still run.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := b.handlers[e.EventType()]
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(e, h)
	}
}

func (b *Bus) dispatch(e Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("type", string(e.EventType())),
				zap.Any("panic", r))
		}
	}()
	h(e)
}
