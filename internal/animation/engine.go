// Package animation owns the case-opening lifecycle: gating, outcome
// resolution, the timed reveal and the committed consequences.
//
// Every open is one Run on a shared tick timeline. The outcome is fixed
// before the first visual tick and the reveal is steered to land on it;
// consequences commit at a fixed tick well before the cosmetic wind-down.
package animation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hexforge/lootcase/internal/actions"
	"github.com/hexforge/lootcase/internal/cases"
	"github.com/hexforge/lootcase/internal/cooldown"
	"github.com/hexforge/lootcase/internal/control"
	"github.com/hexforge/lootcase/internal/domain"
	"github.com/hexforge/lootcase/internal/events"
	"github.com/hexforge/lootcase/internal/history"
	"github.com/hexforge/lootcase/internal/keys"
	"github.com/hexforge/lootcase/internal/resolve"
)

var (
	ErrCaseNotFound = errors.New("case not found")
	ErrNoKeys       = errors.New("not enough keys")
	ErrCancelled    = errors.New("open was cancelled")
	ErrNoReward     = errors.New("case has no winnable reward")
)

// Engine coordinates runs against the registry, ledger, history and bus.
type Engine struct {
	registry *cases.Registry
	ledger   *keys.Ledger
	history  *history.Log
	resolver *resolve.Resolver
	executor *actions.Executor
	bus      *events.Bus
	control  *control.Service
	cooldown *cooldown.Service
	sched    *Scheduler
	sink     FrameSink
	log      *zap.Logger
}

// Config wires an Engine. All fields except Sink are required.
type Config struct {
	Registry *cases.Registry
	Ledger   *keys.Ledger
	History  *history.Log
	Resolver *resolve.Resolver
	Executor *actions.Executor
	Bus      *events.Bus
	Control  *control.Service
	Cooldown *cooldown.Service
	Sched    *Scheduler
	Sink     FrameSink
	Log      *zap.Logger
}

// NewEngine creates an engine from its collaborators.
func NewEngine(cfg Config) *Engine {
	sink := cfg.Sink
	if sink == nil {
		sink = NopSink{}
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		registry: cfg.Registry,
		ledger:   cfg.Ledger,
		history:  cfg.History,
		resolver: cfg.Resolver,
		executor: cfg.Executor,
		bus:      cfg.Bus,
		control:  cfg.Control,
		cooldown: cfg.Cooldown,
		sched:    cfg.Sched,
		sink:     sink,
		log:      log.Named("animation"),
	}
}

// Open runs gating and resolution for one open request and, if both pass,
// places a new run on the tick timeline. The returned run is already
// spinning. Gating failures never consume a key.
func (e *Engine) Open(ctx context.Context, caseID, player string, loc domain.Location) (*Run, error) {
	if err := e.control.CheckOpen(caseID); err != nil {
		return nil, err
	}

	def, ok := e.registry.Get(caseID)
	if !ok {
		return nil, ErrCaseNotFound
	}

	if e.cooldown != nil {
		if err := e.cooldown.Check(caseID, player); err != nil {
			return nil, err
		}
	}

	// Gating: listeners may veto or exempt the run from key accounting.
	pre := &events.PreOpenEvent{CaseID: caseID, Player: player, Location: loc}
	e.bus.Publish(pre)
	if pre.Cancelled() {
		return nil, ErrCancelled
	}

	ignoreKeys := pre.IgnoreKeys()
	if !ignoreKeys {
		balance, err := e.ledger.Get(ctx, caseID, player)
		if err != nil {
			return nil, fmt.Errorf("check key balance: %w", err)
		}
		if balance < 1 {
			e.executor.Execute(ctx, player, def.NoKeyActions)
			return nil, ErrNoKeys
		}
	}

	open := &events.OpenEvent{CaseID: caseID, Player: player, Location: loc}
	e.bus.Publish(open)
	if open.Cancelled() {
		return nil, ErrCancelled
	}

	// Resolving: the outcome is fixed here, before any visual tick, so
	// the reveal can be steered onto it.
	item, err := e.resolver.ResolveItem(def)
	if err != nil {
		if errors.Is(err, resolve.ErrEmptyPool) {
			return nil, ErrNoReward
		}
		return nil, fmt.Errorf("resolve reward: %w", err)
	}
	random, err := e.resolver.ResolveRandomAction(item)
	if err != nil {
		return nil, fmt.Errorf("resolve random action: %w", err)
	}

	run := &Run{
		ID:         uuid.New().String(),
		CaseID:     caseID,
		Player:     player,
		Location:   loc,
		engine:     e,
		def:        def,
		item:       item,
		random:     random,
		ignoreKeys: ignoreKeys,
		speed:      settingFloat(def.AnimationSettings, "CircleSpeed", 0.5),
		log:        e.log,
	}
	run.reveal = e.buildReveal(def, item)

	if e.cooldown != nil {
		e.cooldown.Touch(caseID, player)
	}

	e.sink.Started(run.ID, caseID, player, run.reveal)
	e.sched.Register(run)

	e.log.Info("run started",
		zap.String("run", run.ID),
		zap.String("case", caseID),
		zap.String("player", player),
		zap.String("group", item.Group),
		zap.Bool("ignore_keys", ignoreKeys))
	return run, nil
}

// buildReveal pre-generates the wheel's display entries. Fillers are drawn
// from the same pool so the wheel looks honest; the true winner is pinned
// at the middle index the wheel converges on.
func (e *Engine) buildReveal(def *domain.CaseDefinition, winner *domain.Item) []RevealEntry {
	count := settingInt(def.AnimationSettings, "ItemsCount", defaultWheelItems)
	if count < 1 {
		count = defaultWheelItems
	}

	reveal := make([]RevealEntry, count)
	for i := range reveal {
		it, err := e.resolver.ResolveItem(def)
		if err != nil {
			it = winner
		}
		reveal[i] = RevealEntry{
			Group:       it.Group,
			ItemName:    it.Name,
			DisplayName: it.Material.DisplayName,
			Material:    it.Material,
		}
	}

	mid := count / 2
	reveal[mid] = RevealEntry{
		Group:       winner.Group,
		ItemName:    winner.Name,
		DisplayName: winner.Material.DisplayName,
		Material:    winner.Material,
		Winner:      true,
	}
	return reveal
}

// applyOutcome performs the committed consequences of a run. Invoked from
// the commit tick, exactly once per run.
func (e *Engine) applyOutcome(ctx context.Context, r *Run) {
	if !r.ignoreKeys {
		if _, err := e.ledger.Remove(ctx, r.CaseID, r.Player, 1); err != nil {
			// The reward still stands: the player already watched the
			// reveal converge. Log loudly and move on.
			e.log.Error("key deduction failed",
				zap.String("run", r.ID),
				zap.String("case", r.CaseID),
				zap.String("player", r.Player),
				zap.Error(err))
		}
	}

	entry := domain.HistoryEntry{
		ID:       uuid.New().String(),
		CaseID:   r.CaseID,
		Player:   r.Player,
		Group:    r.item.Group,
		Item:     r.item.Name,
		OpenedAt: time.Now().UTC(),
	}
	if r.random != nil {
		entry.Action = r.random.Name
	}
	e.history.Append(r.CaseID, entry)

	e.executor.Execute(ctx, r.Player, r.item.Actions)
	if r.random != nil {
		e.executor.Execute(ctx, r.Player, r.random.Actions)
	}

	e.log.Info("outcome committed",
		zap.String("run", r.ID),
		zap.String("case", r.CaseID),
		zap.String("player", r.Player),
		zap.String("group", r.item.Group),
		zap.String("item", r.item.Name))
}

// ActiveRuns reports how many reveals are currently on the tick timeline.
func (e *Engine) ActiveRuns() int {
	return e.sched.Active()
}

// Outcome returns the run's result once it has been committed.
func (r *Run) Outcome() (Outcome, bool) {
	if !r.committed.Load() {
		return Outcome{}, false
	}
	out := Outcome{
		CaseID: r.CaseID,
		Player: r.Player,
		Group:  r.item.Group,
		Item:   r.item.Name,
	}
	if r.random != nil {
		out.RandomAction = r.random.Name
	}
	return out, true
}

func settingInt(settings map[string]any, key string, def int) int {
	if settings == nil {
		return def
	}
	switch v := settings[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func settingFloat(settings map[string]any, key string, def float64) float64 {
	if settings == nil {
		return def
	}
	switch v := settings[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}
