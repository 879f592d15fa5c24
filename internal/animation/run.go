package animation

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hexforge/lootcase/internal/domain"
	"github.com/hexforge/lootcase/internal/events"
)

// Run states. Gating and resolution complete inside Open, before the run
// ever reaches the timeline, so a run only moves running -> finishing ->
// idle.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateFinishing State = "finishing"
)

const (
	// commitTick is where the pre-resolved outcome becomes irreversible:
	// key deduction, history append and reward actions all happen here,
	// strictly before the cosmetic wind-down.
	commitTick = 101
	// totalTicks is the full length of the reveal sequence.
	totalTicks = 120
	// defaultWheelItems is how many display entries spin on the wheel
	// when the case does not override ItemsCount.
	defaultWheelItems = 11
)

// RevealEntry is one display element of the spinning reveal. The winner
// sits at the steering index so the wheel always lands on the outcome that
// was fixed before the first tick.
type RevealEntry struct {
	Group       string          `json:"group"`
	ItemName    string          `json:"item"`
	DisplayName string          `json:"display_name,omitempty"`
	Material    domain.Material `json:"material"`
	Winner      bool            `json:"winner"`
}

// Frame is one visual step of a running animation.
type Frame struct {
	RunID     string  `json:"run_id"`
	CaseID    string  `json:"case_id"`
	Tick      int     `json:"tick"`
	Angle     float64 `json:"angle"`
	Committed bool    `json:"committed"`
}

// Outcome is the committed result of a run.
type Outcome struct {
	CaseID       string    `json:"case_id"`
	Player       string    `json:"player"`
	Group        string    `json:"group"`
	Item         string    `json:"item"`
	RandomAction string    `json:"random_action,omitempty"`
	OpenedAt     time.Time `json:"opened_at"`
}

// FrameSink receives the visual side of a run. Started is called once
// before the first frame, Frame once per tick while spinning, and Ended
// exactly once after teardown, on natural completion and on cancellation
// alike.
type FrameSink interface {
	Started(runID string, caseID string, player string, reveal []RevealEntry)
	Frame(f Frame)
	Ended(runID string)
}

// NopSink discards all frames.
type NopSink struct{}

func (NopSink) Started(string, string, string, []RevealEntry) {}
func (NopSink) Frame(Frame)                                   {}
func (NopSink) Ended(string)                                  {}

// Run is one in-flight case opening. Everything mutable after registration
// is touched only from the scheduler goroutine, except the cancel flag.
type Run struct {
	ID       string
	CaseID   string
	Player   string
	Location domain.Location

	engine *Engine
	def    *domain.CaseDefinition
	item   *domain.Item
	random *domain.RandomAction

	ignoreKeys bool
	reveal     []RevealEntry
	speed      float64

	tick      int
	committed atomic.Bool
	finished  atomic.Bool
	cancelled atomic.Bool

	log *zap.Logger
}

// State reports the run's current phase for observers. A run is finishing
// once its outcome is committed or it was cancelled, until teardown.
func (r *Run) State() State {
	if r.finished.Load() {
		return StateIdle
	}
	if r.committed.Load() || r.cancelled.Load() {
		return StateFinishing
	}
	return StateRunning
}

// Finished reports whether the run has completed its teardown.
func (r *Run) Finished() bool { return r.finished.Load() }

// Committed reports whether the run's consequences have been applied.
func (r *Run) Committed() bool { return r.committed.Load() }

// Cancel requests cooperative cancellation. The flag is observed once per
// tick; the run still performs its full teardown, and consequences already
// committed are never rolled back or re-applied.
func (r *Run) Cancel() {
	r.cancelled.Store(true)
}

// advance moves the run one tick forward. It returns true when the run has
// left the timeline.
func (r *Run) advance() bool {
	if r.finished.Load() {
		return true
	}

	if r.cancelled.Load() {
		r.finish()
		return true
	}

	r.tick++

	if r.tick < commitTick {
		r.emitFrame()
	}

	if r.tick == commitTick {
		r.commit()
	}

	if r.tick >= totalTicks {
		r.finish()
		return true
	}
	return false
}

// emitFrame publishes the wheel position for this tick. The angle follows
// a constant-speed circle; the renderer decides what that looks like.
func (r *Run) emitFrame() {
	angle := float64(r.tick) / 20.0 * r.speed * 2 * math.Pi
	r.engine.sink.Frame(Frame{
		RunID:     r.ID,
		CaseID:    r.CaseID,
		Tick:      r.tick,
		Angle:     angle,
		Committed: r.committed.Load(),
	})
}

// commit applies the run's consequences exactly once: key deduction
// (unless exempt), history append and reward action dispatch. A crash or
// cancellation during the wind-down after this point can no longer lose
// or re-roll the reward.
func (r *Run) commit() {
	if !r.committed.CompareAndSwap(false, true) {
		return
	}
	r.engine.applyOutcome(context.Background(), r)
}

// finish releases every transient resource the run created and fires the
// animation-end notification. Runs reach here exactly once, from natural
// completion, cancellation or scheduler shutdown.
func (r *Run) finish() {
	if !r.finished.CompareAndSwap(false, true) {
		return
	}
	r.reveal = nil

	r.engine.sink.Ended(r.ID)
	r.engine.bus.Publish(&events.AnimationEndEvent{
		CaseID:    r.CaseID,
		Animation: r.def.AnimationName,
		Player:    r.Player,
		Location:  r.Location,
	})
	r.log.Debug("run finished",
		zap.String("run", r.ID),
		zap.Int("tick", r.tick),
		zap.Bool("committed", r.committed.Load()),
		zap.Bool("cancelled", r.cancelled.Load()))
}
