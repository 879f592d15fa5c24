package animation

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler drives every active run from one fixed-cadence loop. All state
// transitions happen on this single goroutine, so runs never need their
// own locking for tick-side state. One tick is the base unit of animation
// time; the reference cadence is 100ms.
type Scheduler struct {
	interval time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	runs   map[string]*Run
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewScheduler creates a scheduler ticking at the given interval.
func NewScheduler(interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		interval: interval,
		log:      log.Named("scheduler"),
		runs:     make(map[string]*Run),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the tick loop.
func (s *Scheduler) Start() {
	go s.loop()
}

// Stop halts the loop and cancels every remaining run, which performs the
// same teardown as natural completion.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	remaining := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		remaining = append(remaining, r)
	}
	s.runs = make(map[string]*Run)
	s.mu.Unlock()

	for _, r := range remaining {
		r.Cancel()
		r.finish()
	}
}

// Register adds a run to the timeline.
func (s *Scheduler) Register(r *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
}

// Active returns the number of runs currently on the timeline.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

func (s *Scheduler) loop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tickAll()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) tickAll() {
	s.mu.Lock()
	active := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		active = append(active, r)
	}
	s.mu.Unlock()

	for _, r := range active {
		if done := r.advance(); done {
			s.mu.Lock()
			delete(s.runs, r.ID)
			s.mu.Unlock()
		}
	}
}
