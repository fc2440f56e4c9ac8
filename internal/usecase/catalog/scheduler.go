package catalog

import (
	"context"
	"sync"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.uber.org/fx"
)

func StartSync(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
}

// Scheduler owns the recurring sync: one immediate run on Start, then one at
// the top of every hour. Run failures are logged and never propagate; a run
// that outlives the hour overlaps the next one, which the upsert semantics
// make safe.
type Scheduler struct {
	engine *Engine

	mu   sync.Mutex
	stop chan struct{}
}

func NewScheduler(engine *Engine) *Scheduler {
	return &Scheduler{engine: engine}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	stop := make(chan struct{})
	s.stop = stop
	go s.run(stop)
}

// Stop cancels the recurring trigger. Stopping a stopped scheduler is a
// no-op; an in-flight sync is left to finish on its own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

func (s *Scheduler) run(stop chan struct{}) {
	ctx := context.Background()
	go s.syncAndLog(ctx)

	for {
		timer := time.NewTimer(untilNextHour(time.Now()))
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
			go s.syncAndLog(ctx)
		}
	}
}

func (s *Scheduler) syncAndLog(ctx context.Context) {
	if err := s.engine.SyncOnce(ctx); err != nil {
		log.Errorw(ctx, "scheduled catalog sync failed", "error", err)
	}
}

func untilNextHour(now time.Time) time.Duration {
	next := now.Truncate(time.Hour).Add(time.Hour)
	return next.Sub(now)
}
