package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers the watcher on a cron schedule, plus once immediately
// at startup. Cycle errors never propagate to the cron runner; they are
// handled and logged inside Run.
type Scheduler struct {
	cron    *cron.Cron
	watcher *Watcher
	startup sync.WaitGroup
}

func NewScheduler(w *Watcher, schedule string) (*Scheduler, error) {
	c := cron.New()
	trigger := func() {
		if err := w.Run(context.Background()); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			// already logged at the cycle boundary; nothing to escalate
			_ = err
		}
	}
	if _, err := c.AddFunc(schedule, trigger); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return &Scheduler{cron: c, watcher: w}, nil
}

// Start fires one immediate cycle and then hands control to cron.
func (s *Scheduler) Start() {
	slog.Info("scheduler started")
	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		_ = s.watcher.Run(context.Background())
	}()
	s.cron.Start()
}

// Stop cancels future triggers and returns a context that is done once the
// startup cycle and any in-flight trigger callback have returned.
func (s *Scheduler) Stop() context.Context {
	cronDone := s.cron.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		s.startup.Wait()
		<-cronDone.Done()
	}()
	return ctx
}
