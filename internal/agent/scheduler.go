package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"castpilot/pkg/logger"
)

// Scheduler drives one agent's poll loop. It owns its timer and
// cancellation: no process-wide state is shared between agents. The
// loop moves between idle (timer armed), running (a cycle in flight),
// and stopped (terminal).
type Scheduler struct {
	name     string
	interval time.Duration
	manager  *InteractionManager

	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	executing atomic.Bool
	running   bool
	mu        sync.Mutex

	// Tracks the in-flight cycle for graceful shutdown.
	wg sync.WaitGroup
}

// NewScheduler creates a scheduler for the given agent pipeline.
func NewScheduler(name string, interval time.Duration, manager *InteractionManager) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		manager:  manager,
	}
}

// Start arms the poll timer and kicks off an immediate first cycle.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = cron.New()

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.runCycle); err != nil {
		return fmt.Errorf("arm poll timer: %w", err)
	}

	s.cron.Start()
	s.running = true

	logger.Info().Str("agent", s.name).Dur("interval", s.interval).Msg("poll loop started")

	// First cycle runs immediately; @every fires only after the interval.
	go s.runCycle()

	return nil
}

// Stop cancels the loop and waits for an in-flight cycle to finish its
// current event. No new cycle starts after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cron.Stop()
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	logger.Info().Str("agent", s.name).Msg("poll loop stopped")
}

// Running reports whether the loop is started and not yet stopped.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Executing reports whether a cycle is currently in flight.
func (s *Scheduler) Executing() bool {
	return s.executing.Load()
}

// runCycle executes one fetch-process cycle. Overlapping timer fires
// are skipped so at most one cycle per agent is ever in flight.
func (s *Scheduler) runCycle() {
	if !s.executing.CompareAndSwap(false, true) {
		logger.Warn().Str("agent", s.name).Msg("skipping poll cycle, previous cycle still running")
		return
	}
	defer s.executing.Store(false)

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.mu.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()

	if ctx.Err() != nil {
		return
	}

	started := time.Now()
	if err := s.manager.HandleInteractions(ctx); err != nil {
		// A failed cycle is logged and dropped; the timer stays armed
		// and the next interval retries from a fresh fetch.
		logger.Error().Err(err).Str("agent", s.name).Msg("poll cycle failed")
		return
	}

	logger.Debug().Str("agent", s.name).Dur("took", time.Since(started)).Msg("poll cycle completed")
}
