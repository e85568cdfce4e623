// Package schedule drives the collect -> detect -> settle pipeline (C7,
// C11, C12) on a per-league ticker, grounded on the goroutine-per-sport
// + stopChan + sync.WaitGroup shape of XavierBriggs-Mercury's scheduler,
// adapted to per-league tickers and to a "never run a league's pipeline
// concurrently with itself" rule: a busy league's tick is re-queued
// through a small buffered channel instead of blocking the ticker.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/obs"
)

// CollectFunc runs one collection pass for a league. skip reports that
// a critical source degraded badly enough that edge detection this
// cycle should be withheld (C7's session-degraded sentinel).
type CollectFunc func(ctx context.Context, league core.League) (skip bool, err error)

// StageFunc runs one detect or settle pass for a league.
type StageFunc func(ctx context.Context, league core.League) error

// Pipeline is the three stages one scheduler tick drives, in order.
type Pipeline struct {
	Collect CollectFunc
	Detect  StageFunc
	Settle  StageFunc
}

// Scheduler runs Pipeline once per Interval for each configured league,
// never overlapping a single league's own runs.
type Scheduler struct {
	pipeline Pipeline
	interval time.Duration
	leagues  []core.League

	locks   map[core.League]*sync.Mutex
	requeue map[core.League]chan struct{}

	stopChan chan struct{}
	wg       sync.WaitGroup
	log      *log.Logger
}

func NewScheduler(pipeline Pipeline, leagues []core.League, interval time.Duration) *Scheduler {
	s := &Scheduler{
		pipeline: pipeline,
		interval: interval,
		leagues:  leagues,
		locks:    make(map[core.League]*sync.Mutex, len(leagues)),
		requeue:  make(map[core.League]chan struct{}, len(leagues)),
		stopChan: make(chan struct{}),
		log:      obs.For("schedule"),
	}
	for _, league := range leagues {
		s.locks[league] = &sync.Mutex{}
		s.requeue[league] = make(chan struct{}, 1)
	}
	return s
}

// Start launches one ticker goroutine and one requeue-drain goroutine
// per league, and returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	for _, league := range s.leagues {
		s.wg.Add(2)
		go s.tick(ctx, league)
		go s.drainRequeue(ctx, league)
	}
}

// Stop signals every goroutine to exit and waits for them to finish.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

func (s *Scheduler) tick(ctx context.Context, league core.League) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.trigger(ctx, league)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// trigger attempts to take the league's lock without blocking; a league
// already mid-run gets its tick coalesced into a single pending requeue
// slot instead of stacking up ticks.
func (s *Scheduler) trigger(ctx context.Context, league core.League) {
	lock := s.locks[league]
	if !lock.TryLock() {
		select {
		case s.requeue[league] <- struct{}{}:
		default: // a run is already queued, one pending re-run is enough
		}
		return
	}
	defer lock.Unlock()
	s.runPipeline(ctx, league)
}

func (s *Scheduler) drainRequeue(ctx context.Context, league core.League) {
	defer s.wg.Done()

	for {
		select {
		case <-s.requeue[league]:
			s.locks[league].Lock()
			s.runPipeline(ctx, league)
			s.locks[league].Unlock()
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// runPipeline executes collect, then detect (unless collect reported a
// degraded critical source), then settle, logging but not propagating
// stage errors — one league's failure never blocks another's ticker.
func (s *Scheduler) runPipeline(ctx context.Context, league core.League) {
	logger := s.log.With("league", league)

	skip, err := s.pipeline.Collect(ctx, league)
	if err != nil {
		logger.Error("collect failed", "err", err)
	}

	if !skip {
		if err := s.pipeline.Detect(ctx, league); err != nil {
			logger.Error("detect failed", "err", err)
		}
	} else {
		logger.Warn("skipping detect: collection session degraded")
	}

	if err := s.pipeline.Settle(ctx, league); err != nil {
		logger.Error("settle failed", "err", err)
	}
}
