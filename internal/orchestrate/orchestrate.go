// Package orchestrate sequences one collection run per league: power
// ratings, team stats, schedules, injuries, weather, odds, each recorded
// as a session step. Per-source fan-out (e.g. one request per team) uses a
// bounded errgroup pool, grounded on brandon-relentnet-myscrollr's
// golang.org/x/sync dependency; the rate limit inside each
// reliability.Client remains the only real throttle.
package orchestrate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/obs"
	"github.com/edgeline/edge-engine/internal/store"
)

// fanoutLimit bounds per-source concurrent requests; the reliability
// client's own rate limiter still governs actual request pacing.
const fanoutLimit = 8

// minRecordsBySource is the post-flight row-count floor per source; a
// session with fewer records than this for a critical source is degraded.
var minRecordsBySource = map[string]int{
	"ratings":  1,
	"schedule": 1,
	"odds":     1,
}

// criticalSources gates downstream edge detection: a failure here and only
// here forces the session into SessionDegraded.
var criticalSources = map[string]bool{
	"ratings":  true,
	"schedule": true,
	"odds":     true,
}

// Source performs one collection step and returns the number of records
// written plus any non-fatal errors encountered for individual items.
type Source struct {
	Name string
	Run  func(ctx context.Context) (records int, itemErrors []string, err error)
}

// Orchestrator sequences a league's sources in the order the spec fixes:
// power ratings -> team stats -> schedules -> injuries -> weather -> odds,
// since later sources may reference entities the earlier ones establish.
type Orchestrator struct {
	sessions *store.SessionRepository
	sources  []Source
	log      interface {
		Infof(string, ...any)
		Warnf(string, ...any)
		Errorf(string, ...any)
	}
}

func NewOrchestrator(sessions *store.SessionRepository, sources []Source) *Orchestrator {
	return &Orchestrator{sessions: sessions, sources: sources, log: obs.For("orchestrate")}
}

// SessionReport summarizes the outcome of one Run for callers deciding
// whether to proceed to edge detection.
type SessionReport struct {
	Session core.CollectionSession
	Skip    bool // true when a critical source failed and C11 must not run
}

// Run executes every configured source in order, recording one
// SourceStepMetric per source, then gates the session's terminal status.
func (o *Orchestrator) Run(ctx context.Context, league core.League) (*SessionReport, error) {
	session := core.CollectionSession{
		SessionID: uuid.NewString(),
		League:    league,
		StartedAt: time.Now().UTC(),
		Status:    core.SessionOK,
	}

	if err := o.sessions.Start(ctx, session); err != nil {
		return nil, err
	}

	degraded := false

	for _, src := range o.sources {
		step := o.runStep(ctx, src)
		session.Steps = append(session.Steps, step)

		if !step.OK && criticalSources[src.Name] {
			degraded = true
			o.log.Errorf("critical source %s failed: %v", src.Name, step.Errors)
		} else if !step.OK {
			o.log.Warnf("non-critical source %s failed: %v", src.Name, step.Errors)
		}

		if min, ok := minRecordsBySource[src.Name]; ok && step.Records < min && criticalSources[src.Name] {
			degraded = true
			o.log.Errorf("source %s produced %d records, below minimum %d", src.Name, step.Records, min)
		}
	}

	session.FinishedAt = time.Now().UTC()
	if degraded {
		session.Status = core.SessionDegraded
	}

	if err := o.sessions.Finish(ctx, session); err != nil {
		return nil, err
	}

	return &SessionReport{Session: session, Skip: degraded}, nil
}

func (o *Orchestrator) runStep(ctx context.Context, src Source) core.SourceStepMetric {
	step := core.SourceStepMetric{
		Source:    src.Name,
		StartedAt: time.Now().UTC(),
		Critical:  criticalSources[src.Name],
	}

	records, itemErrors, err := src.Run(ctx)
	step.EndedAt = time.Now().UTC()
	step.Records = records
	step.Errors = itemErrors

	if err != nil {
		step.OK = false
		step.Errors = append(step.Errors, err.Error())
		return step
	}

	step.OK = true
	return step
}

// FanOut runs fn once per item with bounded concurrency, collecting each
// call's error without aborting the others — one team's failed request
// must not block the other 31.
func FanOut[T any](ctx context.Context, items []T, fn func(ctx context.Context, item T) error) []error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutLimit)

	errs := make([]error, len(items))
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			errs[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]error, 0, len(items))
	for _, e := range errs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
