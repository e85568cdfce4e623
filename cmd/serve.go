package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/edgeline/edge-engine/internal/config"
	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/echo"
	"github.com/edgeline/edge-engine/internal/obs"
	"github.com/edgeline/edge-engine/internal/schedule"
	"github.com/edgeline/edge-engine/internal/transport"
)

var serveLog = obs.For("cmd.serve")

// ServeCmd creates the serve command: runs the collect/detect/settle
// pipeline on a ticker for every configured league and exposes the
// reliability-layer counters on /metrics until interrupted.
func ServeCmd() *cobra.Command {
	var archiveDir string
	var metricsAddr string
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler continuously, exposing /metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, archiveDir, metricsAddr, pollInterval)
		},
	}
	cmd.Flags().StringVar(&archiveDir, "archive-dir", "data/raw", "Root directory for archived raw payloads")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Override the configured /metrics listen address")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "Override the configured scheduler poll interval")
	return cmd
}

func runServe(cmd *cobra.Command, archiveDir, metricsAddr string, pollInterval time.Duration) error {
	cfg := config.Get()
	echo.Header("Starting edge-engine serve")

	rt, err := newRuntime(cfg, archiveDir)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	defer rt.close()
	if err := loadCollectionConfig(cfg, rt); err != nil {
		echo.Errorf("config warning: %v", err)
	}

	leagues, err := configuredLeagues(cfg)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	pool := transport.NewPool()
	redisClient := newRedisClient(cfg)
	sourcesByLeague := make(map[core.League]sourceClients, len(leagues))
	for _, league := range leagues {
		sourcesByLeague[league] = sourcesFor(cfg, pool, redisClient, league)
	}

	addr := cfg.Serve.MetricsAddr
	if metricsAddr != "" {
		addr = metricsAddr
	}
	interval := cfg.Serve.PollInterval
	if pollInterval > 0 {
		interval = pollInterval
	}

	pipeline := schedule.Pipeline{
		Collect: func(ctx context.Context, league core.League) (bool, error) {
			return serveCollect(ctx, rt, sourcesByLeague[league], league)
		},
		Detect: func(ctx context.Context, league core.League) error {
			return serveDetect(ctx, rt, cfg, league)
		},
		Settle: func(ctx context.Context, league core.League) error {
			return serveSettle(ctx, rt, cfg, league)
		},
	}
	sched := schedule.NewScheduler(pipeline, leagues, interval)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: addr, Handler: mux}
	go func() {
		serveLog.Infof("metrics listening on %s", addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveLog.Errorf("metrics server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)
	echo.Successf("scheduler running: leagues=%v interval=%s metrics=%s", leagues, interval, addr)

	<-ctx.Done()
	echo.Info("shutting down")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return metricsServer.Shutdown(shutdownCtx)
}

// configuredLeagues returns the leagues named in cfg.Leagues, in the fixed
// nfl-then-ncaaf order leagueFromFlag recognizes.
func configuredLeagues(cfg *config.Config) ([]core.League, error) {
	var leagues []core.League
	for _, flag := range []string{"nfl", "ncaaf"} {
		if _, ok := cfg.Leagues[flag]; !ok {
			continue
		}
		league, err := leagueFromFlag(flag)
		if err != nil {
			return nil, err
		}
		leagues = append(leagues, league)
	}
	if len(leagues) == 0 {
		return nil, fmt.Errorf("no leagues configured")
	}
	return leagues, nil
}

// serveCollect runs one collection pass for league, reporting skip=true
// when the session degraded on a critical non-odds source and an error
// when odds itself degraded, translated into the scheduler's skip-detect
// sentinel.
func serveCollect(ctx context.Context, rt *runtime, sources sourceClients, league core.League) (bool, error) {
	season := time.Now().Year()
	week := rt.calendar.WeekFor(string(league), time.Now().UTC())

	report, err := doCollect(ctx, rt, sources, league, season, week, false)
	if err != nil {
		return false, err
	}
	if !report.Skip {
		return false, nil
	}
	for _, step := range report.Session.Steps {
		if step.Source == "odds" && !step.OK {
			return true, fmt.Errorf("odds source degraded")
		}
	}
	return true, nil
}

func serveDetect(ctx context.Context, rt *runtime, cfg *config.Config, league core.League) error {
	season := time.Now().Year()
	week := rt.calendar.WeekFor(string(league), time.Now().UTC())

	games, err := rt.games.ListByWeek(ctx, league, season, week)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		return nil
	}

	written, skipped, oddsDegraded, err := doDetectEdges(ctx, rt, cfg, league, season, games)
	if err != nil {
		return err
	}
	serveLog.Infof("%s week %d: %d written, %d below floor, odds_degraded=%v", league, week, written, skipped, oddsDegraded)
	return nil
}

func serveSettle(ctx context.Context, rt *runtime, cfg *config.Config, league core.League) error {
	week := rt.calendar.WeekFor(string(league), time.Now().UTC())

	report, err := doCheckResults(ctx, rt, cfg, league, week)
	if err != nil {
		return err
	}
	if !report.NoPredictions {
		serveLog.Infof("%s week %d: matched=%d settled=%d pending=%d", league, week, report.Matched, report.Settled, report.Pending)
	}
	return nil
}
