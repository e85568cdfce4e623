package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgeline/edge-engine/internal/config"
	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/echo"
	"github.com/edgeline/edge-engine/internal/obs"
	"github.com/edgeline/edge-engine/internal/orchestrate"
	"github.com/edgeline/edge-engine/internal/transport"
)

var collectLog = obs.For("cmd.collect")

// CollectCmd creates the collect command: one pass of every configured
// source for a league, in the fixed order the orchestrator enforces.
func CollectCmd() *cobra.Command {
	var season int
	var dryRun bool
	var archiveDir string

	cmd := &cobra.Command{
		Use:   "collect [league]",
		Short: "Collect ratings, schedules, injuries, weather, and odds for a league",
		Long:  "Runs one collection session against every configured source for the given league, writing raw payloads to the archive and normalized records to the store.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, args[0], season, dryRun, archiveDir)
		},
	}
	cmd.Flags().IntVar(&season, "season", time.Now().Year(), "Season year")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Collect and log without writing to the store")
	cmd.Flags().StringVar(&archiveDir, "archive-dir", "data/raw", "Root directory for archived raw payloads")
	return cmd
}

func runCollect(cmd *cobra.Command, leagueFlag string, season int, dryRun bool, archiveDir string) error {
	league, err := leagueFromFlag(leagueFlag)
	if err != nil {
		return err
	}

	cfg := config.Get()
	echo.Header(fmt.Sprintf("Collecting %s", league))

	rt, err := newRuntime(cfg, archiveDir)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	defer rt.close()

	if err := loadCollectionConfig(cfg, rt); err != nil {
		echo.Errorf("config warning: %v", err)
	}

	pool := transport.NewPool()
	redisClient := newRedisClient(cfg)
	sources := sourcesFor(cfg, pool, redisClient, league)
	week := rt.calendar.WeekFor(string(league), time.Now().UTC())

	ctx := cmd.Context()
	report, err := doCollect(ctx, rt, sources, league, season, week, dryRun)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	for _, step := range report.Session.Steps {
		if step.OK {
			echo.Successf("%-10s records=%d", step.Source, step.Records)
		} else {
			echo.Errorf("%-10s failed: %v", step.Source, step.Errors)
		}
	}

	if report.Session.Status == core.SessionDegraded {
		echo.Error("collection session degraded")
		cmd.SilenceUsage = true
		return exitError{code: 1, err: fmt.Errorf("critical source degraded")}
	}

	echo.Success("collection session ok")
	return nil
}

// doCollect runs the orchestrator's fixed six-step source order (ratings,
// team stats, schedule, injuries, weather, odds) for one league/week. It is
// the shared core behind both the one-shot collect command and the
// scheduler's per-tick collection stage.
func doCollect(ctx context.Context, rt *runtime, sources sourceClients, league core.League, season, week int, dryRun bool) (*orchestrate.SessionReport, error) {
	orch := orchestrate.NewOrchestrator(rt.sessions, []orchestrate.Source{
		{Name: "ratings", Run: func(ctx context.Context) (int, []string, error) {
			return collectRatings(ctx, rt, sources, league, season, week, dryRun)
		}},
		{Name: "team_stats", Run: func(ctx context.Context) (int, []string, error) {
			return collectTeamStats(ctx, rt, sources, league, season, dryRun)
		}},
		{Name: "schedule", Run: func(ctx context.Context) (int, []string, error) {
			return collectSchedule(ctx, rt, sources, league, season, dryRun)
		}},
		{Name: "injuries", Run: func(ctx context.Context) (int, []string, error) {
			return collectInjuries(ctx, rt, sources, league, dryRun)
		}},
		{Name: "weather", Run: func(ctx context.Context) (int, []string, error) {
			return collectWeather(ctx, rt, sources, league, season, week, dryRun)
		}},
		{Name: "odds", Run: func(ctx context.Context) (int, []string, error) {
			return collectOdds(ctx, rt, sources, league, dryRun)
		}},
	})
	return orch.Run(ctx, league)
}

// loadCollectionConfig loads the team-mapping and season-calendar YAML
// files named in config, tolerating a missing file since a fresh
// deployment may not have them yet (unmapped schedule names then fall back
// to ESPN abbreviations, per normalize.Normalizer.resolveOrFallback, while
// unmapped ratings and odds names are rejected record by record).
func loadCollectionConfig(cfg *config.Config, rt *runtime) error {
	if cfg.Collection.SeasonCalendarPath != "" {
		if f, err := openConfigFile(cfg.Collection.SeasonCalendarPath); err == nil {
			defer f.Close()
			if err := rt.calendar.Load(f); err != nil {
				return err
			}
		}
	}
	for _, path := range cfg.Collection.TeamMappingPaths {
		if f, err := openConfigFile(path); err == nil {
			if err := rt.teamMapper.Load(f); err != nil {
				f.Close()
				return err
			}
			f.Close()
		}
	}
	return nil
}

func openConfigFile(path string) (*os.File, error) {
	return os.Open(path)
}
