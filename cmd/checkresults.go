package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgeline/edge-engine/internal/config"
	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/echo"
	"github.com/edgeline/edge-engine/internal/engine/rating"
	"github.com/edgeline/edge-engine/internal/engine/settle"
	"github.com/edgeline/edge-engine/internal/obs"
)

var checkResultsLog = obs.For("cmd.checkresults")

// CheckResultsCmd creates the check-results command: grades every pending
// prediction whose game has gone final and folds the outcome into the
// league's running CLV record.
func CheckResultsCmd() *cobra.Command {
	var week int
	var archiveDir string

	cmd := &cobra.Command{
		Use:   "check-results [league]",
		Short: "Settle predictions against final scores and closing lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckResults(cmd, args[0], week, archiveDir)
		},
	}
	cmd.Flags().IntVar(&week, "week", 0, "Week to settle through (required)")
	cmd.Flags().StringVar(&archiveDir, "archive-dir", "data/raw", "Root directory for archived raw payloads")
	_ = cmd.MarkFlagRequired("week")
	return cmd
}

func runCheckResults(cmd *cobra.Command, leagueFlag string, week int, archiveDir string) error {
	league, err := leagueFromFlag(leagueFlag)
	if err != nil {
		return err
	}

	cfg := config.Get()
	echo.Header(fmt.Sprintf("Checking results: %s through week %d", league, week))

	rt, err := newRuntime(cfg, archiveDir)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	defer rt.close()

	ctx := cmd.Context()
	report, err := doCheckResults(ctx, rt, cfg, league, week)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	if report.NoPredictions {
		echo.Info("no pending predictions for this league/week")
		return nil
	}

	echo.Successf("matched=%d settled=%d already_settled=%d pending=%d",
		report.Matched, report.Settled, report.AlreadySettled, report.Pending)
	if len(report.Unmatched) > 0 {
		echo.Errorf("%d prediction(s) reference games not found: %v", len(report.Unmatched), report.Unmatched)
	}
	echo.Infof("record: %d-%d-%d (%d void), net profit %.2f units, avg CLV %.2f pts",
		report.Record.Wins, report.Record.Losses, report.Record.Pushes, report.Record.Voids,
		report.Record.NetProfit, report.Record.AverageCLV)

	if len(report.Unmatched) > 0 {
		checkResultsLog.Errorf("unmatched predictions at %s: %v", time.Now().UTC().Format(time.RFC3339), report.Unmatched)
		return exitError{code: 1, err: fmt.Errorf("%d prediction(s) reference unknown games", len(report.Unmatched))}
	}

	if report.GamesNotFinal && report.Settled == 0 {
		echo.Info("games not yet final; nothing settled this run")
		return exitError{code: 2, err: fmt.Errorf("games not final")}
	}

	return nil
}

// doCheckResults settles this week's pending predictions and, once
// settlement succeeds, folds the week's final scores into next week's
// power ratings via updateRatingsForWeek. It is the shared core behind
// both the one-shot check-results command and the scheduler's per-tick
// settle stage.
func doCheckResults(ctx context.Context, rt *runtime, cfg *config.Config, league core.League, week int) (*settle.Report, error) {
	checker := settle.NewChecker(rt.games, rt.predictions, rt.odds, rt.settledBets)

	report, err := checker.Settle(ctx, league, week)
	if err != nil {
		return nil, err
	}

	if report.NoPredictions || report.GamesNotFinal && report.Settled == 0 || len(report.Unmatched) > 0 {
		return report, nil
	}

	season := time.Now().Year()
	hfa := cfg.Leagues[string(league)].HomeFieldAdvantage
	if err := updateRatingsForWeek(ctx, rt, league, season, week, hfa); err != nil {
		checkResultsLog.Warnf("rating update for %s week %d: %v", league, week, err)
	}

	return report, nil
}

// updateRatingsForWeek folds this week's final scores into next week's
// power ratings via rating.UpdateWeek, the exponential-smoothing update
// spec.md's rating algorithm actually specifies — run once a week's
// predictions have been settled against final scores, since that's the
// first point a week's full set of results is known to be final.
func updateRatingsForWeek(ctx context.Context, rt *runtime, league core.League, season, week int, hfa float64) error {
	games, err := rt.games.ListByWeek(ctx, league, season, week)
	if err != nil {
		return fmt.Errorf("list games for week %d: %w", week, err)
	}

	var gameIDs []core.GameID
	for _, g := range games {
		if g.Status != core.GameFinal || g.HomeScore == nil || g.AwayScore == nil {
			continue
		}
		gameIDs = append(gameIDs, g.GameID)

		home := core.GameResult{
			GameID: g.GameID, Team: g.HomeTeam, Opponent: g.AwayTeam,
			TeamScore: *g.HomeScore, OpponentScore: *g.AwayScore, IsHome: true,
			League: league, Date: g.Kickoff,
		}
		away := core.GameResult{
			GameID: g.GameID, Team: g.AwayTeam, Opponent: g.HomeTeam,
			TeamScore: *g.AwayScore, OpponentScore: *g.HomeScore, IsHome: false,
			League: league, Date: g.Kickoff,
		}
		if err := rt.gameResults.Insert(ctx, home); err != nil {
			return fmt.Errorf("insert result for %s: %w", g.GameID, err)
		}
		if err := rt.gameResults.Insert(ctx, away); err != nil {
			return fmt.Errorf("insert result for %s: %w", g.GameID, err)
		}
	}
	if len(gameIDs) == 0 {
		return nil
	}

	results, err := rt.gameResults.ListByGameIDs(ctx, gameIDs)
	if err != nil {
		return fmt.Errorf("load game results: %w", err)
	}
	if len(results) == 0 {
		return nil
	}

	teams, err := rt.teams.ListByLeague(ctx, league)
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}

	current := make(map[core.TeamID]float64, len(teams))
	priors := make(map[core.TeamID]core.TeamRating, len(teams))
	for _, team := range teams {
		tr, err := rt.ratings.Latest(ctx, league, season, team.TeamID)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("latest rating for %s: %w", team.TeamID, err)
		}
		current[team.TeamID] = tr.Rating
		priors[team.TeamID] = *tr
	}

	next, err := rating.UpdateWeek(results, current, hfa)
	if err != nil {
		return fmt.Errorf("update week %d ratings: %w", week, err)
	}

	gamesPlayed := make(map[core.TeamID]int, len(results))
	for _, r := range results {
		gamesPlayed[r.Team]++
	}

	updated := make([]core.TeamRating, 0, len(next))
	for team, r := range next {
		prior := priors[team]
		tr := core.TeamRating{
			League: league, Season: season, Team: team, AsOfWeek: week + 1,
			Rating: r, GamesPlayed: prior.GamesPlayed + gamesPlayed[team], History: prior.History,
		}
		tr.PushHistory(r)
		updated = append(updated, tr)
	}

	if err := rt.ratings.CommitWeek(ctx, league, season, week+1, updated); err != nil {
		return fmt.Errorf("commit week %d ratings: %w", week+1, err)
	}
	return nil
}
