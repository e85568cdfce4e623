package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgeline/edge-engine/internal/config"
	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/echo"
	"github.com/edgeline/edge-engine/internal/engine/edge"
	"github.com/edgeline/edge-engine/internal/obs"
)

var detectLog = obs.For("cmd.detectedges")

const modelVersion = "v1"

// oddsWindow bounds how far back a book's capture can be and still count
// toward this run's consensus line.
const oddsWindow = 6 * time.Hour

// DetectEdgesCmd creates the detect-edges command: runs the edge detector
// against every scheduled game in a week and writes fresh predictions.
func DetectEdgesCmd() *cobra.Command {
	var week int
	var archiveDir string

	cmd := &cobra.Command{
		Use:   "detect-edges [league]",
		Short: "Run edge detection against a week's scheduled games",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetectEdges(cmd, args[0], week, archiveDir)
		},
	}
	cmd.Flags().IntVar(&week, "week", 0, "Week to evaluate (0 = current week per the season calendar)")
	cmd.Flags().StringVar(&archiveDir, "archive-dir", "data/raw", "Root directory for archived raw payloads")
	return cmd
}

func runDetectEdges(cmd *cobra.Command, leagueFlag string, week int, archiveDir string) error {
	league, err := leagueFromFlag(leagueFlag)
	if err != nil {
		return err
	}

	cfg := config.Get()
	echo.Header(fmt.Sprintf("Detecting edges: %s", league))

	rt, err := newRuntime(cfg, archiveDir)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	defer rt.close()
	if err := loadCollectionConfig(cfg, rt); err != nil {
		echo.Errorf("config warning: %v", err)
	}

	ctx := cmd.Context()
	season := time.Now().Year()
	if week == 0 {
		week = rt.calendar.WeekFor(string(league), time.Now().UTC())
	}

	games, err := rt.games.ListByWeek(ctx, league, season, week)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	if len(games) == 0 {
		echo.Info("no scheduled games for this week")
		return exitError{code: 2, err: fmt.Errorf("no games scheduled")}
	}

	written, skipped, oddsDegraded, err := doDetectEdges(ctx, rt, cfg, league, season, games)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	echo.Infof("%d prediction(s) written, %d below floor", written, skipped)

	if oddsDegraded {
		return exitError{code: 1, err: fmt.Errorf("odds source degraded during detection")}
	}
	return nil
}

// doDetectEdges runs the edge detector against every scheduled game in
// games, writing fresh predictions and skipping duplicates (P3). It is the
// shared core behind both the one-shot detect-edges command and the
// scheduler's per-tick detect stage.
func doDetectEdges(ctx context.Context, rt *runtime, cfg *config.Config, league core.League, season int, games []core.Game) (written, skipped int, oddsDegraded bool, err error) {
	detector := edge.NewDetector(edge.DefaultConfig(modelVersion))
	hfa := cfg.Leagues[string(league)].HomeFieldAdvantage
	bankroll := cfg.Bankroll.BankrollUnits

	for _, game := range games {
		if game.Status != core.GameScheduled {
			continue
		}

		gameCtx, buildErr := buildGameContext(ctx, rt, game)
		if buildErr != nil {
			detectLog.Warnf("build context for %s: %v", game.GameID, buildErr)
			continue
		}

		awayRating, homeRating, ratingSnapshot, ratingErr := latestRatings(ctx, rt, league, season, game)
		if ratingErr != nil {
			detectLog.Warnf("load ratings for %s: %v", game.GameID, ratingErr)
			continue
		}

		consensus, oddsErr := consensusOdds(ctx, rt, game.GameID)
		if oddsErr != nil {
			oddsDegraded = true
			detectLog.Warnf("consensus odds for %s: %v", game.GameID, oddsErr)
			continue
		}

		pred, detectErr := detector.Detect(edge.Input{
			Game: gameCtx, AwayRating: awayRating, HomeRating: homeRating,
			HomeFieldAdvantage: hfa, ConsensusOdds: consensus,
			RatingSnapshot: ratingSnapshot, Bankroll: bankroll,
		})
		if detectErr != nil {
			detectLog.Warnf("detect edge for %s: %v", game.GameID, detectErr)
			continue
		}
		pred.GeneratedAt = time.Now().UTC()

		if pred.StarsRating == core.Stars0 {
			skipped++
			continue
		}

		if existing, existingErr := rt.predictions.LatestForGame(ctx, game.GameID, modelVersion); existingErr == nil {
			if existing.EqualIgnoringTimestamp(*pred) {
				continue // P3: identical inputs produce no duplicate row
			}
		} else if !core.IsNotFound(existingErr) {
			detectLog.Warnf("check existing prediction for %s: %v", game.GameID, existingErr)
		}

		if insertErr := rt.predictions.Insert(ctx, *pred); insertErr != nil {
			return written, skipped, oddsDegraded, fmt.Errorf("insert prediction for %s: %w", game.GameID, insertErr)
		}
		written++
		echo.Successf("%s: %s %.1f stars, edge %.2f%%, stake %.2f%%",
			game.GameID, pred.RecommendedSide, float64(pred.StarsRating), pred.EdgePercentage, pred.StakeUnits*100)
	}

	return written, skipped, oddsDegraded, nil
}

// buildGameContext assembles the transient analysis input for one game
// from whatever the store already has: team metadata, current injuries,
// the latest forecast, and a rest-days/divisional read derived from the
// schedule itself. Emotional and revenge inputs have no feed in this
// deployment and are left at their zero value.
func buildGameContext(ctx context.Context, rt *runtime, game core.Game) (core.GameContext, error) {
	home, err := rt.teams.Get(ctx, game.League, game.HomeTeam)
	if err != nil {
		return core.GameContext{}, fmt.Errorf("home team %s: %w", game.HomeTeam, err)
	}
	away, err := rt.teams.Get(ctx, game.League, game.AwayTeam)
	if err != nil {
		return core.GameContext{}, fmt.Errorf("away team %s: %w", game.AwayTeam, err)
	}

	homeInjuries, _ := rt.injuries.Current(ctx, game.HomeTeam)
	awayInjuries, _ := rt.injuries.Current(ctx, game.AwayTeam)

	gameCtx := core.GameContext{
		Game: game, Home: *home, Away: *away,
		Injuries: map[core.TeamID][]core.InjuryReport{
			game.HomeTeam: homeInjuries,
			game.AwayTeam: awayInjuries,
		},
		RestDaysHome: restDays(ctx, rt, game, game.HomeTeam),
		RestDaysAway: restDays(ctx, rt, game, game.AwayTeam),
		Divisional:   home.Division != "" && home.Division == away.Division,
	}

	if !game.Indoor {
		if report, err := rt.weather.Latest(ctx, game.GameID); err == nil {
			gameCtx.Weather = report
		}
	}

	return gameCtx, nil
}

// restDays defaults to a standard week (7) for a team's season opener,
// since there is no prior kickoff to difference against.
func restDays(ctx context.Context, rt *runtime, game core.Game, team core.TeamID) int {
	last, err := rt.games.LastPlayed(ctx, game.League, game.Season, team, game.Kickoff)
	if err != nil {
		return 7
	}
	return int(game.Kickoff.Sub(last.Kickoff).Hours() / 24)
}

// consensusOdds reduces the last oddsWindow of captures to a single line via
// edge.Latest, memoized under the odds TTL so a week's worth of detect-edges
// reruns don't recompute the same reduction against an unmoved market.
func consensusOdds(ctx context.Context, rt *runtime, gameID core.GameID) (core.Odds, error) {
	key := rt.cache.OddsKey(string(gameID), map[string]string{"window": oddsWindow.String()})

	var cached core.Odds
	if rt.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	captures, err := rt.odds.Recent(ctx, gameID, oddsWindow)
	if err != nil {
		return core.Odds{}, err
	}
	if len(captures) == 0 {
		return core.Odds{}, fmt.Errorf("no odds captured in the last %s", oddsWindow)
	}

	consensus, err := edge.Latest(gameID, captures)
	if err != nil {
		return core.Odds{}, err
	}

	if err := rt.cache.Set(ctx, key, consensus, rt.cfg.Cache.TTLs.Odds); err != nil {
		detectLog.Warnf("cache consensus odds for %s: %v", gameID, err)
	}
	return consensus, nil
}

func latestRatings(ctx context.Context, rt *runtime, league core.League, season int, game core.Game) (awayRating, homeRating float64, snapshot map[core.TeamID]float64, err error) {
	awayTR, err := rt.ratings.Latest(ctx, league, season, game.AwayTeam)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("away rating: %w", err)
	}
	homeTR, err := rt.ratings.Latest(ctx, league, season, game.HomeTeam)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("home rating: %w", err)
	}
	snapshot = map[core.TeamID]float64{
		game.AwayTeam: awayTR.Rating,
		game.HomeTeam: homeTR.Rating,
	}
	return awayTR.Rating, homeTR.Rating, snapshot, nil
}
