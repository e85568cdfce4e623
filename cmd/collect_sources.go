package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/edgeline/edge-engine/internal/adapters/oddsprovider"
	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/normalize"
)

// gameIDForCapture resolves an odds capture's source team names to
// canonical TeamIDs and derives the same natural-key GameID the schedule
// source would assign, since spreads can post before a game's ESPN record
// is confirmed and the two sources must still agree on identity.
func gameIDForCapture(rt *runtime, league core.League, capture oddsprovider.Capture) (core.GameID, error) {
	awayID, err := rt.teamMapper.ResolveRequired(league, "oddsprovider", capture.AwayTeamName)
	if err != nil {
		return "", err
	}
	homeID, err := rt.teamMapper.ResolveRequired(league, "oddsprovider", capture.HomeTeamName)
	if err != nil {
		return "", err
	}
	return core.GameID(normalize.GameIdentity(string(awayID), string(homeID), capture.Kickoff)), nil
}

// collectRatings fetches the composite power-ratings feed and commits it as
// the current week's rating snapshot. A team name the mapper can't resolve
// is dropped with a per-record error rather than failing the whole batch
// (adapters swallow per-record errors; only the orchestrator's degraded
// flag affects the exit code).
func collectRatings(ctx context.Context, rt *runtime, sc sourceClients, league core.League, season, week int, dryRun bool) (int, []string, error) {
	entries, err := sc.ratings.FetchComposite(ctx)
	if err != nil {
		return 0, nil, err
	}
	if _, err := rt.archiver.Write(string(league), "ratings", week, time.Now().UTC(), entries); err != nil {
		collectLog.Warnf("archive ratings payload: %v", err)
	}

	var itemErrors []string
	ratings := make([]core.TeamRating, 0, len(entries))
	for _, e := range entries {
		if !e.Verified {
			itemErrors = append(itemErrors, fmt.Sprintf("unparsed rating row for %q", e.SourceTeamName))
			continue
		}
		teamID, ok := rt.teamMapper.Resolve(league, "ratings", e.SourceTeamName)
		if !ok {
			itemErrors = append(itemErrors, fmt.Sprintf("unmapped team %q", e.SourceTeamName))
			continue
		}
		ratings = append(ratings, core.TeamRating{
			League: league, Season: season, Team: teamID, AsOfWeek: week, Rating: e.Rating,
		})
	}

	if dryRun || len(ratings) == 0 {
		return len(ratings), itemErrors, nil
	}
	if err := rt.ratings.CommitWeek(ctx, league, season, week, ratings); err != nil {
		return 0, itemErrors, err
	}
	return len(ratings), itemErrors, nil
}

// collectTeamStats fetches season-aggregate stats for every team already
// known to the store, one ESPN statistics call per team (mirroring
// collectInjuries' per-team loop).
func collectTeamStats(ctx context.Context, rt *runtime, sc sourceClients, league core.League, season int, dryRun bool) (int, []string, error) {
	teams, err := rt.teams.ListByLeague(ctx, league)
	if err != nil {
		return 0, nil, err
	}

	var itemErrors []string
	written := 0
	for _, team := range teams {
		stats, err := sc.espn.FetchTeamStats(ctx, string(team.TeamID))
		if err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("fetch team stats for %s: %v", team.TeamID, err))
			continue
		}

		if dryRun {
			written++
			continue
		}
		record := core.TeamStats{
			League: league, Season: season, Team: team.TeamID,
			PointsPerGame: stats.PointsPerGame, PointsAgainstPerGame: stats.PointsAgainstPerGame,
			YardsPerGame: stats.YardsPerGame, TurnoverMargin: stats.TurnoverMargin,
			ThirdDownPct: stats.ThirdDownPct, Source: stats.Source, CapturedAt: stats.CapturedAt,
		}
		if err := rt.teamStats.Upsert(ctx, record); err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("upsert team stats for %s: %v", team.TeamID, err))
			continue
		}
		written++
	}
	return written, itemErrors, nil
}

// collectSchedule fetches the league scoreboard and upserts every parsed
// game on its natural key.
func collectSchedule(ctx context.Context, rt *runtime, sc sourceClients, league core.League, season int, dryRun bool) (int, []string, error) {
	games, err := sc.espn.FetchScoreboard(ctx)
	if err != nil {
		return 0, nil, err
	}
	if _, err := rt.archiver.Write(string(league), "schedule", rt.calendar.WeekFor(string(league), time.Now().UTC()), time.Now().UTC(), games); err != nil {
		collectLog.Warnf("archive schedule payload: %v", err)
	}

	var itemErrors []string
	written := 0
	for _, g := range games {
		if !g.Verified {
			itemErrors = append(itemErrors, fmt.Sprintf("unparsed scoreboard entry %q", g.SourceGameID))
			continue
		}
		game := rt.normalizer.Game(league, season, g)
		if dryRun {
			written++
			continue
		}
		if err := rt.games.Upsert(ctx, game); err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("upsert game %s: %v", game.GameID, err))
			continue
		}
		written++
	}
	return written, itemErrors, nil
}

// collectInjuries fetches the current injury list for every team already
// known to the store, since ESPN's injury endpoint is per-team.
func collectInjuries(ctx context.Context, rt *runtime, sc sourceClients, league core.League, dryRun bool) (int, []string, error) {
	teams, err := rt.teams.ListByLeague(ctx, league)
	if err != nil {
		return 0, nil, err
	}

	var itemErrors []string
	written := 0
	for _, team := range teams {
		reports, err := sc.espn.FetchInjuries(ctx, string(team.TeamID))
		if err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("fetch injuries for %s: %v", team.TeamID, err))
			continue
		}
		for _, rep := range reports {
			rep.Team = team.TeamID
			if dryRun {
				written++
				continue
			}
			if err := rt.injuries.Insert(ctx, rep); err != nil {
				itemErrors = append(itemErrors, fmt.Sprintf("insert injury for %s: %v", team.TeamID, err))
				continue
			}
			written++
		}
	}
	return written, itemErrors, nil
}

// collectWeather fetches an outdoor-stadium forecast for every upcoming
// game this week with known venue coordinates. Indoor games and venues
// missing from the static coordinate table are skipped, not failed, since
// weather is a non-critical source (E4).
func collectWeather(ctx context.Context, rt *runtime, sc sourceClients, league core.League, season, week int, dryRun bool) (int, []string, error) {
	games, err := rt.games.ListByWeek(ctx, league, season, week)
	if err != nil {
		return 0, nil, err
	}

	var itemErrors []string
	written := 0
	for _, g := range games {
		if g.Indoor {
			continue
		}
		coords, ok := venueCoordinates[g.Venue]
		if !ok {
			itemErrors = append(itemErrors, fmt.Sprintf("no coordinates for venue %q", g.Venue))
			continue
		}
		report, err := sc.weather.FetchForecast(ctx, g.GameID, coords[0], coords[1], g.Kickoff)
		if err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("fetch forecast for %s: %v", g.GameID, err))
			continue
		}
		if dryRun {
			written++
			continue
		}
		if err := rt.weather.Insert(ctx, *report); err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("insert weather for %s: %v", g.GameID, err))
			continue
		}
		written++
	}
	return written, itemErrors, nil
}

// collectOdds fetches the odds feed and inserts one row per (game,
// sportsbook) capture. A capture for a game this league hasn't scheduled
// yet (kickoff known, GameID not yet in the store) is still written: C6
// has no foreign key from odds to games, since a line can post before the
// schedule is confirmed (spec.md's C11 edge detector matches them later
// by GameID).
func collectOdds(ctx context.Context, rt *runtime, sc sourceClients, league core.League, dryRun bool) (int, []string, error) {
	captures, err := sc.odds.FetchOdds(ctx)
	if err != nil {
		return 0, nil, err
	}
	if _, err := rt.archiver.Write(string(league), "odds", 0, time.Now().UTC(), captures); err != nil {
		collectLog.Warnf("archive odds payload: %v", err)
	}

	var itemErrors []string
	written := 0
	for _, capture := range captures {
		if !capture.Verified {
			itemErrors = append(itemErrors, fmt.Sprintf("unverified odds capture for event %q", capture.SourceEventID))
			continue
		}
		gameID, err := gameIDForCapture(rt, league, capture)
		if err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("resolve game id for event %q: %v", capture.SourceEventID, err))
			continue
		}
		odds, err := rt.normalizer.Odds(league, capture, gameID)
		if err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("normalize odds for event %q: %v", capture.SourceEventID, err))
			continue
		}
		if dryRun {
			written++
			continue
		}
		if err := rt.odds.Insert(ctx, odds); err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("insert odds for %s: %v", gameID, err))
			continue
		}
		written++
	}
	return written, itemErrors, nil
}

// venueCoordinates is a static lookup for the outdoor stadiums this
// deployment tracks; an unlisted venue degrades weather collection for
// that game rather than the whole source.
var venueCoordinates = map[string][2]float64{
	"Lambeau Field":        {44.5013, -88.0622},
	"Arrowhead Stadium":    {39.0489, -94.4839},
	"Highmark Stadium":     {42.7738, -78.7870},
	"Soldier Field":        {41.8623, -87.6167},
	"MetLife Stadium":      {40.8135, -74.0745},
	"Lincoln Financial Field": {39.9008, -75.1675},
}
