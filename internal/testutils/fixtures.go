package testutils

import (
	"context"
	"time"

	"github.com/edgeline/edge-engine/internal/core"
)

// SeedTeams inserts a small set of teams directly, bypassing
// TeamRepository so tests can seed state without depending on the
// repository under test.
func (c *PostgresContainer) SeedTeams(ctx context.Context, teams ...core.Team) error {
	for _, t := range teams {
		_, err := c.DB.ExecContext(ctx, `
			INSERT INTO teams (league, team_id, name, abbreviation, conference, division)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (league, team_id) DO NOTHING
		`, string(t.League), string(t.TeamID), t.Name, t.Abbreviation, t.Conference, t.Division)
		if err != nil {
			return err
		}
	}
	return nil
}

// SeedGames inserts scheduling rows directly.
func (c *PostgresContainer) SeedGames(ctx context.Context, games ...core.Game) error {
	for _, g := range games {
		_, err := c.DB.ExecContext(ctx, `
			INSERT INTO games (
				game_id, league, season, week, away_team, home_team, kickoff,
				venue, indoor, status, away_score, home_score
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (league, season, away_team, home_team, kickoff) DO NOTHING
		`, string(g.GameID), string(g.League), g.Season, g.Week,
			string(g.AwayTeam), string(g.HomeTeam), g.Kickoff,
			g.Venue, g.Indoor, string(g.Status), g.AwayScore, g.HomeScore)
		if err != nil {
			return err
		}
	}
	return nil
}

// NFCEastFixture returns four divisional teams used across fixtures where a
// real division matchup matters (rivalry/divisional factor tests).
func NFCEastFixture() []core.Team {
	return []core.Team{
		{League: core.LeagueNFL, TeamID: "PHI", Name: "Philadelphia Eagles", Abbreviation: "PHI", Conference: "NFC", Division: "NFC East"},
		{League: core.LeagueNFL, TeamID: "DAL", Name: "Dallas Cowboys", Abbreviation: "DAL", Conference: "NFC", Division: "NFC East"},
		{League: core.LeagueNFL, TeamID: "NYG", Name: "New York Giants", Abbreviation: "NYG", Conference: "NFC", Division: "NFC East"},
		{League: core.LeagueNFL, TeamID: "WAS", Name: "Washington Commanders", Abbreviation: "WAS", Conference: "NFC", Division: "NFC East"},
	}
}

// ScheduledGameFixture builds a single scheduled game between two teams,
// kicking off exactly at the given anchor, with a GameID built from the
// anchor's date.
func ScheduledGameFixture(league core.League, season, week int, away, home core.TeamID, anchor time.Time) core.Game {
	return core.Game{
		GameID:   core.GameID(string(away) + "_" + string(home) + "_" + anchor.Format("20060102")),
		League:   league,
		Season:   season,
		Week:     week,
		AwayTeam: away,
		HomeTeam: home,
		Kickoff:  anchor,
		Venue:    "Lincoln Financial Field",
		Indoor:   false,
		Status:   core.GameScheduled,
	}
}
