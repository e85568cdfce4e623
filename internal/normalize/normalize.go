package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/edgeline/edge-engine/internal/adapters/espn"
	"github.com/edgeline/edge-engine/internal/adapters/oddsprovider"
	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/obs"
)

var normLog = obs.For("normalize")

// GameIdentity returns the natural-key string used to correlate records
// from independent sources before a core.GameID has been assigned.
func GameIdentity(awayAbbr, homeAbbr string, kickoff time.Time) string {
	return fmt.Sprintf("%s_%s_%s", awayAbbr, homeAbbr, kickoff.Format("20060102"))
}

// Normalizer converts adapter-shaped responses into core entities, using a
// TeamMapper for name reconciliation and a SeasonCalendar for week
// derivation.
type Normalizer struct {
	teams    *TeamMapper
	calendar *SeasonCalendar
}

func NewNormalizer(teams *TeamMapper, calendar *SeasonCalendar) *Normalizer {
	return &Normalizer{teams: teams, calendar: calendar}
}

// Game converts one ESPN scoreboard entry into a core.Game. A missing team
// mapping is logged and the game is kept with the source abbreviation as a
// fallback TeamID, since a scheduling record without a resolvable opponent
// is still useful for downstream reporting.
func (n *Normalizer) Game(league core.League, season int, g espn.ScoreboardGame) core.Game {
	week := g.Week
	if week == 0 {
		week = n.calendar.WeekFor(string(league), g.Kickoff)
	}

	return core.Game{
		GameID:    core.GameID(GameIdentity(g.AwayAbbr, g.HomeAbbr, g.Kickoff)),
		League:    league,
		Season:    season,
		Week:      week,
		AwayTeam:  n.resolveOrFallback(league, "espn", g.AwayAbbr),
		HomeTeam:  n.resolveOrFallback(league, "espn", g.HomeAbbr),
		Kickoff:   g.Kickoff,
		Venue:     g.Venue,
		Indoor:    g.Indoor,
		Status:    g.Status,
		AwayScore: g.AwayScore,
		HomeScore: g.HomeScore,
	}
}

func (n *Normalizer) resolveOrFallback(league core.League, source, name string) core.TeamID {
	id, ok := n.teams.Resolve(league, source, name)
	if !ok {
		normLog.Warnf("unmapped team name %q from %s/%s, using source abbreviation as TeamID", name, league, source)
		return core.TeamID(strings.ToUpper(name))
	}
	return id
}

// Odds converts one odds-provider capture into a core.Odds record, hard
// failing with a ValidationError when either side's team name doesn't
// resolve since a spread tied to an unknown team can't be matched to a
// game at all.
func (n *Normalizer) Odds(league core.League, capture oddsprovider.Capture, gameID core.GameID) (core.Odds, error) {
	if _, err := n.teams.ResolveRequired(league, "oddsprovider", capture.HomeTeamName); err != nil {
		return core.Odds{}, err
	}
	if _, err := n.teams.ResolveRequired(league, "oddsprovider", capture.AwayTeamName); err != nil {
		return core.Odds{}, err
	}

	odds := capture.ToOdds(gameID)
	if !odds.Valid() {
		odds.Suspect = true
	}
	return odds, nil
}
