// Package espn adapts ESPN's public scoreboard, team-stats, and injury
// endpoints into typed responses. Grounded on the site.api.espn.com
// scoreboard JSON shape (events[].competitions[0].competitors[]).
package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/reliability"
)

// Client adapts one league's ESPN scoreboard/stats/injury endpoints.
type Client struct {
	rc      *reliability.Client
	baseURL string
	league  core.League
}

// NewClient builds an ESPN adapter on top of an already-constructed
// reliability.Client (adapters never touch internal/transport directly).
func NewClient(rc *reliability.Client, league core.League, baseURL string) *Client {
	return &Client{rc: rc, league: league, baseURL: baseURL}
}

type scoreboardResponse struct {
	Events []scoreboardEvent `json:"events"`
}

type scoreboardEvent struct {
	ID           string            `json:"id"`
	Date         string            `json:"date"`
	Week         struct{ Number int `json:"number"` } `json:"week"`
	Season       struct{ Year int `json:"year"` } `json:"season"`
	Status       eventStatus       `json:"status"`
	Competitions []competition     `json:"competitions"`
}

type eventStatus struct {
	Type struct {
		State     string `json:"state"`
		Completed bool   `json:"completed"`
	} `json:"type"`
}

type competition struct {
	Venue struct {
		FullName string `json:"fullName"`
		Indoor   bool   `json:"indoor"`
	} `json:"venue"`
	Competitors []competitor `json:"competitors"`
	Odds        []oddsEnvelope `json:"odds"`
}

type competitor struct {
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
	Team     struct {
		Abbreviation string `json:"abbreviation"`
		DisplayName  string `json:"displayName"`
		ID           string `json:"id"`
	} `json:"team"`
}

type oddsEnvelope struct {
	Details   string  `json:"details"`
	OverUnder float64 `json:"overUnder"`
	Provider  struct {
		Name string `json:"name"`
	} `json:"provider"`
}

// ScoreboardGame is one game as parsed from the scoreboard envelope.
type ScoreboardGame struct {
	SourceGameID string
	Kickoff      time.Time
	Week         int
	Season       int
	Venue        string
	Indoor       bool
	Status       core.GameStatus
	AwayAbbr     string
	HomeAbbr     string
	AwayScore    *int
	HomeScore    *int
	Source       string
	CapturedAt   time.Time
	Verified     bool
}

// FetchScoreboard retrieves and parses the weekly scoreboard for this
// adapter's league. Raises a ParseError on schema drift.
func (c *Client) FetchScoreboard(ctx context.Context) ([]ScoreboardGame, error) {
	resp, err := c.rc.Get(ctx, c.baseURL+"/scoreboard", http.Header{"Accept": []string{"application/json"}})
	if err != nil {
		return nil, err
	}
	if resp.JSON == nil {
		return nil, core.NewParseError("espn", fmt.Errorf("non-JSON scoreboard response"))
	}

	var parsed scoreboardResponse
	if err := json.Unmarshal(resp.JSON, &parsed); err != nil {
		return nil, core.NewParseError("espn", err)
	}

	now := time.Now().UTC()
	games := make([]ScoreboardGame, 0, len(parsed.Events))

	for _, ev := range parsed.Events {
		if len(ev.Competitions) == 0 || len(ev.Competitions[0].Competitors) < 2 {
			continue
		}
		comp := ev.Competitions[0]

		kickoff, err := time.Parse("2006-01-02T15:04Z", ev.Date)
		if err != nil {
			kickoff, err = time.Parse(time.RFC3339, ev.Date)
			if err != nil {
				continue
			}
		}

		g := ScoreboardGame{
			SourceGameID: ev.ID,
			Kickoff:      kickoff,
			Week:         ev.Week.Number,
			Season:       ev.Season.Year,
			Venue:        comp.Venue.FullName,
			Indoor:       comp.Venue.Indoor,
			Status:       mapStatus(ev.Status),
			Source:       "espn",
			CapturedAt:   now,
			Verified:     true,
		}

		for _, cp := range comp.Competitors {
			score := parseScore(cp.Score)
			if cp.HomeAway == "home" {
				g.HomeAbbr = cp.Team.Abbreviation
				g.HomeScore = score
			} else {
				g.AwayAbbr = cp.Team.Abbreviation
				g.AwayScore = score
			}
		}

		if g.HomeAbbr == "" || g.AwayAbbr == "" {
			g.Verified = false
		}

		games = append(games, g)
	}

	return games, nil
}

func mapStatus(s eventStatus) core.GameStatus {
	switch s.Type.State {
	case "pre":
		return core.GameScheduled
	case "in":
		return core.GameInProgress
	case "post":
		return core.GameFinal
	default:
		return core.GameScheduled
	}
}

func parseScore(raw string) *int {
	if raw == "" {
		return nil
	}
	var v int
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return nil
	}
	return &v
}

// TeamSeasonStats is one team's season-aggregate metrics.
type TeamSeasonStats struct {
	TeamAbbr          string
	PointsPerGame     float64
	PointsAgainstPerGame float64
	YardsPerGame      float64
	TurnoverMargin    float64
	ThirdDownPct      float64
	Source            string
	CapturedAt        time.Time
}

type statsResponse struct {
	Team struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
	Stats []struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	} `json:"stats"`
}

// FetchTeamStats retrieves season-aggregate stats for one team.
func (c *Client) FetchTeamStats(ctx context.Context, espnTeamID string) (*TeamSeasonStats, error) {
	url := fmt.Sprintf("%s/teams/%s/statistics", c.baseURL, espnTeamID)
	resp, err := c.rc.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if resp.JSON == nil {
		return nil, core.NewParseError("espn", fmt.Errorf("non-JSON stats response"))
	}

	var parsed statsResponse
	if err := json.Unmarshal(resp.JSON, &parsed); err != nil {
		return nil, core.NewParseError("espn", err)
	}

	out := &TeamSeasonStats{
		TeamAbbr:   parsed.Team.Abbreviation,
		Source:     "espn",
		CapturedAt: time.Now().UTC(),
	}
	for _, s := range parsed.Stats {
		switch s.Name {
		case "pointsPerGame":
			out.PointsPerGame = s.Value
		case "pointsAgainstPerGame":
			out.PointsAgainstPerGame = s.Value
		case "yardsPerGame":
			out.YardsPerGame = s.Value
		case "turnoverMargin":
			out.TurnoverMargin = s.Value
		case "thirdDownConvPct":
			out.ThirdDownPct = s.Value
		}
	}
	return out, nil
}

type injuryResponse struct {
	Items []struct {
		Athlete struct {
			DisplayName string `json:"displayName"`
			Position    struct {
				Abbreviation string `json:"abbreviation"`
			} `json:"position"`
		} `json:"athlete"`
		Status string `json:"status"`
	} `json:"items"`
}

// FetchInjuries retrieves the current injury list for one team.
func (c *Client) FetchInjuries(ctx context.Context, espnTeamID string) ([]core.InjuryReport, error) {
	url := fmt.Sprintf("%s/teams/%s/injuries", c.baseURL, espnTeamID)
	resp, err := c.rc.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if resp.JSON == nil {
		return nil, core.NewParseError("espn", fmt.Errorf("non-JSON injury response"))
	}

	var parsed injuryResponse
	if err := json.Unmarshal(resp.JSON, &parsed); err != nil {
		return nil, core.NewParseError("espn", err)
	}

	now := time.Now().UTC()
	reports := make([]core.InjuryReport, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		reports = append(reports, core.InjuryReport{
			PlayerName: item.Athlete.DisplayName,
			Position:   item.Athlete.Position.Abbreviation,
			Status:     item.Status,
			CapturedAt: now,
			Severity:   severityFromStatus(item.Status),
			Confidence: 0.8,
			Source:     "espn",
		})
	}
	return reports, nil
}

func severityFromStatus(status string) core.Severity {
	switch status {
	case "Out", "Injured Reserve":
		return core.SeveritySevere
	case "Doubtful":
		return core.SeverityModerate
	case "Questionable":
		return core.SeverityMinor
	default:
		return core.SeverityHealthy
	}
}
