// Package oddsprovider adapts a The-Odds-API-style feed (spreads, totals,
// moneylines across books) into core.Odds records. Response shape grounded
// on jbrackens-AttaboyGO's provider/oddsapi.go and XavierBriggs-Mercury's
// adapters/theoddsapi/client.go (event -> bookmakers[] -> markets[] ->
// outcomes[], American or decimal pricing depending on the configured
// oddsFormat).
package oddsprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/reliability"
)

// Client adapts one odds-feed sport key into core.Odds captures.
type Client struct {
	rc       *reliability.Client
	baseURL  string
	apiKey   string
	sportKey string
}

// NewClient builds an odds-provider adapter for one sport key
// (e.g. "americanfootball_nfl").
func NewClient(rc *reliability.Client, baseURL, apiKey, sportKey string) *Client {
	return &Client{rc: rc, baseURL: baseURL, apiKey: apiKey, sportKey: sportKey}
}

type event struct {
	ID           string      `json:"id"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []bookmaker `json:"bookmakers"`
}

type bookmaker struct {
	Key     string   `json:"key"`
	Markets []market `json:"markets"`
}

type market struct {
	Key      string    `json:"key"`
	Outcomes []outcome `json:"outcomes"`
}

type outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// Capture is one book's normalized line for one game, prior to team-ID
// reconciliation (still carries source team names).
type Capture struct {
	SourceEventID string
	AwayTeamName  string
	HomeTeamName  string
	Kickoff       time.Time
	Sportsbook    string
	HomeSpread    float64
	AwaySpread    float64
	Total         float64
	HomeML        int
	AwayML        int
	CapturedAt    time.Time
	Source        string
	Verified      bool
}

// FetchOdds retrieves current spreads/totals/moneylines for every upcoming
// game in this client's sport, one Capture per (event, bookmaker) pair.
func (c *Client) FetchOdds(ctx context.Context) ([]Capture, error) {
	url := fmt.Sprintf("%s/v4/sports/%s/odds/?apiKey=%s&regions=us&markets=h2h,spreads,totals&oddsFormat=american&dateFormat=iso",
		c.baseURL, c.sportKey, c.apiKey)

	resp, err := c.rc.Get(ctx, url, http.Header{"Accept": []string{"application/json"}})
	if err != nil {
		return nil, err
	}
	if resp.JSON == nil {
		return nil, core.NewParseError("oddsprovider", fmt.Errorf("non-JSON odds response"))
	}

	var events []event
	if err := json.Unmarshal(resp.JSON, &events); err != nil {
		return nil, core.NewParseError("oddsprovider", err)
	}

	now := time.Now().UTC()
	var captures []Capture

	for _, ev := range events {
		kickoff, err := time.Parse(time.RFC3339, ev.CommenceTime)
		if err != nil {
			continue
		}

		for _, bk := range ev.Bookmakers {
			rec := Capture{
				SourceEventID: ev.ID,
				AwayTeamName:  ev.AwayTeam,
				HomeTeamName:  ev.HomeTeam,
				Kickoff:       kickoff,
				Sportsbook:    bk.Key,
				CapturedAt:    now,
				Source:        "oddsprovider",
				Verified:      true,
			}

			for _, mkt := range bk.Markets {
				switch mkt.Key {
				case "spreads":
					for _, o := range mkt.Outcomes {
						if o.Point == nil {
							continue
						}
						if o.Name == ev.HomeTeam {
							rec.HomeSpread = *o.Point
						} else if o.Name == ev.AwayTeam {
							rec.AwaySpread = *o.Point
						}
					}
				case "totals":
					for _, o := range mkt.Outcomes {
						if o.Point != nil && o.Name == "Over" {
							rec.Total = *o.Point
						}
					}
				case "h2h":
					for _, o := range mkt.Outcomes {
						ml := americanFromDecimalIfNeeded(o.Price)
						if o.Name == ev.HomeTeam {
							rec.HomeML = ml
						} else if o.Name == ev.AwayTeam {
							rec.AwayML = ml
						}
					}
				}
			}

			if rec.HomeSpread == 0 && rec.AwaySpread == 0 {
				rec.Verified = false
			}

			captures = append(captures, rec)
		}
	}

	return captures, nil
}

// americanFromDecimalIfNeeded passes through values already in American
// odds form (the feed is queried with oddsFormat=american); kept as a
// named conversion point since some books report decimal by mistake.
func americanFromDecimalIfNeeded(price float64) int {
	if price > -100 && price < 100 && price != 0 {
		// Looks like decimal odds (e.g. 1.91), not American; convert.
		if price >= 2.0 {
			return int((price - 1) * 100)
		}
		return int(-100 / (price - 1))
	}
	return int(price)
}

// ToOdds converts a Capture into a core.Odds record once game_id and team
// reconciliation have happened upstream in the normalizer.
func (rec Capture) ToOdds(gameID core.GameID) core.Odds {
	return core.Odds{
		GameID:     gameID,
		Sportsbook: rec.Sportsbook,
		CapturedAt: rec.CapturedAt,
		HomeSpread: rec.HomeSpread,
		AwaySpread: rec.AwaySpread,
		Total:      rec.Total,
		HomeML:     rec.HomeML,
		AwayML:     rec.AwayML,
		Suspect:    !core.Odds{HomeSpread: rec.HomeSpread, AwaySpread: rec.AwaySpread, Total: rec.Total}.Valid(),
	}
}
