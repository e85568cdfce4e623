// Package ratings adapts a Massey-style composite power-ratings feed (one
// scalar per team, published as CSV or JSON) into entries usable as a
// preseason prior for internal/engine/rating. Shape and fallback style
// mirror the source-adapter convention set by adapters/espn and
// adapters/oddsprovider: a thin *reliability.Client wrapper, typed results,
// Source/CapturedAt/Verified tagging.
package ratings

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/reliability"
)

// Client adapts one composite-ratings publisher for one league.
type Client struct {
	rc      *reliability.Client
	baseURL string
	league  core.League
	format  Format
}

// Format selects the wire shape the feed publishes.
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
)

func NewClient(rc *reliability.Client, league core.League, baseURL string, format Format) *Client {
	return &Client{rc: rc, league: league, baseURL: baseURL, format: format}
}

// Entry is one team's composite rating as published by the feed, prior to
// TeamID reconciliation (still carries the source's team name string).
type Entry struct {
	SourceTeamName string
	Rating         float64
	CapturedAt     time.Time
	Source         string
	Verified       bool
}

type jsonEntry struct {
	Team   string  `json:"team"`
	Rating float64 `json:"rating"`
}

// FetchComposite retrieves the current composite rating for every team in
// this client's league.
func (c *Client) FetchComposite(ctx context.Context) ([]Entry, error) {
	resp, err := c.rc.Get(ctx, c.baseURL+"/ratings/"+strings.ToLower(string(c.league)), http.Header{"Accept": []string{"*/*"}})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	switch c.format {
	case FormatJSON:
		return c.parseJSON(resp.Bytes, now)
	default:
		return c.parseCSV(resp.Bytes, now)
	}
}

func (c *Client) parseJSON(raw []byte, now time.Time) ([]Entry, error) {
	var rows []jsonEntry
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, core.NewParseError("ratings", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			SourceTeamName: row.Team,
			Rating:         row.Rating,
			CapturedAt:     now,
			Source:         "ratings",
			Verified:       row.Team != "",
		})
	}
	return entries, nil
}

// parseCSV expects a two-column "team,rating" layout with an optional
// header row (detected by a non-numeric second column on the first row).
func (c *Client) parseCSV(raw []byte, now time.Time) ([]Entry, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = 2

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, core.NewParseError("ratings", err)
	}
	if len(rows) == 0 {
		return nil, core.NewDataUnavailableError("ratings", "empty CSV feed")
	}

	start := 0
	if _, err := strconv.ParseFloat(rows[0][1], 64); err != nil {
		start = 1 // header row
	}

	entries := make([]Entry, 0, len(rows)-start)
	for _, row := range rows[start:] {
		rating, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			entries = append(entries, Entry{
				SourceTeamName: row[0],
				CapturedAt:     now,
				Source:         "ratings",
				Verified:       false,
			})
			continue
		}
		entries = append(entries, Entry{
			SourceTeamName: strings.TrimSpace(row[0]),
			Rating:         rating,
			CapturedAt:     now,
			Source:         "ratings",
			Verified:       true,
		})
	}
	return entries, nil
}

// String implements fmt.Stringer so Entry values print usefully in logs.
func (e Entry) String() string {
	return fmt.Sprintf("%s=%.2f", e.SourceTeamName, e.Rating)
}
