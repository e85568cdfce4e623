// Package weather adapts an OpenWeatherMap-style forecast endpoint into
// core.WeatherReport records. Response shape grounded on
// jshill103-hockey_home_dashboard's services/weather_analysis.go
// (OpenWeatherMapResponse: weather[], main.temp, wind.speed, rain/snow).
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/reliability"
)

// Client adapts one forecast provider, keyed by lat/lon rather than venue
// name since venues rarely carry coordinates in source feeds.
type Client struct {
	rc      *reliability.Client
	baseURL string
	apiKey  string
}

func NewClient(rc *reliability.Client, baseURL, apiKey string) *Client {
	return &Client{rc: rc, baseURL: baseURL, apiKey: apiKey}
}

type forecastResponse struct {
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Snow struct {
		OneHour float64 `json:"1h"`
	} `json:"snow"`
	Dt int64 `json:"dt"`
}

// FetchForecast retrieves the forecast nearest to kickoff for the given
// coordinates. Indoor venues should never reach this call; callers check
// core.Game venue metadata first.
func (c *Client) FetchForecast(ctx context.Context, gameID core.GameID, lat, lon float64, kickoff time.Time) (*core.WeatherReport, error) {
	url := fmt.Sprintf("%s/forecast?lat=%.4f&lon=%.4f&appid=%s&units=imperial", c.baseURL, lat, lon, c.apiKey)

	resp, err := c.rc.Get(ctx, url, http.Header{"Accept": []string{"application/json"}})
	if err != nil {
		return nil, err
	}
	if resp.JSON == nil {
		return nil, core.NewParseError("weather", fmt.Errorf("non-JSON forecast response"))
	}

	var parsed struct {
		List []forecastResponse `json:"list"`
	}
	if err := json.Unmarshal(resp.JSON, &parsed); err != nil {
		return nil, core.NewParseError("weather", err)
	}
	if len(parsed.List) == 0 {
		return nil, core.NewDataUnavailableError("weather", "empty forecast list")
	}

	nearest := nearestToKickoff(parsed.List, kickoff)

	return &core.WeatherReport{
		GameID:                   gameID,
		CapturedAt:               time.Now().UTC(),
		TempF:                    nearest.Main.Temp,
		WindMPH:                  nearest.Wind.Speed,
		PrecipitationKind:        classifyPrecipitation(nearest),
		PrecipitationProbability: precipProbability(nearest),
	}, nil
}

func nearestToKickoff(forecasts []forecastResponse, kickoff time.Time) forecastResponse {
	target := kickoff.Unix()
	best := forecasts[0]
	bestDelta := absInt64(best.Dt - target)
	for _, f := range forecasts[1:] {
		if d := absInt64(f.Dt - target); d < bestDelta {
			best, bestDelta = f, d
		}
	}
	return best
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func classifyPrecipitation(f forecastResponse) core.PrecipitationKind {
	hasSnow := f.Snow.OneHour > 0
	hasRain := f.Rain.OneHour > 0
	if hasSnow && hasRain {
		return core.PrecipMixed
	}
	if hasSnow {
		return core.PrecipSnow
	}
	if hasRain {
		return core.PrecipRain
	}
	for _, w := range f.Weather {
		switch strings.ToLower(w.Main) {
		case "snow":
			return core.PrecipSnow
		case "rain", "drizzle", "thunderstorm":
			return core.PrecipRain
		}
	}
	return core.PrecipNone
}

// precipProbability is a coarse stand-in derived from measured accumulation
// since the forecast envelope carries no explicit probability field.
func precipProbability(f forecastResponse) float64 {
	if f.Snow.OneHour > 0 || f.Rain.OneHour > 0 {
		return 1.0
	}
	for _, w := range f.Weather {
		switch strings.ToLower(w.Main) {
		case "snow", "rain", "drizzle", "thunderstorm":
			return 0.6
		}
	}
	return 0.0
}
