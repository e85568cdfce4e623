package normalize

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edgeline/edge-engine/internal/obs"
)

// weekBoundary is one week's [start, end) kickoff window for one league's
// season.
type weekBoundary struct {
	Week  int       `yaml:"week"`
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
}

type calendarFile map[string][]weekBoundary // league -> boundaries

// SeasonCalendar derives a week number from a kickoff timestamp per league.
type SeasonCalendar struct {
	boundaries map[string][]weekBoundary
	log        interface{ Warnf(string, ...any) }
}

func NewSeasonCalendar() *SeasonCalendar {
	return &SeasonCalendar{
		boundaries: make(map[string][]weekBoundary),
		log:        obs.For("normalize.calendar"),
	}
}

// Load parses a YAML season calendar and merges it in, replacing any prior
// boundaries for a league present in the new file.
func (s *SeasonCalendar) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read season calendar: %w", err)
	}

	var parsed calendarFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse season calendar: %w", err)
	}

	for league, bounds := range parsed {
		sorted := append([]weekBoundary(nil), bounds...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
		s.boundaries[league] = sorted
	}

	return nil
}

// WeekFor returns the week number containing kickoff for the given league.
// A kickoff outside every configured boundary defaults to week 1 with a
// logged warning, since a missing calendar entry should degrade collection
// rather than abort it.
func (s *SeasonCalendar) WeekFor(league string, kickoff time.Time) int {
	for _, b := range s.boundaries[league] {
		if !kickoff.Before(b.Start) && kickoff.Before(b.End) {
			return b.Week
		}
	}
	s.log.Warnf("kickoff %s falls outside configured calendar for %s, defaulting to week 1", kickoff.Format(time.RFC3339), league)
	return 1
}
