// Package normalize maps each source adapter's typed response into
// internal/core entities: team-name reconciliation, week derivation, odds
// invariance checking, and game-identity generation. Config-file loading
// style (YAML into a typed map, read once at startup) follows
// Agentchow-HFTKalshiGo's internal/config/risk_loader.go.
package normalize

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/edgeline/edge-engine/internal/core"
)

// mappingKey identifies one source's name for one team within one league.
type mappingKey struct {
	League     core.League
	Source     string
	SourceName string
}

// TeamMapper reconciles the free-text team names each source publishes
// into canonical core.TeamID values.
type TeamMapper struct {
	entries map[mappingKey]core.TeamID
}

// teamMappingFile is the on-disk shape: one block per league, each source
// mapping its own team-name vocabulary to the canonical ID.
//
//	nfl:
//	  espn:
//	    KC: KC
//	  oddsprovider:
//	    "Kansas City Chiefs": KC
type teamMappingFile map[string]map[string]map[string]string

// NewTeamMapper returns an empty mapper; call Load to populate it.
func NewTeamMapper() *TeamMapper {
	return &TeamMapper{entries: make(map[mappingKey]core.TeamID)}
}

// Load parses a YAML team-mapping file and merges its entries in, replacing
// any prior mapping for the same (league, source, name).
func (m *TeamMapper) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read team mapping: %w", err)
	}

	var parsed teamMappingFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse team mapping: %w", err)
	}

	for league, sources := range parsed {
		for source, names := range sources {
			for sourceName, teamID := range names {
				key := mappingKey{League: core.League(league), Source: source, SourceName: sourceName}
				m.entries[key] = core.TeamID(teamID)
			}
		}
	}

	return nil
}

// Resolve looks up the canonical TeamID for one source's team name.
func (m *TeamMapper) Resolve(league core.League, source, sourceName string) (core.TeamID, bool) {
	id, ok := m.entries[mappingKey{League: league, Source: source, SourceName: sourceName}]
	return id, ok
}

// ResolveRequired behaves like Resolve but returns a ValidationError when
// the name is unmapped, for callers (odds, ratings) where an unresolved
// team must hard-fail rather than be silently dropped.
func (m *TeamMapper) ResolveRequired(league core.League, source, sourceName string) (core.TeamID, error) {
	id, ok := m.Resolve(league, source, sourceName)
	if !ok {
		return "", core.NewValidationError("team_name", fmt.Sprintf("no mapping for %s/%s/%q", league, source, sourceName))
	}
	return id, nil
}
