// Package keynumbers implements the per-league key-number frequency table
// (C10): how often an NFL/NCAAF final margin lands on a given integer,
// and the resulting win-probability edge of a line crossing one. Table
// loading follows the YAML-into-typed-map style set by
// Agentchow-HFTKalshiGo/internal/config/risk_loader.go.
package keynumbers

import (
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/edgeline/edge-engine/internal/core"
)

// Table holds one league's margin-frequency distribution, keyed by the
// integer margin, value in [0,1].
type Table map[int]float64

type tableFile map[string]map[int]float64 // league -> margin -> frequency

// Registry holds every league's Table, loaded from one YAML file.
type Registry struct {
	tables map[core.League]Table
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[core.League]Table)}
}

// DefaultRegistry seeds the exemplar frequencies spec.md names directly,
// so the engine has a usable table even before an operator supplies a
// fitted one via Load.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.tables[core.LeagueNFL] = Table{3: 0.08, 7: 0.06, 6: 0.05, 10: 0.04, 14: 0.04}
	r.tables[core.LeagueNCAAF] = Table{3: 0.07, 7: 0.05}
	return r
}

// Load parses a YAML key-number table and merges it in, replacing any
// prior table for a league present in the new file.
func (r *Registry) Load(reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read key number table: %w", err)
	}

	var parsed tableFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse key number table: %w", err)
	}

	for league, margins := range parsed {
		t := make(Table, len(margins))
		for margin, freq := range margins {
			t[margin] = freq
		}
		r.tables[core.League(league)] = t
	}

	return nil
}

func (r *Registry) For(league core.League) Table {
	return r.tables[league]
}

// EdgeValue returns the key numbers between yourLine and marketLine,
// inclusive of either endpoint, plus their summed frequency, expressed as
// a win-probability edge. A line landing exactly on an integer boundary
// still counts: moving off -3.0 onto -2.0 buys the 3, even though 3 is
// one of the two endpoints rather than strictly inside the range.
func (r *Registry) EdgeValue(yourLine, marketLine float64, league core.League) ([]int, float64) {
	table := r.tables[league]
	if table == nil {
		return nil, 0
	}

	lo, hi := marketLine, yourLine
	if lo > hi {
		lo, hi = hi, lo
	}

	var crossed []int
	var sum float64
	for margin, freq := range table {
		m := float64(margin)
		if m >= lo && m <= hi {
			crossed = append(crossed, margin)
			sum += freq
		}
		// Key numbers are conventionally tracked by absolute margin; lines
		// are signed, so also check the mirrored negative boundary. Boundary
		// itself counts: a line landing exactly on a key number still buys
		// that number.
		if -m >= lo && -m <= hi {
			alreadyCounted := false
			for _, c := range crossed {
				if c == margin {
					alreadyCounted = true
					break
				}
			}
			if !alreadyCounted {
				crossed = append(crossed, margin)
				sum += freq
			}
		}
	}

	sortInts(crossed)
	return crossed, sum
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// ShouldBuyHalfPoint compares the win-probability value of moving onto a
// key number against the implied cost of the accompanying price move
// (priceDelta, in decimal win-probability terms, e.g. -110 to -120 costs
// about 0.021). Returns true when value exceeds cost.
func ShouldBuyHalfPoint(line float64, priceDelta float64, league core.League, registry *Registry) bool {
	table := registry.For(league)
	if table == nil {
		return false
	}

	nearest := int(math.Round(math.Abs(line)))
	value := table[nearest]
	cost := math.Abs(priceDelta)

	return value > cost
}
