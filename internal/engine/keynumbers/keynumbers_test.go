package keynumbers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgeline/edge-engine/internal/core"
)

func TestEdgeValueCrossesThreeForNFL(t *testing.T) {
	registry := DefaultRegistry()

	crossed, edge := registry.EdgeValue(-2.5, -3.5, core.LeagueNFL)

	assert.Equal(t, []int{3}, crossed)
	assert.InDelta(t, 0.08, edge, 1e-9)
}

func TestEdgeValueCountsIntegerBoundaryLine(t *testing.T) {
	registry := DefaultRegistry()

	// projectedSpread=-2.0, marketSpread=-3.0: the 3 sits exactly on the
	// market line's boundary rather than strictly between the two lines,
	// and must still count.
	crossed, edge := registry.EdgeValue(-2.0, -3.0, core.LeagueNFL)

	assert.Equal(t, []int{3}, crossed)
	assert.InDelta(t, 0.08, edge, 1e-9)
}

func TestEdgeValueNoCrossingReturnsZero(t *testing.T) {
	registry := DefaultRegistry()

	crossed, edge := registry.EdgeValue(-3.2, -3.5, core.LeagueNFL)

	assert.Empty(t, crossed)
	assert.Zero(t, edge)
}

func TestShouldBuyHalfPoint(t *testing.T) {
	registry := DefaultRegistry()

	assert.True(t, ShouldBuyHalfPoint(-3, 0.02, core.LeagueNFL, registry))
	assert.False(t, ShouldBuyHalfPoint(-3, 0.09, core.LeagueNFL, registry))
}
