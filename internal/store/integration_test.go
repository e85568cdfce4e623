package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/store"
	"github.com/edgeline/edge-engine/internal/testutils"
)

// TestGameAndOddsRoundTrip spins up a disposable Postgres via testcontainers,
// applies the embedded schema, and exercises GameRepository/OddsRepository
// against it end to end. Skipped under -short since it needs a Docker
// daemon.
func TestGameAndOddsRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("requires Docker")
	}

	ctx := context.Background()
	container, err := testutils.NewPostgresContainer(ctx)
	require.NoError(t, err)
	defer container.Terminate(ctx)

	require.NoError(t, container.MigrateSchema(ctx))
	require.NoError(t, container.SeedTeams(ctx, testutils.NFCEastFixture()...))

	kickoff := time.Date(2026, 9, 14, 17, 0, 0, 0, time.UTC)
	game := testutils.ScheduledGameFixture(core.LeagueNFL, 2026, 2, "DAL", "PHI", kickoff)
	require.NoError(t, container.SeedGames(ctx, game))

	games := store.NewGameRepository(container.DB)
	got, err := games.Get(ctx, game.GameID)
	require.NoError(t, err)
	require.Equal(t, game.AwayTeam, got.AwayTeam)
	require.Equal(t, game.HomeTeam, got.HomeTeam)
	require.Equal(t, core.GameScheduled, got.Status)

	odds := store.NewOddsRepository(container.DB)
	capture := core.Odds{
		GameID: game.GameID, Sportsbook: "draftkings", CapturedAt: kickoff.Add(-48 * time.Hour),
		HomeSpread: -2.5, AwaySpread: 2.5, Total: 44.5, HomeML: -135, AwayML: 115,
	}
	require.NoError(t, odds.Insert(ctx, capture))

	latest, err := odds.Latest(ctx, game.GameID)
	require.NoError(t, err)
	require.Equal(t, capture.HomeSpread, latest.HomeSpread)

	recent, err := odds.Recent(ctx, game.GameID, 72*time.Hour)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	_, err = games.LastPlayed(ctx, core.LeagueNFL, 2026, "PHI", kickoff)
	require.True(t, core.IsNotFound(err), "first game of the season has no prior kickoff")
}
