package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takurot/baseball-speedgun/internal/domain"
	domainerrors "github.com/takurot/baseball-speedgun/internal/errors"
)

func TestGetRanking(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	ctx := context.Background()

	env.submit(t, "user-1", "Tanaka", 150, "2025-06-10")
	env.submit(t, "user-1", "Aoki", 150, "2025-06-11")
	env.submit(t, "user-1", "Suzuki", 140, "2025-06-12")

	resp, err := env.ranking.GetRanking(ctx, "user-1", RankingQuery{})
	require.NoError(t, err)
	require.Len(t, resp.Players, 3)

	// Competition ranking: two tied at 1, next at 3.
	assert.Equal(t, 1, resp.Players[0].Rank)
	assert.Equal(t, 1, resp.Players[1].Rank)
	assert.Equal(t, 3, resp.Players[2].Rank)
	assert.Equal(t, "Suzuki", resp.Players[2].Name)

	assert.Equal(t, 3, resp.Stats.Count)
	require.NotNil(t, resp.Stats.Max)
	assert.Equal(t, 150.0, *resp.Stats.Max)

	// Defaults are filled in.
	assert.Equal(t, domain.PeriodAll, resp.Period)
	assert.Equal(t, domain.SortBySpeed, resp.Sort)
}

func TestGetRanking_Search(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	ctx := context.Background()

	env.submit(t, "user-1", "Tanaka", 150, "2025-06-10")
	env.submit(t, "user-1", "Takahashi", 145, "2025-06-11")
	env.submit(t, "user-1", "Suzuki", 140, "2025-06-12")

	resp, err := env.ranking.GetRanking(ctx, "user-1", RankingQuery{Search: "taka"})
	require.NoError(t, err)
	require.Len(t, resp.Players, 2)
	// Ranks are computed on the filtered set.
	assert.Equal(t, 1, resp.Players[0].Rank)
	assert.Equal(t, "Tanaka", resp.Players[0].Name)
	assert.Equal(t, 2, resp.Players[1].Rank)
	// Stats follow the filter too.
	assert.Equal(t, 2, resp.Stats.Count)
}

func TestGetRanking_PeriodFilter(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	ctx := context.Background()

	env.submit(t, "user-1", "Recent", 140, "2025-06-14")
	env.submit(t, "user-1", "Stale", 150, "2025-05-01")

	// Pin "now" so the 7-day window is deterministic.
	env.ranking.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	}

	resp, err := env.ranking.GetRanking(ctx, "user-1", RankingQuery{Period: domain.PeriodWeek})
	require.NoError(t, err)
	require.Len(t, resp.Players, 1)
	assert.Equal(t, "Recent", resp.Players[0].Name)

	resp, err = env.ranking.GetRanking(ctx, "user-1", RankingQuery{Period: domain.PeriodAll})
	require.NoError(t, err)
	assert.Len(t, resp.Players, 2)
}

func TestGetRanking_SortModes(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	ctx := context.Background()

	env.submit(t, "user-1", "Tanaka", 150, "2025-06-10")
	env.submit(t, "user-1", "Aoki", 140, "2025-06-20")

	// Name order flips the list but keeps the speed-derived ranks.
	resp, err := env.ranking.GetRanking(ctx, "user-1", RankingQuery{Sort: domain.SortByName})
	require.NoError(t, err)
	require.Len(t, resp.Players, 2)
	assert.Equal(t, "Aoki", resp.Players[0].Name)
	assert.Equal(t, 2, resp.Players[0].Rank)
	assert.Equal(t, "Tanaka", resp.Players[1].Name)
	assert.Equal(t, 1, resp.Players[1].Rank)

	// Updated order puts the most recent first.
	resp, err = env.ranking.GetRanking(ctx, "user-1", RankingQuery{Sort: domain.SortByUpdated})
	require.NoError(t, err)
	assert.Equal(t, "Aoki", resp.Players[0].Name)
}

func TestGetRanking_InvalidQuery(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	ctx := context.Background()

	_, err := env.ranking.GetRanking(ctx, "user-1", RankingQuery{Period: "90d"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.ranking.GetRanking(ctx, "user-1", RankingQuery{Sort: "height"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestGetRanking_Empty(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")

	resp, err := env.ranking.GetRanking(context.Background(), "user-1", RankingQuery{})
	require.NoError(t, err)
	assert.Empty(t, resp.Players)
	assert.Equal(t, 0, resp.Stats.Count)
	assert.Nil(t, resp.Stats.Max)
	assert.Nil(t, resp.Stats.Avg)
}

func TestGetPlayerDetail(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	ctx := context.Background()

	env.submit(t, "user-1", "Tanaka", 150, "2025-06-10")
	env.submit(t, "user-1", "Tanaka", 140, "2025-06-15")

	resp, err := env.ranking.GetPlayerDetail(ctx, "user-1", "Tanaka", DetailQuery{})
	require.NoError(t, err)

	assert.Equal(t, 150.0, resp.Player.Speed)

	// Default list order is newest first.
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "2025-06-15", resp.Records[0].DateKey())
	assert.Equal(t, "2025-06-10", resp.Records[1].DateKey())

	// The chart stays chronological with the maximum marked.
	require.Len(t, resp.Chart, 2)
	assert.Equal(t, "2025-06-10", resp.Chart[0].Date)
	assert.True(t, resp.Chart[0].Peak)
	assert.False(t, resp.Chart[1].Peak)

	assert.Equal(t, 2, resp.Stats.Count)
	require.NotNil(t, resp.Stats.Best)
	assert.Equal(t, 150.0, *resp.Stats.Best)
	require.NotNil(t, resp.Stats.Avg)
	assert.Equal(t, 145.0, *resp.Stats.Avg)
	assert.Equal(t, "2025-06-15", resp.Stats.LatestDate)
}

func TestGetPlayerDetail_NotFound(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")

	_, err := env.ranking.GetPlayerDetail(context.Background(), "user-1", "Nobody", DetailQuery{})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
