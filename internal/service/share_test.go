package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takurot/baseball-speedgun/internal/domain"
	domainerrors "github.com/takurot/baseball-speedgun/internal/errors"
)

func TestCreateShare(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	ctx := context.Background()

	env.submit(t, "user-1", "Tanaka", 150, "2025-06-10")
	env.submit(t, "user-1", "Aoki", 140, "2025-06-11")

	resp, err := env.share.CreateShare(ctx, "user-1", CreateShareRequest{})
	require.NoError(t, err)

	share := resp.Share
	assert.True(t, strings.HasPrefix(share.ID, "share-"))
	assert.Equal(t, "user-1", share.OwnerID)
	assert.Equal(t, domain.PeriodAll, share.Period)
	assert.Nil(t, share.ExpiresAt)
	require.Len(t, share.Players, 2)
	assert.Equal(t, 1, share.Players[0].Rank)
	assert.Equal(t, "Tanaka", share.Players[0].Name)

	// Anonymous resolution returns the same snapshot.
	got, err := env.share.ResolveShare(ctx, share.ID)
	require.NoError(t, err)
	assert.Equal(t, share.ID, got.ID)
	require.Len(t, got.Players, 2)
}

func TestCreateShare_EmptyRankingRejected(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")

	_, err := env.share.CreateShare(context.Background(), "user-1", CreateShareRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestCreateShare_SnapshotIsImmutable(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	ctx := context.Background()

	env.submit(t, "user-1", "Tanaka", 150, "2025-06-10")

	resp, err := env.share.CreateShare(ctx, "user-1", CreateShareRequest{})
	require.NoError(t, err)

	// Later submissions must not bleed into the published snapshot.
	env.submit(t, "user-1", "Tanaka", 160, "2025-06-12")
	env.submit(t, "user-1", "Aoki", 155, "2025-06-12")

	got, err := env.share.ResolveShare(ctx, resp.Share.ID)
	require.NoError(t, err)
	require.Len(t, got.Players, 1)
	assert.Equal(t, 150.0, got.Players[0].Speed)

	chart, err := env.share.ResolveShareChart(ctx, resp.Share.ID, "Tanaka")
	require.NoError(t, err)
	require.Len(t, chart.Points, 1)
	assert.Equal(t, 150.0, chart.Points[0].Speed)
}

func TestCreateShare_ReplacesPriorShare(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	ctx := context.Background()

	env.submit(t, "user-1", "Tanaka", 150, "2025-06-10")

	first, err := env.share.CreateShare(ctx, "user-1", CreateShareRequest{})
	require.NoError(t, err)
	second, err := env.share.CreateShare(ctx, "user-1", CreateShareRequest{})
	require.NoError(t, err)

	// The old link dies the moment the new one exists.
	_, err = env.share.ResolveShare(ctx, first.Share.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	got, err := env.share.GetMyShare(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, second.Share.ID, got.ID)
}

func TestCreateShare_PeriodFiltersSnapshot(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	ctx := context.Background()

	env.submit(t, "user-1", "Recent", 140, "2025-06-14")
	env.submit(t, "user-1", "Stale", 150, "2025-05-01")

	env.share.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	}

	resp, err := env.share.CreateShare(ctx, "user-1", CreateShareRequest{Period: domain.PeriodWeek})
	require.NoError(t, err)
	require.Len(t, resp.Share.Players, 1)
	assert.Equal(t, "Recent", resp.Share.Players[0].Name)
	assert.Equal(t, 1, resp.Share.Players[0].Rank)
}

func TestResolveShare_Expiry(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	ctx := context.Background()

	env.submit(t, "user-1", "Tanaka", 150, "2025-06-10")

	created := time.Now()
	resp, err := env.share.CreateShare(ctx, "user-1", CreateShareRequest{Expiry: domain.ShareExpiryWeek})
	require.NoError(t, err)
	require.NotNil(t, resp.Share.ExpiresAt)

	// Still valid before the deadline.
	_, err = env.share.ResolveShare(ctx, resp.Share.ID)
	require.NoError(t, err)

	// Past the deadline the link is gone for viewers.
	env.share.now = func() time.Time { return created.Add(8 * 24 * time.Hour) }
	_, err = env.share.ResolveShare(ctx, resp.Share.ID)
	assert.ErrorIs(t, err, domainerrors.ErrShareExpired)
	_, err = env.share.ResolveShareChart(ctx, resp.Share.ID, "Tanaka")
	assert.ErrorIs(t, err, domainerrors.ErrShareExpired)

	// The owner can still see their own expired share.
	got, err := env.share.GetMyShare(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, resp.Share.ID, got.ID)
}

func TestResolveShare_NotFound(t *testing.T) {
	env := setupTest(t)

	_, err := env.share.ResolveShare(context.Background(), "share_missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestResolveShareChart_UnknownPlayer(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	ctx := context.Background()

	env.submit(t, "user-1", "Tanaka", 150, "2025-06-10")
	resp, err := env.share.CreateShare(ctx, "user-1", CreateShareRequest{})
	require.NoError(t, err)

	_, err = env.share.ResolveShareChart(ctx, resp.Share.ID, "Nobody")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDisableShare(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	env.seedUser(t, "user-2")
	ctx := context.Background()

	env.submit(t, "user-1", "Tanaka", 150, "2025-06-10")
	resp, err := env.share.CreateShare(ctx, "user-1", CreateShareRequest{})
	require.NoError(t, err)

	// Only the owner may disable it.
	err = env.share.DisableShare(ctx, "user-2", resp.Share.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	require.NoError(t, env.share.DisableShare(ctx, "user-1", resp.Share.ID))

	_, err = env.share.ResolveShare(ctx, resp.Share.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	err = env.share.DisableShare(ctx, "user-1", resp.Share.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCreateShare_ChartTruncation(t *testing.T) {
	env := setupTest(t)
	env.seedUser(t, "user-1")
	env.share.chartMaxPoints = 2
	ctx := context.Background()

	env.submit(t, "user-1", "Tanaka", 140, "2025-06-10")
	env.submit(t, "user-1", "Tanaka", 145, "2025-06-11")
	env.submit(t, "user-1", "Tanaka", 150, "2025-06-12")

	resp, err := env.share.CreateShare(ctx, "user-1", CreateShareRequest{})
	require.NoError(t, err)

	chart, err := env.share.ResolveShareChart(ctx, resp.Share.ID, "Tanaka")
	require.NoError(t, err)
	assert.True(t, chart.Truncated)
	require.Len(t, chart.Points, 2)
	// The most recent points survive.
	assert.Equal(t, "2025-06-11", chart.Points[0].Date)
	assert.Equal(t, "2025-06-12", chart.Points[1].Date)
}
