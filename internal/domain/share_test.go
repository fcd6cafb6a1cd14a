package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareExpiry_ExpiresAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	at := ShareExpiryWeek.ExpiresAt(now)
	require.NotNil(t, at)
	assert.Equal(t, now.Add(7*24*time.Hour), *at)

	at = ShareExpiryMonth.ExpiresAt(now)
	require.NotNil(t, at)
	assert.Equal(t, now.Add(30*24*time.Hour), *at)

	assert.Nil(t, ShareExpiryNone.ExpiresAt(now))
	assert.Nil(t, ShareExpiry("").ExpiresAt(now))
}

func TestShare_IsExpired(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{name: "no deadline never expires", expiresAt: nil, want: false},
		{name: "future deadline", expiresAt: &future, want: false},
		{name: "past deadline", expiresAt: &past, want: true},
		{name: "exact deadline is still valid", expiresAt: &now, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			share := &Share{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, share.IsExpired(now))
		})
	}
}

func TestTruncateChart(t *testing.T) {
	points := []SharePoint{
		{Date: "2025-06-01", Speed: 130},
		{Date: "2025-06-02", Speed: 135},
		{Date: "2025-06-03", Speed: 140},
		{Date: "2025-06-04", Speed: 145},
	}

	t.Run("keeps the most recent points", func(t *testing.T) {
		got, truncated := TruncateChart(points, 2)
		assert.True(t, truncated)
		require.Len(t, got, 2)
		assert.Equal(t, "2025-06-03", got[0].Date)
		assert.Equal(t, "2025-06-04", got[1].Date)
	})

	t.Run("under the cap passes through", func(t *testing.T) {
		got, truncated := TruncateChart(points, 10)
		assert.False(t, truncated)
		assert.Len(t, got, 4)
	})

	t.Run("zero cap disables truncation", func(t *testing.T) {
		got, truncated := TruncateChart(points, 0)
		assert.False(t, truncated)
		assert.Len(t, got, 4)
	})
}
