package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateKey(t *testing.T) {
	got, err := ParseDateKey("2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.Local), got)

	_, err = ParseDateKey("2025/06/15")
	assert.Error(t, err)

	_, err = ParseDateKey("2025-6-15")
	assert.Error(t, err)

	_, err = ParseDateKey("")
	assert.Error(t, err)
}

func TestValidateReading(t *testing.T) {
	tests := []struct {
		name    string
		player  string
		speed   float64
		date    string
		wantErr bool
	}{
		{name: "valid reading", player: "Tanaka", speed: 140, date: "2025-06-15", wantErr: false},
		{name: "minimum speed allowed", player: "Tanaka", speed: MinSpeed, date: "2025-06-15", wantErr: false},
		{name: "maximum speed allowed", player: "Tanaka", speed: MaxSpeed, date: "2025-06-15", wantErr: false},
		{name: "empty name", player: "  ", speed: 140, date: "2025-06-15", wantErr: true},
		{name: "speed below range", player: "Tanaka", speed: 49.9, date: "2025-06-15", wantErr: true},
		{name: "speed above range", player: "Tanaka", speed: 200.1, date: "2025-06-15", wantErr: true},
		{name: "empty date", player: "Tanaka", speed: 140, date: "", wantErr: true},
		{name: "malformed date", player: "Tanaka", speed: 140, date: "June 15", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReading(tt.player, tt.speed, tt.date)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDateRecord_DateKey(t *testing.T) {
	r := DateRecord{Date: time.Date(2025, 6, 5, 0, 0, 0, 0, time.Local)}
	assert.Equal(t, "2025-06-05", r.DateKey())
}
