package domain

import (
	"fmt"
	"strings"
	"time"
)

// Speed bounds for a plausible pitch reading in km/h.
// Readings outside this range are rejected before any write happens.
const (
	MinSpeed = 50.0
	MaxSpeed = 200.0
)

// DateLayout is the calendar-date key format for date-records.
// One record exists per player per calendar date.
const DateLayout = "2006-01-02"

// Player is the denormalized best-speed aggregate for one player.
// Speed always equals the maximum speed across the player's surviving
// date-records; the aggregate is deleted when no records remain.
// UpdatedAt is the date of the most recent write, not necessarily the
// date of the record that holds the maximum.
type Player struct {
	Name      string    `json:"name"`
	Speed     float64   `json:"speed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DateRecord holds the best reading for one player on one calendar date.
// New submissions for the same date only overwrite if strictly greater.
type DateRecord struct {
	PlayerName string    `json:"player_name"`
	Date       time.Time `json:"date"`
	Speed      float64   `json:"speed"`
}

// DateKey returns the record's calendar-date key (YYYY-MM-DD).
func (r DateRecord) DateKey() string {
	return r.Date.Format(DateLayout)
}

// ParseDateKey parses a YYYY-MM-DD key into a local-midnight timestamp.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD: %w", key, err)
	}
	return t, nil
}

// ValidateReading checks a submitted reading before any write happens.
// Returns a descriptive error for the first failing field.
func ValidateReading(name string, speed float64, dateKey string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("player name cannot be empty")
	}
	if speed < MinSpeed || speed > MaxSpeed {
		return fmt.Errorf("speed %.1f out of range [%.0f, %.0f]", speed, MinSpeed, MaxSpeed)
	}
	if dateKey == "" {
		return fmt.Errorf("date cannot be empty")
	}
	if _, err := ParseDateKey(dateKey); err != nil {
		return err
	}
	return nil
}
