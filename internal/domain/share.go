package domain

import "time"

// ShareExpiry selects how long a public share stays valid.
type ShareExpiry string

// ShareExpiry constants.
const (
	ShareExpiryWeek  ShareExpiry = "7d"
	ShareExpiryMonth ShareExpiry = "30d"
	ShareExpiryNone  ShareExpiry = "none"
)

// Valid returns true if the expiry option is a recognized value.
func (e ShareExpiry) Valid() bool {
	switch e {
	case ShareExpiryWeek, ShareExpiryMonth, ShareExpiryNone:
		return true
	default:
		return false
	}
}

// ExpiresAt converts the option into an absolute deadline, or nil for
// a share that never expires.
func (e ShareExpiry) ExpiresAt(now time.Time) *time.Time {
	var d time.Duration
	switch e {
	case ShareExpiryWeek:
		d = 7 * 24 * time.Hour
	case ShareExpiryMonth:
		d = 30 * 24 * time.Hour
	default:
		return nil
	}
	t := now.Add(d)
	return &t
}

// SharePlayer is one immutable ranking row inside a share snapshot.
type SharePlayer struct {
	Rank      int       `json:"rank"`
	Name      string    `json:"name"`
	Speed     float64   `json:"speed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SharePoint is one chart data point inside a share snapshot.
type SharePoint struct {
	Date  string  `json:"date"`
	Speed float64 `json:"speed"`
}

// ShareChart is the point-in-time chart copy for one shared player.
// It is independent of the live records after creation.
type ShareChart struct {
	PlayerName string       `json:"player_name"`
	Points     []SharePoint `json:"points"`
	Truncated  bool         `json:"truncated"`
}

// Share is an immutable public snapshot of a ranking. At most one live
// share exists per owner; creating a new one replaces all prior shares
// in the same atomic batch.
type Share struct {
	ID        string        `json:"id"`
	OwnerID   string        `json:"owner_id"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
	Period    Period        `json:"period"`
	Stats     RankingStats  `json:"stats"`
	Players   []SharePlayer `json:"players"`
}

// IsExpired reports whether the share's deadline has passed. Expiry is
// a read-time check; the stored share is never actively deleted.
func (s *Share) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// TruncateChart keeps at most maxPoints of a chronologically ascending
// point series, preferring the most recent points, and reports whether
// anything was dropped.
func TruncateChart(points []SharePoint, maxPoints int) ([]SharePoint, bool) {
	if maxPoints <= 0 || len(points) <= maxPoints {
		return points, false
	}
	return points[len(points)-maxPoints:], true
}
