package domain

import (
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Period represents a rolling time window applied to player aggregates.
type Period string

// Period constants for ranking queries.
const (
	PeriodAll   Period = "all"
	PeriodMonth Period = "30d"
	PeriodWeek  Period = "7d"
)

// Valid returns true if the period is a recognized value.
func (p Period) Valid() bool {
	switch p {
	case PeriodAll, PeriodMonth, PeriodWeek:
		return true
	default:
		return false
	}
}

// days returns the window size, or 0 for the all-time period.
func (p Period) days() int {
	switch p {
	case PeriodWeek:
		return 7
	case PeriodMonth:
		return 30
	default:
		return 0
	}
}

// Cutoff returns the inclusive start of the window relative to now,
// normalized to local midnight. The second return is false for the
// all-time period, which has no cutoff.
//
// A 7-day window starting today includes today and the six days before
// it, so the cutoff is midnight of today minus six days.
func (p Period) Cutoff(now time.Time) (time.Time, bool) {
	days := p.days()
	if days == 0 {
		return time.Time{}, false
	}
	year, month, day := now.Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	return today.AddDate(0, 0, -(days - 1)), true
}

// Includes reports whether a timestamp falls inside the window.
// Comparison is at day granularity and inclusive of the boundary day.
// The timestamp is truncated in now's location, so stored instants that
// round-tripped through UTC land on the same calendar day as the cutoff.
func (p Period) Includes(now, ts time.Time) bool {
	cutoff, ok := p.Cutoff(now)
	if !ok {
		return true
	}
	year, month, day := ts.In(now.Location()).Date()
	tsDay := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	return !tsDay.Before(cutoff)
}

// RankedPlayer is a player aggregate with its computed rank number.
type RankedPlayer struct {
	Rank int `json:"rank"`
	Player
}

// RankingStats summarizes the filtered player set.
// Max and Avg are nil when the set is empty.
type RankingStats struct {
	Count int      `json:"count"`
	Max   *float64 `json:"max,omitempty"`
	Avg   *float64 `json:"avg,omitempty"`
}

// SortMode controls the display order of an already-ranked list.
// Re-sorting never alters the computed rank numbers.
type SortMode string

// SortMode constants.
const (
	SortBySpeed   SortMode = "speed"
	SortByUpdated SortMode = "updated"
	SortByName    SortMode = "name"
)

// Valid returns true if the sort mode is a recognized value.
func (m SortMode) Valid() bool {
	switch m {
	case SortBySpeed, SortByUpdated, SortByName:
		return true
	default:
		return false
	}
}

// newNameCollator builds the collator used for player name ordering.
// Player names are typically Japanese, and byte-wise comparison orders
// kana and kanji unpredictably.
func newNameCollator() *collate.Collator {
	return collate.New(language.Japanese)
}

// FilterPlayers returns the aggregates matching a case-insensitive
// substring search on name and the period window on UpdatedAt.
func FilterPlayers(players []Player, search string, period Period, now time.Time) []Player {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]Player, 0, len(players))
	for _, p := range players {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if !period.Includes(now, p.UpdatedAt) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// RankPlayers sorts players by speed descending (ties broken by
// locale-aware name ascending) and assigns competition ranking: equal
// speeds share a rank, and the next distinct speed gets its 1-based
// position in the sorted order. Speeds [150,150,140] rank [1,1,3].
func RankPlayers(players []Player) []RankedPlayer {
	c := newNameCollator()

	sorted := make([]Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Speed != sorted[j].Speed {
			return sorted[i].Speed > sorted[j].Speed
		}
		return c.CompareString(sorted[i].Name, sorted[j].Name) < 0
	})

	ranked := make([]RankedPlayer, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		if i > 0 && p.Speed == sorted[i-1].Speed {
			rank = ranked[i-1].Rank
		}
		ranked[i] = RankedPlayer{Rank: rank, Player: p}
	}
	return ranked
}

// SortRanked reorders an already-ranked list for display without
// touching the rank numbers.
func SortRanked(ranked []RankedPlayer, mode SortMode) {
	switch mode {
	case SortByUpdated:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].UpdatedAt.After(ranked[j].UpdatedAt)
		})
	case SortByName:
		c := newNameCollator()
		sort.SliceStable(ranked, func(i, j int) bool {
			return c.CompareString(ranked[i].Name, ranked[j].Name) < 0
		})
	default:
		// Speed order is the rank order; nothing to do when the list
		// came straight from RankPlayers, but re-sort anyway so the
		// call is safe after a previous re-sort.
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Rank < ranked[j].Rank
		})
	}
}

// ComputeStats summarizes the filtered player set. The average is
// rounded to exactly one decimal place: [140,150,151] averages 147.0.
func ComputeStats(players []Player) RankingStats {
	if len(players) == 0 {
		return RankingStats{}
	}

	maxSpeed := players[0].Speed
	sum := 0.0
	for _, p := range players {
		if p.Speed > maxSpeed {
			maxSpeed = p.Speed
		}
		sum += p.Speed
	}
	avg := math.Round(sum/float64(len(players))*10) / 10

	return RankingStats{
		Count: len(players),
		Max:   &maxSpeed,
		Avg:   &avg,
	}
}
