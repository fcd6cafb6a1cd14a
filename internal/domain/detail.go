package domain

import (
	"math"
	"sort"
	"time"
)

// RecordSort controls the list order on the player detail view.
type RecordSort string

// RecordSort constants.
const (
	RecordSortByDate  RecordSort = "date"
	RecordSortBySpeed RecordSort = "speed"
)

// Valid returns true if the record sort is a recognized value.
func (s RecordSort) Valid() bool {
	switch s {
	case RecordSortByDate, RecordSortBySpeed:
		return true
	default:
		return false
	}
}

// FilterRecords returns the records whose date falls inside the period
// window, using the same day-granularity inclusive semantics as the
// ranking filter.
func FilterRecords(records []DateRecord, period Period, now time.Time) []DateRecord {
	out := make([]DateRecord, 0, len(records))
	for _, r := range records {
		if period.Includes(now, r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// SortRecords orders records for display: by date descending, or by
// speed descending with date-descending tiebreak.
func SortRecords(records []DateRecord, mode RecordSort) {
	switch mode {
	case RecordSortBySpeed:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].Speed != records[j].Speed {
				return records[i].Speed > records[j].Speed
			}
			return records[i].Date.After(records[j].Date)
		})
	default:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Date.After(records[j].Date)
		})
	}
}

// ChartPoint is one entry in a player's trend chart.
type ChartPoint struct {
	Date  string  `json:"date"`
	Speed float64 `json:"speed"`
	Peak  bool    `json:"peak"`
}

// ChartSeries builds the chart data for a set of records: always
// chronologically ascending regardless of the list sort, with every
// point whose speed equals the maximum flagged as a peak. All tied
// maxima are marked, not just the first.
func ChartSeries(records []DateRecord) []ChartPoint {
	if len(records) == 0 {
		return nil
	}

	sorted := make([]DateRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	maxSpeed := sorted[0].Speed
	for _, r := range sorted {
		if r.Speed > maxSpeed {
			maxSpeed = r.Speed
		}
	}

	points := make([]ChartPoint, len(sorted))
	for i, r := range sorted {
		points[i] = ChartPoint{
			Date:  r.DateKey(),
			Speed: r.Speed,
			Peak:  r.Speed == maxSpeed,
		}
	}
	return points
}

// DetailStats summarizes one player's filtered records the same way the
// ranking stats do: best speed, mean rounded to one decimal, plus the
// date of the most recent record. On exact date ties the
// first-encountered record keeps the slot.
type DetailStats struct {
	Count      int      `json:"count"`
	Best       *float64 `json:"best,omitempty"`
	Avg        *float64 `json:"avg,omitempty"`
	LatestDate string   `json:"latest_date,omitempty"`
}

// ComputeDetailStats derives DetailStats from a player's records.
func ComputeDetailStats(records []DateRecord) DetailStats {
	if len(records) == 0 {
		return DetailStats{}
	}

	best := records[0].Speed
	latest := records[0]
	sum := 0.0
	for _, r := range records {
		if r.Speed > best {
			best = r.Speed
		}
		if r.Date.After(latest.Date) {
			latest = r
		}
		sum += r.Speed
	}
	avg := math.Round(sum/float64(len(records))*10) / 10

	return DetailStats{
		Count:      len(records),
		Best:       &best,
		Avg:        &avg,
		LatestDate: latest.DateKey(),
	}
}
