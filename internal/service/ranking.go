package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/takurot/baseball-speedgun/internal/domain"
	domainerrors "github.com/takurot/baseball-speedgun/internal/errors"
	"github.com/takurot/baseball-speedgun/internal/store"
	"github.com/takurot/baseball-speedgun/internal/store/sqlite"
)

// RankingService derives ranked views and per-player detail views from
// the stored aggregates and records.
type RankingService struct {
	store  *sqlite.Store
	logger *slog.Logger

	// now is swappable for deterministic period tests.
	now func() time.Time
}

// NewRankingService creates a new ranking service.
func NewRankingService(store *sqlite.Store, logger *slog.Logger) *RankingService {
	return &RankingService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// RankingQuery selects and orders the ranking view.
type RankingQuery struct {
	Period domain.Period
	Search string
	Sort   domain.SortMode
}

// normalize fills defaults and rejects unknown values.
func (q *RankingQuery) normalize() error {
	if q.Period == "" {
		q.Period = domain.PeriodAll
	}
	if !q.Period.Valid() {
		return domainerrors.Validationf("period must be one of: %s, %s, %s",
			domain.PeriodAll, domain.PeriodMonth, domain.PeriodWeek)
	}
	if q.Sort == "" {
		q.Sort = domain.SortBySpeed
	}
	if !q.Sort.Valid() {
		return domainerrors.Validationf("sort must be one of: %s, %s, %s",
			domain.SortBySpeed, domain.SortByUpdated, domain.SortByName)
	}
	return nil
}

// RankingResponse is the ranked, filtered player list with its stats.
type RankingResponse struct {
	Players []domain.RankedPlayer `json:"players"`
	Stats   domain.RankingStats   `json:"stats"`
	Period  domain.Period         `json:"period"`
	Sort    domain.SortMode       `json:"sort"`
}

// GetRanking filters by search and period, computes tie-aware ranks on
// the filtered set, then re-sorts for display. Rank numbers come from
// the speed order and survive any display re-sort.
func (s *RankingService) GetRanking(ctx context.Context, userID string, query RankingQuery) (*RankingResponse, error) {
	if err := query.normalize(); err != nil {
		return nil, err
	}

	players, err := s.store.ListPlayers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	filtered := domain.FilterPlayers(players, query.Search, query.Period, s.now())
	ranked := domain.RankPlayers(filtered)
	domain.SortRanked(ranked, query.Sort)
	stats := domain.ComputeStats(filtered)

	return &RankingResponse{
		Players: ranked,
		Stats:   stats,
		Period:  query.Period,
		Sort:    query.Sort,
	}, nil
}

// DetailQuery selects and orders a player detail view.
type DetailQuery struct {
	Period domain.Period
	Sort   domain.RecordSort
}

func (q *DetailQuery) normalize() error {
	if q.Period == "" {
		q.Period = domain.PeriodAll
	}
	if !q.Period.Valid() {
		return domainerrors.Validationf("period must be one of: %s, %s, %s",
			domain.PeriodAll, domain.PeriodMonth, domain.PeriodWeek)
	}
	if q.Sort == "" {
		q.Sort = domain.RecordSortByDate
	}
	if !q.Sort.Valid() {
		return domainerrors.Validationf("sort must be one of: %s, %s",
			domain.RecordSortByDate, domain.RecordSortBySpeed)
	}
	return nil
}

// PlayerDetailResponse is one player's records, chart and stats.
type PlayerDetailResponse struct {
	Player  domain.Player       `json:"player"`
	Records []domain.DateRecord `json:"records"`
	Chart   []domain.ChartPoint `json:"chart"`
	Stats   domain.DetailStats  `json:"stats"`
	Period  domain.Period       `json:"period"`
	Sort    domain.RecordSort   `json:"sort"`
}

// GetPlayerDetail loads one player's aggregate and period-filtered
// records. The list follows the requested sort; the chart is always
// chronological with every tied maximum marked as a peak.
func (s *RankingService) GetPlayerDetail(ctx context.Context, userID, name string, query DetailQuery) (*PlayerDetailResponse, error) {
	if err := query.normalize(); err != nil {
		return nil, err
	}

	player, err := s.store.GetPlayer(ctx, userID, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("player %s not found", name)
		}
		return nil, fmt.Errorf("get player: %w", err)
	}

	records, err := s.store.ListRecords(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	filtered := domain.FilterRecords(records, query.Period, s.now())
	chart := domain.ChartSeries(filtered)
	stats := domain.ComputeDetailStats(filtered)
	domain.SortRecords(filtered, query.Sort)

	return &PlayerDetailResponse{
		Player:  *player,
		Records: filtered,
		Chart:   chart,
		Stats:   stats,
		Period:  query.Period,
		Sort:    query.Sort,
	}, nil
}
