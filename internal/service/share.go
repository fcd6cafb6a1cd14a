package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/takurot/baseball-speedgun/internal/domain"
	domainerrors "github.com/takurot/baseball-speedgun/internal/errors"
	"github.com/takurot/baseball-speedgun/internal/id"
	"github.com/takurot/baseball-speedgun/internal/metrics"
	"github.com/takurot/baseball-speedgun/internal/sse"
	"github.com/takurot/baseball-speedgun/internal/store"
	"github.com/takurot/baseball-speedgun/internal/store/sqlite"
)

// ShareService builds immutable public ranking snapshots and resolves
// them for unauthenticated viewers.
type ShareService struct {
	store   *sqlite.Store
	events  *sse.Manager
	metrics *metrics.Manager
	logger  *slog.Logger

	chartMaxPoints int
	now            func() time.Time
}

// NewShareService creates a new share service. chartMaxPoints caps how
// many points each snapshot chart keeps.
func NewShareService(
	store *sqlite.Store,
	events *sse.Manager,
	metricsManager *metrics.Manager,
	chartMaxPoints int,
	logger *slog.Logger,
) *ShareService {
	return &ShareService{
		store:          store,
		events:         events,
		metrics:        metricsManager,
		logger:         logger,
		chartMaxPoints: chartMaxPoints,
		now:            time.Now,
	}
}

// CreateShareRequest selects what goes into the snapshot.
type CreateShareRequest struct {
	Period domain.Period      `json:"period" validate:"omitempty,oneof=all 30d 7d"`
	Expiry domain.ShareExpiry `json:"expiry" validate:"omitempty,oneof=7d 30d none"`
}

// CreateShareResponse carries the new snapshot.
type CreateShareResponse struct {
	Share domain.Share `json:"share"`
}

// CreateShare snapshots the current period-filtered ranking, stats and
// per-player charts into a new public share, atomically replacing any
// prior share the owner had. A ranking with no players is rejected.
func (s *ShareService) CreateShare(ctx context.Context, userID string, req CreateShareRequest) (*CreateShareResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if req.Period == "" {
		req.Period = domain.PeriodAll
	}
	if req.Expiry == "" {
		req.Expiry = domain.ShareExpiryNone
	}

	now := s.now()

	players, err := s.store.ListPlayers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	filtered := domain.FilterPlayers(players, "", req.Period, now)
	if len(filtered) == 0 {
		return nil, domainerrors.Validation("nothing to share: no players in the selected period")
	}

	ranked := domain.RankPlayers(filtered)
	stats := domain.ComputeStats(filtered)

	shareID, err := id.Generate("share")
	if err != nil {
		return nil, fmt.Errorf("generate share ID: %w", err)
	}

	share := domain.Share{
		ID:        shareID,
		OwnerID:   userID,
		CreatedAt: now,
		ExpiresAt: req.Expiry.ExpiresAt(now),
		Period:    req.Period,
		Stats:     stats,
		Players:   make([]domain.SharePlayer, 0, len(ranked)),
	}
	for _, p := range ranked {
		share.Players = append(share.Players, domain.SharePlayer{
			Rank:      p.Rank,
			Name:      p.Name,
			Speed:     p.Speed,
			UpdatedAt: p.UpdatedAt,
		})
	}

	charts := make([]domain.ShareChart, 0, len(ranked))
	for _, p := range ranked {
		records, err := s.store.ListRecords(ctx, userID, p.Name)
		if err != nil {
			return nil, fmt.Errorf("list records for %s: %w", p.Name, err)
		}
		chartRecords := domain.FilterRecords(records, req.Period, now)

		points := make([]domain.SharePoint, 0, len(chartRecords))
		for _, pt := range domain.ChartSeries(chartRecords) {
			points = append(points, domain.SharePoint{Date: pt.Date, Speed: pt.Speed})
		}
		points, truncated := domain.TruncateChart(points, s.chartMaxPoints)

		charts = append(charts, domain.ShareChart{
			PlayerName: p.Name,
			Points:     points,
			Truncated:  truncated,
		})
	}

	if err := s.store.ReplaceShare(ctx, &share, charts); err != nil {
		return nil, fmt.Errorf("replace share: %w", err)
	}

	s.metrics.ShareCreated()
	s.events.Emit(sse.NewShareEvent(sse.EventShareCreated, userID, shareID))

	s.logger.Info("share created",
		"user_id", userID,
		"share_id", shareID,
		"players", len(share.Players),
		"period", req.Period,
	)

	return &CreateShareResponse{Share: share}, nil
}

// GetMyShare returns the owner's current share, expired or not.
func (s *ShareService) GetMyShare(ctx context.Context, userID string) (*domain.Share, error) {
	share, err := s.store.GetShareByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("no share exists")
		}
		return nil, fmt.Errorf("get share: %w", err)
	}
	return share, nil
}

// DisableShare deletes a share. Only the owner may do this.
func (s *ShareService) DisableShare(ctx context.Context, userID, shareID string) error {
	share, err := s.store.GetShare(ctx, shareID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("share not found")
		}
		return fmt.Errorf("get share: %w", err)
	}
	if share.OwnerID != userID {
		return domainerrors.Forbidden("not your share")
	}

	if err := s.store.DeleteShare(ctx, shareID); err != nil {
		return fmt.Errorf("delete share: %w", err)
	}

	s.events.Emit(sse.NewShareEvent(sse.EventShareDeleted, userID, shareID))
	s.logger.Info("share disabled", "user_id", userID, "share_id", shareID)
	return nil
}

// ResolveShare loads a share for an anonymous viewer. A missing ID maps
// to not-found; a past deadline maps to share-expired, checked at read
// time while the stored row stays put.
func (s *ShareService) ResolveShare(ctx context.Context, shareID string) (*domain.Share, error) {
	share, err := s.store.GetShare(ctx, shareID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("share not found")
		}
		return nil, fmt.Errorf("get share: %w", err)
	}
	if share.IsExpired(s.now()) {
		return nil, domainerrors.ShareExpired("share link expired")
	}

	s.metrics.ShareViewed()
	return share, nil
}

// ResolveShareChart loads one shared player's snapshot chart for an
// anonymous viewer, with the same expiry semantics as ResolveShare.
func (s *ShareService) ResolveShareChart(ctx context.Context, shareID, playerName string) (*domain.ShareChart, error) {
	share, err := s.store.GetShare(ctx, shareID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("share not found")
		}
		return nil, fmt.Errorf("get share: %w", err)
	}
	if share.IsExpired(s.now()) {
		return nil, domainerrors.ShareExpired("share link expired")
	}

	chart, err := s.store.GetShareChart(ctx, shareID, playerName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("no chart for %s", playerName)
		}
		return nil, fmt.Errorf("get share chart: %w", err)
	}
	return chart, nil
}
