package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/takurot/baseball-speedgun/internal/domain"
	domainerrors "github.com/takurot/baseball-speedgun/internal/errors"
	"github.com/takurot/baseball-speedgun/internal/metrics"
	"github.com/takurot/baseball-speedgun/internal/sse"
	"github.com/takurot/baseball-speedgun/internal/store"
	"github.com/takurot/baseball-speedgun/internal/store/sqlite"
)

// DefaultUndoWindow is how long a deleted record can be brought back.
const DefaultUndoWindow = 5 * time.Second

// pendingUndo holds one deleted record awaiting a possible undo.
type pendingUndo struct {
	token    string
	record   domain.DateRecord
	deadline time.Time
	timer    *time.Timer
}

// RecordService applies reading submissions and deletions, keeping the
// per-player aggregate consistent, and manages the short undo window
// after a deletion.
type RecordService struct {
	store   *sqlite.Store
	events  *sse.Manager
	metrics *metrics.Manager
	logger  *slog.Logger

	undoWindow time.Duration

	// One pending undo per user; a new delete cancels the previous one.
	mu      sync.Mutex
	pending map[string]*pendingUndo
}

// NewRecordService creates a new record service.
func NewRecordService(
	store *sqlite.Store,
	events *sse.Manager,
	metricsManager *metrics.Manager,
	logger *slog.Logger,
) *RecordService {
	return &RecordService{
		store:      store,
		events:     events,
		metrics:    metricsManager,
		logger:     logger,
		undoWindow: DefaultUndoWindow,
		pending:    make(map[string]*pendingUndo),
	}
}

// SetUndoWindow overrides the undo window. Intended for tests.
func (s *RecordService) SetUndoWindow(d time.Duration) {
	s.undoWindow = d
}

// SubmitReadingRequest contains one speed reading submission.
type SubmitReadingRequest struct {
	Name  string  `json:"name" validate:"required,max=100"`
	Speed float64 `json:"speed" validate:"required,gte=50,lte=200"`
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
}

// SubmitReadingResponse reports the state after a submission.
type SubmitReadingResponse struct {
	Player        domain.Player     `json:"player"`
	Record        domain.DateRecord `json:"record"`
	RecordCreated bool              `json:"record_created"`
	RecordChanged bool              `json:"record_changed"`
}

// SubmitReading validates and applies one reading. The date-record only
// moves when the new speed is strictly greater than the stored one; the
// aggregate's updated date always takes the submitted date.
func (s *RecordService) SubmitReading(ctx context.Context, userID string, req SubmitReadingRequest) (*SubmitReadingResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if err := domain.ValidateReading(req.Name, req.Speed, req.Date); err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	date, err := domain.ParseDateKey(req.Date)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	res, err := s.store.UpsertReading(ctx, userID, req.Name, req.Speed, date)
	if err != nil {
		return nil, fmt.Errorf("upsert reading: %w", err)
	}

	if res.RecordChanged {
		s.metrics.ReadingSubmitted()
		eventType := sse.EventRecordUpdated
		if res.RecordCreated {
			eventType = sse.EventRecordCreated
		}
		s.events.Emit(sse.NewRecordEvent(eventType, userID, res.Record, res.Player))
	} else {
		s.metrics.ReadingIgnored()
	}
	// The aggregate's updated date moves on every submission.
	s.events.Emit(sse.NewPlayerUpdatedEvent(userID, res.Player))

	s.logger.Debug("reading submitted",
		"user_id", userID,
		"player", req.Name,
		"speed", req.Speed,
		"changed", res.RecordChanged,
	)

	return &SubmitReadingResponse{
		Player:        res.Player,
		Record:        res.Record,
		RecordCreated: res.RecordCreated,
		RecordChanged: res.RecordChanged,
	}, nil
}

// DeleteRecordResponse reports a deletion and its undo handle.
type DeleteRecordResponse struct {
	Player       *domain.Player `json:"player,omitempty"`
	PlayerGone   bool           `json:"player_gone"`
	UndoToken    string         `json:"undo_token"`
	UndoDeadline time.Time      `json:"undo_deadline"`
}

// DeleteRecord removes one date-record, recomputes the aggregate from
// the survivors, and opens an undo window. Starting a new delete
// cancels any earlier pending undo for the same user.
func (s *RecordService) DeleteRecord(ctx context.Context, userID, playerName, dateKey string) (*DeleteRecordResponse, error) {
	if _, err := domain.ParseDateKey(dateKey); err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	res, err := s.store.DeleteRecord(ctx, userID, playerName, dateKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("no record for %s on %s", playerName, dateKey)
		}
		return nil, fmt.Errorf("delete record: %w", err)
	}

	s.metrics.RecordDeleted()
	s.events.Emit(sse.NewRecordDeletedEvent(userID, playerName, dateKey, res.Player))
	if res.Player == nil {
		s.events.Emit(sse.NewPlayerDeletedEvent(userID, playerName))
	} else {
		s.events.Emit(sse.NewPlayerUpdatedEvent(userID, *res.Player))
	}

	token := uuid.NewString()
	deadline := s.armUndo(userID, token, res.Deleted)

	s.logger.Info("record deleted",
		"user_id", userID,
		"player", playerName,
		"date", dateKey,
		"player_gone", res.Player == nil,
	)

	return &DeleteRecordResponse{
		Player:       res.Player,
		PlayerGone:   res.Player == nil,
		UndoToken:    token,
		UndoDeadline: deadline,
	}, nil
}

// armUndo replaces the user's pending undo with a new one and returns
// its deadline.
func (s *RecordService) armUndo(userID, token string, record domain.DateRecord) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.pending[userID]; ok {
		prev.timer.Stop()
	}

	p := &pendingUndo{token: token, record: record, deadline: time.Now().Add(s.undoWindow)}
	p.timer = time.AfterFunc(s.undoWindow, func() {
		s.expireUndo(userID, token)
	})
	s.pending[userID] = p
	return p.deadline
}

// rearmUndo puts a consumed undo back for the rest of its window, so a
// failed restore write does not burn the token. A newer delete that
// arrived in the meantime keeps its own pending undo.
func (s *RecordService) rearmUndo(userID string, p *pendingUndo) {
	remaining := time.Until(p.deadline)
	if remaining <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[userID]; ok {
		return
	}
	p.timer = time.AfterFunc(remaining, func() {
		s.expireUndo(userID, p.token)
	})
	s.pending[userID] = p
}

// expireUndo drops a pending undo when its window lapses, unless it was
// already consumed or replaced.
func (s *RecordService) expireUndo(userID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[userID]
	if !ok || p.token != token {
		return
	}
	delete(s.pending, userID)
	s.metrics.UndoExpired()
}

// takeUndo consumes the pending undo matching token, if still valid.
func (s *RecordService) takeUndo(userID, token string) (*pendingUndo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[userID]
	if !ok || p.token != token {
		return nil, false
	}
	p.timer.Stop()
	delete(s.pending, userID)
	return p, true
}

// cancelUndo drops any pending undo for the user.
func (s *RecordService) cancelUndo(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[userID]; ok {
		p.timer.Stop()
		delete(s.pending, userID)
	}
}

// UndoDeleteRequest identifies the deletion to take back.
type UndoDeleteRequest struct {
	UndoToken string `json:"undo_token" validate:"required"`
}

// UndoDeleteResponse reports the restored state.
type UndoDeleteResponse struct {
	Record domain.DateRecord `json:"record"`
	Player domain.Player     `json:"player"`
}

// UndoDelete restores the record the token refers to and folds it into
// the aggregate going forward: changes made during the undo window are
// merged, not overwritten. Fails with an undo-expired error once the
// window has lapsed or after a newer delete.
func (s *RecordService) UndoDelete(ctx context.Context, userID string, req UndoDeleteRequest) (*UndoDeleteResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	p, ok := s.takeUndo(userID, req.UndoToken)
	if !ok {
		return nil, domainerrors.UndoExpired("undo window closed")
	}

	player, err := s.store.RestoreRecord(ctx, userID, p.record)
	if err != nil {
		s.rearmUndo(userID, p)
		return nil, fmt.Errorf("restore record: %w", err)
	}

	s.metrics.UndoPerformed()
	s.events.Emit(sse.NewRecordEvent(sse.EventRecordRestored, userID, p.record, *player))
	s.events.Emit(sse.NewPlayerUpdatedEvent(userID, *player))

	s.logger.Info("record restored",
		"user_id", userID,
		"player", p.record.PlayerName,
		"date", p.record.DateKey(),
	)

	return &UndoDeleteResponse{
		Record: p.record,
		Player: *player,
	}, nil
}

// DeletePlayer removes a player aggregate and all of its records.
// Any pending undo for the user is cancelled since it may refer to a
// record that just went away.
func (s *RecordService) DeletePlayer(ctx context.Context, userID, name string) error {
	if err := s.store.DeletePlayer(ctx, userID, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("player %s not found", name)
		}
		return fmt.Errorf("delete player: %w", err)
	}

	s.cancelUndo(userID)
	s.events.Emit(sse.NewPlayerDeletedEvent(userID, name))

	s.logger.Info("player deleted", "user_id", userID, "player", name)
	return nil
}
