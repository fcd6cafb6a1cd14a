package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/takurot/baseball-speedgun/internal/auth"
	"github.com/takurot/baseball-speedgun/internal/domain"
	"github.com/takurot/baseball-speedgun/internal/metrics"
	"github.com/takurot/baseball-speedgun/internal/sse"
	"github.com/takurot/baseball-speedgun/internal/store/sqlite"
)

// testKeyHex is a fixed 32-byte PASETO key for tests.
const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// testEnv bundles every service against one temporary store.
type testEnv struct {
	store   *sqlite.Store
	auth    *AuthService
	session *SessionService
	record  *RecordService
	ranking *RankingService
	share   *ShareService
}

// setupTest wires all services against a fresh temp database. The SSE
// manager is never started; emitted events land in its buffer.
func setupTest(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := sqlite.Open(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	events := sse.NewManager(logger)
	metricsManager := metrics.NewManager()

	tokenService, err := auth.NewTokenService(testKeyHex, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	sessionService := NewSessionService(s, tokenService, logger)

	return &testEnv{
		store:   s,
		auth:    NewAuthService(s, tokenService, sessionService, logger),
		session: sessionService,
		record:  NewRecordService(s, events, metricsManager, logger),
		ranking: NewRankingService(s, logger),
		share:   NewShareService(s, events, metricsManager, 120, logger),
	}
}

// seedUser inserts a user row directly, bypassing registration.
func (e *testEnv) seedUser(t *testing.T, id string) {
	t.Helper()
	now := time.Now()
	err := e.store.CreateUser(context.Background(), &domain.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	})
	require.NoError(t, err)
}

// submit applies one reading, failing the test on error.
func (e *testEnv) submit(t *testing.T, userID, name string, speed float64, date string) *SubmitReadingResponse {
	t.Helper()
	resp, err := e.record.SubmitReading(context.Background(), userID, SubmitReadingRequest{
		Name:  name,
		Speed: speed,
		Date:  date,
	})
	require.NoError(t, err)
	return resp
}
