package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/takurot/baseball-speedgun/internal/domain"
	"github.com/takurot/baseball-speedgun/internal/store"
)

// seedUser inserts a user so player rows satisfy their foreign key.
func seedUser(t *testing.T, s *Store, id string) {
	t.Helper()
	now := time.Now()
	err := s.CreateUser(context.Background(), &domain.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "hash",
		DisplayName:  "Test",
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func mustDate(t *testing.T, key string) time.Time {
	t.Helper()
	d, err := domain.ParseDateKey(key)
	if err != nil {
		t.Fatalf("parse date %s: %v", key, err)
	}
	return d
}

func TestUpsertReading_Create(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	date := mustDate(t, "2025-06-15")
	res, err := s.UpsertReading(ctx, "user-1", "Tanaka", 140.5, date)
	if err != nil {
		t.Fatalf("UpsertReading: %v", err)
	}
	if !res.RecordCreated {
		t.Error("RecordCreated: expected true")
	}
	if !res.RecordChanged {
		t.Error("RecordChanged: expected true")
	}
	if res.Player.Speed != 140.5 {
		t.Errorf("Player.Speed: got %v, want 140.5", res.Player.Speed)
	}
	if res.Record.Speed != 140.5 {
		t.Errorf("Record.Speed: got %v, want 140.5", res.Record.Speed)
	}

	got, err := s.GetPlayer(ctx, "user-1", "Tanaka")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if got.Speed != 140.5 {
		t.Errorf("stored speed: got %v, want 140.5", got.Speed)
	}
	if !got.UpdatedAt.Equal(date) {
		t.Errorf("stored updated_at: got %v, want %v", got.UpdatedAt, date)
	}
}

func TestUpsertReading_FasterReplacesSameDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	date := mustDate(t, "2025-06-15")
	if _, err := s.UpsertReading(ctx, "user-1", "Tanaka", 140, date); err != nil {
		t.Fatalf("first UpsertReading: %v", err)
	}

	res, err := s.UpsertReading(ctx, "user-1", "Tanaka", 145, date)
	if err != nil {
		t.Fatalf("second UpsertReading: %v", err)
	}
	if res.RecordCreated {
		t.Error("RecordCreated: expected false")
	}
	if !res.RecordChanged {
		t.Error("RecordChanged: expected true")
	}

	records, err := s.ListRecords(ctx, "user-1", "Tanaka")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}
	if records[0].Speed != 145 {
		t.Errorf("record speed: got %v, want 145", records[0].Speed)
	}
}

func TestUpsertReading_SlowerKeepsRecordButMovesUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	june := mustDate(t, "2025-06-15")
	if _, err := s.UpsertReading(ctx, "user-1", "Tanaka", 150, june); err != nil {
		t.Fatalf("first UpsertReading: %v", err)
	}

	// Slower reading on a later date: the date-record for that date is
	// created, the aggregate speed stays at the max, but updated_at
	// moves to the submitted date.
	july := mustDate(t, "2025-07-01")
	res, err := s.UpsertReading(ctx, "user-1", "Tanaka", 130, july)
	if err != nil {
		t.Fatalf("second UpsertReading: %v", err)
	}
	if res.Player.Speed != 150 {
		t.Errorf("aggregate speed: got %v, want 150", res.Player.Speed)
	}

	got, err := s.GetPlayer(ctx, "user-1", "Tanaka")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if got.Speed != 150 {
		t.Errorf("aggregate speed: got %v, want 150", got.Speed)
	}
	if !got.UpdatedAt.Equal(july) {
		t.Errorf("updated_at: got %v, want %v", got.UpdatedAt, july)
	}
}

func TestUpsertReading_SlowerSameDateIsNoOpOnRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	date := mustDate(t, "2025-06-15")
	if _, err := s.UpsertReading(ctx, "user-1", "Tanaka", 150, date); err != nil {
		t.Fatalf("first UpsertReading: %v", err)
	}

	res, err := s.UpsertReading(ctx, "user-1", "Tanaka", 149.9, date)
	if err != nil {
		t.Fatalf("second UpsertReading: %v", err)
	}
	if res.RecordCreated || res.RecordChanged {
		t.Errorf("expected untouched record, got created=%v changed=%v",
			res.RecordCreated, res.RecordChanged)
	}
	// The result echoes the surviving faster speed.
	if res.Record.Speed != 150 {
		t.Errorf("Record.Speed: got %v, want 150", res.Record.Speed)
	}

	records, err := s.ListRecords(ctx, "user-1", "Tanaka")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 1 || records[0].Speed != 150 {
		t.Fatalf("records: got %+v, want one record at 150", records)
	}
}

func TestUpsertReading_EqualSpeedDoesNotReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	date := mustDate(t, "2025-06-15")
	if _, err := s.UpsertReading(ctx, "user-1", "Tanaka", 140, date); err != nil {
		t.Fatalf("first UpsertReading: %v", err)
	}

	res, err := s.UpsertReading(ctx, "user-1", "Tanaka", 140, date)
	if err != nil {
		t.Fatalf("second UpsertReading: %v", err)
	}
	if res.RecordChanged {
		t.Error("RecordChanged: expected false for an equal speed")
	}
}

func TestListPlayers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")
	seedUser(t, s, "user-2")

	date := mustDate(t, "2025-06-15")
	for _, name := range []string{"Tanaka", "Aoki"} {
		if _, err := s.UpsertReading(ctx, "user-1", name, 140, date); err != nil {
			t.Fatalf("UpsertReading %s: %v", name, err)
		}
	}
	// Another user's players must not leak in.
	if _, err := s.UpsertReading(ctx, "user-2", "Suzuki", 155, date); err != nil {
		t.Fatalf("UpsertReading other user: %v", err)
	}

	players, err := s.ListPlayers(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("players: got %d, want 2", len(players))
	}
	if players[0].Name != "Aoki" || players[1].Name != "Tanaka" {
		t.Errorf("order: got %s, %s", players[0].Name, players[1].Name)
	}
}

func TestDeleteRecord_RecomputesAggregate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	if _, err := s.UpsertReading(ctx, "user-1", "Tanaka", 150, mustDate(t, "2025-06-10")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertReading(ctx, "user-1", "Tanaka", 140, mustDate(t, "2025-06-15")); err != nil {
		t.Fatal(err)
	}

	// Deleting the fastest record drops the aggregate to the survivor.
	res, err := s.DeleteRecord(ctx, "user-1", "Tanaka", "2025-06-10")
	if err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if res.Deleted.Speed != 150 {
		t.Errorf("Deleted.Speed: got %v, want 150", res.Deleted.Speed)
	}
	if res.Player == nil {
		t.Fatal("Player: expected recomputed aggregate")
	}
	if res.Player.Speed != 140 {
		t.Errorf("Player.Speed: got %v, want 140", res.Player.Speed)
	}
	if res.Player.UpdatedAt.Format(domain.DateLayout) != "2025-06-15" {
		t.Errorf("Player.UpdatedAt: got %v, want 2025-06-15", res.Player.UpdatedAt)
	}
}

func TestDeleteRecord_LastRecordCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	if _, err := s.UpsertReading(ctx, "user-1", "Tanaka", 150, mustDate(t, "2025-06-10")); err != nil {
		t.Fatal(err)
	}

	res, err := s.DeleteRecord(ctx, "user-1", "Tanaka", "2025-06-10")
	if err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if res.Player != nil {
		t.Errorf("Player: expected nil after last record, got %+v", res.Player)
	}

	_, err = s.GetPlayer(ctx, "user-1", "Tanaka")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetPlayer: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRecord_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	_, err := s.DeleteRecord(ctx, "user-1", "Tanaka", "2025-06-10")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRestoreRecord_ForwardMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	// Deleted record from June 10, while a newer slower reading landed
	// during the undo window.
	if _, err := s.UpsertReading(ctx, "user-1", "Tanaka", 130, mustDate(t, "2025-06-20")); err != nil {
		t.Fatal(err)
	}

	restored, err := s.RestoreRecord(ctx, "user-1", domain.DateRecord{
		PlayerName: "Tanaka",
		Date:       mustDate(t, "2025-06-10"),
		Speed:      150,
	})
	if err != nil {
		t.Fatalf("RestoreRecord: %v", err)
	}
	// Speed takes the max; updated_at keeps the newer date.
	if restored.Speed != 150 {
		t.Errorf("Speed: got %v, want 150", restored.Speed)
	}
	if restored.UpdatedAt.Format(domain.DateLayout) != "2025-06-20" {
		t.Errorf("UpdatedAt: got %v, want 2025-06-20", restored.UpdatedAt)
	}

	records, err := s.ListRecords(ctx, "user-1", "Tanaka")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}
}

func TestRestoreRecord_SameDateKeepsFaster(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	// A faster record reappeared for the same date during the window.
	if _, err := s.UpsertReading(ctx, "user-1", "Tanaka", 160, mustDate(t, "2025-06-10")); err != nil {
		t.Fatal(err)
	}

	if _, err := s.RestoreRecord(ctx, "user-1", domain.DateRecord{
		PlayerName: "Tanaka",
		Date:       mustDate(t, "2025-06-10"),
		Speed:      150,
	}); err != nil {
		t.Fatalf("RestoreRecord: %v", err)
	}

	records, err := s.ListRecords(ctx, "user-1", "Tanaka")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 1 || records[0].Speed != 160 {
		t.Fatalf("records: got %+v, want one record at 160", records)
	}
}

func TestRestoreRecord_PlayerGone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	// The aggregate cascaded away; restore recreates it from scratch.
	restored, err := s.RestoreRecord(ctx, "user-1", domain.DateRecord{
		PlayerName: "Tanaka",
		Date:       mustDate(t, "2025-06-10"),
		Speed:      150,
	})
	if err != nil {
		t.Fatalf("RestoreRecord: %v", err)
	}
	if restored.Speed != 150 {
		t.Errorf("Speed: got %v, want 150", restored.Speed)
	}

	got, err := s.GetPlayer(ctx, "user-1", "Tanaka")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if got.Speed != 150 {
		t.Errorf("stored speed: got %v, want 150", got.Speed)
	}
}

func TestDeletePlayer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	if _, err := s.UpsertReading(ctx, "user-1", "Tanaka", 150, mustDate(t, "2025-06-10")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertReading(ctx, "user-1", "Tanaka", 140, mustDate(t, "2025-06-15")); err != nil {
		t.Fatal(err)
	}

	if err := s.DeletePlayer(ctx, "user-1", "Tanaka"); err != nil {
		t.Fatalf("DeletePlayer: %v", err)
	}

	if _, err := s.GetPlayer(ctx, "user-1", "Tanaka"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetPlayer: expected ErrNotFound, got %v", err)
	}
	records, err := s.ListRecords(ctx, "user-1", "Tanaka")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records: got %d, want 0", len(records))
	}
}

func TestDeletePlayer_NotFound(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "user-1")

	err := s.DeletePlayer(context.Background(), "user-1", "Nobody")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
