package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/takurot/baseball-speedgun/internal/domain"
	"github.com/takurot/baseball-speedgun/internal/store"
)

// scanPlayer scans a player row. The date-granularity updated_at is
// stored like every other timestamp, as RFC3339Nano.
func scanPlayer(scanner interface{ Scan(dest ...any) error }) (*domain.Player, error) {
	var p domain.Player
	var updatedAt string

	if err := scanner.Scan(&p.Name, &p.Speed, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	p.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// scanRecord scans a record row. Dates are stored as YYYY-MM-DD keys.
func scanRecord(scanner interface{ Scan(dest ...any) error }) (*domain.DateRecord, error) {
	var r domain.DateRecord
	var dateKey string

	if err := scanner.Scan(&r.PlayerName, &dateKey, &r.Speed); err != nil {
		return nil, err
	}

	var err error
	r.Date, err = domain.ParseDateKey(dateKey)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertReading applies a submitted reading in a single transaction:
// the date-record keeps the max for its date (only overwritten when the
// new speed is strictly greater), and the aggregate's speed becomes the
// max of its current value and the record's. The aggregate's updated_at
// takes the submitted date unconditionally, so it reflects write
// recency rather than the date of the maximum.
func (s *Store) UpsertReading(ctx context.Context, userID, name string, speed float64, date time.Time) (*store.ReadingResult, error) {
	dateKey := date.Format(domain.DateLayout)
	res := &store.ReadingResult{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		// Current record speed for this date, if any.
		var existing sql.NullFloat64
		err := tx.QueryRowContext(ctx,
			`SELECT speed FROM records WHERE user_id = ? AND player_name = ? AND date = ?`,
			userID, name, dateKey).Scan(&existing)
		if err != nil && err != sql.ErrNoRows {
			return err
		}

		effective := speed
		res.RecordCreated = !existing.Valid
		res.RecordChanged = !existing.Valid || speed > existing.Float64
		if existing.Valid && existing.Float64 > effective {
			effective = existing.Float64
		}

		// Aggregate speed is the max of its stored value and the record.
		aggSpeed := effective
		var current sql.NullFloat64
		err = tx.QueryRowContext(ctx,
			`SELECT speed FROM players WHERE user_id = ? AND name = ?`,
			userID, name).Scan(&current)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if current.Valid && current.Float64 > aggSpeed {
			aggSpeed = current.Float64
		}

		// Write the aggregate first so the record's foreign key holds.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO players (user_id, name, speed, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id, name) DO UPDATE SET speed = excluded.speed, updated_at = excluded.updated_at`,
			userID, name, aggSpeed, formatTime(date)); err != nil {
			return err
		}

		if res.RecordChanged {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO records (user_id, player_name, date, speed)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (user_id, player_name, date) DO UPDATE SET speed = excluded.speed`,
				userID, name, dateKey, speed); err != nil {
				return err
			}
		}

		res.Player = domain.Player{Name: name, Speed: aggSpeed, UpdatedAt: date}
		res.Record = domain.DateRecord{PlayerName: name, Date: date, Speed: effective}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetPlayer retrieves one player aggregate.
// Returns store.ErrNotFound if the player does not exist.
func (s *Store) GetPlayer(ctx context.Context, userID, name string) (*domain.Player, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, speed, updated_at FROM players WHERE user_id = ? AND name = ?`,
		userID, name)

	p, err := scanPlayer(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPlayers returns all player aggregates for a user.
func (s *Store) ListPlayers(ctx context.Context, userID string) ([]domain.Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, speed, updated_at FROM players WHERE user_id = ? ORDER BY name ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

// ListRecords returns a player's date-records in chronological order.
func (s *Store) ListRecords(ctx context.Context, userID, name string) ([]domain.DateRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_name, date, speed FROM records WHERE user_id = ? AND player_name = ? ORDER BY date ASC`,
		userID, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.DateRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// DeleteRecord removes one date-record and recomputes the aggregate
// from the survivors in the same transaction: speed becomes the max of
// the remaining records and updated_at the latest remaining date. When
// no records remain the aggregate is deleted too.
// Returns store.ErrNotFound if the record does not exist.
func (s *Store) DeleteRecord(ctx context.Context, userID, name, dateKey string) (*store.DeleteRecordResult, error) {
	res := &store.DeleteRecordResult{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT player_name, date, speed FROM records WHERE user_id = ? AND player_name = ? AND date = ?`,
			userID, name, dateKey)
		deleted, err := scanRecord(row)
		if err == sql.ErrNoRows {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		res.Deleted = *deleted

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM records WHERE user_id = ? AND player_name = ? AND date = ?`,
			userID, name, dateKey); err != nil {
			return err
		}

		// Recompute from survivors. Date keys sort chronologically, so
		// MAX(date) is the latest remaining day.
		var maxSpeed sql.NullFloat64
		var latest sql.NullString
		if err := tx.QueryRowContext(ctx,
			`SELECT MAX(speed), MAX(date) FROM records WHERE user_id = ? AND player_name = ?`,
			userID, name).Scan(&maxSpeed, &latest); err != nil {
			return err
		}

		if !maxSpeed.Valid {
			// Last record gone, the aggregate goes with it.
			_, err := tx.ExecContext(ctx,
				`DELETE FROM players WHERE user_id = ? AND name = ?`, userID, name)
			return err
		}

		latestDate, err := domain.ParseDateKey(latest.String)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE players SET speed = ?, updated_at = ? WHERE user_id = ? AND name = ?`,
			maxSpeed.Float64, formatTime(latestDate), userID, name); err != nil {
			return err
		}
		res.Player = &domain.Player{Name: name, Speed: maxSpeed.Float64, UpdatedAt: latestDate}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RestoreRecord re-creates a previously deleted record and folds it
// into the aggregate going forward: speed becomes the max of the
// current aggregate and the restored record, updated_at the max of the
// current value and the restored date. Changes made during the undo
// window are merged, not overwritten.
func (s *Store) RestoreRecord(ctx context.Context, userID string, rec domain.DateRecord) (*domain.Player, error) {
	dateKey := rec.DateKey()
	var restored domain.Player

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		aggSpeed := rec.Speed
		aggUpdated := rec.Date

		var current sql.NullFloat64
		var updatedAt sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT speed, updated_at FROM players WHERE user_id = ? AND name = ?`,
			userID, rec.PlayerName).Scan(&current, &updatedAt)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if current.Valid {
			if current.Float64 > aggSpeed {
				aggSpeed = current.Float64
			}
			cur, err := parseTime(updatedAt.String)
			if err != nil {
				return err
			}
			if cur.After(aggUpdated) {
				aggUpdated = cur
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO players (user_id, name, speed, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id, name) DO UPDATE SET speed = excluded.speed, updated_at = excluded.updated_at`,
			userID, rec.PlayerName, aggSpeed, formatTime(aggUpdated)); err != nil {
			return err
		}

		// A record for the same date may have reappeared during the
		// undo window; keep the faster of the two.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO records (user_id, player_name, date, speed)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id, player_name, date) DO UPDATE SET speed = MAX(records.speed, excluded.speed)`,
			userID, rec.PlayerName, dateKey, rec.Speed); err != nil {
			return err
		}

		restored = domain.Player{Name: rec.PlayerName, Speed: aggSpeed, UpdatedAt: aggUpdated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &restored, nil
}

// DeletePlayer removes a player aggregate and all of its records in
// one transaction. Returns store.ErrNotFound if the player does not exist.
func (s *Store) DeletePlayer(ctx context.Context, userID, name string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM records WHERE user_id = ? AND player_name = ?`,
			userID, name); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM players WHERE user_id = ? AND name = ?`, userID, name)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}
