package sqlite

import (
	"context"
	"database/sql"

	"github.com/takurot/baseball-speedgun/internal/domain"
	"github.com/takurot/baseball-speedgun/internal/store"
)

// ReplaceShare atomically swaps the owner's share: every prior share
// (and its rows, via cascade) is deleted and the new snapshot inserted
// in the same transaction. At most one live share per owner holds at
// all times.
func (s *Store) ReplaceShare(ctx context.Context, share *domain.Share, charts []domain.ShareChart) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM shares WHERE owner_id = ?`, share.OwnerID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shares (id, owner_id, created_at, expires_at, period, stats_count, stats_max, stats_avg)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			share.ID,
			share.OwnerID,
			formatTime(share.CreatedAt),
			nullTimeString(share.ExpiresAt),
			string(share.Period),
			share.Stats.Count,
			nullFloat(share.Stats.Max),
			nullFloat(share.Stats.Avg),
		); err != nil {
			return err
		}

		for i, p := range share.Players {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO share_players (share_id, position, rank, name, speed, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				share.ID, i, p.Rank, p.Name, p.Speed, formatTime(p.UpdatedAt)); err != nil {
				return err
			}
		}

		for _, c := range charts {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO share_charts (share_id, player_name, truncated)
				VALUES (?, ?, ?)`,
				share.ID, c.PlayerName, boolToInt(c.Truncated)); err != nil {
				return err
			}
			for i, pt := range c.Points {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO share_chart_points (share_id, player_name, position, date, speed)
					VALUES (?, ?, ?, ?, ?)`,
					share.ID, c.PlayerName, i, pt.Date, pt.Speed); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// scanShare scans a share row without its player list.
func scanShare(scanner interface{ Scan(dest ...any) error }) (*domain.Share, error) {
	var sh domain.Share

	var (
		createdAt string
		expiresAt sql.NullString
		period    string
		statsMax  sql.NullFloat64
		statsAvg  sql.NullFloat64
	)

	err := scanner.Scan(
		&sh.ID,
		&sh.OwnerID,
		&createdAt,
		&expiresAt,
		&period,
		&sh.Stats.Count,
		&statsMax,
		&statsAvg,
	)
	if err != nil {
		return nil, err
	}

	sh.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	sh.ExpiresAt, err = parseNullableTime(expiresAt)
	if err != nil {
		return nil, err
	}
	sh.Period = domain.Period(period)
	if statsMax.Valid {
		v := statsMax.Float64
		sh.Stats.Max = &v
	}
	if statsAvg.Valid {
		v := statsAvg.Float64
		sh.Stats.Avg = &v
	}

	return &sh, nil
}

const shareColumns = `id, owner_id, created_at, expires_at, period, stats_count, stats_max, stats_avg`

// loadSharePlayers fills in a share's ranking rows in stored order.
func (s *Store) loadSharePlayers(ctx context.Context, sh *domain.Share) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, name, speed, updated_at FROM share_players WHERE share_id = ? ORDER BY position ASC`,
		sh.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.SharePlayer
		var updatedAt string
		if err := rows.Scan(&p.Rank, &p.Name, &p.Speed, &updatedAt); err != nil {
			return err
		}
		p.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return err
		}
		sh.Players = append(sh.Players, p)
	}
	return rows.Err()
}

// GetShare retrieves a share snapshot by ID, including its ranking rows.
// Returns store.ErrNotFound if the share does not exist. Expiry is the
// caller's concern; an expired share is still returned.
func (s *Store) GetShare(ctx context.Context, id string) (*domain.Share, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shareColumns+` FROM shares WHERE id = ?`, id)

	sh, err := scanShare(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadSharePlayers(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// GetShareByOwner retrieves the owner's current share, if any.
// Returns store.ErrNotFound when the owner has no live share.
func (s *Store) GetShareByOwner(ctx context.Context, ownerID string) (*domain.Share, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shareColumns+` FROM shares WHERE owner_id = ? ORDER BY created_at DESC LIMIT 1`, ownerID)

	sh, err := scanShare(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadSharePlayers(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// GetShareChart retrieves the snapshot chart for one shared player.
// Returns store.ErrNotFound if the share or the player chart is absent.
func (s *Store) GetShareChart(ctx context.Context, shareID, playerName string) (*domain.ShareChart, error) {
	var truncated int
	err := s.db.QueryRowContext(ctx,
		`SELECT truncated FROM share_charts WHERE share_id = ? AND player_name = ?`,
		shareID, playerName).Scan(&truncated)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	chart := &domain.ShareChart{
		PlayerName: playerName,
		Truncated:  truncated != 0,
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, speed FROM share_chart_points WHERE share_id = ? AND player_name = ? ORDER BY position ASC`,
		shareID, playerName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var pt domain.SharePoint
		if err := rows.Scan(&pt.Date, &pt.Speed); err != nil {
			return nil, err
		}
		chart.Points = append(chart.Points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chart, nil
}

// DeleteShare removes a share and, via cascade, its rows.
// Returns store.ErrNotFound if the share does not exist.
func (s *Store) DeleteShare(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shares WHERE id = ?`, id)
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
}
