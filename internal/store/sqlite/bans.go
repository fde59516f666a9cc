package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vovakirdan/lobbychat/internal/store"
)

// CreateBan inserts a ban record.
func (s *SQLiteStore) CreateBan(ctx context.Context, ban *store.Ban) error {
	query := `INSERT INTO bans (username, banned_by, banned_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, ban.Username, ban.BannedBy, ban.BannedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert ban %q: %w", ban.Username, store.ErrConflict)
		}
		return fmt.Errorf("insert ban: %w", err)
	}
	return nil
}

// GetBan retrieves the ban record for username.
func (s *SQLiteStore) GetBan(ctx context.Context, username string) (*store.Ban, error) {
	query := `SELECT username, banned_by, banned_at FROM bans WHERE username = ?`
	var ban store.Ban
	err := s.db.QueryRowContext(ctx, query, username).Scan(&ban.Username, &ban.BannedBy, &ban.BannedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ban %q: %w", username, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query ban: %w", err)
	}
	return &ban, nil
}

// DeleteBan removes the ban record for username.
func (s *SQLiteStore) DeleteBan(ctx context.Context, username string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bans WHERE username = ?`, username); err != nil {
		return fmt.Errorf("delete ban: %w", err)
	}
	return nil
}

// ListBans lists all ban records, oldest first.
func (s *SQLiteStore) ListBans(ctx context.Context) ([]*store.Ban, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username, banned_by, banned_at FROM bans ORDER BY banned_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query bans: %w", err)
	}
	defer rows.Close()

	bans := make([]*store.Ban, 0)
	for rows.Next() {
		var ban store.Ban
		if err := rows.Scan(&ban.Username, &ban.BannedBy, &ban.BannedAt); err != nil {
			return nil, fmt.Errorf("scan ban: %w", err)
		}
		bans = append(bans, &ban)
	}

	return bans, rows.Err()
}
