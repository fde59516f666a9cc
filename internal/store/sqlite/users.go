package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/lobbychat/internal/store"
)

const userColumns = `username, avatar, session_id, connection_id, is_admin, joined_at, last_seen, status, message_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*store.User, error) {
	var user store.User
	var connID sql.NullString
	err := row.Scan(
		&user.Username,
		&user.Avatar,
		&user.SessionID,
		&connID,
		&user.IsAdmin,
		&user.JoinedAt,
		&user.LastSeen,
		&user.Status,
		&user.MessageCount,
	)
	if err != nil {
		return nil, err
	}
	user.ConnectionID = connID.String
	return &user, nil
}

// CreateUser inserts a new user.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *store.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var connID sql.NullString
	if user.ConnectionID != "" {
		connID = sql.NullString{String: user.ConnectionID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query,
		user.Username,
		user.Avatar,
		user.SessionID,
		connID,
		user.IsAdmin,
		user.JoinedAt.UTC(),
		user.LastSeen.UTC(),
		user.Status,
		user.MessageCount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user %q: %w", user.Username, store.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// GetUserBySessionID retrieves a user by session token.
func (s *SQLiteStore) GetUserBySessionID(ctx context.Context, sessionID string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE session_id = ?`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user by session: %w", err)
	}
	return user, nil
}

// AttachConnection records the connection a user is currently bound to.
func (s *SQLiteStore) AttachConnection(ctx context.Context, username, connID string, seen time.Time) error {
	query := `UPDATE users SET connection_id = ?, last_seen = ? WHERE username = ?`
	result, err := s.db.ExecContext(ctx, query, connID, seen.UTC(), username)
	if err != nil {
		return fmt.Errorf("attach connection: %w", err)
	}
	return expectAffected(result, "user "+username)
}

// DetachConnection stores last-seen and clears the connection id if it still equals connID.
func (s *SQLiteStore) DetachConnection(ctx context.Context, username, connID string, seen time.Time) error {
	query := `
		UPDATE users
		SET last_seen = ?,
		    connection_id = CASE WHEN connection_id = ? THEN NULL ELSE connection_id END
		WHERE username = ?
	`
	result, err := s.db.ExecContext(ctx, query, seen.UTC(), connID, username)
	if err != nil {
		return fmt.Errorf("detach connection: %w", err)
	}
	return expectAffected(result, "user "+username)
}

// IncrementMessageCount bumps the user's message counter by one.
func (s *SQLiteStore) IncrementMessageCount(ctx context.Context, username string) error {
	query := `UPDATE users SET message_count = message_count + 1 WHERE username = ?`
	result, err := s.db.ExecContext(ctx, query, username)
	if err != nil {
		return fmt.Errorf("increment message count: %w", err)
	}
	return expectAffected(result, "user "+username)
}

// UpdateUserStatus replaces the free-text status.
func (s *SQLiteStore) UpdateUserStatus(ctx context.Context, username, status string) error {
	query := `UPDATE users SET status = ? WHERE username = ?`
	result, err := s.db.ExecContext(ctx, query, status, username)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return expectAffected(result, "user "+username)
}

// UpdateUserAvatar replaces the avatar URI and rewrites the snapshot on every
// message by username. Both happen in one transaction; returns the number of
// messages rewritten.
func (s *SQLiteStore) UpdateUserAvatar(ctx context.Context, username, avatar string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	result, err := tx.ExecContext(ctx, `UPDATE users SET avatar = ? WHERE username = ?`, avatar, username)
	if err != nil {
		return 0, fmt.Errorf("update avatar: %w", err)
	}
	if err := expectAffected(result, "user "+username); err != nil {
		return 0, err
	}

	result, err = tx.ExecContext(ctx, `UPDATE messages SET avatar = ? WHERE username = ?`, avatar, username)
	if err != nil {
		return 0, fmt.Errorf("update message avatars: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return n, nil
}

// DeleteUser removes a user record.
func (s *SQLiteStore) DeleteUser(ctx context.Context, username string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectAffected(result, "user "+username)
}
