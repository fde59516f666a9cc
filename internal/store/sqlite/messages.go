package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/lobbychat/internal/store"
)

const messageColumns = `id, username, avatar, kind, content, file_name, file_size, reply_to, mentions, created_at, author_is_admin, edited, edited_at`

func scanMessage(row rowScanner) (*store.Message, error) {
	var msg store.Message
	var id int64
	var kind, mentions string
	var editedAt sql.NullTime
	err := row.Scan(
		&id,
		&msg.Username,
		&msg.Avatar,
		&kind,
		&msg.Content,
		&msg.FileName,
		&msg.FileSize,
		&msg.ReplyTo,
		&mentions,
		&msg.CreatedAt,
		&msg.AuthorIsAdmin,
		&msg.Edited,
		&editedAt,
	)
	if err != nil {
		return nil, err
	}
	msg.ID = formatMessageID(id)
	msg.Kind = store.MessageKind(kind)
	if editedAt.Valid {
		t := editedAt.Time
		msg.EditedAt = &t
	}
	if err := json.Unmarshal([]byte(mentions), &msg.Mentions); err != nil {
		return nil, fmt.Errorf("decode mentions of message %d: %w", id, err)
	}
	if msg.Mentions == nil {
		msg.Mentions = []string{}
	}
	return &msg, nil
}

// SaveMessage persists a message and assigns its ID.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	mentions := msg.Mentions
	if mentions == nil {
		mentions = []string{}
	}
	encoded, err := json.Marshal(mentions)
	if err != nil {
		return fmt.Errorf("encode mentions: %w", err)
	}
	kind := msg.Kind
	if kind == "" {
		kind = store.MessageKindText
	}

	query := `
		INSERT INTO messages (username, avatar, kind, content, file_name, file_size, reply_to, mentions, created_at, author_is_admin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		msg.Username,
		msg.Avatar,
		string(kind),
		msg.Content,
		msg.FileName,
		msg.FileSize,
		msg.ReplyTo,
		string(encoded),
		msg.CreatedAt.UTC(),
		msg.AuthorIsAdmin,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	msg.ID = formatMessageID(id)
	msg.Kind = kind
	msg.Mentions = mentions
	return nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*store.Message, error) {
	n, err := parseMessageID(id)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`
	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, n))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return msg, nil
}

// ListRecentMessages returns the newest limit messages in ascending timestamp order.
func (s *SQLiteStore) ListRecentMessages(ctx context.Context, limit int) ([]*store.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0, limit)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Reverse to get chronological order
	for i := 0; i < len(messages)/2; i++ {
		messages[i], messages[len(messages)-1-i] = messages[len(messages)-1-i], messages[i]
	}

	return messages, nil
}

// EditMessage replaces the content and marks the message as edited.
func (s *SQLiteStore) EditMessage(ctx context.Context, id, content string, editedAt time.Time) error {
	n, err := parseMessageID(id)
	if err != nil {
		return err
	}
	query := `UPDATE messages SET content = ?, edited = 1, edited_at = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, content, editedAt.UTC(), n)
	if err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return expectAffected(result, "message "+id)
}

// DeleteMessage removes a message together with its reactions.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	n, err := parseMessageID(id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	result, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, n)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if err := expectAffected(result, "message "+id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reactions WHERE message_id = ?`, id); err != nil {
		return fmt.Errorf("delete reactions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DeleteAllMessages removes every message and every reaction.
func (s *SQLiteStore) DeleteAllMessages(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reactions`); err != nil {
		return fmt.Errorf("delete reactions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
