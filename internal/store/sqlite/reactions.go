package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/lobbychat/internal/store"
)

// GetReaction retrieves the reaction of username on a message.
func (s *SQLiteStore) GetReaction(ctx context.Context, messageID, username string) (*store.Reaction, error) {
	query := `
		SELECT message_id, username, emoji, created_at
		FROM reactions
		WHERE message_id = ? AND username = ?
	`
	var r store.Reaction
	err := s.db.QueryRowContext(ctx, query, messageID, username).Scan(&r.MessageID, &r.Username, &r.Emoji, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reaction: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query reaction: %w", err)
	}
	return &r, nil
}

// AddReaction inserts a reaction.
func (s *SQLiteStore) AddReaction(ctx context.Context, r *store.Reaction) error {
	query := `
		INSERT INTO reactions (message_id, username, emoji, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, r.MessageID, r.Username, r.Emoji, r.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert reaction: %w", store.ErrConflict)
		}
		return fmt.Errorf("insert reaction: %w", err)
	}
	return nil
}

// UpdateReactionEmoji swaps the emoji of an existing reaction in place.
func (s *SQLiteStore) UpdateReactionEmoji(ctx context.Context, messageID, username, emoji string) error {
	query := `UPDATE reactions SET emoji = ? WHERE message_id = ? AND username = ?`
	result, err := s.db.ExecContext(ctx, query, emoji, messageID, username)
	if err != nil {
		return fmt.Errorf("update reaction: %w", err)
	}
	return expectAffected(result, "reaction")
}

// DeleteReaction removes the reaction of username on a message.
func (s *SQLiteStore) DeleteReaction(ctx context.Context, messageID, username string) error {
	query := `DELETE FROM reactions WHERE message_id = ? AND username = ?`
	result, err := s.db.ExecContext(ctx, query, messageID, username)
	if err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	return expectAffected(result, "reaction")
}

// ListReactions lists reactions on a message ordered by creation time.
func (s *SQLiteStore) ListReactions(ctx context.Context, messageID string) ([]*store.Reaction, error) {
	grouped, err := s.ListReactionsFor(ctx, []string{messageID})
	if err != nil {
		return nil, err
	}
	reactions := grouped[messageID]
	if reactions == nil {
		reactions = []*store.Reaction{}
	}
	return reactions, nil
}

// ListReactionsFor groups reactions of several messages by message ID.
func (s *SQLiteStore) ListReactionsFor(ctx context.Context, messageIDs []string) (map[string][]*store.Reaction, error) {
	grouped := make(map[string][]*store.Reaction, len(messageIDs))
	if len(messageIDs) == 0 {
		return grouped, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(messageIDs)), ",")
	query := `
		SELECT message_id, username, emoji, created_at
		FROM reactions
		WHERE message_id IN (` + placeholders + `)
		ORDER BY created_at ASC, username ASC
	`
	args := make([]any, 0, len(messageIDs))
	for _, id := range messageIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r store.Reaction
		if err := rows.Scan(&r.MessageID, &r.Username, &r.Emoji, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		grouped[r.MessageID] = append(grouped[r.MessageID], &r)
	}

	return grouped, rows.Err()
}
