package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/vovakirdan/lobbychat/internal/store"
	"github.com/vovakirdan/lobbychat/internal/utils"
)

const (
	bannedNotice   = "You are banned from the chat"
	banKickNotice  = "You were banned from the chat by the administrator"
	avatarEndpoint = "https://ui-avatars.com/api/"
)

// DefaultAvatar builds a generated avatar URL for username.
func DefaultAvatar(username string) string {
	return avatarEndpoint + "?name=" + url.QueryEscape(username) + "&background=random"
}

func (h *Hub) handleRegister(ctx context.Context, c *Client, cmd *Command) error {
	if _, bound := h.presence.Lookup(c.ID); bound {
		h.log.Debug().Str("conn_id", c.ID).Msg("connection already registered")
		return nil
	}

	username := strings.TrimSpace(cmd.Username)
	if username != "" {
		banned, err := h.isBanned(ctx, username)
		if err != nil {
			return err
		}
		if banned {
			h.rejectBanned(c, username)
			return nil
		}
	}

	// History is read before anything is written so a failed read leaves no record behind.
	history, err := h.recentMessages(ctx)
	if err != nil {
		return err
	}

	user, err := h.resume(ctx, c, cmd.SessionID)
	if err != nil {
		return err
	}
	if user != nil && user.Username != username {
		banned, err := h.isBanned(ctx, user.Username)
		if err != nil {
			return err
		}
		if banned {
			h.rejectBanned(c, user.Username)
			return nil
		}
	}

	if user == nil {
		user, err = h.enroll(ctx, c, username, strings.TrimSpace(cmd.Avatar))
		if errors.Is(err, ErrUsernameTaken) {
			h.log.Info().Str("conn_id", c.ID).Str("username", username).Msg("username taken")
			h.bus.Send(c.ID, &Event{Kind: EventUsernameTaken, Username: username})
			return nil
		}
		if err != nil {
			return err
		}
	}

	h.presence.Bind(c.ID, user)

	h.bus.Send(c.ID, &Event{Kind: EventMessageHistory, Messages: history})
	h.bus.Send(c.ID, &Event{Kind: EventRegistered, User: user})
	h.bus.Broadcast(&Event{Kind: EventUserJoined, Username: user.Username, Avatar: user.Avatar})
	h.broadcastOnlineUsers()

	h.log.Info().Str("conn_id", c.ID).Str("username", user.Username).Bool("admin", user.IsAdmin).Int("connections", h.presence.Len()).Msg("user registered")
	return nil
}

func (h *Hub) isBanned(ctx context.Context, username string) (bool, error) {
	_, err := h.store.GetBan(ctx, username)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("check ban: %w", err)
	}
}

func (h *Hub) rejectBanned(c *Client, username string) {
	h.log.Info().Str("conn_id", c.ID).Str("username", username).Msg("banned user rejected")
	h.bus.Send(c.ID, &Event{Kind: EventBanned, Username: username, Notice: bannedNotice})
	h.bus.Disconnect(c.ID)
}

// resume rebinds an existing identity by session token. Returns nil when the token is unknown.
func (h *Hub) resume(ctx context.Context, c *Client, sessionID string) (*store.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	user, err := h.store.GetUserBySessionID(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	now := h.now()
	if err := h.store.AttachConnection(ctx, user.Username, c.ID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("attach connection: %w", err)
	}
	user.ConnectionID = c.ID
	user.LastSeen = now

	h.log.Info().Str("conn_id", c.ID).Str("username", user.Username).Msg("session resumed")
	return user, nil
}

// enroll creates a new identity. The store's uniqueness constraint is the final word on
// whether the username is free; the lookup before it only saves a failed insert.
func (h *Hub) enroll(ctx context.Context, c *Client, username, avatar string) (*store.User, error) {
	if username == "" {
		return nil, coreError(ErrCodeBadRequest, "username is required")
	}

	_, err := h.store.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, ErrUsernameTaken
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("lookup username: %w", err)
	}

	if avatar == "" {
		avatar = DefaultAvatar(username)
	}
	now := h.now()
	user := &store.User{
		Username:     username,
		Avatar:       avatar,
		SessionID:    utils.NewSessionID(),
		ConnectionID: c.ID,
		IsAdmin:      store.IsAdminUsername(username),
		JoinedAt:     now,
		LastSeen:     now,
		Status:       h.defaultStatus,
	}
	if err := h.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	h.log.Info().Str("conn_id", c.ID).Str("username", username).Msg("user created")
	return user, nil
}

// recentMessages loads the history window with reactions attached at read time.
func (h *Hub) recentMessages(ctx context.Context) ([]*store.Message, error) {
	messages, err := h.store.ListRecentMessages(ctx, h.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	reactions, err := h.store.ListReactionsFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load reactions: %w", err)
	}
	for _, m := range messages {
		m.Reactions = reactions[m.ID]
		if m.Reactions == nil {
			m.Reactions = []*store.Reaction{}
		}
	}
	return messages, nil
}

func (h *Hub) handleDisconnect(ctx context.Context, c *Client) {
	user, ok := h.presence.Lookup(c.ID)
	if !ok {
		return
	}

	h.presence.Unbind(c.ID)
	h.typing.Clear(c.ID)

	if err := h.store.DetachConnection(ctx, user.Username, c.ID, h.now()); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Warn().Err(err).Str("username", user.Username).Msg("failed to persist last seen")
	}

	h.bus.Broadcast(&Event{Kind: EventUserLeft, Username: user.Username})
	h.broadcastOnlineUsers()
	h.broadcastTypingUsers()

	h.log.Info().Str("conn_id", c.ID).Str("username", user.Username).Msg("user left")
}
