package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/vovakirdan/lobbychat/internal/store"
)

func (h *Hub) handleSendMessage(ctx context.Context, c *Client, user *store.User, cmd *Command) error {
	kind := cmd.Draft.Kind
	if kind == "" {
		kind = store.MessageKindText
	}
	msg := &store.Message{
		Username:      user.Username,
		Avatar:        user.Avatar,
		Kind:          kind,
		Content:       cmd.Draft.Content,
		FileName:      cmd.Draft.FileName,
		FileSize:      cmd.Draft.FileSize,
		ReplyTo:       cmd.Draft.ReplyTo,
		Mentions:      uniqueNames(cmd.Draft.Mentions),
		CreatedAt:     h.now(),
		AuthorIsAdmin: user.IsAdmin,
	}
	if err := h.store.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	msg.Reactions = []*store.Reaction{}

	if err := h.store.IncrementMessageCount(ctx, user.Username); err != nil {
		h.log.Warn().Err(err).Str("username", user.Username).Msg("failed to increment message count")
	} else {
		h.presence.Update(user.Username, func(u *store.User) { u.MessageCount++ })
	}

	for _, name := range msg.Mentions {
		for _, connID := range h.presence.Connections(name) {
			h.bus.Send(connID, &Event{Kind: EventMentioned, By: user.Username, Message: msg})
		}
	}

	h.bus.Broadcast(&Event{Kind: EventNewMessage, Message: msg})

	h.typing.Clear(c.ID)
	h.broadcastTypingUsers()
	return nil
}

func (h *Hub) handleTyping(c *Client, user *store.User, cmd *Command) error {
	if cmd.Typing {
		h.typing.Set(c.ID, user.Username)
	} else {
		h.typing.Clear(c.ID)
	}
	h.broadcastTypingUsers()
	return nil
}

// handleReact toggles: no reaction inserts, same emoji removes, other emoji replaces.
func (h *Hub) handleReact(ctx context.Context, user *store.User, cmd *Command) error {
	msg, err := h.store.GetMessage(ctx, cmd.MessageID)
	if err != nil {
		return fmt.Errorf("react: %w", err)
	}

	existing, err := h.store.GetReaction(ctx, msg.ID, user.Username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		err = h.store.AddReaction(ctx, &store.Reaction{
			MessageID: msg.ID,
			Username:  user.Username,
			Emoji:     cmd.Emoji,
			CreatedAt: h.now(),
		})
	case err != nil:
		return fmt.Errorf("lookup reaction: %w", err)
	case existing.Emoji == cmd.Emoji:
		err = h.store.DeleteReaction(ctx, msg.ID, user.Username)
	default:
		err = h.store.UpdateReactionEmoji(ctx, msg.ID, user.Username, cmd.Emoji)
	}
	if err != nil {
		return fmt.Errorf("toggle reaction: %w", err)
	}

	reactions, err := h.store.ListReactions(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("list reactions: %w", err)
	}
	h.bus.Broadcast(&Event{Kind: EventMessageReactions, MessageID: msg.ID, Reactions: reactions})
	return nil
}

func (h *Hub) handleDeleteMessage(ctx context.Context, user *store.User, cmd *Command) error {
	msg, err := h.store.GetMessage(ctx, cmd.MessageID)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if msg.Username != user.Username && !user.IsAdmin {
		return fmt.Errorf("delete message %s by %s: %w", msg.ID, user.Username, ErrUnauthorized)
	}

	if err := h.store.DeleteMessage(ctx, msg.ID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	h.bus.Broadcast(&Event{Kind: EventMessageDeleted, MessageID: msg.ID})
	h.log.Info().Str("message_id", msg.ID).Str("username", user.Username).Msg("message deleted")
	return nil
}

func (h *Hub) handleEditMessage(ctx context.Context, user *store.User, cmd *Command) error {
	msg, err := h.store.GetMessage(ctx, cmd.MessageID)
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	// Admins may delete other people's messages but never rewrite them.
	if msg.Username != user.Username {
		return fmt.Errorf("edit message %s by %s: %w", msg.ID, user.Username, ErrUnauthorized)
	}

	editedAt := h.now()
	if err := h.store.EditMessage(ctx, msg.ID, cmd.Content, editedAt); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}

	h.bus.Broadcast(&Event{Kind: EventMessageEdited, MessageID: msg.ID, Content: cmd.Content, EditedAt: &editedAt})
	return nil
}

func (h *Hub) handleUpdateStatus(ctx context.Context, user *store.User, cmd *Command) error {
	if err := h.store.UpdateUserStatus(ctx, user.Username, cmd.Status); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	h.presence.Update(user.Username, func(u *store.User) { u.Status = cmd.Status })

	h.bus.Broadcast(&Event{Kind: EventUserStatusUpdated, Username: user.Username, Status: cmd.Status})
	h.broadcastOnlineUsers()
	return nil
}

func (h *Hub) handleUpdateAvatar(ctx context.Context, user *store.User, cmd *Command) error {
	n, err := h.store.UpdateUserAvatar(ctx, user.Username, cmd.Avatar)
	if err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	h.presence.Update(user.Username, func(u *store.User) { u.Avatar = cmd.Avatar })
	h.log.Debug().Str("username", user.Username).Int64("messages", n).Msg("avatar cascaded")

	h.bus.Broadcast(&Event{Kind: EventUserUpdated, Username: user.Username, Avatar: cmd.Avatar})
	h.broadcastOnlineUsers()
	return nil
}

func (h *Hub) handleBan(ctx context.Context, c *Client, admin *store.User, cmd *Command) error {
	if !admin.IsAdmin {
		return fmt.Errorf("ban by %s: %w", admin.Username, ErrUnauthorized)
	}
	target := cmd.Target
	if store.IsAdminUsername(target) {
		return coreError(ErrCodeForbidden, "the administrator cannot be banned")
	}

	err := h.store.CreateBan(ctx, &store.Ban{Username: target, BannedBy: admin.Username, BannedAt: h.now()})
	if err != nil && !errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("create ban: %w", err)
	}
	if err := h.store.DeleteUser(ctx, target); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete banned user: %w", err)
	}

	notice := &Event{Kind: EventBanned, Username: target, Notice: banKickNotice}
	for _, connID := range h.presence.Connections(target) {
		h.presence.Unbind(connID)
		h.typing.Clear(connID)
		h.bus.Send(connID, notice)
		h.bus.Disconnect(connID)
	}

	h.bus.Broadcast(&Event{Kind: EventUserBanned, Username: target})
	h.broadcastOnlineUsers()
	h.broadcastTypingUsers()

	h.log.Info().Str("username", target).Str("by", admin.Username).Str("conn_id", c.ID).Msg("user banned")
	return nil
}

func (h *Hub) handleUnban(ctx context.Context, c *Client, admin *store.User, cmd *Command) error {
	if !admin.IsAdmin {
		return fmt.Errorf("unban by %s: %w", admin.Username, ErrUnauthorized)
	}
	if err := h.store.DeleteBan(ctx, cmd.Target); err != nil {
		return fmt.Errorf("delete ban: %w", err)
	}

	h.bus.Send(c.ID, &Event{Kind: EventUserUnbanned, Username: cmd.Target})
	h.log.Info().Str("username", cmd.Target).Str("by", admin.Username).Msg("user unbanned")
	return nil
}

func (h *Hub) handleListBans(ctx context.Context, c *Client, admin *store.User) error {
	if !admin.IsAdmin {
		return fmt.Errorf("list bans by %s: %w", admin.Username, ErrUnauthorized)
	}
	bans, err := h.store.ListBans(ctx)
	if err != nil {
		return fmt.Errorf("list bans: %w", err)
	}

	h.bus.Send(c.ID, &Event{Kind: EventBannedUsersList, Bans: bans})
	return nil
}

func (h *Hub) handleClearChat(ctx context.Context, admin *store.User) error {
	if !admin.IsAdmin {
		return fmt.Errorf("clear chat by %s: %w", admin.Username, ErrUnauthorized)
	}
	if err := h.store.DeleteAllMessages(ctx); err != nil {
		return fmt.Errorf("clear chat: %w", err)
	}

	h.bus.Broadcast(&Event{Kind: EventChatCleared})
	h.log.Info().Str("by", admin.Username).Msg("chat cleared")
	return nil
}

func uniqueNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
