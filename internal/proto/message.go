package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeRegister       = "register"
	InboundTypeSendMessage    = "send-message"
	InboundTypeTyping         = "typing"
	InboundTypeReactMessage   = "react-message"
	InboundTypeDeleteMessage  = "delete-message"
	InboundTypeEditMessage    = "edit-message"
	InboundTypeUpdateStatus   = "update-status"
	InboundTypeUpdateAvatar   = "update-avatar"
	InboundTypeBanUser        = "ban-user"
	InboundTypeUnbanUser      = "unban-user"
	InboundTypeGetBannedUsers = "get-banned-users"
	InboundTypeClearChat      = "clear-chat"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Server event names.
const (
	EventRegistered        = "registered"
	EventUsernameTaken     = "username-taken"
	EventBanned            = "banned"
	EventMessageHistory    = "message-history"
	EventUserJoined        = "user-joined"
	EventOnlineUsers       = "online-users"
	EventNewMessage        = "new-message"
	EventMentioned         = "mentioned"
	EventTypingUsers       = "typing-users"
	EventMessageReactions  = "message-reactions"
	EventMessageDeleted    = "message-deleted"
	EventMessageEdited     = "message-edited"
	EventUserStatusUpdated = "user-status-updated"
	EventUserUpdated       = "user-updated"
	EventUserBanned        = "user-banned"
	EventUserUnbanned      = "user-unbanned"
	EventBannedUsersList   = "banned-users-list"
	EventChatCleared       = "chat-cleared"
	EventUserLeft          = "user-left"
)

// RegisterData introduces the client. SessionID reclaims an earlier identity.
type RegisterData struct {
	Username  string `json:"username"`
	Avatar    string `json:"avatar,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// SendMessageData is a chat message from the client.
type SendMessageData struct {
	Type     string   `json:"type"`
	Content  string   `json:"content"`
	FileName string   `json:"fileName,omitempty"`
	FileSize int64    `json:"fileSize,omitempty"`
	ReplyTo  string   `json:"replyTo,omitempty"`
	Mentions []string `json:"mentions,omitempty"`
}

// MessageRef points at one message.
type MessageRef struct {
	MessageID string `json:"messageId"`
}

// ReactData toggles an emoji on a message.
type ReactData struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

// EditData replaces a message's content.
type EditData struct {
	MessageID  string `json:"messageId"`
	NewContent string `json:"newContent"`
}

type StatusData struct {
	Status string `json:"status"`
}

type AvatarData struct {
	Avatar string `json:"avatar"`
}

// TargetData names the user a moderation command applies to.
type TargetData struct {
	Username string `json:"username"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// User is the public view of a user. SessionID is only filled for its owner.
type User struct {
	Username     string    `json:"username"`
	Avatar       string    `json:"avatar"`
	SessionID    string    `json:"sessionId,omitempty"`
	IsAdmin      bool      `json:"isAdmin"`
	JoinedAt     time.Time `json:"joinedAt"`
	LastSeen     time.Time `json:"lastSeen"`
	Status       string    `json:"status"`
	MessageCount int64     `json:"messageCount"`
}

// Message is a stored chat message with its reactions.
type Message struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Avatar    string     `json:"avatar"`
	Type      string     `json:"type"`
	Content   string     `json:"content"`
	FileName  string     `json:"fileName,omitempty"`
	FileSize  int64      `json:"fileSize,omitempty"`
	ReplyTo   string     `json:"replyTo,omitempty"`
	Mentions  []string   `json:"mentions"`
	Timestamp time.Time  `json:"timestamp"`
	IsAdmin   bool       `json:"isAdmin"`
	Edited    bool       `json:"edited"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
	Reactions []Reaction `json:"reactions"`
}

type Reaction struct {
	MessageID string    `json:"messageId"`
	Username  string    `json:"username"`
	Emoji     string    `json:"emoji"`
	Timestamp time.Time `json:"timestamp"`
}

type Ban struct {
	Username string    `json:"username"`
	BannedBy string    `json:"bannedBy"`
	BannedAt time.Time `json:"bannedAt"`
}

// EventUser carries a username and, depending on the event, an avatar or status.
type EventUser struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Status   string `json:"status,omitempty"`
}

// EventNotice is sent with username-taken and banned.
type EventNotice struct {
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
}

type MentionedData struct {
	By      string  `json:"by"`
	Message Message `json:"message"`
}

type EventReactions struct {
	MessageID string     `json:"messageId"`
	Reactions []Reaction `json:"reactions"`
}

type EventMessageRef struct {
	MessageID string `json:"messageId"`
}

type MessageEditedData struct {
	MessageID  string     `json:"messageId"`
	NewContent string     `json:"newContent"`
	EditedAt   *time.Time `json:"editedAt,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
