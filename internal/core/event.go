package core

import (
	"time"

	"github.com/vovakirdan/lobbychat/internal/store"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRegistered confirms registration to the new connection.
	EventRegistered EventKind = iota
	// EventUsernameTaken rejects a registration for an occupied username.
	EventUsernameTaken
	// EventBanned tells a connection it is banned; the connection is closed afterwards.
	EventBanned
	// EventMessageHistory delivers recent messages upon registration.
	EventMessageHistory
	// EventUserJoined announces a newly registered user.
	EventUserJoined
	// EventOnlineUsers carries the full online user list.
	EventOnlineUsers
	// EventNewMessage carries a freshly sent message.
	EventNewMessage
	// EventMentioned privately notifies a mentioned user.
	EventMentioned
	// EventTypingUsers carries the usernames currently typing.
	EventTypingUsers
	// EventMessageReactions carries the full reaction list of one message.
	EventMessageReactions
	// EventMessageDeleted announces a deleted message.
	EventMessageDeleted
	// EventMessageEdited announces edited message content.
	EventMessageEdited
	// EventUserStatusUpdated announces a status change.
	EventUserStatusUpdated
	// EventUserUpdated announces an avatar change.
	EventUserUpdated
	// EventUserBanned announces a ban.
	EventUserBanned
	// EventUserUnbanned confirms an unban to the admin.
	EventUserUnbanned
	// EventBannedUsersList delivers ban records to the admin.
	EventBannedUsersList
	// EventChatCleared announces that all messages were removed.
	EventChatCleared
	// EventUserLeft announces a disconnected user.
	EventUserLeft
	// EventError notifies a client about a failed request.
	EventError
)

// Event is sent to clients to describe what happened in the system.
// A broadcast shares one Event value between recipients; treat it as read-only.
type Event struct {
	Kind EventKind

	Username string
	Avatar   string
	Status   string
	By       string
	Notice   string

	User  *store.User
	Users []*store.User

	Message  *store.Message
	Messages []*store.Message

	MessageID string
	Content   string
	EditedAt  *time.Time
	Reactions []*store.Reaction

	Typists []string
	Bans    []*store.Ban

	Error *CoreError
}
