package core

import "github.com/vovakirdan/lobbychat/internal/store"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandRegister binds the connection to a new or resumed identity.
	CommandRegister CommandKind = iota
	// CommandSendMessage posts a text or file message.
	CommandSendMessage
	// CommandTyping toggles the "is typing" indicator.
	CommandTyping
	// CommandReact toggles an emoji reaction on a message.
	CommandReact
	// CommandDeleteMessage removes a message (author or admin).
	CommandDeleteMessage
	// CommandEditMessage replaces a message's content (author only).
	CommandEditMessage
	// CommandUpdateStatus changes the sender's status text.
	CommandUpdateStatus
	// CommandUpdateAvatar changes the sender's avatar.
	CommandUpdateAvatar
	// CommandBanUser bans a username (admin only).
	CommandBanUser
	// CommandUnbanUser lifts a ban (admin only).
	CommandUnbanUser
	// CommandListBans requests the ban list (admin only).
	CommandListBans
	// CommandClearChat deletes every message (admin only).
	CommandClearChat
)

// Draft is the client-supplied part of a new message.
type Draft struct {
	Kind     store.MessageKind
	Content  string
	FileName string
	FileSize int64
	ReplyTo  string
	Mentions []string
}

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind

	// Register
	Username  string
	Avatar    string
	SessionID string

	Draft Draft

	Typing bool

	MessageID string
	Emoji     string
	Content   string

	Status string

	// Target is the username a moderation command applies to.
	Target string
}
