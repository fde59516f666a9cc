package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an insert violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
)

// AdminUsername is the reserved administrator identity.
const AdminUsername = "admin"

// MessageKind distinguishes plain text from file attachments.
type MessageKind string

const (
	MessageKindText MessageKind = "text"
	MessageKindFile MessageKind = "file"
)

// User represents a chat participant.
type User struct {
	Username     string
	Avatar       string
	SessionID    string
	ConnectionID string // empty when offline
	IsAdmin      bool
	JoinedAt     time.Time
	LastSeen     time.Time
	Status       string
	MessageCount int64
}

// Message represents a persisted chat message.
type Message struct {
	ID            string
	Username      string
	Avatar        string // author avatar snapshot
	Kind          MessageKind
	Content       string
	FileName      string
	FileSize      int64
	ReplyTo       string
	Mentions      []string
	CreatedAt     time.Time
	AuthorIsAdmin bool
	Edited        bool
	EditedAt      *time.Time

	// Reactions is filled at read time and never stored with the message.
	Reactions []*Reaction
}

// Reaction is a single user's emoji on a message. At most one per (message, user).
type Reaction struct {
	MessageID string
	Username  string
	Emoji     string
	CreatedAt time.Time
}

// Ban marks a username as banned.
type Ban struct {
	Username string
	BannedBy string
	BannedAt time.Time
}

// IsAdminUsername reports whether username is the reserved administrator.
func IsAdminUsername(username string) bool {
	return username == AdminUsername
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser inserts a new user. Returns ErrConflict if the username exists.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserBySessionID retrieves a user by session token.
	GetUserBySessionID(ctx context.Context, sessionID string) (*User, error)

	// AttachConnection records the connection a user is currently bound to.
	AttachConnection(ctx context.Context, username, connID string, seen time.Time) error

	// DetachConnection stores last-seen and clears the connection id if it still equals connID.
	DetachConnection(ctx context.Context, username, connID string, seen time.Time) error

	// IncrementMessageCount bumps the user's message counter by one.
	IncrementMessageCount(ctx context.Context, username string) error

	// UpdateUserStatus replaces the free-text status.
	UpdateUserStatus(ctx context.Context, username, status string) error

	// UpdateUserAvatar replaces the avatar URI and the snapshot on every message by
	// username atomically. Returns the number of messages rewritten.
	UpdateUserAvatar(ctx context.Context, username, avatar string) (int64, error)

	// DeleteUser removes a user record.
	DeleteUser(ctx context.Context, username string) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and assigns its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id string) (*Message, error)

	// ListRecentMessages returns the newest limit messages in ascending timestamp order.
	ListRecentMessages(ctx context.Context, limit int) ([]*Message, error)

	// EditMessage replaces the content and marks the message as edited.
	EditMessage(ctx context.Context, id, content string, editedAt time.Time) error

	// DeleteMessage removes a message together with its reactions.
	DeleteMessage(ctx context.Context, id string) error

	// DeleteAllMessages removes every message and every reaction.
	DeleteAllMessages(ctx context.Context) error
}

// ReactionStore handles reaction persistence.
type ReactionStore interface {
	// GetReaction retrieves the reaction of username on a message.
	GetReaction(ctx context.Context, messageID, username string) (*Reaction, error)

	// AddReaction inserts a reaction. Returns ErrConflict if the user already reacted.
	AddReaction(ctx context.Context, r *Reaction) error

	// UpdateReactionEmoji swaps the emoji of an existing reaction in place.
	UpdateReactionEmoji(ctx context.Context, messageID, username, emoji string) error

	// DeleteReaction removes the reaction of username on a message.
	DeleteReaction(ctx context.Context, messageID, username string) error

	// ListReactions lists reactions on a message ordered by creation time.
	ListReactions(ctx context.Context, messageID string) ([]*Reaction, error)

	// ListReactionsFor groups reactions of several messages by message ID.
	ListReactionsFor(ctx context.Context, messageIDs []string) (map[string][]*Reaction, error)
}

// BanStore handles ban persistence.
type BanStore interface {
	// CreateBan inserts a ban record. Returns ErrConflict if one exists.
	CreateBan(ctx context.Context, ban *Ban) error

	// GetBan retrieves the ban record for username.
	GetBan(ctx context.Context, username string) (*Ban, error)

	// DeleteBan removes the ban record for username. Missing records are not an error.
	DeleteBan(ctx context.Context, username string) error

	// ListBans lists all ban records, oldest first.
	ListBans(ctx context.Context) ([]*Ban, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore
	ReactionStore
	BanStore

	// Close closes the underlying database connection.
	Close() error
}
