package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username      TEXT PRIMARY KEY,
	avatar        TEXT NOT NULL,
	session_id    TEXT NOT NULL UNIQUE,
	connection_id TEXT,
	is_admin      BOOLEAN NOT NULL DEFAULT 0,
	joined_at     DATETIME NOT NULL,
	last_seen     DATETIME NOT NULL,
	status        TEXT NOT NULL DEFAULT '',
	message_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	username        TEXT NOT NULL,
	avatar          TEXT NOT NULL DEFAULT '',
	kind            TEXT NOT NULL DEFAULT 'text',
	content         TEXT NOT NULL,
	file_name       TEXT NOT NULL DEFAULT '',
	file_size       INTEGER NOT NULL DEFAULT 0,
	reply_to        TEXT NOT NULL DEFAULT '',
	mentions        TEXT NOT NULL DEFAULT '[]',
	created_at      DATETIME NOT NULL,
	author_is_admin BOOLEAN NOT NULL DEFAULT 0,
	edited          BOOLEAN NOT NULL DEFAULT 0,
	edited_at       DATETIME
);

CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_username ON messages(username);

CREATE TABLE IF NOT EXISTS reactions (
	message_id TEXT NOT NULL,
	username   TEXT NOT NULL,
	emoji      TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (message_id, username)
);

CREATE TABLE IF NOT EXISTS bans (
	username  TEXT PRIMARY KEY,
	banned_by TEXT NOT NULL,
	banned_at DATETIME NOT NULL
);
`

// Migrate applies the schema. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
