package utils

import "github.com/google/uuid"

// NewID returns a random connection identifier.
func NewID() string {
	return uuid.NewString()
}

// NewSessionID returns an opaque session token a client keeps to reclaim its identity.
func NewSessionID() string {
	return "session_" + uuid.NewString()
}
