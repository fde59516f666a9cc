package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/lobbychat/internal/store"
)

// Status is the answer to a pre-connection identity check.
type Status string

const (
	StatusExisting  Status = "existing"
	StatusAvailable Status = "available"
	StatusTaken     Status = "taken"
	StatusBanned    Status = "banned"
)

// Lookup is the read-only slice of the store the check needs.
type Lookup interface {
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
	GetUserBySessionID(ctx context.Context, sessionID string) (*store.User, error)
	GetBan(ctx context.Context, username string) (*store.Ban, error)
}

// Result of Check. User is set only for StatusExisting.
type Result struct {
	Status Status
	User   *store.User
}

// Service answers whether a client may resume or claim an identity.
type Service struct {
	store Lookup
}

// New creates an identity service.
func New(st Lookup) *Service {
	return &Service{store: st}
}

// Check resolves sessionID first, then tests username availability.
func (s *Service) Check(ctx context.Context, username, sessionID string) (*Result, error) {
	if sessionID != "" {
		user, err := s.store.GetUserBySessionID(ctx, sessionID)
		switch {
		case err == nil:
			banned, err := s.banned(ctx, user.Username)
			if err != nil {
				return nil, err
			}
			if banned {
				return &Result{Status: StatusBanned}, nil
			}
			return &Result{Status: StatusExisting, User: user}, nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("lookup session: %w", err)
		}
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return &Result{Status: StatusAvailable}, nil
	}

	banned, err := s.banned(ctx, username)
	if err != nil {
		return nil, err
	}
	if banned {
		return &Result{Status: StatusBanned}, nil
	}

	_, err = s.store.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return &Result{Status: StatusTaken}, nil
	case errors.Is(err, store.ErrNotFound):
		return &Result{Status: StatusAvailable}, nil
	default:
		return nil, fmt.Errorf("lookup username: %w", err)
	}
}

func (s *Service) banned(ctx context.Context, username string) (bool, error) {
	_, err := s.store.GetBan(ctx, username)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("lookup ban: %w", err)
	}
}
