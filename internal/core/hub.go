package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/lobbychat/internal/store"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultHistoryLimit = 100
	DefaultStatus       = "Available"
)

// Options tunes hub behaviour.
type Options struct {
	// HistoryLimit is how many recent messages a newly registered connection receives.
	HistoryLimit int
	// DefaultStatus is the status text given to new users.
	DefaultStatus string
	// Broadcaster replaces the in-process fan-out, mainly for tests.
	Broadcaster Broadcaster
	// Now replaces the clock, mainly for tests.
	Now func() time.Time
}

type inbound struct {
	client *Client
	cmd    *Command
}

// Hub owns presence, typing state and fan-out. All of it is mutated from the
// Run goroutine only, so each command runs to completion before the next one.
type Hub struct {
	store    store.Store
	bus      Broadcaster
	presence *Presence
	typing   *Typing
	log      *zerolog.Logger

	historyLimit  int
	defaultStatus string
	now           func() time.Time

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	done       chan struct{}
}

// NewHub creates a hub backed by st.
func NewHub(st store.Store, opts Options, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	h := &Hub{
		store:         st,
		bus:           opts.Broadcaster,
		presence:      NewPresence(),
		typing:        NewTyping(),
		log:           logger,
		historyLimit:  opts.HistoryLimit,
		defaultStatus: opts.DefaultStatus,
		now:           opts.Now,
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		inbound:       make(chan inbound),
		done:          make(chan struct{}),
	}
	if h.bus == nil {
		h.bus = NewFanout(logger)
	}
	if h.historyLimit <= 0 {
		h.historyLimit = DefaultHistoryLimit
	}
	if h.defaultStatus == "" {
		h.defaultStatus = DefaultStatus
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Run processes registrations, commands and disconnects until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.bus.Attach(c)
			go h.pump(ctx, c)
			h.log.Debug().Str("conn_id", c.ID).Msg("connection attached")
		case c := <-h.unregister:
			h.handleDisconnect(ctx, c)
			h.bus.Detach(c.ID)
			c.release()
		case in := <-h.inbound:
			h.dispatch(ctx, in.client, in.cmd)
		}
	}
}

// RegisterClient attaches a freshly connected client.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient runs the disconnect transition for c.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// pump forwards a client's commands into the hub loop.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			select {
			case h.inbound <- inbound{client: c, cmd: cmd}:
			case <-c.gone:
				return
			case <-ctx.Done():
				return
			}
		case <-c.gone:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) dispatch(ctx context.Context, c *Client, cmd *Command) {
	if cmd == nil {
		return
	}
	// A command can still be in flight when the disconnect has already been processed.
	if c.released() {
		h.log.Debug().Str("conn_id", c.ID).Int("command", int(cmd.Kind)).Msg("dropping command from closed connection")
		return
	}

	var err error
	if cmd.Kind == CommandRegister {
		err = h.handleRegister(ctx, c, cmd)
	} else {
		user, ok := h.presence.Lookup(c.ID)
		if !ok {
			h.log.Debug().Str("conn_id", c.ID).Int("command", int(cmd.Kind)).Msg("ignoring command from unregistered connection")
			return
		}
		err = h.handleBound(ctx, c, user, cmd)
	}
	if err != nil {
		h.fail(c, cmd, err)
	}
}

func (h *Hub) handleBound(ctx context.Context, c *Client, user *store.User, cmd *Command) error {
	switch cmd.Kind {
	case CommandSendMessage:
		return h.handleSendMessage(ctx, c, user, cmd)
	case CommandTyping:
		return h.handleTyping(c, user, cmd)
	case CommandReact:
		return h.handleReact(ctx, user, cmd)
	case CommandDeleteMessage:
		return h.handleDeleteMessage(ctx, user, cmd)
	case CommandEditMessage:
		return h.handleEditMessage(ctx, user, cmd)
	case CommandUpdateStatus:
		return h.handleUpdateStatus(ctx, user, cmd)
	case CommandUpdateAvatar:
		return h.handleUpdateAvatar(ctx, user, cmd)
	case CommandBanUser:
		return h.handleBan(ctx, c, user, cmd)
	case CommandUnbanUser:
		return h.handleUnban(ctx, c, user, cmd)
	case CommandListBans:
		return h.handleListBans(ctx, c, user)
	case CommandClearChat:
		return h.handleClearChat(ctx, user)
	default:
		return coreError(ErrCodeBadRequest, "unknown command")
	}
}

// fail is the handler boundary: missing records and missing rights are silent,
// domain errors go back to the sender, anything else is logged and reported generically.
func (h *Hub) fail(c *Client, cmd *Command, err error) {
	var ce *CoreError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ErrUnauthorized):
		h.log.Debug().Err(err).Str("conn_id", c.ID).Int("command", int(cmd.Kind)).Msg("command ignored")
	case errors.As(err, &ce):
		h.bus.Send(c.ID, &Event{Kind: EventError, Error: ce})
	default:
		h.log.Error().Err(err).Str("conn_id", c.ID).Int("command", int(cmd.Kind)).Msg("command failed")
		h.bus.Send(c.ID, &Event{Kind: EventError, Error: coreError(ErrCodeInternal, "internal error")})
	}
}

func (h *Hub) broadcastOnlineUsers() {
	h.bus.Broadcast(&Event{Kind: EventOnlineUsers, Users: h.presence.All()})
}

func (h *Hub) broadcastTypingUsers() {
	h.bus.Broadcast(&Event{Kind: EventTypingUsers, Typists: h.typing.Active()})
}
