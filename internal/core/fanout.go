package core

import "github.com/rs/zerolog"

// Broadcaster delivers events to connections. Delivery is fire-and-forget.
type Broadcaster interface {
	// Attach makes a connection addressable.
	Attach(c *Client)
	// Detach forgets a connection.
	Detach(connID string)
	// Send delivers an event to one connection.
	Send(connID string, ev *Event)
	// Broadcast delivers an event to every attached connection.
	Broadcast(ev *Event)
	// Disconnect asks the transport to close a connection.
	Disconnect(connID string)
}

// Fanout is the in-process Broadcaster. It is owned by the hub goroutine.
type Fanout struct {
	clients map[string]*Client
	log     *zerolog.Logger
}

// NewFanout creates an empty fan-out.
func NewFanout(logger *zerolog.Logger) *Fanout {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Fanout{
		clients: make(map[string]*Client),
		log:     logger,
	}
}

// Attach makes c addressable by its ID.
func (f *Fanout) Attach(c *Client) {
	f.clients[c.ID] = c
}

// Detach forgets connID.
func (f *Fanout) Detach(connID string) {
	delete(f.clients, connID)
}

// Send delivers ev to connID if it is attached.
func (f *Fanout) Send(connID string, ev *Event) {
	if c, ok := f.clients[connID]; ok {
		f.deliver(c, ev)
	}
}

// Broadcast delivers ev to every attached client.
func (f *Fanout) Broadcast(ev *Event) {
	for _, c := range f.clients {
		f.deliver(c, ev)
	}
}

// Disconnect signals the transport of connID to close the socket.
func (f *Fanout) Disconnect(connID string) {
	if c, ok := f.clients[connID]; ok {
		c.kickOut()
	}
}

func (f *Fanout) deliver(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
		f.log.Warn().Str("conn_id", c.ID).Int("event", int(ev.Kind)).Msg("event dropped, client buffer full")
	}
}
