package core

import "sync"

const (
	commandBuffer = 16
	eventBuffer   = 128
)

// Client is one live connection as seen by the core layer.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	kick     chan struct{}
	kickOnce sync.Once
	gone     chan struct{}
	goneOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, commandBuffer),
		Events:   make(chan *Event, eventBuffer),
		kick:     make(chan struct{}),
		gone:     make(chan struct{}),
	}
}

// Kicked is closed when the server wants the connection terminated.
// Events queued before the kick should still be flushed to the peer.
func (c *Client) Kicked() <-chan struct{} {
	return c.kick
}

func (c *Client) kickOut() {
	c.kickOnce.Do(func() { close(c.kick) })
}

func (c *Client) release() {
	c.goneOnce.Do(func() { close(c.gone) })
}

// released reports whether the hub has already run the disconnect for c.
func (c *Client) released() bool {
	select {
	case <-c.gone:
		return true
	default:
		return false
	}
}
