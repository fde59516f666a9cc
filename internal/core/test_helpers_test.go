package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/lobbychat/internal/store"
	"github.com/vovakirdan/lobbychat/internal/store/sqlite"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

const everyone = "*"

type delivery struct {
	to string
	ev *Event
}

// recorder is a Broadcaster that keeps every delivery for inspection.
type recorder struct {
	log    []delivery
	kicked []string
}

func (r *recorder) Attach(*Client) {}

func (r *recorder) Detach(string) {}

func (r *recorder) Send(connID string, ev *Event) {
	r.log = append(r.log, delivery{to: connID, ev: ev})
}

func (r *recorder) Broadcast(ev *Event) {
	r.log = append(r.log, delivery{to: everyone, ev: ev})
}

func (r *recorder) Disconnect(connID string) {
	r.kicked = append(r.kicked, connID)
}

func (r *recorder) reset() {
	r.log = nil
	r.kicked = nil
}

func (r *recorder) direct(connID string, kind EventKind) []*Event {
	var out []*Event
	for _, d := range r.log {
		if d.to == connID && d.ev.Kind == kind {
			out = append(out, d.ev)
		}
	}
	return out
}

func (r *recorder) broadcasts(kind EventKind) []*Event {
	return r.direct(everyone, kind)
}

// stepClock advances one second per reading so timestamps are strictly ordered.
type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	ctx   context.Context
	hub   *Hub
	bus   *recorder
	store *sqlite.SQLiteStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	clock := &stepClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	bus := &recorder{}
	hub := NewHub(st, Options{Broadcaster: bus, Now: clock.now}, nil)

	return &fixture{ctx: context.Background(), hub: hub, bus: bus, store: st}
}

func (f *fixture) do(c *Client, cmd *Command) {
	f.hub.dispatch(f.ctx, c, cmd)
}

// register binds a new connection as username and clears the recorded events.
func (f *fixture) register(t *testing.T, connID, username string) *Client {
	t.Helper()

	c := NewClient(connID)
	f.do(c, &Command{Kind: CommandRegister, Username: username})
	require.Len(t, f.bus.direct(connID, EventRegistered), 1, "registration of %s failed", username)
	f.bus.reset()
	return c
}

func (f *fixture) send(t *testing.T, c *Client, content string, mentions ...string) *store.Message {
	t.Helper()

	f.do(c, &Command{Kind: CommandSendMessage, Draft: Draft{Content: content, Mentions: mentions}})
	evs := f.bus.broadcasts(EventNewMessage)
	require.NotEmpty(t, evs)
	return evs[len(evs)-1].Message
}

// reconnect binds another connection to an existing user through its session token.
func (f *fixture) reconnect(t *testing.T, connID, username string) *Client {
	t.Helper()

	user, err := f.store.GetUserByUsername(f.ctx, username)
	require.NoError(t, err)

	c := NewClient(connID)
	f.do(c, &Command{Kind: CommandRegister, Username: username, SessionID: user.SessionID})
	require.Len(t, f.bus.direct(connID, EventRegistered), 1, "reconnect of %s failed", username)
	f.bus.reset()
	return c
}

var errDiskIO = errors.New("disk I/O error")

// faultyStore fails selected calls a set number of times before delegating.
type faultyStore struct {
	store.Store
	historyFailures int
	avatarFailures  int
}

func (s *faultyStore) ListRecentMessages(ctx context.Context, limit int) ([]*store.Message, error) {
	if s.historyFailures > 0 {
		s.historyFailures--
		return nil, errDiskIO
	}
	return s.Store.ListRecentMessages(ctx, limit)
}

func (s *faultyStore) UpdateUserAvatar(ctx context.Context, username, avatar string) (int64, error) {
	if s.avatarFailures > 0 {
		s.avatarFailures--
		return 0, errDiskIO
	}
	return s.Store.UpdateUserAvatar(ctx, username, avatar)
}

// faulty routes the hub through a faultyStore; f.store still reads the real data.
func (f *fixture) faulty() *faultyStore {
	fs := &faultyStore{Store: f.store}
	f.hub.store = fs
	return fs
}
