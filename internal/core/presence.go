package core

import (
	"sort"

	"github.com/vovakirdan/lobbychat/internal/store"
)

// Presence maps live connections to the users bound to them.
// It is not synchronized: only the hub goroutine may touch it.
type Presence struct {
	byConn map[string]*store.User
}

// NewPresence returns an empty registry.
func NewPresence() *Presence {
	return &Presence{byConn: make(map[string]*store.User)}
}

// Bind associates connID with a snapshot of user, replacing any previous binding.
func (p *Presence) Bind(connID string, user *store.User) {
	snapshot := *user
	snapshot.ConnectionID = connID
	p.byConn[connID] = &snapshot
}

// Lookup returns a copy of the user bound to connID.
func (p *Presence) Lookup(connID string) (*store.User, bool) {
	u, ok := p.byConn[connID]
	if !ok {
		return nil, false
	}
	cp := *u
	return &cp, true
}

// Unbind drops the binding of connID. Unknown connections are ignored.
func (p *Presence) Unbind(connID string) {
	delete(p.byConn, connID)
}

// All returns copies of every bound user, ordered by username then connection.
func (p *Presence) All() []*store.User {
	users := make([]*store.User, 0, len(p.byConn))
	for _, u := range p.byConn {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Username != users[j].Username {
			return users[i].Username < users[j].Username
		}
		return users[i].ConnectionID < users[j].ConnectionID
	})
	return users
}

// Connections lists every connection bound to username.
func (p *Presence) Connections(username string) []string {
	var conns []string
	for connID, u := range p.byConn {
		if u.Username == username {
			conns = append(conns, connID)
		}
	}
	sort.Strings(conns)
	return conns
}

// Update applies fn to every snapshot of username.
func (p *Presence) Update(username string, fn func(*store.User)) {
	for _, u := range p.byConn {
		if u.Username == username {
			fn(u)
		}
	}
}

// Len returns the number of bound connections.
func (p *Presence) Len() int {
	return len(p.byConn)
}
