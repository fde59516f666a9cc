package core

import "sort"

// Typing tracks which connections are composing a message.
type Typing struct {
	byConn map[string]string
}

// NewTyping returns an empty registry.
func NewTyping() *Typing {
	return &Typing{byConn: make(map[string]string)}
}

// Set marks connID as typing on behalf of username.
func (t *Typing) Set(connID, username string) {
	t.byConn[connID] = username
}

// Clear removes connID. Reports whether it was typing.
func (t *Typing) Clear(connID string) bool {
	if _, ok := t.byConn[connID]; !ok {
		return false
	}
	delete(t.byConn, connID)
	return true
}

// Active returns the distinct usernames currently typing, sorted.
func (t *Typing) Active() []string {
	seen := make(map[string]struct{}, len(t.byConn))
	names := make([]string, 0, len(t.byConn))
	for _, name := range t.byConn {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
