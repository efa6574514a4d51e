package websocket

import (
	"sort"
	"sync"
)

// PresenceTracker maps each user to the set of their live connections. A user
// is online while at least one connection remains.
type PresenceTracker struct {
	mu    sync.RWMutex
	conns map[string]map[string]struct{} // user ID -> connection IDs
	owner map[string]string              // connection ID -> user ID
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		conns: make(map[string]map[string]struct{}),
		owner: make(map[string]string),
	}
}

// MarkOnline records connID for userID. It returns false if it was already recorded.
func (p *PresenceTracker) MarkOnline(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.owner[connID]; ok {
		if prev == userID {
			return false
		}
		p.removeLocked(connID)
	}

	set, ok := p.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		p.conns[userID] = set
	}
	set[connID] = struct{}{}
	p.owner[connID] = userID
	return true
}

// MarkOffline drops connID. It returns the owning user and false when the
// connection was unknown.
func (p *PresenceTracker) MarkOffline(connID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	userID, ok := p.owner[connID]
	if !ok {
		return "", false
	}
	p.removeLocked(connID)
	return userID, true
}

func (p *PresenceTracker) removeLocked(connID string) {
	userID := p.owner[connID]
	delete(p.owner, connID)
	if set, ok := p.conns[userID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(p.conns, userID)
		}
	}
}

// ListOnline returns the online user IDs, sorted.
func (p *PresenceTracker) ListOnline() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]string, 0, len(p.conns))
	for userID := range p.conns {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// Connections returns the user's live connection IDs, sorted.
func (p *PresenceTracker) Connections(userID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.conns[userID]))
	for id := range p.conns[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p *PresenceTracker) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.conns[userID]
	return ok
}
