package realtime

import (
	"sync"

	"linkup/internal/metrics"
)

// PresenceTracker refcounts live connections per user. A user with several
// tabs or devices stays online until the last connection closes; a single
// boolean would flip to offline as soon as any one of them did.
type PresenceTracker struct {
	mu    sync.Mutex
	conns map[uint64]int
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{conns: make(map[uint64]int)}
}

// Connect registers one more live connection for the user and reports
// whether this was the 0→1 transition.
func (p *PresenceTracker) Connect(userID uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.conns[userID]++
	if p.conns[userID] == 1 {
		metrics.OnlineUsers.Inc()
		return true
	}
	return false
}

// Disconnect drops one connection and reports whether this was the 1→0
// transition. Unknown users are a no-op.
func (p *PresenceTracker) Disconnect(userID uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.conns[userID]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(p.conns, userID)
		metrics.OnlineUsers.Dec()
		return true
	}
	p.conns[userID] = n - 1
	return false
}

func (p *PresenceTracker) Online(userID uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conns[userID] > 0
}

// OnlineUsers snapshots every user currently holding a connection.
func (p *PresenceTracker) OnlineUsers() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := make([]uint64, 0, len(p.conns))
	for id := range p.conns {
		users = append(users, id)
	}
	return users
}
