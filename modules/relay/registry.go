package relay

import (
	"time"

	"github.com/example/meetrelay/domain/call"
	"github.com/google/uuid"
)

// Peer is the outbound side of a live connection. Neither method may block:
// each either queues its frames or reports why it could not.
type Peer interface {
	Send(frame call.Frame) error
	// Replay queues a room's chat backlog in order. The backlog is sized by
	// the room's history, so it is not held to the peer's live backlog limit.
	Replay(frames []call.Frame) error
}

type connection struct {
	id           string
	peer         Peer
	registeredAt time.Time
	joinedAt     time.Time
}

// Registry tracks live connections. It is not safe for concurrent use;
// the Relay serializes access.
type Registry struct {
	conns map[string]*connection
	newID func() string
}

// NewRegistry creates an empty registry that assigns UUIDs.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connection),
		newID: func() string { return uuid.New().String() },
	}
}

// Register records a new connection and returns its id.
func (r *Registry) Register(peer Peer, now time.Time) string {
	id := r.newID()
	for r.conns[id] != nil {
		id = r.newID()
	}
	r.conns[id] = &connection{id: id, peer: peer, registeredAt: now}
	return id
}

// MarkJoined records the first join time of a connection. Later calls keep the original time.
func (r *Registry) MarkJoined(id string, now time.Time) bool {
	conn, ok := r.conns[id]
	if !ok {
		return false
	}
	if conn.joinedAt.IsZero() {
		conn.joinedAt = now
	}
	return true
}

// TimeSince returns how long the connection has been in a call.
// ok is false for unknown connections and for connections that never joined.
func (r *Registry) TimeSince(id string, now time.Time) (time.Duration, bool) {
	conn, ok := r.conns[id]
	if !ok || conn.joinedAt.IsZero() {
		return 0, false
	}
	d := now.Sub(conn.joinedAt)
	if d < 0 {
		d = -d
	}
	return d, true
}

// Peer returns the outbound side of a connection.
func (r *Registry) Peer(id string) (Peer, bool) {
	conn, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return conn.peer, true
}

// Unregister removes a connection. Unknown ids are ignored.
func (r *Registry) Unregister(id string) {
	delete(r.conns, id)
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	return len(r.conns)
}
