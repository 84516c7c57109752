package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/meetrelay/domain/call"
	"github.com/example/meetrelay/events"
	"github.com/go-monolith/mono/pkg/types"
)

// Notifier observes state changes of the relay. Calls are made after the
// relay lock is released.
type Notifier interface {
	RoomOpened(events.RoomOpenedEvent)
	RoomClosed(events.RoomClosedEvent)
	ParticipantJoined(events.ParticipantJoinedEvent)
	ParticipantLeft(events.ParticipantLeftEvent)
	ChatPosted(events.ChatPostedEvent)
}

// Config configures a Relay.
type Config struct {
	// HistoryLimit caps the chat log kept per room. Zero keeps everything.
	HistoryLimit int
}

// Departure describes what a disconnect did.
type Departure struct {
	RoomKey    string
	Session    time.Duration
	Joined     bool
	Remaining  int
	RoomClosed bool
}

// Stats is a point-in-time view of the relay.
type Stats struct {
	Connections  int    `json:"connections"`
	Participants int    `json:"participants"`
	Rooms        int    `json:"rooms"`
	Delivered    uint64 `json:"frames_delivered"`
	Dropped      uint64 `json:"frames_dropped"`
}

// Relay owns the registry, directory and history and serializes every
// operation on them. Frames are queued on peers while the lock is held, so
// each recipient observes events in the order the relay applied them.
type Relay struct {
	mu        sync.Mutex
	registry  *Registry
	directory *Directory
	history   *History
	fanout    *Fanout

	notifier Notifier
	logger   types.Logger
	now      func() time.Time
}

// New creates a Relay.
func New(cfg Config, logger types.Logger) *Relay {
	registry := NewRegistry()
	directory := NewDirectory()
	return &Relay{
		registry:  registry,
		directory: directory,
		history:   NewHistory(cfg.HistoryLimit),
		fanout:    NewFanout(registry, directory, logger),
		notifier:  nopNotifier{},
		logger:    logger,
		now:       time.Now,
	}
}

// SetNotifier installs the observer of relay events. Nil removes it.
func (r *Relay) SetNotifier(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n == nil {
		n = nopNotifier{}
	}
	r.notifier = n
}

// Connect registers a new connection and sends it its id.
func (r *Relay) Connect(peer Peer) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.registry.Register(peer, r.now())
	if err := r.fanout.Send(id, call.Frame{
		Type:    call.FrameConnected,
		Payload: call.ConnectedPayload{ID: id},
	}); err != nil {
		r.logger.Debug("Connected frame not delivered", "connectionID", id, "error", err)
	}
	return id
}

// Join puts the connection into the room under key, tells every member about
// it and replays the room's chat log to the joiner. It returns the roster.
//
// A connection that is already in a room stays there; Join then returns that
// room's roster with call.ErrAlreadyJoined and sends nothing.
func (r *Relay) Join(id, key string) ([]string, error) {
	r.mu.Lock()

	if _, ok := r.registry.Peer(id); !ok {
		r.mu.Unlock()
		return nil, call.ErrUnknownConnection
	}

	now := r.now()
	roster, created, err := r.directory.Join(key, id, now)
	if err != nil {
		r.mu.Unlock()
		return roster, err
	}
	r.registry.MarkJoined(id, now)

	r.fanout.NotifyJoin(id, roster)
	var backlog []call.Frame
	for msg := range r.history.Replay(key) {
		backlog = append(backlog, call.NewChatFrame(msg))
	}
	replayed := len(backlog)
	if err := r.fanout.Replay(id, backlog); err != nil {
		r.logger.Debug("Replay not delivered", "connectionID", id, "error", err)
		replayed = 0
	}
	notifier := r.notifier
	r.mu.Unlock()

	r.logger.Info("Participant joined", "connectionID", id, "roomKey", key, "roster", len(roster), "replayed", replayed)

	if created {
		notifier.RoomOpened(events.RoomOpenedEvent{RoomKey: key, Timestamp: now})
	}
	notifier.ParticipantJoined(events.ParticipantJoinedEvent{
		RoomKey:      key,
		ConnectionID: id,
		RosterSize:   len(roster),
		Timestamp:    now,
	})
	return roster, nil
}

// Signal forwards payload from one connection to another, unmodified.
// An unknown recipient yields call.ErrUnknownConnection and nothing is sent.
func (r *Relay) Signal(fromID, toID string, payload json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.fanout.Send(toID, call.Frame{
		Type:    call.FrameSignal,
		Payload: call.SignalPayload{From: fromID, Signal: payload},
	})
	if err != nil {
		return fmt.Errorf("signal to %s: %w", toID, err)
	}
	return nil
}

// Chat appends a message to the sender's room and broadcasts it to every
// member, the sender included. A connection in no room yields call.ErrNotInRoom.
func (r *Relay) Chat(id, sender, data string) error {
	r.mu.Lock()

	key, ok := r.directory.RoomOf(id)
	if !ok {
		r.mu.Unlock()
		return call.ErrNotInRoom
	}

	msg := call.ChatMessage{Sender: sender, Data: data, SenderConnectionID: id}
	r.history.Append(key, msg)
	recipients := r.fanout.BroadcastChat(key, msg)
	notifier := r.notifier
	now := r.now()
	r.mu.Unlock()

	notifier.ChatPosted(events.ChatPostedEvent{
		RoomKey:      key,
		ConnectionID: id,
		Recipients:   recipients,
		Timestamp:    now,
	})
	return nil
}

// Disconnect tears a connection down: it measures the session, leaves the
// room, tells the remaining members, drops the room's history once the room
// is empty and forgets the connection. Unknown ids are a no-op.
func (r *Relay) Disconnect(id string) Departure {
	r.mu.Lock()

	now := r.now()
	session, timed := r.registry.TimeSince(id, now)
	key, remaining, inRoom := r.directory.Leave(id)

	dep := Departure{RoomKey: key, Session: session, Joined: inRoom, Remaining: len(remaining)}
	messages := 0
	if inRoom {
		if len(remaining) > 0 {
			r.fanout.NotifyLeave(key, id, session)
		} else {
			messages = r.history.Len(key)
			r.history.Drop(key)
			dep.RoomClosed = true
		}
	}
	r.registry.Unregister(id)
	notifier := r.notifier
	r.mu.Unlock()

	if !inRoom {
		r.logger.Debug("Connection closed before joining", "connectionID", id)
		return dep
	}
	if !timed {
		r.logger.Warn("Session start unknown", "connectionID", id)
	}

	r.logger.Info("Participant left", "connectionID", id, "roomKey", key, "session", session, "remaining", len(remaining))
	notifier.ParticipantLeft(events.ParticipantLeftEvent{
		RoomKey:      key,
		ConnectionID: id,
		Session:      session,
		Remaining:    len(remaining),
		Timestamp:    now,
	})
	if dep.RoomClosed {
		notifier.RoomClosed(events.RoomClosedEvent{RoomKey: key, Messages: messages, Timestamp: now})
	}
	return dep
}

// Rooms returns a summary of every open room, ordered by key.
func (r *Relay) Rooms() []call.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := r.directory.Keys()
	rooms := make([]call.RoomSummary, 0, len(keys))
	for _, key := range keys {
		rooms = append(rooms, r.summary(key))
	}
	return rooms
}

// Room returns the summary of one room.
func (r *Relay) Room(key string) (call.RoomSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.directory.Members(key); !ok {
		return call.RoomSummary{}, call.ErrRoomNotFound
	}
	return r.summary(key), nil
}

func (r *Relay) summary(key string) call.RoomSummary {
	members, _ := r.directory.Members(key)
	createdAt, _ := r.directory.CreatedAt(key)
	return call.RoomSummary{
		Key:          key,
		Members:      members,
		MessageCount: r.history.Len(key),
		CreatedAt:    createdAt,
	}
}

// Stats returns connection, participant, room and delivery counters.
func (r *Relay) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Connections:  r.registry.Len(),
		Participants: r.directory.Participants(),
		Rooms:        r.directory.Len(),
		Delivered:    r.fanout.Delivered(),
		Dropped:      r.fanout.Dropped(),
	}
}

// IsRoutingMiss reports whether err is one of the silent routing outcomes.
func IsRoutingMiss(err error) bool {
	return errors.Is(err, call.ErrUnknownConnection) ||
		errors.Is(err, call.ErrNotInRoom) ||
		errors.Is(err, call.ErrAlreadyJoined) ||
		errors.Is(err, call.ErrPeerGone) ||
		errors.Is(err, call.ErrPeerBacklogged)
}

type nopNotifier struct{}

func (nopNotifier) RoomOpened(events.RoomOpenedEvent)               {}
func (nopNotifier) RoomClosed(events.RoomClosedEvent)               {}
func (nopNotifier) ParticipantJoined(events.ParticipantJoinedEvent) {}
func (nopNotifier) ParticipantLeft(events.ParticipantLeftEvent)     {}
func (nopNotifier) ChatPosted(events.ChatPostedEvent)               {}
