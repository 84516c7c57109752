package relay

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/example/meetrelay/domain/call"
	"github.com/go-monolith/mono/pkg/types"
)

// Fanout delivers frames to room members. Each recipient is tried
// independently; a failed delivery is counted and never stops the others.
type Fanout struct {
	registry  *Registry
	directory *Directory
	logger    types.Logger

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewFanout creates a Fanout over the given registry and directory.
func NewFanout(registry *Registry, directory *Directory, logger types.Logger) *Fanout {
	return &Fanout{
		registry:  registry,
		directory: directory,
		logger:    logger,
	}
}

// NotifyJoin sends user-joined to every member of the roster, the joiner included.
func (f *Fanout) NotifyJoin(newID string, roster []string) int {
	frame := call.Frame{
		Type:    call.FrameUserJoined,
		Payload: call.UserJoinedPayload{ID: newID, Roster: roster},
	}
	return f.deliverAll(roster, frame)
}

// NotifyLeave sends user-left to the remaining members of key.
func (f *Fanout) NotifyLeave(key, leftID string, session time.Duration) int {
	members, ok := f.directory.Members(key)
	if !ok {
		return 0
	}
	frame := call.Frame{
		Type:    call.FrameUserLeft,
		Payload: call.UserLeftPayload{ID: leftID, DurationMS: session.Milliseconds()},
	}
	return f.deliverAll(members, frame)
}

// BroadcastChat sends msg to every member of key, the sender included.
func (f *Fanout) BroadcastChat(key string, msg call.ChatMessage) int {
	members, ok := f.directory.Members(key)
	if !ok {
		return 0
	}
	return f.deliverAll(members, call.NewChatFrame(msg))
}

// Send delivers a single frame to one connection.
func (f *Fanout) Send(id string, frame call.Frame) error {
	peer, ok := f.registry.Peer(id)
	if !ok {
		return call.ErrUnknownConnection
	}
	if err := peer.Send(frame); err != nil {
		f.dropped.Add(1)
		return err
	}
	f.delivered.Add(1)
	return nil
}

// Replay queues a joiner's chat backlog as one unit. The frames follow
// whatever was queued to id before and precede anything queued after.
func (f *Fanout) Replay(id string, frames []call.Frame) error {
	if len(frames) == 0 {
		return nil
	}
	peer, ok := f.registry.Peer(id)
	if !ok {
		return call.ErrUnknownConnection
	}
	if err := peer.Replay(frames); err != nil {
		f.dropped.Add(uint64(len(frames)))
		return err
	}
	f.delivered.Add(uint64(len(frames)))
	return nil
}

func (f *Fanout) deliverAll(ids []string, frame call.Frame) int {
	sent := 0
	for _, id := range ids {
		err := f.Send(id, frame)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, call.ErrPeerBacklogged):
			f.logger.Warn("Dropped frame for slow connection", "connectionID", id, "type", frame.Type)
		default:
			f.logger.Debug("Frame not delivered", "connectionID", id, "type", frame.Type, "error", err)
		}
	}
	return sent
}

// Delivered returns the number of frames queued successfully.
func (f *Fanout) Delivered() uint64 {
	return f.delivered.Load()
}

// Dropped returns the number of frames that could not be queued.
func (f *Fanout) Dropped() uint64 {
	return f.dropped.Load()
}
