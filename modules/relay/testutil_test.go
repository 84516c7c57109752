package relay

import (
	"sync"
	"time"

	"github.com/example/meetrelay/domain/call"
	"github.com/example/meetrelay/events"
	"github.com/go-monolith/mono/pkg/types"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)          {}
func (m *mockLogger) Info(msg string, args ...any)           {}
func (m *mockLogger) Warn(msg string, args ...any)           {}
func (m *mockLogger) Error(msg string, args ...any)          {}
func (m *mockLogger) With(args ...any) types.Logger          { return m }
func (m *mockLogger) WithError(err error) types.Logger       { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// fakePeer records every frame it is sent.
type fakePeer struct {
	mu     sync.Mutex
	frames []call.Frame
	err    error
}

func (p *fakePeer) Send(frame call.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.frames = append(p.frames, frame)
	return nil
}

func (p *fakePeer) Replay(frames []call.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.frames = append(p.frames, frames...)
	return nil
}

func (p *fakePeer) Frames() []call.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]call.Frame, len(p.frames))
	copy(out, p.frames)
	return out
}

// FramesOf returns the frames of one type.
func (p *fakePeer) FramesOf(frameType string) []call.Frame {
	var out []call.Frame
	for _, f := range p.Frames() {
		if f.Type == frameType {
			out = append(out, f)
		}
	}
	return out
}

func (p *fakePeer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = nil
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingNotifier captures relay events.
type recordingNotifier struct {
	mu      sync.Mutex
	opened  []events.RoomOpenedEvent
	closed  []events.RoomClosedEvent
	joined  []events.ParticipantJoinedEvent
	left    []events.ParticipantLeftEvent
	chatted []events.ChatPostedEvent
}

func (n *recordingNotifier) RoomOpened(e events.RoomOpenedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opened = append(n.opened, e)
}

func (n *recordingNotifier) RoomClosed(e events.RoomClosedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, e)
}

func (n *recordingNotifier) ParticipantJoined(e events.ParticipantJoinedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.joined = append(n.joined, e)
}

func (n *recordingNotifier) ParticipantLeft(e events.ParticipantLeftEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.left = append(n.left, e)
}

func (n *recordingNotifier) ChatPosted(e events.ChatPostedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.chatted = append(n.chatted, e)
}

func newTestRelay(cfg Config) (*Relay, *fakeClock) {
	clock := newFakeClock()
	r := New(cfg, &mockLogger{})
	r.now = clock.Now
	return r, clock
}

// connect registers a fake peer and drops its connected frame.
func connect(r *Relay) (string, *fakePeer) {
	peer := &fakePeer{}
	id := r.Connect(peer)
	peer.Reset()
	return id, peer
}
