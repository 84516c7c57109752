package stats

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/example/meetrelay/domain/call"
	"github.com/example/meetrelay/modules/relay"
	"github.com/go-monolith/mono"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardPeer struct{}

func (discardPeer) Send(call.Frame) error     { return nil }
func (discardPeer) Replay([]call.Frame) error { return nil }

func startApp(t *testing.T) (*relay.Relay, *Module) {
	t.Helper()
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(5*time.Second),
		mono.WithLogLevel(mono.LogLevelError),
		mono.WithLogFormat(mono.LogFormatText),
	)
	require.NoError(t, err)

	relayModule := relay.NewModule(relay.Config{}, &mockLogger{})
	statsModule := NewModule(&mockLogger{})
	r := relayModule.Relay()
	statsModule.SetActivity(func() (int, int) {
		s := r.Stats()
		return s.Rooms, s.Participants
	})

	app.Register(relayModule)
	app.Register(statsModule)
	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(ctx)
	})
	return r, statsModule
}

func TestApp_ActiveCountsFollowRelay(t *testing.T) {
	r, m := startApp(t)
	const cycles = 300

	for i := range cycles {
		id := r.Connect(discardPeer{})
		_, err := r.Join(id, "room-"+strconv.Itoa(i))
		require.NoError(t, err)
		r.Disconnect(id)
	}

	assert.Eventually(t, func() bool {
		s := m.collector.Snapshot()
		return s.SessionsCompleted == cycles && s.RoomsOpened == cycles
	}, 10*time.Second, 20*time.Millisecond)

	snap := m.collector.Snapshot()
	assert.Equal(t, 0, snap.ActiveRooms)
	assert.Equal(t, 0, snap.ActiveParticipants)

	// A room that stays open is reported while it is open.
	a := r.Connect(discardPeer{})
	b := r.Connect(discardPeer{})
	_, err := r.Join(a, "standup")
	require.NoError(t, err)
	_, err = r.Join(b, "standup")
	require.NoError(t, err)

	snap = m.collector.Snapshot()
	assert.Equal(t, 1, snap.ActiveRooms)
	assert.Equal(t, 2, snap.ActiveParticipants)
}
