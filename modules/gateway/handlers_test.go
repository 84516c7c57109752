package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/example/meetrelay/domain/call"
	"github.com/example/meetrelay/modules/relay"
	"github.com/example/meetrelay/modules/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRooms struct {
	rooms []call.RoomSummary
	stats relay.Stats
	err   error
}

func (f *fakeRooms) ListRooms(context.Context) ([]call.RoomSummary, error) {
	return f.rooms, f.err
}

func (f *fakeRooms) GetRoom(_ context.Context, key string) (call.RoomSummary, error) {
	if f.err != nil {
		return call.RoomSummary{}, f.err
	}
	for _, r := range f.rooms {
		if r.Key == key {
			return r, nil
		}
	}
	return call.RoomSummary{}, call.ErrRoomNotFound
}

func (f *fakeRooms) Stats(context.Context) (relay.Stats, error) {
	return f.stats, f.err
}

type fakeStats struct {
	snapshot stats.Snapshot
	err      error
}

func (f *fakeStats) SessionStats(context.Context) (stats.Snapshot, error) {
	return f.snapshot, f.err
}

func newTestModule(t *testing.T, rooms *fakeRooms, sessions *fakeStats) *Module {
	t.Helper()
	m, err := NewModule(testOptions(), &mockLogger{})
	require.NoError(t, err)
	m.rooms = rooms
	m.stats = sessions
	m.SetMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "meetrelay_rooms_active 1\n")
	}))
	return m
}

func TestHandlers_HTTP(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rooms := &fakeRooms{
		rooms: []call.RoomSummary{
			{Key: "http://localhost:5173/meet/abc", Members: []string{"a", "b"}, MessageCount: 2, CreatedAt: created},
			{Key: "plain", Members: []string{"c"}, CreatedAt: created},
		},
		stats: relay.Stats{Connections: 3, Rooms: 2},
	}
	sessions := &fakeStats{snapshot: stats.Snapshot{SessionsCompleted: 7}}
	app := newTestModule(t, rooms, sessions).newApp()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"health", "GET", "/health", 200, `"status":"healthy"`},
		{"list rooms", "GET", "/api/v1/rooms", 200, `"count":2`},
		{"get plain room", "GET", "/api/v1/rooms/plain", 200, `"members":["c"]`},
		{"get escaped url room", "GET", "/api/v1/rooms/http%3A%2F%2Flocalhost%3A5173%2Fmeet%2Fabc", 200, `"message_count":2`},
		{"missing room", "GET", "/api/v1/rooms/nope", 404, `"error":"not_found"`},
		{"stats", "GET", "/api/v1/stats", 200, `"sessions_completed":7`},
		{"metrics", "GET", "/metrics", 200, "meetrelay_rooms_active 1"},
		{"ws without upgrade", "GET", "/ws", 426, `"error":"server_error"`},
		{"unknown route", "GET", "/nope", 404, `"error":"server_error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, string(body))
			assert.Contains(t, string(body), tt.wantBody)
		})
	}
}

func TestHandlers_BackendFailures(t *testing.T) {
	failure := errors.New("nats: timeout")
	app := newTestModule(t, &fakeRooms{err: failure}, &fakeStats{err: failure}).newApp()

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/health", 503},
		{"/api/v1/rooms", 500},
		{"/api/v1/rooms/abc", 500},
		{"/api/v1/stats", 500},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestHandlers_EmptyRoomList(t *testing.T) {
	app := newTestModule(t, &fakeRooms{}, &fakeStats{}).newApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/rooms", nil))
	require.NoError(t, err)

	var body RoomListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotNil(t, body.Rooms)
	assert.Equal(t, 0, body.Count)
}

func TestHandlers_MeetingCodes(t *testing.T) {
	app := newTestModule(t, &fakeRooms{}, &fakeStats{}).newApp()
	pattern := regexp.MustCompile(`^[a-z]{3}-[a-z]{4}-[a-z]{3}$`)

	seen := make(map[string]bool)
	for range 20 {
		resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/meeting-codes", nil))
		require.NoError(t, err)
		require.Equal(t, 201, resp.StatusCode)

		var body MeetingCodeResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Regexp(t, pattern, body.Code)
		assert.Equal(t, "/meet/"+body.Code, body.Path)
		assert.False(t, seen[body.Code])
		seen[body.Code] = true
	}
}

func TestFormatMeetingCode(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"abcdefghjk", "abc-defg-hjk"},
		{"short", "short"},
	}
	for _, tt := range tests {
		if got := formatMeetingCode(tt.raw); got != tt.want {
			t.Errorf("formatMeetingCode(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestModule_StartRequiresDependencies(t *testing.T) {
	m, err := NewModule(testOptions(), &mockLogger{})
	require.NoError(t, err)

	assert.Equal(t, "gateway", m.Name())
	assert.Equal(t, []string{"relay", "stats"}, m.Dependencies())
	assert.Error(t, m.Start(context.Background()))
	assert.False(t, m.Health(context.Background()).Healthy)
	assert.NoError(t, m.Stop(context.Background()))
}
