package stats

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meetrelay"

// Snapshot is the aggregated call activity since start.
type Snapshot struct {
	ActiveRooms        int     `json:"active_rooms"`
	ActiveParticipants int     `json:"active_participants"`
	RoomsOpened        uint64  `json:"rooms_opened"`
	SessionsCompleted  uint64  `json:"sessions_completed"`
	ChatMessages       uint64  `json:"chat_messages"`
	ChatDeliveries     uint64  `json:"chat_deliveries"`
	TotalSessionMS     int64   `json:"total_session_ms"`
	AverageSessionMS   float64 `json:"average_session_ms"`
	LongestSessionMS   int64   `json:"longest_session_ms"`
}

// Activity reports how many rooms and participants are active right now.
type Activity func() (rooms, participants int)

// Collector aggregates relay events and mirrors them as Prometheus metrics.
//
// Events on different subjects may be handled out of order, so active counts
// come from an Activity source when one is set. Without one they are derived
// from the events and converge once every event has been handled.
type Collector struct {
	mu           sync.Mutex
	snapshot     Snapshot
	totalSession time.Duration
	longest      time.Duration
	activity     Activity

	registry       *prometheus.Registry
	roomsOpened    prometheus.Counter
	chatMessages   prometheus.Counter
	chatDeliveries prometheus.Counter
	sessionSeconds prometheus.Histogram
}

// NewCollector creates a Collector with its own Prometheus registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		roomsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_opened_total",
			Help:      "Rooms created by a first join.",
		}),
		chatMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages accepted into a room.",
		}),
		chatDeliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_deliveries_total",
			Help:      "Chat frames queued to room members.",
		}),
		sessionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Time between joining a call and disconnecting.",
			Buckets:   []float64{5, 30, 60, 300, 900, 1800, 3600, 7200},
		}),
	}
	rooms := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rooms_active",
		Help:      "Rooms with at least one member.",
	}, func() float64 {
		r, _ := c.active()
		return float64(r)
	})
	participants := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "participants_active",
		Help:      "Connections currently in a room.",
	}, func() float64 {
		_, p := c.active()
		return float64(p)
	})
	c.registry.MustRegister(
		rooms,
		participants,
		c.roomsOpened,
		c.chatMessages,
		c.chatDeliveries,
		c.sessionSeconds,
		collectors.NewGoCollector(),
	)
	return c
}

// RoomOpened records a new room.
func (c *Collector) RoomOpened() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.ActiveRooms++
	c.snapshot.RoomsOpened++
	c.roomsOpened.Inc()
}

// RoomClosed records a room teardown.
func (c *Collector) RoomClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.ActiveRooms--
}

// ParticipantJoined records a join.
func (c *Collector) ParticipantJoined() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.ActiveParticipants++
}

// ParticipantLeft records the end of a session.
func (c *Collector) ParticipantLeft(session time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.ActiveParticipants--
	c.snapshot.SessionsCompleted++
	c.totalSession += session
	if session > c.longest {
		c.longest = session
	}
	c.sessionSeconds.Observe(session.Seconds())
}

// ChatPosted records a chat message and how many members it was queued to.
func (c *Collector) ChatPosted(recipients int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.ChatMessages++
	c.snapshot.ChatDeliveries += uint64(recipients)
	c.chatMessages.Inc()
	c.chatDeliveries.Add(float64(recipients))
}

// SetActivity installs the source of the active room and participant counts.
func (c *Collector) SetActivity(fn Activity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activity = fn
}

// active returns the active room and participant counts.
func (c *Collector) active() (rooms, participants int) {
	c.mu.Lock()
	fn := c.activity
	rooms, participants = c.snapshot.ActiveRooms, c.snapshot.ActiveParticipants
	c.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return rooms, participants
}

// Snapshot returns the current aggregates.
func (c *Collector) Snapshot() Snapshot {
	rooms, participants := c.active()

	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.snapshot
	s.ActiveRooms = rooms
	s.ActiveParticipants = participants
	s.TotalSessionMS = c.totalSession.Milliseconds()
	s.LongestSessionMS = c.longest.Milliseconds()
	if s.SessionsCompleted > 0 {
		s.AverageSessionMS = float64(s.TotalSessionMS) / float64(s.SessionsCompleted)
	}
	return s
}

// Handler serves the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
