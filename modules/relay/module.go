package relay

import (
	"context"
	"fmt"

	"github.com/example/meetrelay/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Module wires the Relay into the mono application. It publishes relay events
// on the EventBus and serves room queries over request/reply.
type Module struct {
	relay    *Relay
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ Notifier                   = (*Module)(nil)
)

// NewModule creates a new relay module.
func NewModule(cfg Config, logger types.Logger) *Module {
	m := &Module{
		relay:  New(cfg, logger),
		logger: logger,
	}
	m.relay.SetNotifier(m)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomOpenedV1.ToBase(),
		events.RoomClosedV1.ToBase(),
		events.ParticipantJoinedV1.ToBase(),
		events.ParticipantLeftV1.ToBase(),
		events.ChatPostedV1.ToBase(),
	}
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Relay module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	stats := m.relay.Stats()
	m.logger.Info("Relay module stopped",
		"connections", stats.Connections,
		"rooms", stats.Rooms,
		"framesDropped", stats.Dropped)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	stats := m.relay.Stats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connections":      stats.Connections,
			"rooms":            stats.Rooms,
			"frames_delivered": stats.Delivered,
			"frames_dropped":   stats.Dropped,
		},
	}
}

// Relay returns the relay for the gateway module.
func (m *Module) Relay() *Relay {
	return m.relay
}

// RoomOpened publishes a RoomOpened event.
func (m *Module) RoomOpened(event events.RoomOpenedEvent) {
	m.publish("RoomOpened", func(bus mono.EventBus) error {
		return events.RoomOpenedV1.Publish(bus, event, nil)
	})
}

// RoomClosed publishes a RoomClosed event.
func (m *Module) RoomClosed(event events.RoomClosedEvent) {
	m.publish("RoomClosed", func(bus mono.EventBus) error {
		return events.RoomClosedV1.Publish(bus, event, nil)
	})
}

// ParticipantJoined publishes a ParticipantJoined event.
func (m *Module) ParticipantJoined(event events.ParticipantJoinedEvent) {
	m.publish("ParticipantJoined", func(bus mono.EventBus) error {
		return events.ParticipantJoinedV1.Publish(bus, event, nil)
	})
}

// ParticipantLeft publishes a ParticipantLeft event.
func (m *Module) ParticipantLeft(event events.ParticipantLeftEvent) {
	m.publish("ParticipantLeft", func(bus mono.EventBus) error {
		return events.ParticipantLeftV1.Publish(bus, event, nil)
	})
}

// ChatPosted publishes a ChatPosted event.
func (m *Module) ChatPosted(event events.ChatPostedEvent) {
	m.publish("ChatPosted", func(bus mono.EventBus) error {
		return events.ChatPostedV1.Publish(bus, event, nil)
	})
}

func (m *Module) publish(name string, fn func(mono.EventBus) error) {
	if m.eventBus == nil {
		return
	}
	if err := fn(m.eventBus); err != nil {
		m.logger.Warn(fmt.Sprintf("Failed to publish %s event", name), "error", err)
	}
}
