package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/example/meetrelay/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// ServiceSessionStats is the request/reply service returning a Snapshot.
const ServiceSessionStats = "session-stats"

// SessionStatsRequest is the request for session-stats.
type SessionStatsRequest struct{}

// Module consumes relay events and keeps call statistics.
type Module struct {
	collector *Collector
	logger    types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new stats module.
func NewModule(logger types.Logger) *Module {
	return &Module{
		collector: NewCollector(),
		logger:    logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "stats"
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Stats module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	s := m.collector.Snapshot()
	m.logger.Info("Stats module stopped",
		"sessions", s.SessionsCompleted,
		"chatMessages", s.ChatMessages,
		"averageSessionMS", s.AverageSessionMS)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	s := m.collector.Snapshot()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"active_rooms":        s.ActiveRooms,
			"active_participants": s.ActiveParticipants,
		},
	}
}

// SetActivity sets the source of the active room and participant counts
// (called from main.go).
func (m *Module) SetActivity(fn Activity) {
	m.collector.SetActivity(fn)
}

// MetricsHandler returns the Prometheus handler for the gateway.
func (m *Module) MetricsHandler() http.Handler {
	return m.collector.Handler()
}

// RegisterEventConsumers subscribes to relay events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomOpenedV1, m.handleRoomOpened, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomOpened consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomClosedV1, m.handleRoomClosed, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomClosed consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ParticipantJoinedV1, m.handleParticipantJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register ParticipantJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ParticipantLeftV1, m.handleParticipantLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register ParticipantLeft consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ChatPostedV1, m.handleChatPosted, m,
	); err != nil {
		return fmt.Errorf("failed to register ChatPosted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", []string{"RoomOpened", "RoomClosed", "ParticipantJoined", "ParticipantLeft", "ChatPosted"})
	return nil
}

// RegisterServices registers the session-stats service.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSessionStats, json.Unmarshal, json.Marshal, m.sessionStats,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSessionStats, err)
	}
	return nil
}

func (m *Module) sessionStats(_ context.Context, _ SessionStatsRequest, _ *mono.Msg) (Snapshot, error) {
	return m.collector.Snapshot(), nil
}

func (m *Module) handleRoomOpened(_ context.Context, event events.RoomOpenedEvent, _ *mono.Msg) error {
	m.collector.RoomOpened()
	m.logger.Debug("Room opened", "roomKey", event.RoomKey)
	return nil
}

func (m *Module) handleRoomClosed(_ context.Context, event events.RoomClosedEvent, _ *mono.Msg) error {
	m.collector.RoomClosed()
	m.logger.Debug("Room closed", "roomKey", event.RoomKey, "messages", event.Messages)
	return nil
}

func (m *Module) handleParticipantJoined(_ context.Context, event events.ParticipantJoinedEvent, _ *mono.Msg) error {
	m.collector.ParticipantJoined()
	m.logger.Debug("Participant joined", "roomKey", event.RoomKey, "connectionID", event.ConnectionID)
	return nil
}

func (m *Module) handleParticipantLeft(_ context.Context, event events.ParticipantLeftEvent, _ *mono.Msg) error {
	m.collector.ParticipantLeft(event.Session)
	m.logger.Debug("Participant left", "roomKey", event.RoomKey, "connectionID", event.ConnectionID, "session", event.Session)
	return nil
}

func (m *Module) handleChatPosted(_ context.Context, event events.ChatPostedEvent, _ *mono.Msg) error {
	m.collector.ChatPosted(event.Recipients)
	return nil
}
