package gateway

import (
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/example/meetrelay/domain/call"
	"github.com/example/meetrelay/modules/relay"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// registerRoutes sets up all HTTP and WebSocket routes.
func (m *Module) registerRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)
	if m.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.metrics))
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.handleWebSocket))

	api := app.Group("/api/v1")
	api.Get("/rooms", m.listRooms)
	api.Get("/rooms/:key", m.getRoom)
	api.Get("/stats", m.getStats)
	api.Post("/meeting-codes", m.createMeetingCode)
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	s, err := m.rooms.Stats(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status:  "unhealthy",
			Details: map[string]any{"relay": err.Error()},
		})
	}
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"connections": s.Connections,
			"rooms":       s.Rooms,
		},
	})
}

// listRooms handles GET /api/v1/rooms.
func (m *Module) listRooms(c *fiber.Ctx) error {
	rooms, err := m.rooms.ListRooms(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to list rooms", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}
	if rooms == nil {
		rooms = []call.RoomSummary{}
	}
	return c.JSON(RoomListResponse{Rooms: rooms, Count: len(rooms)})
}

// getRoom handles GET /api/v1/rooms/:key. The key is path-escaped by the client.
func (m *Module) getRoom(c *fiber.Ctx) error {
	key, err := url.PathUnescape(c.Params("key"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Room key is not correctly escaped",
		})
	}

	room, err := m.rooms.GetRoom(c.UserContext(), key)
	if errors.Is(err, call.ErrRoomNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Room not found",
		})
	}
	if err != nil {
		m.logger.Error("Failed to get room", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "get_failed",
			Message: "Failed to get room",
		})
	}
	return c.JSON(room)
}

// getStats handles GET /api/v1/stats.
func (m *Module) getStats(c *fiber.Ctx) error {
	relayStats, err := m.rooms.Stats(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to get relay stats", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "stats_failed",
			Message: "Failed to get statistics",
		})
	}
	sessions, err := m.stats.SessionStats(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to get session stats", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "stats_failed",
			Message: "Failed to get statistics",
		})
	}
	return c.JSON(StatsResponse{Relay: relayStats, Sessions: sessions})
}

// createMeetingCode handles POST /api/v1/meeting-codes.
func (m *Module) createMeetingCode(c *fiber.Ctx) error {
	code := formatMeetingCode(m.newCode())
	return c.Status(fiber.StatusCreated).JSON(MeetingCodeResponse{
		Code: code,
		Path: "/meet/" + code,
	})
}

func formatMeetingCode(raw string) string {
	if len(raw) != meetingCodeLength {
		return raw
	}
	return raw[:3] + "-" + raw[3:7] + "-" + raw[7:]
}

// handleWebSocket handles WebSocket connections at /ws.
func (m *Module) handleWebSocket(c *websocket.Conn) {
	cl := newClient(c, m.opts, m.logger)
	cl.id = m.relay.Connect(cl)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cl.writeLoop()
	}()

	m.logger.Info("WebSocket connected", "connectionID", cl.id)

	m.readLoop(c, cl)

	dep := m.relay.Disconnect(cl.id)
	cl.close()
	<-done

	m.logger.Info("WebSocket disconnected",
		"connectionID", cl.id,
		"roomKey", dep.RoomKey,
		"session", dep.Session)
}

// readLoop reads client frames until the connection fails or goes quiet for
// two ping intervals.
func (m *Module) readLoop(c *websocket.Conn, cl *client) {
	c.SetReadLimit(m.readLimit())

	extend := func() {}
	if m.opts.PingInterval > 0 {
		deadline := 2 * m.opts.PingInterval
		extend = func() { _ = c.SetReadDeadline(time.Now().Add(deadline)) }
		c.SetPongHandler(func(string) error {
			extend()
			return nil
		})
	}
	extend()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Debug("WebSocket read error", "connectionID", cl.id, "error", err)
			}
			return
		}
		extend()
		m.dispatch(cl, data)
	}
}

func (m *Module) readLimit() int64 {
	l := m.opts.Limits
	return int64(l.MaxSignalBytes+2*(l.MaxMessageLength+l.MaxSenderLength)+l.MaxRoomKeyLength) + 1024
}

// dispatch routes one inbound frame.
func (m *Module) dispatch(cl *client, data []byte) {
	var in call.Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		m.reject(cl, "invalid message format")
		return
	}

	switch in.Type {
	case call.InboundJoinCall:
		m.handleJoinCall(cl, in.Payload)
	case call.InboundSignal:
		m.handleSignal(cl, in.Payload)
	case call.InboundChatMessage:
		m.handleChatMessage(cl, in.Payload)
	default:
		m.reject(cl, "unknown message type: "+in.Type)
	}
}

func (m *Module) handleJoinCall(cl *client, payload json.RawMessage) {
	var req call.JoinCallRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		m.reject(cl, "invalid join-call payload")
		return
	}
	if err := m.opts.Limits.ValidateRoomKey(req.Room); err != nil {
		m.reject(cl, err.Error())
		return
	}
	if _, err := m.relay.Join(cl.id, req.Room); err != nil {
		m.routingMiss(cl, call.InboundJoinCall, err)
	}
}

func (m *Module) handleSignal(cl *client, payload json.RawMessage) {
	var req call.SignalRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		m.reject(cl, "invalid signal payload")
		return
	}
	if err := m.opts.Limits.ValidateSignal(req); err != nil {
		m.reject(cl, err.Error())
		return
	}
	if err := m.relay.Signal(cl.id, req.To, req.Signal); err != nil {
		m.routingMiss(cl, call.InboundSignal, err)
	}
}

func (m *Module) handleChatMessage(cl *client, payload json.RawMessage) {
	var req call.ChatRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		m.reject(cl, "invalid chat-message payload")
		return
	}
	if err := m.opts.Limits.ValidateChat(req); err != nil {
		m.reject(cl, err.Error())
		return
	}
	if !cl.allowChat() {
		m.reject(cl, "rate limit exceeded")
		return
	}
	if err := m.relay.Chat(cl.id, req.Sender, req.Data); err != nil {
		m.routingMiss(cl, call.InboundChatMessage, err)
	}
}

// reject tells the sender its frame was not accepted.
func (m *Module) reject(cl *client, message string) {
	m.logger.Debug("Rejected client frame", "connectionID", cl.id, "reason", message)
	_ = cl.Send(call.NewErrorFrame(message))
}

// routingMiss logs a frame the relay could not route. The sender is not told.
func (m *Module) routingMiss(cl *client, frameType string, err error) {
	if relay.IsRoutingMiss(err) {
		m.logger.Debug("Frame not routed", "connectionID", cl.id, "type", frameType, "reason", err)
		return
	}
	m.logger.Warn("Frame handling failed", "connectionID", cl.id, "type", frameType, "error", err)
}
