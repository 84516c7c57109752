package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/meetrelay/domain/call"
	"github.com/example/meetrelay/modules/relay"
	"github.com/example/meetrelay/modules/stats"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	nanoid "github.com/jaevor/go-nanoid"
)

// CallRelay is the part of the relay the websocket endpoint drives.
type CallRelay interface {
	Connect(peer relay.Peer) string
	Join(id, key string) ([]string, error)
	Signal(fromID, toID string, payload json.RawMessage) error
	Chat(id, sender, data string) error
	Disconnect(id string) relay.Departure
}

// Options configures the gateway.
type Options struct {
	Port               string
	CORSAllowedOrigins string
	Limits             call.Limits
	OutboxSize         int
	ChatRatePerSec     float64
	ChatBurst          int
	PingInterval       time.Duration
	WriteTimeout       time.Duration
}

// Module serves the HTTP API and the websocket endpoint.
type Module struct {
	app     *fiber.App
	opts    Options
	relay   CallRelay
	rooms   relay.RoomPort
	stats   stats.StatsPort
	metrics http.Handler
	newCode func() string
	logger  types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new gateway module.
func NewModule(opts Options, logger types.Logger) (*Module, error) {
	gen, err := nanoid.CustomASCII(meetingCodeAlphabet, meetingCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting code generator: %w", err)
	}
	return &Module{
		opts:    opts,
		newCode: gen,
		logger:  logger,
	}, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return "gateway"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"relay", "stats"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "relay":
		m.rooms = relay.NewRoomAdapter(container)
	case "stats":
		m.stats = stats.NewStatsAdapter(container)
	}
}

// SetRelay sets the relay driven by websocket connections (called from main.go).
func (m *Module) SetRelay(r CallRelay) {
	m.relay = r
}

// SetMetricsHandler sets the handler mounted at /metrics (called from main.go).
func (m *Module) SetMetricsHandler(h http.Handler) {
	m.metrics = h
}

// Start initializes and starts the HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.relay == nil {
		return fmt.Errorf("relay dependency not set")
	}
	if m.rooms == nil {
		return fmt.Errorf("relay service container not set")
	}
	if m.stats == nil {
		return fmt.Errorf("stats service container not set")
	}

	m.app = m.newApp()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(":" + m.opts.Port); err != nil {
			errCh <- err
		}
	}()

	// Wait briefly to catch immediate startup errors
	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "port", m.opts.Port, "pingInterval", m.opts.PingInterval)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	m.logger.Info("HTTP server stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.opts.Port,
		},
	}
}

// newApp builds the fiber app with middleware and routes.
func (m *Module) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "meetrelay",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
		ReadTimeout:           30 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
		Next: func(c *fiber.Ctx) bool {
			return c.Get(fiber.HeaderUpgrade) == "websocket"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.opts.CORSAllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	m.registerRoutes(app)
	return app
}

// errorHandler handles Fiber errors.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else {
		m.logger.Error("Request failed", "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
