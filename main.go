package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/example/meetrelay/config"
	"github.com/example/meetrelay/modules/gateway"
	"github.com/example/meetrelay/modules/relay"
	"github.com/example/meetrelay/modules/stats"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("=== Meet Relay - WebRTC signaling over Fiber WebSockets ===")

	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg, warnings := config.Load()
	for _, w := range warnings {
		log.Printf("config: %s", w)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	levelOpt := mono.WithLogLevel(mono.LogLevelInfo)
	switch cfg.LogLevel {
	case "debug":
		levelOpt = mono.WithLogLevel(mono.LogLevelDebug)
	case "warn":
		levelOpt = mono.WithLogLevel(mono.LogLevelWarn)
	case "error":
		levelOpt = mono.WithLogLevel(mono.LogLevelError)
	}
	formatOpt := mono.WithLogFormat(mono.LogFormatText)
	if cfg.LogFormat == "json" {
		formatOpt = mono.WithLogFormat(mono.LogFormatJSON)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		levelOpt,
		formatOpt,
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	// Create modules
	relayModule := relay.NewModule(relay.Config{HistoryLimit: cfg.HistoryLimit}, logger.WithModule("relay"))
	statsModule := stats.NewModule(logger.WithModule("stats"))
	gatewayModule, err := gateway.NewModule(gateway.Options{
		Port:               cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Limits:             cfg.Limits,
		OutboxSize:         cfg.OutboxSize,
		ChatRatePerSec:     cfg.ChatRatePerSec,
		ChatBurst:          cfg.ChatBurst,
		PingInterval:       cfg.PingInterval,
		WriteTimeout:       cfg.WriteTimeout,
	}, logger.WithModule("gateway"))
	if err != nil {
		log.Fatalf("Failed to create gateway: %v", err)
	}

	// Inject the relay and metrics handler into the gateway
	// (neither is exposed via ServiceContainer)
	callRelay := relayModule.Relay()
	gatewayModule.SetRelay(callRelay)
	gatewayModule.SetMetricsHandler(statsModule.MetricsHandler())

	// Active gauges read the relay directly; events only feed the totals.
	statsModule.SetActivity(func() (int, int) {
		s := callRelay.Stats()
		return s.Rooms, s.Participants
	})

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - relay: Room state owner (ServiceProviderModule + EventEmitterModule)
	// - stats: Session statistics (EventConsumerModule + ServiceProviderModule)
	// - gateway: Driving adapter (Fiber HTTP/WebSocket server, depends on relay and stats)
	app.Register(relayModule)
	app.Register(statsModule)
	app.Register(gatewayModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (embedded, room lifecycle events)")
	log.Printf("  - Heartbeat: %s (0 disables)", cfg.PingInterval)
	log.Printf("  - Chat history per room: %s", historyDescription(cfg.HistoryLimit))
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", cfg.Port)
	log.Println("  GET    /health                  - Health check")
	log.Println("  GET    /metrics                 - Prometheus metrics")
	log.Println("  GET    /api/v1/rooms            - List active rooms")
	log.Println("  GET    /api/v1/rooms/:key       - Get room details (key path-escaped)")
	log.Println("  GET    /api/v1/stats            - Relay and session statistics")
	log.Println("  POST   /api/v1/meeting-codes    - Generate a meeting code")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", cfg.Port)
	log.Println("  Inbound:  join-call, signal, chat-message")
	log.Println("  Outbound: connected, user-joined, user-left, chat-message, signal, error")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

func historyDescription(limit int) string {
	if limit == 0 {
		return "unlimited"
	}
	return "last " + strconv.Itoa(limit) + " messages"
}
