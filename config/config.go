package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/example/meetrelay/domain/call"
)

// Config holds the service settings read from the environment.
type Config struct {
	Port               string
	LogLevel           string
	LogFormat          string
	CORSAllowedOrigins string
	HistoryLimit       int
	OutboxSize         int
	Limits             call.Limits
	ChatRatePerSec     float64
	ChatBurst          int
	PingInterval       time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
}

// Warning describes an environment value that was ignored.
type Warning struct {
	Key   string
	Value string
	Err   error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s=%q ignored: %v", w.Key, w.Value, w.Err)
}

// Load reads the configuration. Malformed values fall back to their default
// and are reported as warnings.
func Load() (Config, []Warning) {
	l := loader{}
	limits := call.DefaultLimits()
	limits.MaxRoomKeyLength = l.getInt("MAX_ROOM_KEY_LENGTH", limits.MaxRoomKeyLength)
	limits.MaxMessageLength = l.getInt("MAX_MESSAGE_LENGTH", limits.MaxMessageLength)
	limits.MaxSenderLength = l.getInt("MAX_SENDER_LENGTH", limits.MaxSenderLength)
	limits.MaxSignalBytes = l.getInt("MAX_SIGNAL_BYTES", limits.MaxSignalBytes)

	cfg := Config{
		Port:               l.getString("PORT", "3000"),
		LogLevel:           l.getOneOf("LOG_LEVEL", "info", "debug", "info", "warn", "error"),
		LogFormat:          l.getOneOf("LOG_FORMAT", "text", "text", "json"),
		CORSAllowedOrigins: l.getString("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		HistoryLimit:       l.getInt("HISTORY_LIMIT", 0),
		OutboxSize:         l.getInt("OUTBOX_SIZE", 256),
		Limits:             limits,
		ChatRatePerSec:     l.getFloat("CHAT_RATE_PER_SEC", 10),
		ChatBurst:          l.getInt("CHAT_BURST", 20),
		PingInterval:       l.getDuration("PING_INTERVAL", 25*time.Second),
		WriteTimeout:       l.getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout:    l.getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
	return cfg, l.warnings
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, errors.New("HISTORY_LIMIT must be >= 0"))
	}
	if c.OutboxSize < 1 {
		errs = append(errs, errors.New("OUTBOX_SIZE must be >= 1"))
	}
	if c.Limits.MaxRoomKeyLength < 1 || c.Limits.MaxMessageLength < 1 || c.Limits.MaxSignalBytes < 1 {
		errs = append(errs, errors.New("message limits must be positive"))
	}
	if c.ChatRatePerSec <= 0 || c.ChatBurst < 1 {
		errs = append(errs, errors.New("CHAT_RATE_PER_SEC and CHAT_BURST must be positive"))
	}
	if c.PingInterval < 0 {
		errs = append(errs, errors.New("PING_INTERVAL must be >= 0"))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, errors.New("WRITE_TIMEOUT must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

type loader struct {
	warnings []Warning
}

func (l *loader) warn(key, value string, err error) {
	l.warnings = append(l.warnings, Warning{Key: key, Value: value, Err: err})
}

func (l *loader) getString(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func (l *loader) getInt(key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.warn(key, v, err)
		return defaultValue
	}
	return n
}

func (l *loader) getFloat(key string, defaultValue float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		l.warn(key, v, err)
		return defaultValue
	}
	return f
}

func (l *loader) getDuration(key string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.warn(key, v, err)
		return defaultValue
	}
	return d
}

func (l *loader) getOneOf(key, defaultValue string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return defaultValue
	}
	if v == "warning" {
		v = "warn"
	}
	if !slices.Contains(allowed, v) {
		l.warn(key, v, fmt.Errorf("want one of %s", strings.Join(allowed, ", ")))
		return defaultValue
	}
	return v
}
