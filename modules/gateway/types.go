package gateway

import (
	"github.com/example/meetrelay/domain/call"
	"github.com/example/meetrelay/modules/relay"
	"github.com/example/meetrelay/modules/stats"
)

// Meeting code shape: xxx-xxxx-xxx from an alphabet without look-alike characters.
const (
	meetingCodeAlphabet = "abcdefghjkmnpqrstuvwxyz"
	meetingCodeLength   = 10
)

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// RoomListResponse is the response for GET /api/v1/rooms.
type RoomListResponse struct {
	Rooms []call.RoomSummary `json:"rooms"`
	Count int                `json:"count"`
}

// StatsResponse is the response for GET /api/v1/stats.
type StatsResponse struct {
	Relay    relay.Stats    `json:"relay"`
	Sessions stats.Snapshot `json:"sessions"`
}

// MeetingCodeResponse is the response for POST /api/v1/meeting-codes.
type MeetingCodeResponse struct {
	Code string `json:"code"`
	Path string `json:"path"`
}

// ErrorResponse is the body of every failed HTTP request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
