package call

import (
	"bytes"
	"encoding/json"
	"time"
)

// ChatMessage is one entry of a room's chat log.
// Sender is the display label chosen by the client and is not checked
// against the connection identity.
type ChatMessage struct {
	Sender             string `json:"sender"`
	Data               string `json:"data"`
	SenderConnectionID string `json:"sender_id"`
}

// RoomSummary is a read-only view of a room for the HTTP surface.
type RoomSummary struct {
	Key          string    `json:"key"`
	Members      []string  `json:"members"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Frame types sent to clients.
const (
	FrameConnected   = "connected"
	FrameUserJoined  = "user-joined"
	FrameUserLeft    = "user-left"
	FrameChatMessage = "chat-message"
	FrameSignal      = "signal"
	FrameError       = "error"
)

// Frame types accepted from clients.
const (
	InboundJoinCall    = "join-call"
	InboundSignal      = "signal"
	InboundChatMessage = "chat-message"
)

// Frame is one outbound event queued for a single connection.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode renders the frame as a JSON text message. HTML characters are left
// unescaped so relayed payloads keep their original characters.
func (f Frame) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ConnectedPayload tells a client its own connection id.
type ConnectedPayload struct {
	ID string `json:"id"`
}

// UserJoinedPayload carries the joiner and the full roster after the join.
type UserJoinedPayload struct {
	ID     string   `json:"id"`
	Roster []string `json:"roster"`
}

// UserLeftPayload carries the departed connection and how long it was in the call.
type UserLeftPayload struct {
	ID         string `json:"id"`
	DurationMS int64  `json:"duration_ms"`
}

// SignalPayload is a relayed negotiation message. Signal is never inspected;
// Frame.Encode keeps its content as sent and drops only insignificant whitespace.
type SignalPayload struct {
	From   string          `json:"from"`
	Signal json.RawMessage `json:"signal"`
}

// ErrorPayload reports a rejected inbound frame to its sender.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Inbound is the envelope of every client frame.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JoinCallRequest is the payload of a join-call frame.
type JoinCallRequest struct {
	Room string `json:"room"`
}

// SignalRequest is the payload of a signal frame.
type SignalRequest struct {
	To     string          `json:"to"`
	Signal json.RawMessage `json:"signal"`
}

// ChatRequest is the payload of a chat-message frame.
type ChatRequest struct {
	Data   string `json:"data"`
	Sender string `json:"sender"`
}

// NewChatFrame builds the chat-message frame used for both replay and live delivery.
func NewChatFrame(msg ChatMessage) Frame {
	return Frame{Type: FrameChatMessage, Payload: msg}
}

// NewErrorFrame builds an error frame.
func NewErrorFrame(message string) Frame {
	return Frame{Type: FrameError, Payload: ErrorPayload{Message: message}}
}
