package call

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLimits_ValidateRoomKey(t *testing.T) {
	limits := DefaultLimits()

	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"meeting url", "http://localhost:5173/meet/abc123", nil},
		{"plain code", "abc123", nil},
		{"empty", "", ErrRoomKeyEmpty},
		{"too long", strings.Repeat("k", DefaultMaxRoomKeyLength+1), ErrRoomKeyTooLong},
		{"exact max", strings.Repeat("k", DefaultMaxRoomKeyLength), nil},
		{"invalid utf8", "room\xff", ErrRoomKeyInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := limits.ValidateRoomKey(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRoomKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestLimits_ValidateChat(t *testing.T) {
	limits := DefaultLimits()

	tests := []struct {
		name    string
		req     ChatRequest
		wantErr error
	}{
		{"valid", ChatRequest{Data: "hello", Sender: "Alice"}, nil},
		{"anonymous sender", ChatRequest{Data: "hello"}, nil},
		{"empty data", ChatRequest{Sender: "Alice"}, ErrMessageEmpty},
		{"data too long", ChatRequest{Data: strings.Repeat("x", DefaultMaxMessageLength+1)}, ErrMessageTooLong},
		{"invalid utf8 data", ChatRequest{Data: "\xc3\x28"}, ErrMessageInvalid},
		{"invalid utf8 sender", ChatRequest{Data: "hi", Sender: "\xff"}, ErrMessageInvalid},
		{"sender too long", ChatRequest{Data: "hi", Sender: strings.Repeat("s", DefaultMaxSenderLength+1)}, ErrSenderTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := limits.ValidateChat(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChat() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLimits_ValidateSignal(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxSignalBytes = 32

	tests := []struct {
		name    string
		req     SignalRequest
		wantErr error
	}{
		{"offer", SignalRequest{To: "b", Signal: json.RawMessage(`{"sdp":"v=0"}`)}, nil},
		{"string payload", SignalRequest{To: "b", Signal: json.RawMessage(`"candidate"`)}, nil},
		{"no recipient", SignalRequest{Signal: json.RawMessage(`{}`)}, ErrRecipientEmpty},
		{"no payload", SignalRequest{To: "b"}, ErrSignalEmpty},
		{"too large", SignalRequest{To: "b", Signal: json.RawMessage(`"` + strings.Repeat("a", 40) + `"`)}, ErrSignalTooLarge},
		{"malformed", SignalRequest{To: "b", Signal: json.RawMessage(`{"sdp":`)}, ErrSignalMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := limits.ValidateSignal(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSignal() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
