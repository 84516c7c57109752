package call

import (
	"encoding/json"
	"unicode/utf8"
)

// Default validation limits.
const (
	DefaultMaxRoomKeyLength = 2048
	DefaultMaxMessageLength = 5000
	DefaultMaxSenderLength  = 100
	DefaultMaxSignalBytes   = 64 * 1024
)

// Limits bounds the size of client-supplied values.
type Limits struct {
	MaxRoomKeyLength int
	MaxMessageLength int
	MaxSenderLength  int
	MaxSignalBytes   int
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		MaxRoomKeyLength: DefaultMaxRoomKeyLength,
		MaxMessageLength: DefaultMaxMessageLength,
		MaxSenderLength:  DefaultMaxSenderLength,
		MaxSignalBytes:   DefaultMaxSignalBytes,
	}
}

// ValidateRoomKey validates a room key. Keys are opaque; clients commonly
// send the full meeting URL.
func (l Limits) ValidateRoomKey(key string) error {
	if key == "" {
		return ErrRoomKeyEmpty
	}
	if len(key) > l.MaxRoomKeyLength {
		return ErrRoomKeyTooLong
	}
	if !utf8.ValidString(key) {
		return ErrRoomKeyInvalid
	}
	return nil
}

// ValidateChat validates a chat request.
func (l Limits) ValidateChat(req ChatRequest) error {
	if req.Data == "" {
		return ErrMessageEmpty
	}
	if len(req.Data) > l.MaxMessageLength {
		return ErrMessageTooLong
	}
	if !utf8.ValidString(req.Data) || !utf8.ValidString(req.Sender) {
		return ErrMessageInvalid
	}
	if len(req.Sender) > l.MaxSenderLength {
		return ErrSenderTooLong
	}
	return nil
}

// ValidateSignal validates a signal request. The payload itself is never inspected
// beyond being well-formed JSON.
func (l Limits) ValidateSignal(req SignalRequest) error {
	if req.To == "" {
		return ErrRecipientEmpty
	}
	if len(req.Signal) == 0 {
		return ErrSignalEmpty
	}
	if len(req.Signal) > l.MaxSignalBytes {
		return ErrSignalTooLarge
	}
	if !json.Valid(req.Signal) {
		return ErrSignalMalformed
	}
	return nil
}
