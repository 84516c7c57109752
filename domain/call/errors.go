package call

import "errors"

// Routing errors. None of them is reported to other connections.
var (
	// ErrUnknownConnection is returned when an id is not registered.
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrNotInRoom is returned when a connection acts on a room before joining one.
	ErrNotInRoom = errors.New("connection is not in a room")

	// ErrAlreadyJoined is returned when a connection that is already in a room joins again.
	ErrAlreadyJoined = errors.New("connection already joined a room")

	// ErrRoomNotFound is returned when no room exists under a key.
	ErrRoomNotFound = errors.New("room not found")
)

// Delivery errors.
var (
	ErrPeerGone       = errors.New("peer connection closed")
	ErrPeerBacklogged = errors.New("peer outbound queue full")
)

// Validation errors.
var (
	ErrRoomKeyEmpty    = errors.New("room key cannot be empty")
	ErrRoomKeyTooLong  = errors.New("room key exceeds maximum length")
	ErrRoomKeyInvalid  = errors.New("room key contains invalid characters")
	ErrMessageEmpty    = errors.New("message data cannot be empty")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrMessageInvalid  = errors.New("message contains invalid characters")
	ErrSenderTooLong   = errors.New("sender label exceeds maximum length")
	ErrSignalEmpty     = errors.New("signal payload cannot be empty")
	ErrSignalTooLarge  = errors.New("signal payload exceeds maximum size")
	ErrSignalMalformed = errors.New("signal payload is not valid JSON")
	ErrRecipientEmpty  = errors.New("signal recipient cannot be empty")
)
