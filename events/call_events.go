package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// RoomOpenedEvent is emitted when the first connection joins a room key.
type RoomOpenedEvent struct {
	RoomKey   string    `json:"room_key"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomClosedEvent is emitted when the last connection leaves and the room and its history are gone.
type RoomClosedEvent struct {
	RoomKey   string    `json:"room_key"`
	Messages  int       `json:"messages"`
	Timestamp time.Time `json:"timestamp"`
}

// ParticipantJoinedEvent is emitted after a connection joins a room.
type ParticipantJoinedEvent struct {
	RoomKey      string    `json:"room_key"`
	ConnectionID string    `json:"connection_id"`
	RosterSize   int       `json:"roster_size"`
	Timestamp    time.Time `json:"timestamp"`
}

// ParticipantLeftEvent is emitted after a joined connection disconnects.
type ParticipantLeftEvent struct {
	RoomKey      string        `json:"room_key"`
	ConnectionID string        `json:"connection_id"`
	Session      time.Duration `json:"session"`
	Remaining    int           `json:"remaining"`
	Timestamp    time.Time     `json:"timestamp"`
}

// ChatPostedEvent is emitted for every chat message accepted into a room.
// The message body is not carried.
type ChatPostedEvent struct {
	RoomKey      string    `json:"room_key"`
	ConnectionID string    `json:"connection_id"`
	Recipients   int       `json:"recipients"`
	Timestamp    time.Time `json:"timestamp"`
}

// Event definitions for the relay domain.
var (
	RoomOpenedV1 = helper.EventDefinition[RoomOpenedEvent](
		"relay",
		"RoomOpened",
		"v1",
	)

	RoomClosedV1 = helper.EventDefinition[RoomClosedEvent](
		"relay",
		"RoomClosed",
		"v1",
	)

	ParticipantJoinedV1 = helper.EventDefinition[ParticipantJoinedEvent](
		"relay",
		"ParticipantJoined",
		"v1",
	)

	ParticipantLeftV1 = helper.EventDefinition[ParticipantLeftEvent](
		"relay",
		"ParticipantLeft",
		"v1",
	)

	ChatPostedV1 = helper.EventDefinition[ChatPostedEvent](
		"relay",
		"ChatPosted",
		"v1",
	)
)
