package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/meetrelay/domain/call"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Service names
const (
	ServiceListRooms = "list-rooms"
	ServiceGetRoom   = "get-room"
	ServiceStats     = "relay-stats"
)

// ListRoomsRequest is the request for list-rooms.
type ListRoomsRequest struct{}

// ListRoomsResponse is the response for list-rooms.
type ListRoomsResponse struct {
	Rooms []call.RoomSummary `json:"rooms"`
}

// GetRoomRequest is the request for get-room.
type GetRoomRequest struct {
	Key string `json:"key"`
}

// GetRoomResponse is the response for get-room.
type GetRoomResponse struct {
	Room  call.RoomSummary `json:"room"`
	Found bool             `json:"found"`
}

// StatsRequest is the request for relay-stats.
type StatsRequest struct{}

// RegisterServices registers the request/reply services of the relay.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.listRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetRoom, json.Unmarshal, json.Marshal, m.getRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetRoom, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceStats, json.Unmarshal, json.Marshal, m.stats,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceStats, err)
	}

	m.logger.Info("Registered relay services", "services", []string{ServiceListRooms, ServiceGetRoom, ServiceStats})
	return nil
}

func (m *Module) listRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Rooms: m.relay.Rooms()}, nil
}

func (m *Module) getRoom(_ context.Context, req GetRoomRequest, _ *mono.Msg) (GetRoomResponse, error) {
	room, err := m.relay.Room(req.Key)
	if errors.Is(err, call.ErrRoomNotFound) {
		return GetRoomResponse{Found: false}, nil
	}
	if err != nil {
		return GetRoomResponse{}, err
	}
	return GetRoomResponse{Room: room, Found: true}, nil
}

func (m *Module) stats(_ context.Context, _ StatsRequest, _ *mono.Msg) (Stats, error) {
	return m.relay.Stats(), nil
}
