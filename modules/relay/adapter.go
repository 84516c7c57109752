package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/meetrelay/domain/call"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// RoomPort is the read side of the relay used by other modules.
type RoomPort interface {
	ListRooms(ctx context.Context) ([]call.RoomSummary, error)
	GetRoom(ctx context.Context, key string) (call.RoomSummary, error)
	Stats(ctx context.Context) (Stats, error)
}

// RoomAdapter implements RoomPort using the service container.
type RoomAdapter struct {
	container mono.ServiceContainer
}

// NewRoomAdapter creates a new RoomAdapter.
func NewRoomAdapter(container mono.ServiceContainer) RoomPort {
	if container == nil {
		panic("relay: ServiceContainer is nil")
	}
	return &RoomAdapter{container: container}
}

// ListRooms returns all open rooms.
func (a *RoomAdapter) ListRooms(ctx context.Context) ([]call.RoomSummary, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// GetRoom returns one room, or call.ErrRoomNotFound.
func (a *RoomAdapter) GetRoom(ctx context.Context, key string) (call.RoomSummary, error) {
	req := GetRoomRequest{Key: key}
	var resp GetRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return call.RoomSummary{}, fmt.Errorf("failed to get room: %w", err)
	}
	if !resp.Found {
		return call.RoomSummary{}, call.ErrRoomNotFound
	}
	return resp.Room, nil
}

// Stats returns the relay counters.
func (a *RoomAdapter) Stats(ctx context.Context) (Stats, error) {
	req := StatsRequest{}
	var resp Stats
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceStats,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return Stats{}, fmt.Errorf("failed to get relay stats: %w", err)
	}
	return resp, nil
}
