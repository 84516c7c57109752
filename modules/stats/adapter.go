package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// StatsPort reads call statistics from the stats module.
type StatsPort interface {
	SessionStats(ctx context.Context) (Snapshot, error)
}

// StatsAdapter implements StatsPort using the service container.
type StatsAdapter struct {
	container mono.ServiceContainer
}

// NewStatsAdapter creates a new StatsAdapter.
func NewStatsAdapter(container mono.ServiceContainer) StatsPort {
	if container == nil {
		panic("stats: ServiceContainer is nil")
	}
	return &StatsAdapter{container: container}
}

// SessionStats returns the current statistics snapshot.
func (a *StatsAdapter) SessionStats(ctx context.Context) (Snapshot, error) {
	req := SessionStatsRequest{}
	var resp Snapshot
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSessionStats,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return Snapshot{}, fmt.Errorf("failed to get session stats: %w", err)
	}
	return resp, nil
}
