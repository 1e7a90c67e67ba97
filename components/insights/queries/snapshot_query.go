package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-insightx/components/insights"
)

// SessionInput names the session to read.
type SessionInput struct {
	Session string `json:"session"`
}

type snapshotService interface {
	Snapshot(ctx context.Context, session string) (insights.State, error)
}

// SnapshotQuery returns the raw session state.
type SnapshotQuery struct {
	service snapshotService
}

// NewSnapshotQuery builds the query.
func NewSnapshotQuery(service snapshotService) *SnapshotQuery {
	return &SnapshotQuery{service: service}
}

var _ gocommand.Querier[SessionInput, insights.State] = (*SnapshotQuery)(nil)

// Query loads the session, initializing it on first use.
func (q *SnapshotQuery) Query(ctx context.Context, msg SessionInput) (insights.State, error) {
	return q.service.Snapshot(ctx, msg.Session)
}
