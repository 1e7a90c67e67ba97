package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-insightx/components/insights"
)

type payloadSource interface {
	Payload(ctx context.Context, session string) (insights.PagePayload, error)
}

// PageQuery resolves the display payload (view, charts, presets) for a session.
type PageQuery struct {
	source payloadSource
}

// NewPageQuery builds the query.
func NewPageQuery(source payloadSource) *PageQuery {
	return &PageQuery{source: source}
}

var _ gocommand.Querier[SessionInput, insights.PagePayload] = (*PageQuery)(nil)

// Query projects the session.
func (q *PageQuery) Query(ctx context.Context, msg SessionInput) (insights.PagePayload, error) {
	return q.source.Payload(ctx, msg.Session)
}

type presetLister interface {
	List() []insights.Preset
}

// PresetsQuery lists the registered filter presets.
type PresetsQuery struct {
	catalog presetLister
}

// NewPresetsQuery builds the query.
func NewPresetsQuery(catalog presetLister) *PresetsQuery {
	return &PresetsQuery{catalog: catalog}
}

var _ gocommand.Querier[struct{}, []insights.Preset] = (*PresetsQuery)(nil)

// Query returns presets sorted by name.
func (q *PresetsQuery) Query(context.Context, struct{}) ([]insights.Preset, error) {
	return q.catalog.List(), nil
}
