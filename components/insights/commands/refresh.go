package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-insightx/components/insights"
)

// RefreshInput regenerates a session's data.
type RefreshInput struct {
	Session string `json:"session"`
}

type refreshService interface {
	Refresh(ctx context.Context, session string) (insights.State, error)
}

// RefreshCommand wraps Service.Refresh. It blocks for the refresh delay.
type RefreshCommand struct {
	service   refreshService
	telemetry Telemetry
}

// NewRefreshCommand creates the command.
func NewRefreshCommand(service refreshService, telemetry Telemetry) *RefreshCommand {
	return &RefreshCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshInput] = (*RefreshCommand)(nil)

// Execute refreshes the session.
func (c *RefreshCommand) Execute(ctx context.Context, msg RefreshInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	state, err := c.service.Refresh(ctx, msg.Session)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insights.command.refresh", map[string]any{
		"session":      msg.Session,
		"generated_at": state.Data.GeneratedAt,
	})
	return nil
}
