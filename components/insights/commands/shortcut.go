package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-insightx/components/insights"
)

// ShortcutInput carries a key chord.
type ShortcutInput struct {
	Session  string            `json:"session"`
	Shortcut insights.Shortcut `json:"shortcut"`
}

type shortcutService interface {
	HandleShortcut(ctx context.Context, session string, shortcut insights.Shortcut) (insights.ShortcutResult, error)
}

// ShortcutCommand wraps Service.HandleShortcut.
type ShortcutCommand struct {
	service   shortcutService
	telemetry Telemetry
}

// NewShortcutCommand creates the command.
func NewShortcutCommand(service shortcutService, telemetry Telemetry) *ShortcutCommand {
	return &ShortcutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ShortcutInput] = (*ShortcutCommand)(nil)

// Execute runs the bound action.
func (c *ShortcutCommand) Execute(ctx context.Context, msg ShortcutInput) error {
	if c.service == nil {
		return errors.New("shortcut command requires service")
	}
	result, err := c.service.HandleShortcut(ctx, msg.Session, msg.Shortcut)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insights.command.shortcut", map[string]any{
		"session": msg.Session,
		"action":  string(result.Action),
	})
	return nil
}
