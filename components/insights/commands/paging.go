package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-insightx/components/insights"
)

// PageDirection selects the pagination move.
type PageDirection string

const (
	PageNext PageDirection = "next"
	PagePrev PageDirection = "prev"
)

// ChangePageInput moves the activity table one page.
type ChangePageInput struct {
	Session   string        `json:"session"`
	Direction PageDirection `json:"direction"`
}

type pageService interface {
	NextPage(ctx context.Context, session string) (insights.State, error)
	PrevPage(ctx context.Context, session string) (insights.State, error)
}

// ChangePageCommand wraps Service.NextPage and Service.PrevPage.
type ChangePageCommand struct {
	service   pageService
	telemetry Telemetry
}

// NewChangePageCommand creates the command.
func NewChangePageCommand(service pageService, telemetry Telemetry) *ChangePageCommand {
	return &ChangePageCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ChangePageInput] = (*ChangePageCommand)(nil)

// Execute moves one page; moves past either end are no-ops.
func (c *ChangePageCommand) Execute(ctx context.Context, msg ChangePageInput) error {
	if c.service == nil {
		return errors.New("page command requires service")
	}
	var (
		state insights.State
		err   error
	)
	switch msg.Direction {
	case PageNext:
		state, err = c.service.NextPage(ctx, msg.Session)
	case PagePrev:
		state, err = c.service.PrevPage(ctx, msg.Session)
	default:
		return fmt.Errorf("page command: unknown direction %q", msg.Direction)
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insights.command.page", map[string]any{
		"session":   msg.Session,
		"direction": string(msg.Direction),
		"page":      state.Pagination.CurrentPage,
	})
	return nil
}
