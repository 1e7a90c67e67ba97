package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-insightx/components/insights"
	"github.com/goliatone/go-insightx/components/insights/commands"
)

// Executor runs dashboard commands on behalf of a transport.
type Executor interface {
	SelectDateRange(ctx context.Context, input commands.SelectDateRangeInput) error
	ToggleCategory(ctx context.Context, input commands.ToggleCategoryInput) error
	Apply(ctx context.Context, input commands.ApplyFiltersInput) error
	Preset(ctx context.Context, input commands.ApplyPresetInput) error
	Reset(ctx context.Context, input commands.ResetFiltersInput) error
	Refresh(ctx context.Context, input commands.RefreshInput) error
	Page(ctx context.Context, input commands.ChangePageInput) error
	Shortcut(ctx context.Context, input commands.ShortcutInput) error
}

var errCommandMissing = errors.New("httpapi: command not configured")

// CommandExecutor adapts go-command commanders to Executor.
type CommandExecutor struct {
	SelectDateRangeCommander gocommand.Commander[commands.SelectDateRangeInput]
	ToggleCategoryCommander  gocommand.Commander[commands.ToggleCategoryInput]
	ApplyCommander           gocommand.Commander[commands.ApplyFiltersInput]
	PresetCommander          gocommand.Commander[commands.ApplyPresetInput]
	ResetCommander           gocommand.Commander[commands.ResetFiltersInput]
	RefreshCommander         gocommand.Commander[commands.RefreshInput]
	PageCommander            gocommand.Commander[commands.ChangePageInput]
	ShortcutCommander        gocommand.Commander[commands.ShortcutInput]
}

var _ Executor = (*CommandExecutor)(nil)

func (e *CommandExecutor) SelectDateRange(ctx context.Context, input commands.SelectDateRangeInput) error {
	return execute(ctx, e.SelectDateRangeCommander, input)
}

func (e *CommandExecutor) ToggleCategory(ctx context.Context, input commands.ToggleCategoryInput) error {
	return execute(ctx, e.ToggleCategoryCommander, input)
}

func (e *CommandExecutor) Apply(ctx context.Context, input commands.ApplyFiltersInput) error {
	return execute(ctx, e.ApplyCommander, input)
}

func (e *CommandExecutor) Preset(ctx context.Context, input commands.ApplyPresetInput) error {
	return execute(ctx, e.PresetCommander, input)
}

func (e *CommandExecutor) Reset(ctx context.Context, input commands.ResetFiltersInput) error {
	return execute(ctx, e.ResetCommander, input)
}

func (e *CommandExecutor) Refresh(ctx context.Context, input commands.RefreshInput) error {
	return execute(ctx, e.RefreshCommander, input)
}

func (e *CommandExecutor) Page(ctx context.Context, input commands.ChangePageInput) error {
	return execute(ctx, e.PageCommander, input)
}

func (e *CommandExecutor) Shortcut(ctx context.Context, input commands.ShortcutInput) error {
	return execute(ctx, e.ShortcutCommander, input)
}

func execute[T any](ctx context.Context, cmd gocommand.Commander[T], input T) error {
	if cmd == nil {
		return errCommandMissing
	}
	return cmd.Execute(ctx, input)
}

// NewCommandExecutor wires the stock commands against service.
func NewCommandExecutor(service *insights.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		SelectDateRangeCommander: commands.NewSelectDateRangeCommand(service, telemetry),
		ToggleCategoryCommander:  commands.NewToggleCategoryCommand(service, telemetry),
		ApplyCommander:           commands.NewApplyFiltersCommand(service, telemetry),
		PresetCommander:          commands.NewApplyPresetCommand(service, telemetry),
		ResetCommander:           commands.NewResetFiltersCommand(service, telemetry),
		RefreshCommander:         commands.NewRefreshCommand(service, telemetry),
		PageCommander:            commands.NewChangePageCommand(service, telemetry),
		ShortcutCommander:        commands.NewShortcutCommand(service, telemetry),
	}
}
