package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-insightx/components/insights"
)

// SelectDateRangeInput changes the draft date range of a session.
type SelectDateRangeInput struct {
	Session   string             `json:"session"`
	DateRange insights.DateRange `json:"date_range"`
}

// ToggleCategoryInput changes one draft category checkbox.
type ToggleCategoryInput struct {
	Session string `json:"session"`
	Token   string `json:"token"`
	Checked bool   `json:"checked"`
}

// ApplyFiltersInput commits the draft. A non-nil Selection replaces the draft first.
type ApplyFiltersInput struct {
	Session   string                    `json:"session"`
	Selection *insights.FilterSelection `json:"selection,omitempty"`
}

// ApplyPresetInput submits a named preset.
type ApplyPresetInput struct {
	Session string `json:"session"`
	Name    string `json:"name"`
}

// ResetFiltersInput restores the default filters over regenerated data.
type ResetFiltersInput struct {
	Session string `json:"session"`
}

type filterService interface {
	SelectDateRange(ctx context.Context, session string, r insights.DateRange) (insights.State, error)
	ToggleCategory(ctx context.Context, session, token string, checked bool) (insights.State, error)
	ApplyFilters(ctx context.Context, session string) (insights.State, error)
	SubmitFilters(ctx context.Context, session string, selection insights.FilterSelection) (insights.State, error)
	ApplyPreset(ctx context.Context, session, name string) (insights.State, error)
	ResetFilters(ctx context.Context, session string) (insights.State, error)
}

var errMissingFilterService = errors.New("filter command requires service")

// SelectDateRangeCommand wraps Service.SelectDateRange.
type SelectDateRangeCommand struct {
	service   filterService
	telemetry Telemetry
}

// NewSelectDateRangeCommand creates the command.
func NewSelectDateRangeCommand(service filterService, telemetry Telemetry) *SelectDateRangeCommand {
	return &SelectDateRangeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SelectDateRangeInput] = (*SelectDateRangeCommand)(nil)

// Execute updates the draft range.
func (c *SelectDateRangeCommand) Execute(ctx context.Context, msg SelectDateRangeInput) error {
	if c.service == nil {
		return errMissingFilterService
	}
	if _, err := c.service.SelectDateRange(ctx, msg.Session, msg.DateRange); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insights.command.select_date_range", map[string]any{
		"session":    msg.Session,
		"date_range": string(msg.DateRange),
	})
	return nil
}

// ToggleCategoryCommand wraps Service.ToggleCategory.
type ToggleCategoryCommand struct {
	service   filterService
	telemetry Telemetry
}

// NewToggleCategoryCommand creates the command.
func NewToggleCategoryCommand(service filterService, telemetry Telemetry) *ToggleCategoryCommand {
	return &ToggleCategoryCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleCategoryInput] = (*ToggleCategoryCommand)(nil)

// Execute flips one checkbox.
func (c *ToggleCategoryCommand) Execute(ctx context.Context, msg ToggleCategoryInput) error {
	if c.service == nil {
		return errMissingFilterService
	}
	if msg.Token == "" {
		return errors.New("toggle command requires category token")
	}
	if _, err := c.service.ToggleCategory(ctx, msg.Session, msg.Token, msg.Checked); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insights.command.toggle_category", map[string]any{
		"session": msg.Session,
		"token":   msg.Token,
		"checked": msg.Checked,
	})
	return nil
}

// ApplyFiltersCommand wraps Service.ApplyFilters and Service.SubmitFilters.
type ApplyFiltersCommand struct {
	service   filterService
	telemetry Telemetry
}

// NewApplyFiltersCommand creates the command.
func NewApplyFiltersCommand(service filterService, telemetry Telemetry) *ApplyFiltersCommand {
	return &ApplyFiltersCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyFiltersInput] = (*ApplyFiltersCommand)(nil)

// Execute applies the draft or the supplied selection.
func (c *ApplyFiltersCommand) Execute(ctx context.Context, msg ApplyFiltersInput) error {
	if c.service == nil {
		return errMissingFilterService
	}
	var (
		state insights.State
		err   error
	)
	if msg.Selection != nil {
		state, err = c.service.SubmitFilters(ctx, msg.Session, *msg.Selection)
	} else {
		state, err = c.service.ApplyFilters(ctx, msg.Session)
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insights.command.apply_filters", map[string]any{
		"session":     msg.Session,
		"date_range":  string(state.Filters.DateRange),
		"categories":  state.Filters.Categories,
		"total_items": state.Pagination.TotalItems,
	})
	return nil
}

// ApplyPresetCommand wraps Service.ApplyPreset.
type ApplyPresetCommand struct {
	service   filterService
	telemetry Telemetry
}

// NewApplyPresetCommand creates the command.
func NewApplyPresetCommand(service filterService, telemetry Telemetry) *ApplyPresetCommand {
	return &ApplyPresetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyPresetInput] = (*ApplyPresetCommand)(nil)

// Execute applies the named preset.
func (c *ApplyPresetCommand) Execute(ctx context.Context, msg ApplyPresetInput) error {
	if c.service == nil {
		return errMissingFilterService
	}
	if msg.Name == "" {
		return errors.New("preset command requires preset name")
	}
	if _, err := c.service.ApplyPreset(ctx, msg.Session, msg.Name); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insights.command.apply_preset", map[string]any{
		"session": msg.Session,
		"preset":  msg.Name,
	})
	return nil
}

// ResetFiltersCommand wraps Service.ResetFilters.
type ResetFiltersCommand struct {
	service   filterService
	telemetry Telemetry
}

// NewResetFiltersCommand creates the command.
func NewResetFiltersCommand(service filterService, telemetry Telemetry) *ResetFiltersCommand {
	return &ResetFiltersCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ResetFiltersInput] = (*ResetFiltersCommand)(nil)

// Execute restores the default filters.
func (c *ResetFiltersCommand) Execute(ctx context.Context, msg ResetFiltersInput) error {
	if c.service == nil {
		return errMissingFilterService
	}
	if _, err := c.service.ResetFilters(ctx, msg.Session); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insights.command.reset_filters", map[string]any{"session": msg.Session})
	return nil
}
