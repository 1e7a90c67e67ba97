package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-insightx/components/insights"
)

func TestSelectDateRangeCommand(t *testing.T) {
	service := &stubService{}
	telemetry := &stubTelemetry{}
	cmd := NewSelectDateRangeCommand(service, telemetry)
	if err := cmd.Execute(context.Background(), SelectDateRangeInput{Session: "s1", DateRange: insights.RangeMonth}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.lastRange != insights.RangeMonth {
		t.Fatalf("expected month range, got %q", service.lastRange)
	}
	if telemetry.calls != 1 {
		t.Fatalf("expected telemetry event")
	}
}

func TestToggleCategoryCommandRequiresToken(t *testing.T) {
	cmd := NewToggleCategoryCommand(&stubService{}, nil)
	if err := cmd.Execute(context.Background(), ToggleCategoryInput{Session: "s1"}); err == nil {
		t.Fatalf("expected error for missing token")
	}
}

func TestApplyFiltersCommandUsesSelectionWhenPresent(t *testing.T) {
	service := &stubService{}
	cmd := NewApplyFiltersCommand(service, nil)

	if err := cmd.Execute(context.Background(), ApplyFiltersInput{Session: "s1"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.applyCalls != 1 || service.submitCalls != 0 {
		t.Fatalf("expected draft apply, got apply=%d submit=%d", service.applyCalls, service.submitCalls)
	}

	selection := insights.FilterSelection{DateRange: insights.RangeToday, Categories: []string{"support"}}
	if err := cmd.Execute(context.Background(), ApplyFiltersInput{Session: "s1", Selection: &selection}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.submitCalls != 1 {
		t.Fatalf("expected submit call")
	}
}

func TestApplyPresetCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewApplyPresetCommand(service, nil)
	if err := cmd.Execute(context.Background(), ApplyPresetInput{Session: "s1"}); err == nil {
		t.Fatalf("expected error for missing preset name")
	}
	if err := cmd.Execute(context.Background(), ApplyPresetInput{Session: "s1", Name: "sales-month"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.lastPreset != "sales-month" {
		t.Fatalf("expected preset to be forwarded")
	}
}

func TestResetFiltersCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewResetFiltersCommand(service, nil)
	if err := cmd.Execute(context.Background(), ResetFiltersInput{Session: "s1"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.resetCalls != 1 {
		t.Fatalf("expected reset call")
	}
}

func TestRefreshCommandPropagatesInProgress(t *testing.T) {
	service := &stubService{refreshErr: insights.ErrRefreshInProgress}
	cmd := NewRefreshCommand(service, nil)
	err := cmd.Execute(context.Background(), RefreshInput{Session: "s1"})
	if !errors.Is(err, insights.ErrRefreshInProgress) {
		t.Fatalf("expected ErrRefreshInProgress, got %v", err)
	}
}

func TestChangePageCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewChangePageCommand(service, nil)
	ctx := context.Background()
	if err := cmd.Execute(ctx, ChangePageInput{Session: "s1", Direction: PageNext}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if err := cmd.Execute(ctx, ChangePageInput{Session: "s1", Direction: PagePrev}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.nextCalls != 1 || service.prevCalls != 1 {
		t.Fatalf("expected one next and one prev, got %d/%d", service.nextCalls, service.prevCalls)
	}
	if err := cmd.Execute(ctx, ChangePageInput{Session: "s1", Direction: "sideways"}); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}

func TestShortcutCommand(t *testing.T) {
	service := &stubService{}
	telemetry := &stubTelemetry{}
	cmd := NewShortcutCommand(service, telemetry)
	if err := cmd.Execute(context.Background(), ShortcutInput{Session: "s1", Shortcut: insights.Shortcut{Key: "f", Ctrl: true}}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.shortcutCalls != 1 || telemetry.calls != 1 {
		t.Fatalf("expected shortcut call and telemetry")
	}
}

func TestCommandsRequireService(t *testing.T) {
	ctx := context.Background()
	if err := NewRefreshCommand(nil, nil).Execute(ctx, RefreshInput{}); err == nil {
		t.Fatalf("expected refresh error")
	}
	if err := NewChangePageCommand(nil, nil).Execute(ctx, ChangePageInput{}); err == nil {
		t.Fatalf("expected page error")
	}
	if err := NewResetFiltersCommand(nil, nil).Execute(ctx, ResetFiltersInput{}); err == nil {
		t.Fatalf("expected reset error")
	}
}

type stubService struct {
	lastRange     insights.DateRange
	lastPreset    string
	applyCalls    int
	submitCalls   int
	resetCalls    int
	nextCalls     int
	prevCalls     int
	shortcutCalls int
	refreshErr    error
}

func (s *stubService) SelectDateRange(_ context.Context, _ string, r insights.DateRange) (insights.State, error) {
	s.lastRange = r
	return insights.State{}, nil
}

func (s *stubService) ToggleCategory(context.Context, string, string, bool) (insights.State, error) {
	return insights.State{}, nil
}

func (s *stubService) ApplyFilters(context.Context, string) (insights.State, error) {
	s.applyCalls++
	return insights.State{}, nil
}

func (s *stubService) SubmitFilters(context.Context, string, insights.FilterSelection) (insights.State, error) {
	s.submitCalls++
	return insights.State{}, nil
}

func (s *stubService) ApplyPreset(_ context.Context, _ string, name string) (insights.State, error) {
	s.lastPreset = name
	return insights.State{}, nil
}

func (s *stubService) ResetFilters(context.Context, string) (insights.State, error) {
	s.resetCalls++
	return insights.State{}, nil
}

func (s *stubService) Refresh(context.Context, string) (insights.State, error) {
	return insights.State{}, s.refreshErr
}

func (s *stubService) NextPage(context.Context, string) (insights.State, error) {
	s.nextCalls++
	return insights.State{}, nil
}

func (s *stubService) PrevPage(context.Context, string) (insights.State, error) {
	s.prevCalls++
	return insights.State{}, nil
}

func (s *stubService) HandleShortcut(context.Context, string, insights.Shortcut) (insights.ShortcutResult, error) {
	s.shortcutCalls++
	return insights.ShortcutResult{Action: insights.ShortcutFocusRange}, nil
}

type stubTelemetry struct {
	calls int
}

func (s *stubTelemetry) Record(context.Context, string, map[string]any) {
	s.calls++
}
