package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	core "github.com/goliatone/go-insightx/components/insights"
	"github.com/goliatone/go-insightx/pkg/config"
	"github.com/goliatone/go-insightx/pkg/insights"
)

const snapshotSession = "insightctl"

type snapshotCmd struct {
	Range    string   `name:"range" help:"Date range (today, yesterday, week, month, quarter, year)."`
	Category []string `name:"category" help:"Category token to keep (repeatable; defaults to all)."`
	Preset   string   `help:"Apply a named preset instead of --range/--category."`
	Page     int      `default:"1" help:"Activity page to print."`
	Seed     uint64   `help:"Seed for the mock data generator (0 picks one at random)."`
	Format   string   `enum:"yaml,json" default:"yaml" help:"Output format."`
	Animate  bool     `help:"Play the summary counter animation on stderr before printing."`
	Out      string   `type:"path" help:"Write the snapshot to a file instead of stdout."`

	stdout io.Writer
	stderr io.Writer
}

// snapshotDocument is the printed form of one session.
type snapshotDocument struct {
	GeneratedAt time.Time               `json:"generated_at" yaml:"generated_at"`
	Filters     core.FilterSelection    `json:"filters" yaml:"filters"`
	RangeLabel  string                  `json:"range_label" yaml:"range_label"`
	Summary     map[string]string       `json:"summary" yaml:"summary"`
	QuickStats  map[string]string       `json:"quick_stats" yaml:"quick_stats"`
	Performance []core.PerformancePoint `json:"performance" yaml:"performance"`
	Categories  []core.CategorySlice    `json:"categories" yaml:"categories"`
	Pagination  core.Pagination         `json:"pagination" yaml:"pagination"`
	Activities  []core.ActivityRecord   `json:"activities" yaml:"activities"`
	Message     string                  `json:"message,omitempty" yaml:"message,omitempty"`
}

func (cmd *snapshotCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	if cmd.Seed != 0 {
		cfg.Generator.Seed = cmd.Seed
	}
	app, err := insights.New(cfg, logger, nil)
	if err != nil {
		return err
	}

	out := cmd.stdout
	if out == nil {
		out = os.Stdout
	}
	if cmd.Out != "" {
		f, err := os.Create(cmd.Out) //nolint:gosec
		if err != nil {
			return fmt.Errorf("insightctl: create %s: %w", cmd.Out, err)
		}
		defer f.Close()
		out = f
	}
	return cmd.render(ctx, app.Service, cfg, out)
}

func (cmd *snapshotCmd) render(ctx context.Context, service *core.Service, cfg *config.Config, out io.Writer) error {
	state, err := cmd.applyFilters(ctx, service)
	if err != nil {
		return err
	}
	for page := 1; page < cmd.Page; page++ {
		if state, err = service.NextPage(ctx, snapshotSession); err != nil {
			return err
		}
	}
	if cmd.Animate {
		if err := cmd.animate(ctx, service, cfg.Animation.FrameInterval); err != nil {
			return err
		}
	}
	return cmd.write(out, buildSnapshot(state, service.Clock().Now()))
}

func (cmd *snapshotCmd) applyFilters(ctx context.Context, service *core.Service) (core.State, error) {
	switch {
	case cmd.Preset != "":
		return service.ApplyPreset(ctx, snapshotSession, cmd.Preset)
	case cmd.Range != "" || len(cmd.Category) > 0:
		selection := core.DefaultSelection()
		if cmd.Range != "" {
			selection.DateRange = core.DateRange(strings.ToLower(cmd.Range))
		}
		if len(cmd.Category) > 0 {
			selection.Categories = normalizeTokens(cmd.Category)
		}
		return service.SubmitFilters(ctx, snapshotSession, selection)
	default:
		return service.Snapshot(ctx, snapshotSession)
	}
}

func (cmd *snapshotCmd) animate(ctx context.Context, service *core.Service, interval time.Duration) error {
	stderr := cmd.stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	latest := map[string]string{}
	order := []string{"total_revenue", "active_users", "conversion_rate"}
	err := service.AnimateCounters(ctx, snapshotSession, core.NewTickerScheduler(interval), func(f core.Frame) {
		latest[f.Target] = f.Text
		parts := make([]string, 0, len(order))
		for _, target := range order {
			parts = append(parts, fmt.Sprintf("%-12s", latest[target]))
		}
		fmt.Fprintf(stderr, "\r%s", strings.Join(parts, " "))
	})
	fmt.Fprintln(stderr)
	return err
}

func (cmd *snapshotCmd) write(out io.Writer, doc snapshotDocument) error {
	if cmd.Format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(doc)
	}
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("insightctl: write snapshot: %w", err)
	}
	return nil
}

func buildSnapshot(state core.State, now time.Time) snapshotDocument {
	view := core.BuildView(state, now)
	doc := snapshotDocument{
		GeneratedAt: state.Data.GeneratedAt,
		Filters:     state.Filters,
		RangeLabel:  state.Filters.DateRange.Label(),
		Summary:     make(map[string]string, len(view.Summary)),
		QuickStats:  map[string]string{"last_updated": view.LastUpdated},
		Performance: state.Data.Performance,
		Categories:  state.Data.Categories,
		Pagination:  state.Pagination,
		Activities:  state.PageActivities(),
	}
	for _, card := range view.Summary {
		doc.Summary[strcase.ToSnake(card.ID)] = card.Text
	}
	for _, stat := range view.QuickStats {
		doc.QuickStats[strcase.ToSnake(strings.TrimPrefix(stat.ID, "quick-"))] = stat.Text
	}
	if view.Empty {
		doc.Message = view.EmptyMessage
	}
	return doc
}

func normalizeTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		for _, part := range strings.Split(token, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
