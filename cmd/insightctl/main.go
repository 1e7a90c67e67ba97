package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/goliatone/go-insightx/pkg/config"
	"github.com/goliatone/go-insightx/pkg/logging"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config   string `type:"path" short:"c" help:"Path to an insightx YAML config file."`
	LogLevel string `name:"log-level" help:"Override logger.level (debug, info, warn, error)."`
}

type cli struct {
	Globals

	Serve    serveCmd    `cmd:"" help:"Serve the dashboard over HTTP."`
	Snapshot snapshotCmd `cmd:"" help:"Print a filtered dashboard snapshot as YAML or JSON."`
	Presets  presetsCmd  `cmd:"" help:"List the available filter presets."`
}

func main() {
	var c cli
	parser, err := newParser(context.Background(), &c, kong.UsageOnError())
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run(&c.Globals))
}

// newParser builds the kong parser and binds ctx as the context.Context
// every command Run receives.
func newParser(ctx context.Context, c *cli, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("insightctl"),
		kong.Description("InsightX analytics dashboard with mock data."),
		kong.BindTo(ctx, (*context.Context)(nil)),
	}, opts...)
	return kong.New(c, opts...)
}

func (g *Globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.Logger.Level = g.LogLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("insightctl: %w", err)
	}
	return logger, nil
}
