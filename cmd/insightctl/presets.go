package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	core "github.com/goliatone/go-insightx/components/insights"
)

type presetsCmd struct {
	File string `type:"path" help:"Preset manifest to list alongside the built-ins (defaults to presets.path)."`

	stdout io.Writer
}

func (cmd *presetsCmd) Run(_ context.Context, g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	catalog, err := core.DefaultPresetCatalog()
	if err != nil {
		return err
	}
	file := cmd.File
	if file == "" {
		file = cfg.Presets.Path
	}
	if file != "" {
		if err := catalog.LoadFile(file); err != nil {
			return err
		}
	}
	out := cmd.stdout
	if out == nil {
		out = os.Stdout
	}
	return writePresets(out, catalog.List())
}

func writePresets(out io.Writer, presets []core.Preset) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRANGE\tCATEGORIES\tLABEL")
	for _, p := range presets {
		sel := p.Selection()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, sel.DateRange.Label(), strings.Join(sel.Categories, ","), p.Label)
	}
	return w.Flush()
}
