package insights

import (
	"embed"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	presetVersionV1 = "1"
	// PresetVersion exposes the current preset document version for tooling.
	PresetVersion = presetVersionV1
)

//go:embed presets/*.yaml
var embeddedPresets embed.FS

// PresetDocument models a YAML file of named filter selections.
type PresetDocument struct {
	Version string   `json:"version" yaml:"version"`
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Presets []Preset `json:"presets" yaml:"presets"`
	Source  string   `json:"-" yaml:"-"`
}

// Preset is a named filter selection.
type Preset struct {
	Name       string    `json:"name" yaml:"name"`
	Label      string    `json:"label,omitempty" yaml:"label,omitempty"`
	DateRange  DateRange `json:"date_range" yaml:"date_range"`
	Categories []string  `json:"categories" yaml:"categories"`
}

// Selection converts the preset into a FilterSelection.
func (p Preset) Selection() FilterSelection {
	categories := slices.Clone(p.Categories)
	if len(categories) == 0 {
		categories = []string{AllCategories}
	}
	return FilterSelection{DateRange: p.DateRange, Categories: categories}
}

// ReadPresets loads a preset document from disk.
func ReadPresets(path string) (*PresetDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("insights: open presets %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodePresets(f)
	if err != nil {
		return nil, fmt.Errorf("insights: decode presets %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodePresets reads a preset document from any reader.
func DecodePresets(r io.Reader) (*PresetDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc PresetDocument
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("insights: preset document is empty")
		}
		return nil, fmt.Errorf("insights: parse presets: %w", err)
	}
	if doc.Version == "" {
		doc.Version = presetVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures names are present and unique and ranges and categories are known.
func (doc *PresetDocument) Validate() error {
	if doc.Version != presetVersionV1 {
		return fmt.Errorf("insights: unsupported preset version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Presets))
	for idx, p := range doc.Presets {
		if p.Name == "" {
			return fmt.Errorf("insights: preset at index %d is missing name", idx)
		}
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("insights: duplicate preset %s", p.Name)
		}
		if !slices.Contains(DateRanges, p.DateRange) {
			return fmt.Errorf("insights: preset %s has unknown date_range %q", p.Name, p.DateRange)
		}
		if _, err := ParseCategoryTokens(p.Categories); err != nil {
			return fmt.Errorf("insights: preset %s: %w", p.Name, err)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// PresetCatalog indexes presets by name.
type PresetCatalog struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

// NewPresetCatalog returns an empty catalog.
func NewPresetCatalog() *PresetCatalog {
	return &PresetCatalog{presets: make(map[string]Preset)}
}

// DefaultPresetCatalog loads the built-in presets.
func DefaultPresetCatalog() (*PresetCatalog, error) {
	f, err := embeddedPresets.Open("presets/default.yaml")
	if err != nil {
		return nil, fmt.Errorf("insights: open builtin presets: %w", err)
	}
	defer f.Close()
	doc, err := DecodePresets(f)
	if err != nil {
		return nil, err
	}
	catalog := NewPresetCatalog()
	catalog.Add(doc)
	return catalog, nil
}

// Add registers every preset in doc. Later documents override earlier names.
func (c *PresetCatalog) Add(doc *PresetDocument) {
	if doc == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range doc.Presets {
		c.presets[p.Name] = p
	}
}

// LoadFile reads and registers a preset file.
func (c *PresetCatalog) LoadFile(path string) error {
	doc, err := ReadPresets(path)
	if err != nil {
		return err
	}
	c.Add(doc)
	return nil
}

// Lookup returns a preset by name.
func (c *PresetCatalog) Lookup(name string) (Preset, error) {
	if c == nil {
		return Preset{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return p, nil
}

// List returns presets sorted by name.
func (c *PresetCatalog) List() []Preset {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Preset, 0, len(c.presets))
	for _, p := range c.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
