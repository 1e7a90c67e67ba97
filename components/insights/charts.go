package insights

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "320px"

var colorHex = map[ColorTag]string{
	ColorBlue:   "#3b82f6",
	ColorGreen:  "#10b981",
	ColorPurple: "#8b5cf6",
	ColorAmber:  "#f59e0b",
}

var trendHex = map[Trend]string{
	TrendUp:   "#22c55e",
	TrendDown: "#ef4444",
}

// RenderCache memoizes rendered chart HTML so repeated page loads are cheap.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// ChartCache is an in-memory TTL cache for rendered charts.
type ChartCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]cachedChart
}

type cachedChart struct {
	html    string
	expires time.Time
}

// NewChartCache builds a cache with the provided TTL. A non-positive TTL disables caching.
func NewChartCache(ttl time.Duration) *ChartCache {
	return &ChartCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedChart),
	}
}

// GetOrRender returns a cached entry or renders and stores a new one.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if html, ok := c.get(key); ok {
		return html, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.set(key, html)
	return html, nil
}

// Len reports the number of live entries.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ChartCache) get(key string) (string, bool) {
	if c == nil || c.ttl <= 0 {
		return "", false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		if ok {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		return "", false
	}
	return entry.html, true
}

func (c *ChartCache) set(key, html string) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cachedChart{
		html:    html,
		expires: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// contentHash returns a deterministic hash of the chart input.
func contentHash(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

// ChartRenderer renders server-side ECharts markup for the dashboard panels.
type ChartRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
}

// ChartOption customizes a ChartRenderer.
type ChartOption func(*ChartRenderer)

// WithChartCache injects a render cache.
func WithChartCache(cache RenderCache) ChartOption {
	return func(r *ChartRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the ECharts theme (defaults to Westeros).
func WithChartTheme(theme string) ChartOption {
	return func(r *ChartRenderer) {
		if theme != "" {
			r.theme = theme
		}
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from elsewhere.
func WithChartAssetsHost(host string) ChartOption {
	return func(r *ChartRenderer) {
		r.assetsHost = host
	}
}

// NewChartRenderer builds a renderer with a five minute cache by default.
func NewChartRenderer(options ...ChartOption) *ChartRenderer {
	r := &ChartRenderer{
		cache: NewChartCache(5 * time.Minute),
		theme: types.ThemeWesteros,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Charts holds the rendered chart fragments for a page.
type Charts struct {
	Performance string `json:"performance"`
	Categories  string `json:"categories"`
}

// Render draws both dashboard charts for a data set.
func (r *ChartRenderer) Render(data DataSet) (Charts, error) {
	perf, err := r.PerformanceChart(data.Performance)
	if err != nil {
		return Charts{}, err
	}
	cats, err := r.CategoryChart(data.Categories)
	if err != nil {
		return Charts{}, err
	}
	return Charts{Performance: perf, Categories: cats}, nil
}

// PerformanceChart renders the weekly series as a bar chart colored by trend.
func (r *ChartRenderer) PerformanceChart(points []PerformancePoint) (string, error) {
	if len(points) == 0 {
		return "", fmt.Errorf("insights: performance series is empty")
	}
	return r.cached("bar", points, func() (string, error) {
		bar := charts.NewBar()
		bar.SetGlobalOptions(r.globalOptions("Weekly Performance")...)
		days := make([]string, len(points))
		data := make([]opts.BarData, len(points))
		for i, p := range points {
			days[i] = p.Day
			data[i] = opts.BarData{
				Name:      p.Day,
				Value:     p.Value,
				ItemStyle: &opts.ItemStyle{Color: trendHex[p.Trend]},
			}
		}
		bar.SetXAxis(days)
		bar.AddSeries("Performance", data)
		return renderChart(bar)
	})
}

// CategoryChart renders the category distribution as a pie chart.
func (r *ChartRenderer) CategoryChart(categories []CategorySlice) (string, error) {
	return r.cached("pie", categories, func() (string, error) {
		pie := charts.NewPie()
		pie.SetGlobalOptions(r.globalOptions("Category Distribution")...)
		data := make([]opts.PieData, len(categories))
		for i, c := range categories {
			data[i] = opts.PieData{
				Name:      c.Name,
				Value:     c.Value,
				ItemStyle: &opts.ItemStyle{Color: colorHex[c.Color]},
			}
		}
		pie.AddSeries("Categories", data)
		return renderChart(pie)
	})
}

func (r *ChartRenderer) cached(kind string, input any, render func() (string, error)) (string, error) {
	if r.cache == nil {
		return render()
	}
	key := fmt.Sprintf("%s:%s:%s", kind, r.theme, contentHash(input))
	return r.cache.GetOrRender(key, render)
}

func (r *ChartRenderer) globalOptions(title string) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  r.theme,
		Width:  "100%",
		Height: defaultChartHeight,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
