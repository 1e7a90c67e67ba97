package insights

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// ActivityCount is the number of records produced per generation.
	ActivityCount = 25

	baselineRevenue    = 42560
	baselineUsers      = 1247
	baselineConversion = 3.4
	baselineDataPoints = 8921
	baselineAvgSession = "4m 32s"
	baselineCompletion = 87
)

// WeekDays is the fixed order of the performance series.
var WeekDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var (
	mockUsers      = []string{"Alex Johnson", "Sam Rivera", "Taylor Chen", "Jordan Smith", "Casey Kim", "Morgan Lee"}
	mockActions    = []string{"Login", "Purchase", "Download", "Upload", "Comment", "Share", "View", "Edit"}
	mockCategories = []string{"Sales", "Marketing", "Operations", "Support"}
)

// CategoryCatalog returns the fixed category distribution.
func CategoryCatalog() []CategorySlice {
	return []CategorySlice{
		{Name: "Sales", Value: 42, Color: ColorBlue},
		{Name: "Marketing", Value: 28, Color: ColorGreen},
		{Name: "Operations", Value: 18, Color: ColorPurple},
		{Name: "Support", Value: 12, Color: ColorAmber},
	}
}

// GeneratorOptions configures a MockGenerator.
type GeneratorOptions struct {
	Seed          uint64
	Rand          *rand.Rand
	Clock         Clock
	SummaryJitter float64
	Logger        *zap.Logger
}

// MockGenerator produces synthetic dashboard data. It is safe for concurrent use.
type MockGenerator struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	clock  Clock
	jitter float64
	logger *zap.Logger
}

// NewMockGenerator builds a generator with safe defaults. A zero seed draws a
// random one.
func NewMockGenerator(opts GeneratorOptions) *MockGenerator {
	rnd := opts.Rand
	if rnd == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	jitter := math.Max(0, math.Min(opts.SummaryJitter, 1))
	return &MockGenerator{
		rnd:    rnd,
		clock:  opts.Clock,
		jitter: jitter,
		logger: opts.Logger,
	}
}

var _ Source = (*MockGenerator)(nil)

// Generate returns a fresh data set stamped with the current time.
func (g *MockGenerator) Generate(ctx context.Context) (DataSet, error) {
	if err := ctx.Err(); err != nil {
		return DataSet{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Debug("generating mock data")
	data := DataSet{
		Summary:     g.summary(),
		Performance: g.performance(),
		Categories:  CategoryCatalog(),
		Activities:  g.activities(),
		GeneratedAt: g.clock.Now(),
	}
	return data, nil
}

func (g *MockGenerator) summary() SummaryMetrics {
	return SummaryMetrics{
		TotalRevenue:   float64(g.jittered(baselineRevenue)),
		ActiveUsers:    g.jittered(baselineUsers),
		ConversionRate: baselineConversion,
		DataPoints:     g.jittered(baselineDataPoints),
		AvgSession:     baselineAvgSession,
		CompletionRate: baselineCompletion,
	}
}

func (g *MockGenerator) jittered(base int) int {
	if g.jitter == 0 {
		return base
	}
	delta := (g.rnd.Float64()*2 - 1) * g.jitter
	return int(math.Floor(float64(base) * (1 + delta)))
}

func (g *MockGenerator) performance() []PerformancePoint {
	points := make([]PerformancePoint, len(WeekDays))
	for i, day := range WeekDays {
		trend := TrendDown
		if g.rnd.Float64() > 0.5 {
			trend = TrendUp
		}
		points[i] = PerformancePoint{
			Day:   day,
			Value: g.rnd.IntN(100) + 50,
			Trend: trend,
		}
	}
	return points
}

func (g *MockGenerator) activities() []ActivityRecord {
	records := make([]ActivityRecord, ActivityCount)
	for i := range records {
		records[i] = ActivityRecord{
			ID:       i + 1,
			User:     mockUsers[g.rnd.IntN(len(mockUsers))],
			Action:   mockActions[g.rnd.IntN(len(mockActions))],
			Category: mockCategories[g.rnd.IntN(len(mockCategories))],
			Value:    fmt.Sprintf("$%d", g.rnd.IntN(1000)+50),
			Time:     fmt.Sprintf("%d minutes ago", g.rnd.IntN(60)),
		}
	}
	return records
}

// StaticSource always serves a copy of the same data set, restamped with the clock.
type StaticSource struct {
	Data  DataSet
	Clock Clock
}

// Generate implements Source.
func (s StaticSource) Generate(ctx context.Context) (DataSet, error) {
	if err := ctx.Err(); err != nil {
		return DataSet{}, err
	}
	out := s.Data.Clone()
	if s.Clock != nil {
		out.GeneratedAt = s.Clock.Now()
	} else if out.GeneratedAt.IsZero() {
		out.GeneratedAt = time.Now()
	}
	return out, nil
}
