package insights

import (
	"context"
	"time"
)

// Trend marks whether a performance point moved up or down.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// ColorTag identifies the palette slot used for a category.
type ColorTag string

const (
	ColorBlue   ColorTag = "blue"
	ColorGreen  ColorTag = "green"
	ColorPurple ColorTag = "purple"
	ColorAmber  ColorTag = "amber"
)

// DateRange is the selectable display-scale bucket.
type DateRange string

const (
	RangeToday     DateRange = "today"
	RangeYesterday DateRange = "yesterday"
	RangeWeek      DateRange = "week"
	RangeMonth     DateRange = "month"
	RangeQuarter   DateRange = "quarter"
	RangeYear      DateRange = "year"
)

// DateRanges lists the selector options in display order.
var DateRanges = []DateRange{RangeToday, RangeYesterday, RangeWeek, RangeMonth, RangeQuarter, RangeYear}

var dateRangeLabels = map[DateRange]string{
	RangeToday:     "Today",
	RangeYesterday: "Yesterday",
	RangeWeek:      "Last 7 Days",
	RangeMonth:     "Last 30 Days",
	RangeQuarter:   "Last Quarter",
	RangeYear:      "Last Year",
}

// Label returns the selector text for the range, or the raw value when unknown.
func (r DateRange) Label() string {
	if label, ok := dateRangeLabels[r]; ok {
		return label
	}
	return string(r)
}

// AllCategories is the sentinel token that disables category filtering.
const AllCategories = "all"

// CategoryTokens lists the selectable category tokens (excluding the sentinel).
var CategoryTokens = []string{"sales", "marketing", "operations", "support"}

// SummaryMetrics holds the headline numbers shown on the summary cards.
type SummaryMetrics struct {
	TotalRevenue   float64 `json:"total_revenue" yaml:"total_revenue"`
	ActiveUsers    int     `json:"active_users" yaml:"active_users"`
	ConversionRate float64 `json:"conversion_rate" yaml:"conversion_rate"`
	DataPoints     int     `json:"data_points" yaml:"data_points"`
	AvgSession     string  `json:"avg_session" yaml:"avg_session"`
	CompletionRate int     `json:"completion_rate" yaml:"completion_rate"`
}

// PerformancePoint is one day of the weekly performance series.
type PerformancePoint struct {
	Day   string `json:"day" yaml:"day"`
	Value int    `json:"value" yaml:"value"`
	Trend Trend  `json:"trend" yaml:"trend"`
}

// CategorySlice is a weighted entry of the category distribution.
type CategorySlice struct {
	Name  string   `json:"name" yaml:"name"`
	Value int      `json:"value" yaml:"value"`
	Color ColorTag `json:"color" yaml:"color"`
}

// ActivityRecord is a row of the activity log.
type ActivityRecord struct {
	ID       int    `json:"id" yaml:"id"`
	User     string `json:"user" yaml:"user"`
	Action   string `json:"action" yaml:"action"`
	Category string `json:"category" yaml:"category"`
	Value    string `json:"value" yaml:"value"`
	Time     string `json:"time" yaml:"time"`
}

// DataSet is everything a single generation produces.
type DataSet struct {
	Summary     SummaryMetrics     `json:"summary" yaml:"summary"`
	Performance []PerformancePoint `json:"performance" yaml:"performance"`
	Categories  []CategorySlice    `json:"categories" yaml:"categories"`
	Activities  []ActivityRecord   `json:"activities" yaml:"activities"`
	GeneratedAt time.Time          `json:"generated_at" yaml:"generated_at"`
}

// Clone returns a deep copy so filters never alias the baseline slices.
func (d DataSet) Clone() DataSet {
	out := d
	out.Performance = append([]PerformancePoint(nil), d.Performance...)
	out.Categories = append([]CategorySlice(nil), d.Categories...)
	out.Activities = append([]ActivityRecord(nil), d.Activities...)
	return out
}

// FilterSelection is the applied filter state.
type FilterSelection struct {
	DateRange  DateRange `json:"date_range" yaml:"date_range"`
	Categories []string  `json:"categories" yaml:"categories"`
}

// DefaultSelection returns the week/all selection used at startup and on reset.
func DefaultSelection() FilterSelection {
	return FilterSelection{
		DateRange:  RangeWeek,
		Categories: append([]string{AllCategories}, CategoryTokens...),
	}
}

// IncludesAll reports whether the selection carries the "all" sentinel.
func (s FilterSelection) IncludesAll() bool {
	for _, token := range s.Categories {
		if token == AllCategories {
			return true
		}
	}
	return false
}

// SelectedCount counts the selected tokens, excluding the sentinel.
func (s FilterSelection) SelectedCount() int {
	count := 0
	for _, token := range s.Categories {
		if token != AllCategories {
			count++
		}
	}
	return count
}

// Source produces fresh data sets.
type Source interface {
	Generate(ctx context.Context) (DataSet, error)
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function into a Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
