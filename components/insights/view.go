package insights

import (
	"math"
	"time"

	"github.com/ettle/strcase"
)

const (
	// EmptyActivitiesMessage fills the activity table when a filter leaves no rows.
	EmptyActivitiesMessage = "No activities found for the selected filters."

	applyLabel        = "Apply Filters"
	applyPendingLabel = "Apply Filters *"
	refreshLabel      = "Refresh Data"
	refreshingLabel   = "Refreshing..."

	// maxBarHeight is the share of the chart container the tallest bar fills.
	maxBarHeight = 80
)

// SummaryCard is a headline metric. Text starts at the zero value and the
// client counts up to Target.
type SummaryCard struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Initial string  `json:"initial"`
	Text    string  `json:"text"`
	Target  float64 `json:"target"`
}

// QuickStat is a static tile.
type QuickStat struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Bar is one column of the performance chart.
type Bar struct {
	Day           string  `json:"day"`
	Value         int     `json:"value"`
	Trend         Trend   `json:"trend"`
	HeightPercent float64 `json:"height_percent"`
	Class         string  `json:"class"`
}

// CategoryBar is one row of the category distribution.
type CategoryBar struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Value   int      `json:"value"`
	Percent int      `json:"percent"`
	Color   ColorTag `json:"color"`
}

// ActivityRow is an activity record with its presentation hints.
type ActivityRow struct {
	ActivityRecord
	Icon       string `json:"icon"`
	IconColor  string `json:"icon_color"`
	BadgeClass string `json:"badge_class"`
}

// PagerView drives the pagination controls.
type PagerView struct {
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	Shown        int  `json:"shown"`
	Total        int  `json:"total"`
	PrevDisabled bool `json:"prev_disabled"`
	NextDisabled bool `json:"next_disabled"`
}

// Option is a selectable date range.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Checkbox is a category control.
type Checkbox struct {
	ID      string `json:"id"`
	Value   string `json:"value"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

// View is the full set of display instructions derived from a State.
type View struct {
	Summary        []SummaryCard `json:"summary"`
	QuickStats     []QuickStat   `json:"quick_stats"`
	Bars           []Bar         `json:"bars"`
	Categories     []CategoryBar `json:"categories"`
	CategoryTotal  string        `json:"category_total"`
	Rows           []ActivityRow `json:"rows"`
	Empty          bool          `json:"empty"`
	EmptyMessage   string        `json:"empty_message,omitempty"`
	Pager          PagerView     `json:"pager"`
	DateRanges     []Option      `json:"date_ranges"`
	CategoryBoxes  []Checkbox    `json:"category_boxes"`
	ApplyLabel     string        `json:"apply_label"`
	Pending        bool          `json:"pending"`
	Loading        bool          `json:"loading"`
	RefreshLabel   string        `json:"refresh_label"`
	LastUpdated    string        `json:"last_updated"`
	DateRangeLabel string        `json:"date_range_label"`
}

// BuildView projects state into display instructions. It never mutates state.
func BuildView(state State, now time.Time) View {
	data := state.Data
	view := View{
		Summary:        summaryCards(data.Summary),
		QuickStats:     quickStats(data.Summary),
		Bars:           performanceBars(data.Performance),
		DateRanges:     dateRangeOptions(state.Draft.DateRange),
		CategoryBoxes:  categoryBoxes(state.Draft.Selection),
		ApplyLabel:     applyLabel,
		Pending:        state.UI.Pending,
		Loading:        state.UI.Loading,
		RefreshLabel:   refreshLabel,
		LastUpdated:    RelativeTime(state.UI.LastUpdated, now),
		DateRangeLabel: state.Filters.DateRange.Label(),
	}
	if state.UI.Pending {
		view.ApplyLabel = applyPendingLabel
	}
	if state.UI.Loading {
		view.RefreshLabel = refreshingLabel
	}

	bars, total := categoryBars(data.Categories)
	view.Categories = bars
	view.CategoryTotal = FormatInt(total)

	page := state.PageActivities()
	view.Rows = make([]ActivityRow, len(page))
	for i, record := range page {
		view.Rows[i] = activityRow(record)
	}
	if len(page) == 0 {
		view.Empty = true
		view.EmptyMessage = EmptyActivitiesMessage
	}

	pager := state.Pagination
	view.Pager = PagerView{
		CurrentPage:  pager.CurrentPage,
		TotalPages:   pager.TotalPages(),
		Shown:        len(page),
		Total:        len(data.Activities),
		PrevDisabled: !pager.CanPrev(),
		NextDisabled: !pager.CanNext(),
	}
	return view
}

func summaryCards(s SummaryMetrics) []SummaryCard {
	cards := []SummaryCard{
		{Label: "Total Revenue", Initial: FormatCurrency(0), Text: FormatCurrency(s.TotalRevenue), Target: s.TotalRevenue},
		{Label: "Active Users", Initial: "0", Text: FormatCount(float64(s.ActiveUsers)), Target: float64(s.ActiveUsers)},
		{Label: "Conversion Rate", Initial: "0%", Text: FormatPercent(s.ConversionRate), Target: s.ConversionRate},
	}
	for i := range cards {
		cards[i].ID = strcase.ToKebab(cards[i].Label)
	}
	return cards
}

func quickStats(s SummaryMetrics) []QuickStat {
	stats := []QuickStat{
		{Label: "Data Points", Text: FormatInt(s.DataPoints)},
		{Label: "Active Users", Text: FormatInt(s.ActiveUsers)},
		{Label: "Avg Session", Text: s.AvgSession},
		{Label: "Completion", Text: FormatInt(s.CompletionRate) + "%"},
	}
	for i := range stats {
		stats[i].ID = "quick-" + strcase.ToKebab(stats[i].Label)
	}
	return stats
}

func performanceBars(points []PerformancePoint) []Bar {
	peak := 0
	for _, p := range points {
		if p.Value > peak {
			peak = p.Value
		}
	}
	bars := make([]Bar, len(points))
	for i, p := range points {
		height := 0.0
		if peak > 0 {
			height = float64(p.Value) / float64(peak) * maxBarHeight
		}
		class := "bg-red-500"
		if p.Trend == TrendUp {
			class = "bg-green-500"
		}
		bars[i] = Bar{Day: p.Day, Value: p.Value, Trend: p.Trend, HeightPercent: height, Class: class}
	}
	return bars
}

func categoryBars(categories []CategorySlice) ([]CategoryBar, int) {
	total := 0
	for _, c := range categories {
		total += c.Value
	}
	bars := make([]CategoryBar, len(categories))
	for i, c := range categories {
		percent := 0
		if total > 0 {
			percent = int(math.Round(float64(c.Value) / float64(total) * 100))
		}
		bars[i] = CategoryBar{
			ID:      "category-" + strcase.ToKebab(c.Name),
			Name:    c.Name,
			Value:   c.Value,
			Percent: percent,
			Color:   c.Color,
		}
	}
	return bars, total
}

var actionIcons = map[string][2]string{
	"Purchase": {"fa-shopping-cart", "text-green-500"},
	"Login":    {"fa-sign-in-alt", "text-blue-500"},
	"Download": {"fa-download", "text-purple-500"},
	"Upload":   {"fa-upload", "text-amber-500"},
}

var categoryBadges = map[string]string{
	"Sales":      "bg-blue-100 text-blue-800",
	"Marketing":  "bg-green-100 text-green-800",
	"Operations": "bg-purple-100 text-purple-800",
	"Support":    "bg-amber-100 text-amber-800",
}

func activityRow(record ActivityRecord) ActivityRow {
	row := ActivityRow{ActivityRecord: record, Icon: "fa-circle", IconColor: "text-gray-400"}
	if icon, ok := actionIcons[record.Action]; ok {
		row.Icon, row.IconColor = icon[0], icon[1]
	}
	row.BadgeClass = categoryBadges[record.Category]
	return row
}

func dateRangeOptions(selected DateRange) []Option {
	options := make([]Option, len(DateRanges))
	for i, r := range DateRanges {
		options[i] = Option{Value: string(r), Label: r.Label(), Selected: r == selected}
	}
	return options
}

func categoryBoxes(selection CategorySelection) []Checkbox {
	boxes := make([]Checkbox, 0, len(CategoryTokens)+1)
	boxes = append(boxes, Checkbox{
		ID:      "filter-" + AllCategories,
		Value:   AllCategories,
		Label:   "All Categories",
		Checked: selection.AllChecked(),
	})
	for _, token := range CategoryTokens {
		boxes = append(boxes, Checkbox{
			ID:      "filter-" + token,
			Value:   token,
			Label:   strcase.ToPascal(token),
			Checked: selection.Checked(token),
		})
	}
	return boxes
}
