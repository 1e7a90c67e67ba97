package insights

import (
	"math"
	"strings"
)

var rangeMultipliers = map[DateRange]float64{
	RangeToday:     0.15,
	RangeYesterday: 0.15,
	RangeWeek:      1,
	RangeMonth:     4,
	RangeQuarter:   12,
	RangeYear:      52,
}

// Multiplier returns the display scale for a date range. Unknown ranges scale by 1.
func Multiplier(r DateRange) float64 {
	if m, ok := rangeMultipliers[r]; ok {
		return m
	}
	return 1
}

// ScaleRevenue floors the scaled revenue.
func ScaleRevenue(base float64, r DateRange) float64 {
	return math.Floor(base * Multiplier(r))
}

// ScaleUsers floors the scaled active user count.
func ScaleUsers(base int, r DateRange) int {
	return int(math.Floor(float64(base) * Multiplier(r)))
}

// FilterEngine reshapes a baseline data set for a selection.
type FilterEngine struct{}

// Apply returns a filtered copy of baseline. Revenue and active users are scaled
// independently of the activity list, so the two may disagree.
func (FilterEngine) Apply(selection FilterSelection, baseline DataSet) DataSet {
	out := baseline.Clone()
	out.Summary.TotalRevenue = ScaleRevenue(baseline.Summary.TotalRevenue, selection.DateRange)
	out.Summary.ActiveUsers = ScaleUsers(baseline.Summary.ActiveUsers, selection.DateRange)

	if selection.IncludesAll() {
		return out
	}
	tokens := selection.Categories

	categories := make([]CategorySlice, 0, len(out.Categories))
	for _, cat := range out.Categories {
		if matchesAny(cat.Name, tokens) {
			categories = append(categories, cat)
		}
	}
	out.Categories = categories

	activities := make([]ActivityRecord, 0, len(out.Activities))
	for _, activity := range out.Activities {
		if matchesAny(activity.Category, tokens) {
			activities = append(activities, activity)
		}
	}
	out.Activities = activities
	return out
}

// matchesAny folds the name, not the token, and tests substring containment.
func matchesAny(name string, tokens []string) bool {
	lower := strings.ToLower(name)
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
