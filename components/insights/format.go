package insights

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var displayLocale = language.AmericanEnglish

// FormatCurrency renders whole US dollars with grouping, e.g. "$42,560".
func FormatCurrency(v float64) string {
	rounded := int64(math.Round(v))
	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}
	return sign + "$" + message.NewPrinter(displayLocale).Sprintf("%d", rounded)
}

// FormatCount floors and groups an integer count, e.g. "1,247".
func FormatCount(v float64) string {
	return message.NewPrinter(displayLocale).Sprintf("%d", int64(math.Floor(v)))
}

// FormatInt groups an integer.
func FormatInt(v int) string {
	return message.NewPrinter(displayLocale).Sprintf("%d", v)
}

// FormatPercent renders one decimal place, e.g. "3.4%".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// RelativeTime buckets the age of then relative to now.
func RelativeTime(then, now time.Time) string {
	mins := int(math.Floor(now.Sub(then).Minutes()))
	switch {
	case mins < 1:
		return "Just now"
	case mins == 1:
		return "1 minute ago"
	case mins < 60:
		return fmt.Sprintf("%d minutes ago", mins)
	case mins < 120:
		return "1 hour ago"
	default:
		return fmt.Sprintf("%d hours ago", mins/60)
	}
}
