package insights

import (
	"testing"
	"time"
)

func TestFormatters(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"currency", FormatCurrency(42560), "$42,560"},
		{"currency rounds", FormatCurrency(999.6), "$1,000"},
		{"currency negative", FormatCurrency(-1250), "-$1,250"},
		{"count floors", FormatCount(1247.9), "1,247"},
		{"count small", FormatCount(12), "12"},
		{"int", FormatInt(8921), "8,921"},
		{"percent", FormatPercent(3.4), "3.4%"},
		{"percent whole", FormatPercent(0), "0.0%"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{0, "Just now"},
		{59 * time.Second, "Just now"},
		{time.Minute, "1 minute ago"},
		{45 * time.Minute, "45 minutes ago"},
		{61 * time.Minute, "1 hour ago"},
		{5 * time.Hour, "5 hours ago"},
	}
	for _, tc := range cases {
		if got := RelativeTime(now.Add(-tc.ago), now); got != tc.want {
			t.Fatalf("RelativeTime(-%v) = %q, want %q", tc.ago, got, tc.want)
		}
	}
}
