package printer

import (
	"fmt"
	"time"
)

// TimeAgo returns a compact relative time of t from now.
// Examples: "just now", "12s ago", "3m ago", "2h ago", "4d ago".
func TimeAgo(now, t time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < 0:
		return "in the future"
	case diff < time.Second:
		return "just now"
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}

// FormatTimestamp returns a formatted timestamp string in UTC.
// Format: "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// FormatInterval returns a refresh interval in milliseconds as a duration string.
func FormatInterval(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
