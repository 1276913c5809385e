package backend

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatDuration renders seconds as H:MM:SS or M:SS.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "Unknown"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatViews renders a view count as 1.2M / 3.4K / 567.
func FormatViews(views int64) string {
	switch {
	case views <= 0:
		return "Unknown"
	case views >= 1000000:
		return fmt.Sprintf("%.1fM", float64(views)/1000000)
	case views >= 1000:
		return fmt.Sprintf("%.1fK", float64(views)/1000)
	default:
		return strconv.FormatInt(views, 10)
	}
}

// parseClockDuration converts "1:02:03" or "12:34" to seconds.
func parseClockDuration(clock string) int {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// parseViewCount converts "1,234,567 views" to 1234567.
func parseViewCount(text string) int64 {
	digits := strings.Builder{}
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
		if r == ' ' && digits.Len() > 0 {
			break
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, _ := strconv.ParseInt(digits.String(), 10, 64)
	return n
}

// parseQualityHeight extracts the pixel height from a label like "1080p60".
// Returns 0 for labels without digits ("highest").
func parseQualityHeight(q string) int {
	if q == "4k" {
		return 2160
	}
	digits := ""
	for _, c := range q {
		if c >= '0' && c <= '9' {
			digits += string(c)
		} else if digits != "" {
			break
		}
	}
	if digits == "" {
		return 0
	}
	val, _ := strconv.Atoi(digits)
	return val
}
