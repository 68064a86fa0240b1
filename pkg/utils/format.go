package utils

import (
	"fmt"
	"time"
)

// FormatSize renders a byte count with binary units, e.g. "1.5 KB"
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 4; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTP"[exp])
}

// FormatDuration renders d as HH:MM:SS
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatSizeOrNA is FormatSize for sizes a store may not report
func FormatSizeOrNA(bytes int64) string {
	if bytes <= 0 {
		return "N/A"
	}
	return FormatSize(bytes)
}
