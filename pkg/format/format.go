// Package format provides human-readable formatting utilities.
package format

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// =============================================================================
// FILE SIZE FORMATTING
// =============================================================================

// Bytes formats a byte count into human-readable format.
// Negative counts mean the size is unknown.
// Example: Bytes(1536) => "1.5 KB"
func Bytes(bytes int64) string {
	if bytes < 0 {
		return "unknown"
	}
	if bytes == 0 {
		return "0 B"
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	sizes := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), sizes[exp]) //nolint:gosec // G602: exp max is 4 (1024^6 > int64 max)
}

// =============================================================================
// NUMBER FORMATTING
// =============================================================================

var printer = message.NewPrinter(language.English)

// Number formats a number with thousand separators.
// Example: Number(1234567) => "1,234,567"
func Number(n int64) string {
	return printer.Sprintf("%d", n)
}

// NumberCompact formats a number in compact notation.
// Example: NumberCompact(1234567) => "1.2M"
func NumberCompact(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// Percentage formats a percentage value.
// Example: Percentage(45.678, 1) => "45.7%"
func Percentage(value float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, value)
}

// =============================================================================
// DURATION FORMATTING
// =============================================================================

// Elapsed formats a short duration for progress output, using milliseconds
// below one second and thousand separators above.
// Example: Elapsed(1500*time.Millisecond) => "1,500ms"
func Elapsed(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	return Number(d.Milliseconds()) + "ms"
}
