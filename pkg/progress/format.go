package progress

import (
	"fmt"
	"math"
)

// Calculating is shown while no meaningful ETA exists yet
const Calculating = "Calculating..."

// Unknown is shown as ETA when the total size was never declared
const Unknown = "Unknown"

// FormatTime renders an estimated number of seconds as "1h 2m 5s", "2m 5s" or "45s".
// Non-finite and non-positive inputs yield Calculating.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return Calculating
	}

	hours := math.Floor(seconds / 3600)
	minutes := math.Floor(math.Mod(seconds, 3600) / 60)
	secs := math.Floor(math.Mod(seconds, 60))

	switch {
	case hours > 0:
		return fmt.Sprintf("%.0fh %.0fm %.0fs", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%.0fm %.0fs", minutes, secs)
	default:
		return fmt.Sprintf("%.0fs", secs)
	}
}

// FormatBytes formats bytes as a human-readable string
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// FormatSpeed formats a bytes-per-second rate
func FormatSpeed(bytesPerSecond float64) string {
	if bytesPerSecond <= 0 || math.IsNaN(bytesPerSecond) || math.IsInf(bytesPerSecond, 0) {
		return "0 B/s"
	}
	return FormatBytes(int64(bytesPerSecond)) + "/s"
}
