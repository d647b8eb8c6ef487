package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/PolarWolf314/sealdrop/internal/ui"
)

// FormatPaths formats a slice of paths into a readable string.
func FormatPaths(paths []string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, p := range paths {
		b.WriteString("    - ")
		b.WriteString(ui.Path.Sprint(p))
		b.WriteString("\n")
	}
	return b.String()
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// HumanSize renders a byte count with two decimals in the largest unit
// that keeps the value under 1024, capped at TB. Negative sizes are
// unknown and render as "unknown".
func HumanSize(size int64) string {
	if size < 0 {
		return "unknown"
	}
	value := float64(size)
	unit := sizeUnits[0]
	for i, u := range sizeUnits {
		unit = u
		if value < 1024.0 || i == len(sizeUnits)-1 {
			break
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.2f %s", value, unit)
}

// FormatElapsed renders a duration as "S.SS seconds", or as
// "M minutes S.SS seconds" once it reaches a minute.
func FormatElapsed(d time.Duration) string {
	total := d.Seconds()
	minutes := math.Floor(total / 60)
	seconds := total - minutes*60
	if minutes > 0 {
		return fmt.Sprintf("%d minutes %.2f seconds", int64(minutes), seconds)
	}
	return fmt.Sprintf("%.2f seconds", seconds)
}
