// Package format renders sizes and timestamps for display.
package format

import (
	"fmt"
	"time"
)

// TimeLayout is the local timestamp layout used in all output.
const TimeLayout = "2006-01-02 15:04:05"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// Size formats n bytes with binary units and one decimal, e.g. "1.5 KB".
func Size(n int64) string {
	if n == 0 {
		return "0 B"
	}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, sizeUnits[i])
}

// Timestamp formats t in local time.
func Timestamp(t time.Time) string {
	return t.Local().Format(TimeLayout)
}
