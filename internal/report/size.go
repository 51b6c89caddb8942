package report

import "fmt"

var sizeUnits = []string{"B", "kB", "MB", "GB", "TB"}

// HumanFileSize renders a byte count in the largest 1024-based unit whose
// scaled value is at least 1, with two decimals. Zero and negative sizes
// render as "0 B".
func HumanFileSize(size int64) string {
	if size <= 0 {
		return "0 B"
	}

	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", value, sizeUnits[unit])
}
