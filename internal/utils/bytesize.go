package utils

import (
	"math"
	"strconv"
)

var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB"}

// FormatByteSize renders a byte count with binary units, e.g. "512 B" or "1.5 KiB".
// Values above one unit are rounded to one decimal place.
func FormatByteSize(byteCount int64) string {
	if byteCount < 1024 {
		if byteCount < 0 {
			byteCount = 0
		}
		return strconv.FormatInt(byteCount, 10) + " " + byteUnits[0]
	}
	value := float64(byteCount)
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}
	return strconv.FormatFloat(math.Round(value*10)/10, 'f', -1, 64) + " " + byteUnits[unit]
}
