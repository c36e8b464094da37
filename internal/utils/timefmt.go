package utils

import (
	"time"
)

// FormatGeneratedAt renders the generation time written into context headers.
func FormatGeneratedAt(value time.Time) string {
	return value.In(time.Local).Format(time.RFC3339)
}
