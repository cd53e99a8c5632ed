package query

import "math"

// Default and maximum policies for caller-supplied numeric parameters.
// Callers (including automated ones) routinely pass zero or omit fields, so
// invalid input always degrades to a default instead of failing.
const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 500

	DefaultLookbackHours = 24
	MaxLookbackHours     = 24 * 30

	DefaultLookbackDays = 7
	MaxLookbackDays     = 365
)

// NormalizeLimit clamps a caller-supplied result limit. Missing (nil) or
// non-positive values yield def; values above max clamp to max; fractional
// limits are floored.
func NormalizeLimit(value *float64, def, max int) int {
	if value == nil || *value <= 0 || math.IsNaN(*value) {
		return def
	}
	if *value > float64(max) {
		return max
	}
	return int(math.Floor(*value))
}

// NormalizeHours clamps a caller-supplied lookback window in hours.
// Fractional durations are valid and pass through unmodified.
func NormalizeHours(value *float64, def, max float64) float64 {
	return normalizeDuration(value, def, max)
}

// NormalizeDays clamps a caller-supplied lookback window in days.
func NormalizeDays(value *float64, def, max float64) float64 {
	return normalizeDuration(value, def, max)
}

func normalizeDuration(value *float64, def, max float64) float64 {
	if value == nil || *value <= 0 || math.IsNaN(*value) {
		return def
	}
	if *value > max {
		return max
	}
	return *value
}
