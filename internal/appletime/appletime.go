// Package appletime converts between wall-clock time and the native timestamp
// encoding used by the Messages database.
//
// The database stores timestamps as an offset from the Apple reference date
// (2001-01-01T00:00:00Z) rather than the Unix epoch. The unit is ambiguous:
// rows written before the macOS High Sierra schema migration hold whole
// seconds, rows written after hold nanoseconds. Reads disambiguate by
// magnitude; writes always emit nanoseconds.
package appletime

import "time"

// ReferenceUnix is the Unix timestamp of the Apple reference date,
// 2001-01-01T00:00:00Z.
const ReferenceUnix int64 = 978307200

// nanosecondThreshold separates seconds-scale from nanoseconds-scale native
// values. Any real seconds-since-2001 value stays far below 10^12 for the
// lifetime of this software, while any real nanosecond value is far above it.
// The exact constant is load-bearing; do not change it.
const nanosecondThreshold int64 = 1_000_000_000_000

// ToWallClock converts a native timestamp to wall-clock time with second
// precision. Values above the magnitude threshold are treated as nanoseconds,
// values at or below it as seconds.
func ToWallClock(native int64) time.Time {
	secs := native
	if native > nanosecondThreshold {
		secs = native / int64(time.Second)
	}
	return time.Unix(ReferenceUnix+secs, 0)
}

// FromWallClock converts wall-clock time to a native timestamp. The result is
// always nanosecond-scaled, matching rows written after the schema migration.
func FromWallClock(t time.Time) int64 {
	return (t.Unix() - ReferenceUnix) * int64(time.Second)
}

// HoursAgo returns the native timestamp for the instant h hours before now.
// Used as a lower-bound filter on message dates.
func HoursAgo(h float64) int64 {
	return FromWallClock(time.Now().Add(-time.Duration(h * float64(time.Hour))))
}

// DaysAgo returns the native timestamp for the instant d days before now.
func DaysAgo(d float64) int64 {
	return HoursAgo(d * 24)
}
