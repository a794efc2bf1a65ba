package standardize

import (
	"math"
	"regexp"
	"sort"
	"time"

	"github.com/spf13/cast"
)

// Unit is the encoding unit of a numeric timestamp column.
type Unit int

const (
	UnitSeconds Unit = iota
	UnitMilliseconds
	UnitMicroseconds
	UnitNanoseconds
)

func (u Unit) String() string {
	switch u {
	case UnitNanoseconds:
		return "ns"
	case UnitMicroseconds:
		return "us"
	case UnitMilliseconds:
		return "ms"
	default:
		return "s"
	}
}

var numericPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// DetectTimestampUnit infers the unit of a numeric timestamp column from the
// median magnitude of its values. Non-numeric and missing values are dropped;
// an empty column defaults to seconds.
func DetectTimestampUnit(values []*string) Unit {
	magnitudes := make([]float64, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		parsed, err := cast.ToFloat64E(*v)
		if err != nil {
			continue
		}
		magnitudes = append(magnitudes, math.Abs(parsed))
	}
	if len(magnitudes) == 0 {
		return UnitSeconds
	}

	med := median(magnitudes)
	switch {
	case med > 1e17:
		return UnitNanoseconds
	case med > 1e14:
		return UnitMicroseconds
	case med > 1e11:
		return UnitMilliseconds
	default:
		return UnitSeconds
	}
}

func median(values []float64) float64 {
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2
	}
	return values[mid]
}

// isNumericColumn reports whether every non-null value looks like an integer
// or decimal number. Vacuously true for an all-null column.
func isNumericColumn(values []*string) bool {
	for _, v := range values {
		if v != nil && !numericPattern.MatchString(*v) {
			return false
		}
	}
	return true
}

// parseEpoch converts a numeric timestamp in the given unit to a UTC instant.
// Values outside the representable nanosecond range are rejected.
func parseEpoch(value float64, unit Unit) (time.Time, bool) {
	var ns float64
	switch unit {
	case UnitNanoseconds:
		ns = value
	case UnitMicroseconds:
		ns = value * 1e3
	case UnitMilliseconds:
		ns = value * 1e6
	default:
		ns = value * 1e9
	}
	if math.IsNaN(ns) || ns >= math.MaxInt64 || ns <= math.MinInt64 {
		return time.Time{}, false
	}
	return time.Unix(0, int64(ns)).UTC(), true
}

// Layouts tried in order when the timestamp column is not numeric. Layouts
// without a zone are interpreted as UTC.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

func parseDatetime(value string) (time.Time, bool) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
