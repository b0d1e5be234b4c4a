// Package daterange partitions an inclusive date range into contiguous
// reporting buckets aligned to a calendar interval.
package daterange

import (
	"errors"
	"fmt"
	"time"
)

// Interval selects how a date range is partitioned.
type Interval string

// Monthly aligns bucket boundaries to calendar month ends.
// It is currently the only supported interval; any other value is an
// explicit error rather than undefined behavior.
const Monthly Interval = "monthly"

// Range is one contiguous (start, end) sub-range of a larger date
// range, both endpoints inclusive at daily granularity.
type Range struct {
	Start time.Time
	End   time.Time
}

var (
	// ErrInvalidRange indicates the end date precedes the start date.
	ErrInvalidRange = errors.New("end date precedes start date")

	// ErrUnsupportedInterval indicates an unrecognized interval keyword.
	ErrUnsupportedInterval = errors.New("unsupported interval")
)

// Buckets partitions [start, end] into interval-aligned ranges.
//
// For Monthly, the first bucket starts at start, each full bucket ends
// on the last day of a month at start's time of day, each subsequent
// bucket starts the day after the previous bucket's end, and the final
// bucket ends exactly at end, so a partial trailing month is kept. The
// returned ranges cover [start, end] with no gaps or overlaps at daily
// granularity, and every bucket's start is at or before its end.
func Buckets(interval Interval, start, end time.Time) ([]Range, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: start %s, end %s",
			ErrInvalidRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	switch interval {
	case Monthly:
		return monthlyBuckets(start, end), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedInterval, interval)
	}
}

func monthlyBuckets(start, end time.Time) []Range {
	var buckets []Range

	cur := start
	for {
		monthEnd := endOfMonth(cur)
		// Month-end comparison is at daily granularity: a bucket only
		// closes at a month end that falls on an earlier calendar day
		// than the range end; otherwise the range end closes the run.
		if !beforeDay(monthEnd, end) {
			buckets = append(buckets, Range{Start: cur, End: end})
			return buckets
		}
		buckets = append(buckets, Range{Start: cur, End: monthEnd})
		cur = monthEnd.AddDate(0, 0, 1)
	}
}

// endOfMonth returns the last day of t's month at t's time of day, in
// t's location. The boundary keeps t's clock time so that a range
// starting on a month's final day never produces a bucket ending
// before it begins.
func endOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month()+1, 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	return firstOfNext.AddDate(0, 0, -1)
}

// beforeDay reports whether a falls on an earlier calendar day than b,
// ignoring time of day.
func beforeDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
