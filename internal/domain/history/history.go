package history

import (
	"errors"
	"fmt"
	"time"
)

// Entry records one completed lesson attempt. Entries are append-only and
// only ever removed when the whole user is deleted.
type Entry struct {
	UserID      string
	LessonID    string
	CompletedAt time.Time
}

// DailyCount is one day of a dense completion series. Date is midnight of
// the day in the reference timezone.
type DailyCount struct {
	Date  time.Time
	Count int
}

// ErrInvalidRange means the requested range ends before it starts.
var ErrInvalidRange = errors.New("invalid date range")

const dayKey = "2006-01-02"

// CountByDay buckets entries by calendar day in loc and returns exactly one
// DailyCount per day of [start, end], both ends inclusive, ascending. Days
// without completions appear with a zero count so callers can chart the
// series without gap-filling of their own. Entries outside the range are
// skipped; the caller is responsible for passing a single user's entries.
func CountByDay(entries []Entry, start, end time.Time, loc *time.Location) ([]DailyCount, error) {
	first := startOfDay(start, loc)
	last := startOfDay(end, loc)
	if first.After(last) {
		return nil, fmt.Errorf("%w: start %s after end %s",
			ErrInvalidRange, first.Format(dayKey), last.Format(dayKey))
	}

	counts := make(map[string]int)
	for _, e := range entries {
		day := startOfDay(e.CompletedAt, loc)
		if day.Before(first) || day.After(last) {
			continue
		}
		counts[day.Format(dayKey)]++
	}

	var series []DailyCount
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		series = append(series, DailyCount{Date: day, Count: counts[day.Format(dayKey)]})
	}
	return series, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
