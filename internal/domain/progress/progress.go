package progress

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// State is a user's gamification record: daily streak, all-time best and
// accumulated exp. It is owned by the user row and only ever advanced
// through Advance — callers must apply concurrent completions for the same
// user as a single read-modify-write.
type State struct {
	UserID           string
	DailyStreakCount int
	LongestStreak    int
	LastCompletion   *time.Time // nil until the first completion ever
	TotalExp         int
}

// ErrOutOfOrder means a completion event carried a timestamp older than the
// last recorded one. The state is returned unchanged: silently rewinding a
// streak would corrupt the user's historical record, so the caller decides
// whether to ignore or reject the event.
var ErrOutOfOrder = errors.New("completion event out of order")

// Advance returns the state after a completion at the given time. Day
// boundaries are midnights in loc:
//
//	same day        → streak unchanged (repeat completions don't double-count)
//	next day        → streak + 1
//	two or more     → streak reset to 1
//
// LongestStreak never decreases, and LastCompletion is refreshed on every
// successful call, same-day ones included.
func Advance(st State, completedAt time.Time, loc *time.Location) (State, error) {
	next := st

	if st.LastCompletion == nil {
		next.DailyStreakCount = 1
	} else {
		days := calendarDaysBetween(*st.LastCompletion, completedAt, loc)
		switch {
		case days < 0:
			return st, fmt.Errorf("%w: last completion %s, event %s",
				ErrOutOfOrder, st.LastCompletion.Format(time.RFC3339), completedAt.Format(time.RFC3339))
		case days == 0:
			// same calendar day, streak already counted
		case days == 1:
			next.DailyStreakCount++
		default:
			next.DailyStreakCount = 1
		}
	}

	if next.DailyStreakCount > next.LongestStreak {
		next.LongestStreak = next.DailyStreakCount
	}

	t := completedAt
	next.LastCompletion = &t
	return next, nil
}

// AddExp credits exp to the state. The amount is decided by the caller
// (lesson difficulty and scoring live upstream); non-positive amounts are
// ignored so TotalExp never decreases.
func (s State) AddExp(amount int) State {
	if amount > 0 {
		s.TotalExp += amount
	}
	return s
}

// calendarDaysBetween counts midnight boundaries in loc crossed going from
// a to b. Negative when b falls on an earlier day than a.
func calendarDaysBetween(a, b time.Time, loc *time.Location) int {
	da := startOfDay(a, loc)
	db := startOfDay(b, loc)
	// Rounding absorbs the odd-length days around DST transitions.
	return int(math.Round(db.Sub(da).Hours() / 24))
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
