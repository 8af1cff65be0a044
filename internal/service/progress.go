// internal/service/progress.go
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lessonloop/backend/internal/domain/history"
	"github.com/lessonloop/backend/internal/domain/progress"
	"github.com/lessonloop/backend/internal/store"
)

// ProgressService applies completion events and serves completion stats.
// It owns the per-user locks so that concurrent completions for the same
// user are applied as one atomic read-modify-write — Advance is not
// commutative, and two racing same-day completions must not overwrite each
// other's longest-streak bump. Different users never contend.
type ProgressService struct {
	store  store.Store
	logger *slog.Logger
	loc    *time.Location // reference timezone for day boundaries

	mu    sync.Mutex
	users map[string]*sync.Mutex // userID → completion lock
}

func NewProgressService(s store.Store, loc *time.Location, logger *slog.Logger) *ProgressService {
	return &ProgressService{
		store:  s,
		logger: logger,
		loc:    loc,
		users:  make(map[string]*sync.Mutex),
	}
}

// Location is the reference timezone used for day boundaries; handlers use
// it to parse date-only parameters consistently.
func (ps *ProgressService) Location() *time.Location {
	return ps.loc
}

func (ps *ProgressService) userLock(userID string) *sync.Mutex {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	l, ok := ps.users[userID]
	if !ok {
		l = &sync.Mutex{}
		ps.users[userID] = l
	}
	return l
}

// RecordCompletion applies one lesson completion: streak advance, exp
// credit and the history append, persisted together. An out-of-order
// timestamp surfaces progress.ErrOutOfOrder and changes nothing.
func (ps *ProgressService) RecordCompletion(ctx context.Context, userID, lessonID string, exp int, completedAt time.Time) (progress.State, error) {
	lock := ps.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	st, err := ps.store.GetProgress(ctx, userID)
	if err != nil {
		return progress.State{}, err
	}

	next, err := progress.Advance(st, completedAt, ps.loc)
	if err != nil {
		return progress.State{}, err
	}
	next = next.AddExp(exp)

	entry := history.Entry{
		UserID:      userID,
		LessonID:    lessonID,
		CompletedAt: completedAt,
	}
	if err := ps.store.SaveCompletion(ctx, next, entry); err != nil {
		return progress.State{}, err
	}

	ps.logger.Info("lesson completed",
		"user_id", userID,
		"lesson_id", lessonID,
		"streak", next.DailyStreakCount,
	)
	return next, nil
}

// Stats returns the dense per-day completion series for [start, end] along
// with the user's current progress state.
func (ps *ProgressService) Stats(ctx context.Context, userID string, start, end time.Time) (progress.State, []history.DailyCount, error) {
	st, err := ps.store.GetProgress(ctx, userID)
	if err != nil {
		return progress.State{}, nil, err
	}

	// Widen the query to whole days in the reference timezone; CountByDay
	// does the exact bucketing.
	from := startOfDay(start, ps.loc)
	to := startOfDay(end, ps.loc).AddDate(0, 0, 1)

	entries, err := ps.store.ListHistoryInRange(ctx, userID, from, to)
	if err != nil {
		return progress.State{}, nil, err
	}

	series, err := history.CountByDay(entries, start, end, ps.loc)
	if err != nil {
		return progress.State{}, nil, err
	}
	return st, series, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
