package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lessonloop/backend/internal/domain/history"
	"github.com/lessonloop/backend/internal/domain/progress"
	"github.com/lessonloop/backend/internal/service"
	"github.com/lessonloop/backend/internal/store"
)

func newProgressService(f *fakeStore) *service.ProgressService {
	return service.NewProgressService(f, time.UTC, discardLogger())
}

func TestRecordCompletion_AdvancesStreakAndAppendsHistory(t *testing.T) {
	f := newFakeStore()
	addUser(f, "user-1")
	svc := newProgressService(f)
	ctx := context.Background()

	day1 := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	st, err := svc.RecordCompletion(ctx, "user-1", "l1", 50, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.DailyStreakCount != 1 || st.LongestStreak != 1 || st.TotalExp != 50 {
		t.Errorf("after first completion: %+v", st)
	}

	day2 := time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC)
	st, err = svc.RecordCompletion(ctx, "user-1", "l2", 30, day2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.DailyStreakCount != 2 || st.LongestStreak != 2 || st.TotalExp != 80 {
		t.Errorf("after next-day completion: %+v", st)
	}

	if f.historyLen() != 2 {
		t.Errorf("expected 2 history entries, got %d", f.historyLen())
	}
}

func TestRecordCompletion_OutOfOrderChangesNothing(t *testing.T) {
	f := newFakeStore()
	addUser(f, "user-1")
	svc := newProgressService(f)
	ctx := context.Background()

	at := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	if _, err := svc.RecordCompletion(ctx, "user-1", "l1", 50, at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.RecordCompletion(ctx, "user-1", "l2", 50, at.Add(-time.Hour))
	if !errors.Is(err, progress.ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}

	st, err := f.GetProgress(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.TotalExp != 50 || f.historyLen() != 1 {
		t.Errorf("rejected completion changed state: exp %d, %d entries", st.TotalExp, f.historyLen())
	}
}

func TestRecordCompletion_PersistFailureLosesNothing(t *testing.T) {
	f := newFakeStore()
	addUser(f, "user-1")
	f.saveCompletionErr = errors.New("disk full")
	svc := newProgressService(f)

	at := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	if _, err := svc.RecordCompletion(context.Background(), "user-1", "l1", 50, at); err == nil {
		t.Fatal("expected the persistence error to surface")
	}
	if f.historyLen() != 0 {
		t.Errorf("expected no history entry, got %d", f.historyLen())
	}
}

func TestRecordCompletion_UnknownUser(t *testing.T) {
	f := newFakeStore()
	svc := newProgressService(f)

	_, err := svc.RecordCompletion(context.Background(), "nobody", "l1", 50, time.Now())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordCompletion_ConcurrentSameDay(t *testing.T) {
	f := newFakeStore()
	addUser(f, "user-1")
	svc := newProgressService(f)

	base := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	const n = 8

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Distinct timestamps; goroutines may still apply them out of
			// order, in which case ErrOutOfOrder is the correct outcome.
			at := base.Add(time.Duration(i) * time.Second)
			svc.RecordCompletion(context.Background(), "user-1", "l1", 10, at)
		}()
	}
	wg.Wait()

	st, err := f.GetProgress(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// All completions land on the same day: the streak must be exactly 1
	// no matter how the goroutines interleave.
	if st.DailyStreakCount != 1 || st.LongestStreak != 1 {
		t.Errorf("same-day completions produced streak %d/%d", st.DailyStreakCount, st.LongestStreak)
	}
	// Exp credits match the recorded history exactly: each accepted
	// completion added 10, each rejected one added nothing.
	if want := f.historyLen() * 10; st.TotalExp != want {
		t.Errorf("expected exp %d for %d recorded completions, got %d", want, f.historyLen(), st.TotalExp)
	}
}

func TestStats_DenseSeriesAndState(t *testing.T) {
	f := newFakeStore()
	addUser(f, "user-1")
	svc := newProgressService(f)
	ctx := context.Background()

	times := []time.Time{
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC),
	}
	for _, at := range times {
		if _, err := svc.RecordCompletion(ctx, "user-1", "l1", 10, at); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	st, series, err := svc.Stats(ctx, "user-1", start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if st.TotalExp != 30 {
		t.Errorf("expected exp 30, got %d", st.TotalExp)
	}

	wantCounts := []int{2, 0, 1}
	if len(series) != len(wantCounts) {
		t.Fatalf("expected %d days, got %d", len(wantCounts), len(series))
	}
	for i, dc := range series {
		wantDate := start.AddDate(0, 0, i)
		if !dc.Date.Equal(wantDate) {
			t.Errorf("day %d: expected date %v, got %v", i, wantDate, dc.Date)
		}
		if dc.Count != wantCounts[i] {
			t.Errorf("day %d: expected count %d, got %d", i, wantCounts[i], dc.Count)
		}
	}
}

func TestStats_InvalidRange(t *testing.T) {
	f := newFakeStore()
	addUser(f, "user-1")
	svc := newProgressService(f)

	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, 5)
	_, _, err := svc.Stats(context.Background(), "user-1", start, end)
	if !errors.Is(err, history.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}
