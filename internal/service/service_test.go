package service_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lessonloop/backend/internal/domain/history"
	"github.com/lessonloop/backend/internal/domain/lesson"
	"github.com/lessonloop/backend/internal/domain/progress"
	"github.com/lessonloop/backend/internal/domain/user"
	"github.com/lessonloop/backend/internal/store"
)

// fakeStore is an in-memory Store for service tests. Error fields force a
// specific call to fail.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]*user.User
	lessons  map[string]*lesson.Lesson
	progress map[string]progress.State
	hist     []history.Entry

	saveLessonErr     error
	saveCompletionErr error
}

var _ store.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*user.User),
		lessons:  make(map[string]*lesson.Lesson),
		progress: make(map[string]progress.State),
	}
}

func (f *fakeStore) SaveUser(_ context.Context, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	f.progress[u.ID] = progress.State{UserID: u.ID}
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	delete(f.progress, id)
	return nil
}

func (f *fakeStore) SaveLesson(_ context.Context, l *lesson.Lesson) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveLessonErr != nil {
		return f.saveLessonErr
	}
	f.lessons[l.ID] = l
	return nil
}

func (f *fakeStore) GetLesson(_ context.Context, id string) (*lesson.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lessons[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return l, nil
}

func (f *fakeStore) ListLessonSummaries(_ context.Context, userID string) ([]lesson.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []lesson.Summary
	for _, l := range f.lessons {
		if l.Author == userID {
			out = append(out, lesson.Summary{ID: l.ID, Name: l.Name})
		}
	}
	return out, nil
}

func (f *fakeStore) GetProgress(_ context.Context, userID string) (progress.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.progress[userID]
	if !ok {
		return progress.State{}, store.ErrNotFound
	}
	return st, nil
}

func (f *fakeStore) SaveCompletion(_ context.Context, st progress.State, entry history.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveCompletionErr != nil {
		return f.saveCompletionErr
	}
	if _, ok := f.progress[st.UserID]; !ok {
		return store.ErrNotFound
	}
	f.progress[st.UserID] = st
	f.hist = append(f.hist, entry)
	return nil
}

func (f *fakeStore) ListHistoryInRange(_ context.Context, userID string, from, to time.Time) ([]history.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []history.Entry
	for _, e := range f.hist {
		if e.UserID != userID {
			continue
		}
		if e.CompletedAt.Before(from) || !e.CompletedAt.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) historyLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.hist)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func addUser(f *fakeStore, id string) {
	f.SaveUser(context.Background(), &user.User{ID: id, Name: "Ada", Email: id + "@example.com", Username: id})
}

// fakeProvider yields fixed drafts so the assembler always builds the same
// minimal lesson.
type fakeProvider struct {
	err error
}

func (p *fakeProvider) GenerateComponents(_ context.Context, _ string) ([]json.RawMessage, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []json.RawMessage{
		json.RawMessage(`{"type": "intro", "title": "T", "content": ["A paragraph."]}`),
	}, nil
}
