package store

import (
	"context"
	"errors"
	"time"

	"github.com/lessonloop/backend/internal/domain/history"
	"github.com/lessonloop/backend/internal/domain/lesson"
	"github.com/lessonloop/backend/internal/domain/progress"
	"github.com/lessonloop/backend/internal/domain/user"
)

var (
	ErrNotFound = errors.New("not found")
)

// Store is the persistence collaborator the services depend on. The SQLite
// implementation is the only production one; tests substitute fakes.
type Store interface {
	SaveUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error
	// DeleteUser removes the user and cascades to authored lessons and the
	// completion history — the only path that ever deletes history entries.
	DeleteUser(ctx context.Context, id string) error

	SaveLesson(ctx context.Context, l *lesson.Lesson) error
	GetLesson(ctx context.Context, id string) (*lesson.Lesson, error)
	ListLessonSummaries(ctx context.Context, userID string) ([]lesson.Summary, error)

	GetProgress(ctx context.Context, userID string) (progress.State, error)
	// SaveCompletion persists the advanced progress state and appends the
	// history entry in one transaction, so a completion is recorded fully
	// or not at all.
	SaveCompletion(ctx context.Context, st progress.State, entry history.Entry) error
	ListHistoryInRange(ctx context.Context, userID string, from, to time.Time) ([]history.Entry, error)
}
