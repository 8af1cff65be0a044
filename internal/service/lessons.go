// internal/service/lessons.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lessonloop/backend/internal/assembler"
	"github.com/lessonloop/backend/internal/domain/lesson"
	"github.com/lessonloop/backend/internal/store"
	"github.com/lessonloop/backend/internal/worker"
)

// ErrLessonNotSaved distinguishes "lesson produced but not persisted" from
// generation failures, where no lesson exists at all.
var ErrLessonNotSaved = errors.New("lesson generated but not saved")

// Provider calls are funneled through a small pool so a burst of generation
// requests cannot pile unbounded concurrent load on the LLM endpoint.
const (
	generationWorkers = 3
	generationQueue   = 10
)

type genResult struct {
	lesson *lesson.Lesson
	err    error
}

// LessonService orchestrates lesson generation: assemble, then persist.
type LessonService struct {
	store  store.Store
	asm    *assembler.Assembler
	pool   *worker.Pool[genResult]
	logger *slog.Logger
}

func NewLessonService(s store.Store, asm *assembler.Assembler, logger *slog.Logger) *LessonService {
	return &LessonService{
		store:  s,
		asm:    asm,
		pool:   worker.NewPool[genResult](generationWorkers, generationQueue),
		logger: logger,
	}
}

// Generate assembles a lesson from seed text and persists it. The lesson
// either fully exists afterwards or not at all: assembly failures produce
// nothing, and a failed save surfaces ErrLessonNotSaved without partial
// writes. No retries happen here — regenerating is the caller's decision,
// since a retried provider call yields a different lesson.
func (s *LessonService) Generate(ctx context.Context, userID, seed string) (*lesson.Lesson, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	res := <-s.pool.Do(func() genResult {
		l, err := s.asm.Assemble(ctx, seed, userID)
		return genResult{lesson: l, err: err}
	})
	if res.err != nil {
		return nil, res.err
	}

	if err := s.store.SaveLesson(ctx, res.lesson); err != nil {
		s.logger.Error("failed to save generated lesson",
			"lesson_id", res.lesson.ID,
			"user_id", userID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", ErrLessonNotSaved, err)
	}

	s.logger.Info("lesson generated",
		"lesson_id", res.lesson.ID,
		"user_id", userID,
		"components", len(res.lesson.Components),
	)
	return res.lesson, nil
}

func (s *LessonService) Get(ctx context.Context, lessonID string) (*lesson.Lesson, error) {
	return s.store.GetLesson(ctx, lessonID)
}

func (s *LessonService) ListSummaries(ctx context.Context, userID string) ([]lesson.Summary, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListLessonSummaries(ctx, userID)
}
