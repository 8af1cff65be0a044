package assembler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lessonloop/backend/internal/domain/lesson"
	"github.com/lessonloop/backend/internal/generator"
)

var (
	// ErrEmptyLesson means validation left no intro or info component, so
	// there is nothing to teach with.
	ErrEmptyLesson = errors.New("lesson has no usable intro or info component")

	// ErrProviderTimeout means the generation provider did not answer within
	// the configured deadline. Nothing partial is assembled from a timed-out
	// call.
	ErrProviderTimeout = errors.New("generation provider timed out")
)

// Assembler turns free-text seeds into validated lessons. It owns the
// untrusted-output handling: parsing provider drafts, validating each
// component, one deterministic repair pass for index drift, and dropping
// what still doesn't hold together.
type Assembler struct {
	provider generator.Provider
	timeout  time.Duration
	logger   *slog.Logger
}

func New(provider generator.Provider, timeout time.Duration, logger *slog.Logger) *Assembler {
	return &Assembler{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

// Assemble generates a lesson from the seed for the given author. The
// provider call is the only suspension point and is bounded by the
// configured timeout. A draft that matches no known shape fails the whole
// assembly; a draft that parses but is internally inconsistent is repaired
// once and otherwise dropped with a warning. The returned lesson preserves
// provider ordering and is NOT persisted here.
func (a *Assembler) Assemble(ctx context.Context, seed, authorID string) (*lesson.Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	drafts, err := a.provider.GenerateComponents(ctx, seed)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrProviderTimeout, a.timeout)
		}
		return nil, err
	}

	var components []lesson.Component
	textCards := 0

	for i, raw := range drafts {
		comp, err := lesson.ParseComponent(raw)
		if err != nil {
			return nil, fmt.Errorf("draft %d: %w", i, err)
		}

		if err := comp.Validate(); err != nil {
			err = a.repair(comp, err)
			if err != nil {
				a.logger.Warn("dropping invalid component",
					"kind", comp.Kind(),
					"draft", i,
					"error", err,
				)
				continue
			}
		}

		if comp.Kind() == lesson.KindIntro || comp.Kind() == lesson.KindInfo {
			textCards++
		}
		components = append(components, comp)
	}

	if textCards == 0 {
		return nil, ErrEmptyLesson
	}

	return lesson.New(titleFromSeed(seed), authorID, components), nil
}

// repair runs the single renumbering pass for index-based components and
// re-validates. Any other failure (bad answer keys, empty cards) is not
// repairable and comes back unchanged.
func (a *Assembler) repair(comp lesson.Component, verr error) error {
	if !errors.Is(verr, lesson.ErrStructuralMismatch) {
		return verr
	}

	switch c := comp.(type) {
	case *lesson.DragAndDrop:
		c.Renumber()
	case *lesson.Matching:
		c.Renumber()
	default:
		return verr
	}

	if err := comp.Validate(); err != nil {
		return fmt.Errorf("still invalid after renumbering: %w", err)
	}

	a.logger.Info("repaired component indices", "kind", comp.Kind())
	return nil
}

const maxTitleLen = 60

// titleFromSeed derives a display name from the first line of the seed
// text, truncated on a word boundary.
func titleFromSeed(seed string) string {
	title := strings.TrimSpace(seed)
	if i := strings.IndexAny(title, "\r\n"); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	if title == "" {
		return "New Lesson"
	}

	runes := []rune(title)
	if len(runes) <= maxTitleLen {
		return title
	}
	cut := string(runes[:maxTitleLen])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
