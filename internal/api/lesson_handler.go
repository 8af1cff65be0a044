// internal/api/lesson_handler.go
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lessonloop/backend/internal/assembler"
	"github.com/lessonloop/backend/internal/domain/lesson"
	"github.com/lessonloop/backend/internal/domain/progress"
	"github.com/lessonloop/backend/internal/generator"
	"github.com/lessonloop/backend/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

type GenerateLessonRequest struct {
	Content string `json:"content"` // free-text seed for the lesson
}

type LessonSummaryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type LessonResponse struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Author  string             `json:"author"`
	Content []lesson.Component `json:"content"`
}

type CompleteLessonRequest struct {
	Exp int `json:"exp"` // exp awarded for this completion, scored upstream
	// Optional RFC 3339 completion time, for clients syncing offline
	// completions. Defaults to the server clock.
	CompletedAt string `json:"completed_at,omitempty"`
}

type ProgressResponse struct {
	DailyStreakCount int    `json:"daily_streak_count"`
	LongestStreak    int    `json:"longest_streak"`
	TotalExp         int    `json:"total_exp"`
	StreakLastUpdate string `json:"streak_last_update,omitempty"`
}

func progressResponse(st progress.State) ProgressResponse {
	resp := ProgressResponse{
		DailyStreakCount: st.DailyStreakCount,
		LongestStreak:    st.LongestStreak,
		TotalExp:         st.TotalExp,
	}
	if st.LastCompletion != nil {
		resp.StreakLastUpdate = st.LastCompletion.UTC().Format(time.RFC3339)
	}
	return resp
}

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /users/{userID}/lessons
func (h *Handler) listLessons(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	summaries, err := h.lessons.ListSummaries(r.Context(), userID)
	if h.handleStoreError(w, err, "user") {
		return
	}

	response := make([]LessonSummaryResponse, len(summaries))
	for i, s := range summaries {
		response[i] = LessonSummaryResponse{ID: s.ID, Name: s.Name}
	}
	respondJSON(w, http.StatusOK, response)
}

// POST /users/{userID}/lessons
func (h *Handler) generateLesson(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var req GenerateLessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	l, err := h.lessons.Generate(r.Context(), userID, req.Content)
	if err != nil {
		h.respondGenerationError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, LessonResponse{
		ID:      l.ID,
		Name:    l.Name,
		Author:  l.Author,
		Content: l.Components,
	})
}

// respondGenerationError maps the generation error taxonomy onto HTTP. The
// split matters to clients: 504 and 502 mean no lesson exists and the seed
// can be resubmitted freely; 500 after ErrLessonNotSaved means generation
// worked and only persistence failed.
func (h *Handler) respondGenerationError(w http.ResponseWriter, err error) {
	var provErr *generator.ProviderError

	switch {
	case errors.Is(err, assembler.ErrProviderTimeout):
		respondError(w, http.StatusGatewayTimeout, "lesson generation timed out")
	case errors.Is(err, lesson.ErrUnrecognizedShape):
		respondError(w, http.StatusBadGateway, "generator returned an unrecognized component shape")
	case errors.Is(err, assembler.ErrEmptyLesson):
		respondError(w, http.StatusBadGateway, "generator produced no usable lesson content")
	case errors.As(err, &provErr):
		h.logger.Error("generation provider error", "error", err)
		respondError(w, http.StatusBadGateway, "lesson generation failed")
	case errors.Is(err, service.ErrLessonNotSaved):
		h.logger.Error("generated lesson not saved", "error", err)
		respondError(w, http.StatusInternalServerError, "lesson generated but could not be saved")
	default:
		h.handleStoreError(w, err, "user")
	}
}

// GET /lessons/{lessonID}
func (h *Handler) getLesson(w http.ResponseWriter, r *http.Request) {
	lessonID := r.PathValue("lessonID")

	l, err := h.lessons.Get(r.Context(), lessonID)
	if h.handleStoreError(w, err, "lesson") {
		return
	}

	respondJSON(w, http.StatusOK, LessonResponse{
		ID:      l.ID,
		Name:    l.Name,
		Author:  l.Author,
		Content: l.Components,
	})
}

// POST /users/{userID}/lessons/{lessonID}/complete
func (h *Handler) completeLesson(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	lessonID := r.PathValue("lessonID")

	var req CompleteLessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Exp < 0 {
		respondError(w, http.StatusBadRequest, "exp must not be negative")
		return
	}

	completedAt := time.Now()
	if req.CompletedAt != "" {
		t, err := time.Parse(time.RFC3339, req.CompletedAt)
		if err != nil {
			respondError(w, http.StatusBadRequest, "completed_at must be RFC 3339")
			return
		}
		completedAt = t
	}

	// The lesson must exist before we record anything against it.
	if _, err := h.lessons.Get(r.Context(), lessonID); h.handleStoreError(w, err, "lesson") {
		return
	}

	st, err := h.progress.RecordCompletion(r.Context(), userID, lessonID, req.Exp, completedAt)
	if errors.Is(err, progress.ErrOutOfOrder) {
		respondError(w, http.StatusConflict, "completion is older than the last recorded one")
		return
	}
	if h.handleStoreError(w, err, "user") {
		return
	}

	respondJSON(w, http.StatusOK, progressResponse(st))
}
