// internal/api/user_handler.go
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/lessonloop/backend/internal/domain/history"
	"github.com/lessonloop/backend/internal/domain/user"
)

// ── Request / Response types ────────────────────────────────────────────────

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type UpdateUserRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type DailyCountResponse struct {
	Date  string `json:"date"` // calendar day, "2006-01-02"
	Count int    `json:"count"`
}

type UserStatsResponse struct {
	UserResponse
	ProgressResponse
	CompletedLessonsByDay []DailyCountResponse `json:"completed_lessons_by_day"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /users
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := user.New(req.Name, req.Email, req.Username)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.SaveUser(r.Context(), u); err != nil {
		h.logger.Error("failed to save user", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save user")
		return
	}

	respondJSON(w, http.StatusCreated, UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Username: u.Username,
	})
}

// PUT /users/{userID}
func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var req UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" && req.Email == "" && req.Username == "" {
		respondError(w, http.StatusBadRequest, "no update data provided")
		return
	}

	u, err := h.store.GetUser(r.Context(), userID)
	if h.handleStoreError(w, err, "user") {
		return
	}

	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	if req.Username != "" {
		u.Username = req.Username
	}

	if h.handleStoreError(w, h.store.UpdateUser(r.Context(), u), "user") {
		return
	}

	respondJSON(w, http.StatusOK, UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Username: u.Username,
	})
}

// DELETE /users/{userID}
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	if h.handleStoreError(w, h.store.DeleteUser(r.Context(), userID), "user") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

const dayFormat = "2006-01-02"

// GET /users/{userID}/stats?start=2026-01-01&end=2026-01-31
func (h *Handler) getUserStats(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	loc := h.progress.Location()

	start, err := time.ParseInLocation(dayFormat, r.URL.Query().Get("start"), loc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "start must be a date like 2026-01-01")
		return
	}
	end, err := time.ParseInLocation(dayFormat, r.URL.Query().Get("end"), loc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "end must be a date like 2026-01-31")
		return
	}

	u, err := h.store.GetUser(r.Context(), userID)
	if h.handleStoreError(w, err, "user") {
		return
	}

	st, series, err := h.progress.Stats(r.Context(), userID, start, end)
	if errors.Is(err, history.ErrInvalidRange) {
		respondError(w, http.StatusBadRequest, "start date is after end date")
		return
	}
	if h.handleStoreError(w, err, "user") {
		return
	}

	byDay := make([]DailyCountResponse, len(series))
	for i, dc := range series {
		byDay[i] = DailyCountResponse{Date: dc.Date.Format(dayFormat), Count: dc.Count}
	}

	respondJSON(w, http.StatusOK, UserStatsResponse{
		UserResponse: UserResponse{
			ID:       u.ID,
			Name:     u.Name,
			Email:    u.Email,
			Username: u.Username,
		},
		ProgressResponse:      progressResponse(st),
		CompletedLessonsByDay: byDay,
	})
}
