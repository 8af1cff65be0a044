// internal/api/router.go
package api

import "net/http"

// RegisterRoutes wires every endpoint onto the mux. Authentication is left
// to the deployment's edge; handlers take the user id from the path.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Users
	mux.HandleFunc("POST /users", h.createUser)
	mux.HandleFunc("PUT /users/{userID}", h.updateUser)
	mux.HandleFunc("DELETE /users/{userID}", h.deleteUser)
	mux.HandleFunc("GET /users/{userID}/stats", h.getUserStats)

	// Lessons
	mux.HandleFunc("GET /users/{userID}/lessons", h.listLessons)
	mux.HandleFunc("POST /users/{userID}/lessons", h.generateLesson)
	mux.HandleFunc("GET /lessons/{lessonID}", h.getLesson)

	// Completions
	mux.HandleFunc("POST /users/{userID}/lessons/{lessonID}/complete", h.completeLesson)
}
