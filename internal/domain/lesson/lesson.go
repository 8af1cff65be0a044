package lesson

import (
	"github.com/lessonloop/backend/internal/id"
)

// Lesson is an ordered sequence of components a user works through.
// Lessons are immutable once generated.
type Lesson struct {
	ID         string
	Name       string
	Author     string // user id of the requester
	Components []Component
}

// New creates a lesson with a generated ID. Components keep the order
// they were given in.
func New(name, author string, components []Component) *Lesson {
	return &Lesson{
		ID:         id.GenerateID(),
		Name:       name,
		Author:     author,
		Components: components,
	}
}

// Summary is the listing projection of a lesson.
type Summary struct {
	ID   string
	Name string
}
