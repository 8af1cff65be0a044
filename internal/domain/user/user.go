package user

import (
	"errors"

	"github.com/lessonloop/backend/internal/id"
)

// User is the account record. Gamification counters live alongside it in
// storage but are modelled separately (see domain/progress).
type User struct {
	ID       string
	Name     string
	Email    string
	Username string
}

// New creates a user with a generated ID.
func New(name, email, username string) (*User, error) {
	if name == "" || email == "" || username == "" {
		return nil, errors.New("name, email and username are required")
	}
	return &User{
		ID:       id.GenerateID(),
		Name:     name,
		Email:    email,
		Username: username,
	}, nil
}
