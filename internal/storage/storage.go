// Package storage defines the persisted quiz records shared by the store
// implementations.
package storage

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable wraps every storage engine failure.
	ErrUnavailable = errors.New("storage unavailable")
)

// Question is one trivia prompt/answer pair.
type Question struct {
	ID       int64
	Text     string
	Answer   string
	Answered bool
}

// User is a chat participant and its accumulated score.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	Score     int
}

// DisplayName prefers the handle and falls back to "first last".
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ActiveQuestion is the question a chat is currently racing to answer. The
// answer is captured when the question is posted.
type ActiveQuestion struct {
	QuestionID int64
	Answer     string
}
