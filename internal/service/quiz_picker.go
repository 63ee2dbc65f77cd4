package service

import (
	"strings"

	"github.com/PoluyanbIch/quizbot/internal/storage"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// pickQuestion draws one question with a uniform random index.
func pickQuestion(questions []storage.Question, intn func(n int) int) (storage.Question, bool) {
	if len(questions) == 0 {
		return storage.Question{}, false
	}
	return questions[intn(len(questions))], true
}

// NormalizeAnswer lower-cases and trims text for answer comparison.
func NormalizeAnswer(text string) string {
	// Casers keep state, so one is built per call.
	return cases.Lower(language.Und).String(strings.TrimSpace(text))
}

// AnswerMatches reports whether candidate equals expected after normalization.
func AnswerMatches(candidate, expected string) bool {
	return NormalizeAnswer(candidate) == NormalizeAnswer(expected)
}
