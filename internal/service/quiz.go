package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/PoluyanbIch/quizbot/internal/storage"
	"go.uber.org/zap"
)

var (
	// ErrNoQuestions is returned when every question has been answered.
	ErrNoQuestions = errors.New("no questions available")
	// ErrNotAdmin is returned when a non-administrator tries to add a question.
	ErrNotAdmin = errors.New("permission denied")
	// ErrInvalidQuestion is returned when question or answer text is missing.
	ErrInvalidQuestion = errors.New("question and answer are required")
)

// QuestionStore is the part of the persistence store the question bank needs.
type QuestionStore interface {
	InsertQuestion(ctx context.Context, text, answer string) (int64, error)
	FetchUnansweredQuestions(ctx context.Context) ([]storage.Question, error)
	MarkAnswered(ctx context.Context, questionID int64) error
	CountQuestions(ctx context.Context) (int, error)
}

// QuestionBank selects and retires trivia questions.
type QuestionBank struct {
	store  QuestionStore
	intn   func(n int) int
	logger *zap.Logger
}

func NewQuestionBank(store QuestionStore, logger *zap.Logger) *QuestionBank {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionBank{
		store:  store,
		intn:   rand.Intn,
		logger: logger,
	}
}

// PickRandomUnanswered returns a uniformly random unanswered question or
// ErrNoQuestions.
func (b *QuestionBank) PickRandomUnanswered(ctx context.Context) (storage.Question, error) {
	questions, err := b.store.FetchUnansweredQuestions(ctx)
	if err != nil {
		return storage.Question{}, err
	}
	q, ok := pickQuestion(questions, b.intn)
	if !ok {
		return storage.Question{}, ErrNoQuestions
	}
	b.logger.Debug("question picked", zap.Int64("question_id", q.ID), zap.Int("pool", len(questions)))
	return q, nil
}

// Retire marks the question answered. Retiring twice is harmless.
func (b *QuestionBank) Retire(ctx context.Context, questionID int64) error {
	if err := b.store.MarkAnswered(ctx, questionID); err != nil {
		return fmt.Errorf("retire question %d: %w", questionID, err)
	}
	return nil
}

// Add stores a new question. Surrounding whitespace is dropped from both parts.
func (b *QuestionBank) Add(ctx context.Context, text, answer string) (storage.Question, error) {
	text = strings.TrimSpace(text)
	answer = strings.TrimSpace(answer)
	if text == "" || answer == "" {
		return storage.Question{}, ErrInvalidQuestion
	}
	id, err := b.store.InsertQuestion(ctx, text, answer)
	if err != nil {
		return storage.Question{}, err
	}
	b.logger.Info("question added", zap.Int64("question_id", id))
	return storage.Question{ID: id, Text: text, Answer: answer}, nil
}

// Count returns how many questions exist, answered or not.
func (b *QuestionBank) Count(ctx context.Context) (int, error) {
	return b.store.CountQuestions(ctx)
}
