package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PoluyanbIch/quizbot/internal/storage"
	"go.uber.org/zap"
)

// Sender delivers plain text to a chat.
type Sender interface {
	SendText(chatID int64, text string) error
}

const chatLockStripes = 256

type SessionConfig struct {
	AdminID          int64
	LeaderboardLimit int
}

// Session runs the per-chat quiz: one active question per chat, first
// correct answer wins. Events for the same chat are serialized; other chats
// proceed in parallel unless they hash onto the same lock stripe.
type Session struct {
	bank   *QuestionBank
	ledger *ScoreLedger
	active ActiveStore
	sender Sender
	cfg    SessionConfig
	logger *zap.Logger

	chats [chatLockStripes]sync.Mutex
}

func NewSession(bank *QuestionBank, ledger *ScoreLedger, active ActiveStore, sender Sender, cfg SessionConfig, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LeaderboardLimit <= 0 {
		cfg.LeaderboardLimit = DefaultLeaderboardLimit
	}
	return &Session{
		bank:   bank,
		ledger: ledger,
		active: active,
		sender: sender,
		cfg:    cfg,
		logger: logger,
	}
}

// chatLock returns the stripe serializing chatID. Chats sharing a stripe are
// serialized together; the set of locks never grows.
func (s *Session) chatLock(chatID int64) *sync.Mutex {
	return &s.chats[uint64(chatID)%chatLockStripes]
}

// Register records the user on first contact.
func (s *Session) Register(ctx context.Context, user storage.User) error {
	return s.ledger.Register(ctx, user)
}

// StartQuiz posts a random unanswered question to the chat and makes it the
// chat's active question, replacing any previous one. When the pool is empty
// the chat is left without an active question. The question is posted while
// the chat is locked, so the last question shown is always the active one.
func (s *Session) StartQuiz(ctx context.Context, chatID int64, user storage.User) error {
	lock := s.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	text, err := s.startQuiz(ctx, chatID, user)
	if err != nil {
		return err
	}
	return s.sender.SendText(chatID, text)
}

func (s *Session) startQuiz(ctx context.Context, chatID int64, user storage.User) (string, error) {
	if err := s.ledger.Register(ctx, user); err != nil {
		return "", err
	}

	q, err := s.bank.PickRandomUnanswered(ctx)
	if errors.Is(err, ErrNoQuestions) {
		if err := s.active.Delete(ctx, chatID); err != nil {
			return "", fmt.Errorf("clear active question: %w", err)
		}
		return msgNoQuestions, nil
	}
	if err != nil {
		return "", err
	}

	if err := s.active.Put(ctx, chatID, storage.ActiveQuestion{QuestionID: q.ID, Answer: q.Answer}); err != nil {
		return "", fmt.Errorf("store active question: %w", err)
	}
	s.logger.Info("quiz started",
		zap.Int64("chat_id", chatID),
		zap.Int64("user_id", user.ID),
		zap.Int64("question_id", q.ID),
	)
	return questionText(q.Text), nil
}

// SubmitCandidate checks text against the chat's active question. It reports
// whether the answer won; chats without an active question and wrong answers
// are ignored silently. The confirmation is posted before the chat is
// unlocked, so it always precedes the next question.
func (s *Session) SubmitCandidate(ctx context.Context, chatID int64, user storage.User, text string) (bool, error) {
	lock := s.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	score, won, err := s.submitCandidate(ctx, chatID, user, text)
	if err != nil || !won {
		return false, err
	}
	name := user.FirstName
	if name == "" {
		name = user.DisplayName()
	}
	if err := s.sender.SendText(chatID, correctAnswerText(name, score)); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Session) submitCandidate(ctx context.Context, chatID int64, user storage.User, text string) (int, bool, error) {
	active, ok, err := s.active.Get(ctx, chatID)
	if err != nil {
		return 0, false, fmt.Errorf("load active question: %w", err)
	}
	if !ok || !AnswerMatches(text, active.Answer) {
		return 0, false, nil
	}

	// Cleared before scoring: a failed write must not reopen the race.
	if err := s.active.Delete(ctx, chatID); err != nil {
		return 0, false, fmt.Errorf("clear active question: %w", err)
	}
	if err := s.ledger.Award(ctx, user); err != nil {
		return 0, false, err
	}
	if err := s.bank.Retire(ctx, active.QuestionID); err != nil {
		return 0, false, err
	}
	score, err := s.ledger.CurrentScore(ctx, user.ID)
	if err != nil {
		return 0, false, err
	}
	s.logger.Info("question answered",
		zap.Int64("chat_id", chatID),
		zap.Int64("user_id", user.ID),
		zap.Int64("question_id", active.QuestionID),
		zap.Int("score", score),
	)
	return score, true, nil
}

// Leaderboard renders the top scores using the configured limit.
func (s *Session) Leaderboard(ctx context.Context) (string, error) {
	entries, err := s.ledger.Leaderboard(ctx, s.cfg.LeaderboardLimit)
	if err != nil {
		return "", err
	}
	return RenderLeaderboard(entries), nil
}

// Score returns the user's current score.
func (s *Session) Score(ctx context.Context, userID int64) (int, error) {
	return s.ledger.CurrentScore(ctx, userID)
}

// AddQuestion stores a question on behalf of the administrator. Anyone else
// gets ErrNotAdmin and nothing is written.
func (s *Session) AddQuestion(ctx context.Context, requesterID int64, text, answer string) (storage.Question, error) {
	if requesterID != s.cfg.AdminID {
		s.logger.Warn("add question rejected", zap.Int64("user_id", requesterID))
		return storage.Question{}, ErrNotAdmin
	}
	return s.bank.Add(ctx, text, answer)
}
