package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/PoluyanbIch/quizbot/internal/storage"
	"go.uber.org/zap"
)

// DefaultLeaderboardLimit is the number of leaderboard rows shown when no
// limit is configured.
const DefaultLeaderboardLimit = 10

type LeaderboardEntry struct {
	Rank  int
	Name  string
	Score int
}

// UserStore is the part of the persistence store the score ledger needs.
type UserStore interface {
	UpsertUser(ctx context.Context, user storage.User) error
	IncrementScore(ctx context.Context, userID int64) error
	FetchScore(ctx context.Context, userID int64) (int, error)
	FetchTopScores(ctx context.Context, limit int) ([]storage.User, error)
}

// ScoreLedger keeps per-user points and ranks them.
type ScoreLedger struct {
	store  UserStore
	logger *zap.Logger
}

func NewScoreLedger(store UserStore, logger *zap.Logger) *ScoreLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreLedger{store: store, logger: logger}
}

// Register creates the user on first contact. Known users are left as they are.
func (l *ScoreLedger) Register(ctx context.Context, user storage.User) error {
	if err := l.store.UpsertUser(ctx, user); err != nil {
		return fmt.Errorf("register user %d: %w", user.ID, err)
	}
	return nil
}

// Award gives the user exactly one point, creating the user if needed.
func (l *ScoreLedger) Award(ctx context.Context, user storage.User) error {
	if err := l.Register(ctx, user); err != nil {
		return err
	}
	if err := l.store.IncrementScore(ctx, user.ID); err != nil {
		return fmt.Errorf("award user %d: %w", user.ID, err)
	}
	l.logger.Info("point awarded", zap.Int64("user_id", user.ID))
	return nil
}

// CurrentScore returns the user's score, or 0 for unknown users.
func (l *ScoreLedger) CurrentScore(ctx context.Context, userID int64) (int, error) {
	score, err := l.store.FetchScore(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("score of user %d: %w", userID, err)
	}
	return score, nil
}

// Leaderboard returns up to limit entries, most points first. A non-positive
// limit means DefaultLeaderboardLimit.
func (l *ScoreLedger) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	users, err := l.store.FetchTopScores(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:  i + 1,
			Name:  u.DisplayName(),
			Score: u.Score,
		})
	}
	return entries, nil
}
