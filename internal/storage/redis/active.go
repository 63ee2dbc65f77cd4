// Package redis persists per-chat active questions so they survive a bot
// restart.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/PoluyanbIch/quizbot/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "quiz:active:"

// ActiveStore keeps one hash per chat under quiz:active:<chatID>.
type ActiveStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("Redis client connected", zap.String("addr", addr))
	return rdb, nil
}

func NewActiveStore(client *redis.Client, logger *zap.Logger) *ActiveStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActiveStore{client: client, logger: logger}
}

func key(chatID int64) string {
	return keyPrefix + strconv.FormatInt(chatID, 10)
}

func (s *ActiveStore) Get(ctx context.Context, chatID int64) (storage.ActiveQuestion, bool, error) {
	fields, err := s.client.HGetAll(ctx, key(chatID)).Result()
	if err != nil {
		return storage.ActiveQuestion{}, false, fmt.Errorf("get active question: %w: %w", storage.ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return storage.ActiveQuestion{}, false, nil
	}
	id, err := strconv.ParseInt(fields["question_id"], 10, 64)
	if err != nil {
		// A corrupt entry would block the chat forever; drop it.
		s.logger.Warn("dropping malformed active question", zap.Int64("chat_id", chatID), zap.Error(err))
		if delErr := s.Delete(ctx, chatID); delErr != nil {
			return storage.ActiveQuestion{}, false, errors.Join(err, delErr)
		}
		return storage.ActiveQuestion{}, false, nil
	}
	return storage.ActiveQuestion{QuestionID: id, Answer: fields["answer"]}, true, nil
}

func (s *ActiveStore) Put(ctx context.Context, chatID int64, q storage.ActiveQuestion) error {
	k := key(chatID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, "question_id", q.QuestionID, "answer", q.Answer)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put active question: %w: %w", storage.ErrUnavailable, err)
	}
	return nil
}

func (s *ActiveStore) Delete(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, key(chatID)).Err(); err != nil {
		return fmt.Errorf("delete active question: %w: %w", storage.ErrUnavailable, err)
	}
	return nil
}
