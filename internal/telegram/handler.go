package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PoluyanbIch/quizbot/internal/service"
	"github.com/PoluyanbIch/quizbot/internal/storage"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Quiz is the game the bot exposes to chats.
type Quiz interface {
	Register(ctx context.Context, user storage.User) error
	StartQuiz(ctx context.Context, chatID int64, user storage.User) error
	SubmitCandidate(ctx context.Context, chatID int64, user storage.User, text string) (bool, error)
	Leaderboard(ctx context.Context) (string, error)
	Score(ctx context.Context, userID int64) (int, error)
	AddQuestion(ctx context.Context, requesterID int64, text, answer string) (storage.Question, error)
}

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotAPI is the subset of *tgbotapi.BotAPI the bot uses.
type BotAPI interface {
	messageSender
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Sender delivers quiz output as plain text messages.
type Sender struct {
	api messageSender
}

func NewSender(api messageSender) *Sender {
	return &Sender{api: api}
}

func (s *Sender) SendText(chatID int64, text string) error {
	if _, err := s.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

type Bot struct {
	api         BotAPI
	quiz        Quiz
	logger      *zap.Logger
	pollTimeout int

	wg sync.WaitGroup
}

// NewBot wires the update loop to the quiz. pollTimeout is the long-poll
// timeout in seconds.
func NewBot(api BotAPI, quiz Quiz, pollTimeout int, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:         api,
		quiz:        quiz,
		logger:      logger,
		pollTimeout: pollTimeout,
	}
}

// Start long-polls for updates until ctx is cancelled. Each update is
// handled on its own goroutine; Start returns after in-flight updates finish.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	// Handlers finish their store writes even when shutdown begins.
	handlerCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(handlerCtx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	logger := b.logger.With(
		zap.String("event_id", uuid.NewString()),
		zap.Int("update_id", update.UpdateID),
	)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("update handler panicked", zap.Any("panic", r))
		}
	}()

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, logger, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, logger, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, logger *zap.Logger, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	user := toUser(msg.From)
	logger = logger.With(zap.Int64("chat_id", chatID), zap.Int64("user_id", user.ID))

	if !msg.IsCommand() {
		if msg.Text == "" {
			return
		}
		if _, err := b.quiz.SubmitCandidate(ctx, chatID, user, msg.Text); err != nil {
			b.reportError(logger, chatID, "check answer", err)
		}
		return
	}

	logger.Debug("command received", zap.String("command", msg.Command()))
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, logger, chatID, user)
	case "quiz":
		b.startQuiz(ctx, logger, chatID, user)
	case "leaderboard":
		b.handleLeaderboard(ctx, logger, chatID)
	case "score":
		b.handleScore(ctx, logger, chatID, user)
	case "add_question":
		b.handleAddQuestion(ctx, logger, chatID, user, msg.CommandArguments())
	case "help", "info":
		b.handleInfo(chatID)
	default:
		// Group commands may be addressed to another bot.
		if msg.Chat.IsPrivate() {
			b.sendMessage(chatID, msgUnknownCommand)
		}
	}
}

func (b *Bot) handleCallback(ctx context.Context, logger *zap.Logger, callback *tgbotapi.CallbackQuery) {
	callbackConfig := tgbotapi.NewCallback(callback.ID, "")
	if _, err := b.api.Request(callbackConfig); err != nil {
		logger.Warn("error answering callback", zap.Error(err))
	}
	if callback.Message == nil || callback.Message.Chat == nil || callback.From == nil {
		return
	}

	chatID := callback.Message.Chat.ID
	user := toUser(callback.From)
	logger = logger.With(zap.Int64("chat_id", chatID), zap.Int64("user_id", user.ID))

	switch callback.Data {
	case callbackStartQuiz:
		b.startQuiz(ctx, logger, chatID, user)
	case callbackLeaderboard:
		b.handleLeaderboard(ctx, logger, chatID)
	default:
		logger.Debug("unknown callback", zap.String("data", callback.Data))
	}
}

func (b *Bot) handleStart(ctx context.Context, logger *zap.Logger, chatID int64, user storage.User) {
	if err := b.quiz.Register(ctx, user); err != nil {
		b.reportError(logger, chatID, "register user", err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, welcomeText(user))
	msg.ReplyMarkup = mainMenu()
	if _, err := b.api.Send(msg); err != nil {
		logger.Error("error sending start message", zap.Error(err))
	}
}

func (b *Bot) startQuiz(ctx context.Context, logger *zap.Logger, chatID int64, user storage.User) {
	if err := b.quiz.StartQuiz(ctx, chatID, user); err != nil {
		b.reportError(logger, chatID, "start quiz", err)
	}
}

func (b *Bot) handleLeaderboard(ctx context.Context, logger *zap.Logger, chatID int64) {
	text, err := b.quiz.Leaderboard(ctx)
	if err != nil {
		b.reportError(logger, chatID, "leaderboard", err)
		return
	}
	b.sendMessage(chatID, text)
}

func (b *Bot) handleScore(ctx context.Context, logger *zap.Logger, chatID int64, user storage.User) {
	score, err := b.quiz.Score(ctx, user.ID)
	if err != nil {
		b.reportError(logger, chatID, "score", err)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf(msgScore, score))
}

func (b *Bot) handleAddQuestion(ctx context.Context, logger *zap.Logger, chatID int64, user storage.User, args string) {
	question, answer := ParseAddQuestionArgs(args)
	q, err := b.quiz.AddQuestion(ctx, user.ID, question, answer)
	switch {
	case errors.Is(err, service.ErrNotAdmin):
		b.sendMessage(chatID, msgNotAdmin)
	case errors.Is(err, service.ErrInvalidQuestion):
		b.sendMessage(chatID, msgAddQuestionUsage)
	case err != nil:
		b.reportError(logger, chatID, "add question", err)
	default:
		b.sendMessage(chatID, fmt.Sprintf(msgQuestionAdded, q.Text, q.Answer))
	}
}

func (b *Bot) handleInfo(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, msgHelp)
	msg.ReplyMarkup = mainMenu()
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("error sending info", zap.Error(err))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("error sending message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// reportError logs err and tells the chat the bot is unavailable.
func (b *Bot) reportError(logger *zap.Logger, chatID int64, op string, err error) {
	if errors.Is(err, storage.ErrUnavailable) {
		logger.Error(op+" failed: storage unavailable", zap.Error(err))
	} else {
		logger.Error(op+" failed", zap.Error(err))
	}
	b.sendMessage(chatID, msgUnavailable)
}

func toUser(u *tgbotapi.User) storage.User {
	return storage.User{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
