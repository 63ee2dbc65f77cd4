package telegram

import (
	"fmt"
	"strings"

	"github.com/PoluyanbIch/quizbot/internal/storage"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackStartQuiz   = "start_quiz"
	callbackLeaderboard = "leaderboard"
)

const (
	msgUnknownCommand   = "Неизвестная команда"
	msgNotAdmin         = "Извините, эта команда только для администраторов."
	msgAddQuestionUsage = "Использование: /add_question Вопрос | Ответ\nБез | ответом считается последнее слово."
	msgQuestionAdded    = "Вопрос добавлен: %s (Ответ: %s)"
	msgScore            = "Твой текущий счет: %d"
	msgUnavailable      = "Сервис временно недоступен, попробуйте позже."
	msgHelp             = "📋 Команды:\n" +
		"/quiz - новый вопрос\n" +
		"/leaderboard - таблица лидеров\n" +
		"/score - твой счет\n" +
		"/add_question Вопрос | Ответ - добавить вопрос (только админ)\n\n" +
		"Отвечайте на вопрос обычным сообщением. Первый правильный ответ получает балл."
)

func welcomeText(user storage.User) string {
	return fmt.Sprintf("Привет, %s! Я бот для викторины. "+
		"Используй /quiz чтобы получить вопрос или /leaderboard чтобы увидеть таблицу лидеров.", user.FirstName)
}

func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Вопрос", callbackStartQuiz),
			tgbotapi.NewInlineKeyboardButtonData("🏆 Лидерборд", callbackLeaderboard),
		),
	)
}

// ParseAddQuestionArgs splits /add_question arguments into question and
// answer. "question | answer" splits at the first bar; otherwise the last
// word is the answer. Malformed input yields empty parts.
func ParseAddQuestionArgs(args string) (question, answer string) {
	if q, a, ok := strings.Cut(args, "|"); ok {
		return strings.TrimSpace(q), strings.TrimSpace(a)
	}

	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", ""
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}
