package service

import (
	"fmt"
	"strings"
)

const (
	msgNoQuestions     = "Извините, нет доступных вопросов."
	msgEmptyBoard      = "Таблица лидеров пуста."
	msgLeaderboardHead = "🏆 Таблица лидеров:\n\n"
)

func questionText(text string) string {
	return fmt.Sprintf("Вопрос: %s\n\nОтвечайте в чате! Первый правильный ответ получит балл.", text)
}

func correctAnswerText(name string, score int) string {
	return fmt.Sprintf("Правильно, %s! 🎉\nТы получаешь 1 балл. Твой текущий счет: %d", name, score)
}

// RenderLeaderboard formats entries one per line as "rank. name: score".
func RenderLeaderboard(entries []LeaderboardEntry) string {
	if len(entries) == 0 {
		return msgEmptyBoard
	}
	var sb strings.Builder
	sb.WriteString(msgLeaderboardHead)
	for _, e := range entries {
		fmt.Fprintf(&sb, "%d. %s: %d баллов\n", e.Rank, e.Name, e.Score)
	}
	return sb.String()
}
