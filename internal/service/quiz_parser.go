package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// QuestionSeed is one question read from a seed file.
type QuestionSeed struct {
	Text   string
	Answer string
}

// ParseQuizQuestions reads one `"question" answer` pair per line. Blank lines
// are skipped.
func ParseQuizQuestions(r io.Reader) ([]QuestionSeed, error) {
	var seeds []QuestionSeed
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		question, answer, err := parseQuestionLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		seeds = append(seeds, QuestionSeed{Text: question, Answer: answer})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading questions: %w", err)
	}
	return seeds, nil
}

// parseQuestionLine splits `"question" answer`.
func parseQuestionLine(line string) (string, string, error) {
	if !strings.HasPrefix(line, `"`) {
		return "", "", fmt.Errorf("invalid format: question must be quoted")
	}

	quoteEnd := strings.Index(line[1:], `"`) + 1
	if quoteEnd <= 0 {
		return "", "", fmt.Errorf("invalid format: no closing quote")
	}

	question := strings.TrimSpace(line[1:quoteEnd])
	if question == "" {
		return "", "", fmt.Errorf("question cannot be empty")
	}

	answer := strings.TrimSpace(line[quoteEnd+1:])
	if answer == "" {
		return "", "", fmt.Errorf("no answer found")
	}

	return question, answer, nil
}

// SeedQuestions imports the questions file into an empty bank. A bank that
// already holds questions is left alone. It returns how many were added.
func SeedQuestions(ctx context.Context, bank *QuestionBank, filename string, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	n, err := bank.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("question bank already seeded", zap.Int("questions", n))
		return 0, nil
	}

	file, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	seeds, err := ParseQuizQuestions(file)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", filename, err)
	}
	for _, seed := range seeds {
		if _, err := bank.Add(ctx, seed.Text, seed.Answer); err != nil {
			return 0, err
		}
	}

	logger.Info("questions loaded", zap.Int("questions", len(seeds)), zap.String("file", filename))
	return len(seeds), nil
}
