package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseQuizQuestions(t *testing.T) {
	input := `
"Capital of France?" Paris

"Who wrote Faust?" von Goethe
"Largest planet?"   Jupiter
`
	seeds, err := ParseQuizQuestions(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []QuestionSeed{
		{Text: "Capital of France?", Answer: "Paris"},
		{Text: "Who wrote Faust?", Answer: "von Goethe"},
		{Text: "Largest planet?", Answer: "Jupiter"},
	}, seeds)
}

func TestParseQuizQuestionsErrors(t *testing.T) {
	tests := map[string]string{
		"unquoted":   "Capital of France? Paris",
		"unclosed":   `"Capital of France? Paris`,
		"no answer":  `"Capital of France?"`,
		"empty text": `"" Paris`,
	}
	for name, line := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuizQuestions(strings.NewReader(line))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 1")
		})
	}
}

func TestSeedQuestions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "questions.txt")
	require.NoError(t, os.WriteFile(path, []byte("\"q1\" a1\n\"q2\" a2\n"), 0o600))

	added, err := SeedQuestions(ctx, f.bank, path, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = SeedQuestions(ctx, f.bank, path, nil)
	require.NoError(t, err)
	assert.Zero(t, added)

	n, err := f.bank.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSeedQuestionsMissingFile(t *testing.T) {
	f := newFixture(t)

	_, err := SeedQuestions(context.Background(), f.bank, filepath.Join(t.TempDir(), "missing.txt"), nil)
	require.Error(t, err)
}
