package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PoluyanbIch/quizbot/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChat = int64(-500)

func TestStartQuizWithoutQuestions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.session.StartQuiz(ctx, testChat, storage.User{ID: 1}))

	assert.Equal(t, []sentMessage{{ChatID: testChat, Text: msgNoQuestions}}, f.sender.messages())
	_, ok, err := f.active.Get(ctx, testChat)
	require.NoError(t, err)
	assert.False(t, ok)

	score, err := f.store.FetchScore(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestStartQuizPostsQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	q := f.addQuestion(t, "Capital of France?", "paris")

	require.NoError(t, f.session.StartQuiz(ctx, testChat, storage.User{ID: 1}))

	assert.Equal(t, []sentMessage{{ChatID: testChat, Text: questionText("Capital of France?")}}, f.sender.messages())
	active, ok, err := f.active.Get(ctx, testChat)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, storage.ActiveQuestion{QuestionID: q.ID, Answer: "paris"}, active)
}

func TestSubmitCandidateWithoutActiveQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addQuestion(t, "Capital of France?", "paris")

	won, err := f.session.SubmitCandidate(ctx, testChat, storage.User{ID: 1}, "paris")
	require.NoError(t, err)
	assert.False(t, won)
	assert.Empty(t, f.sender.messages())

	score, err := f.ledger.CurrentScore(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestSubmitCandidateWrongAnswerIsSilent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addQuestion(t, "Capital of France?", "paris")
	require.NoError(t, f.session.StartQuiz(ctx, testChat, storage.User{ID: 1}))

	won, err := f.session.SubmitCandidate(ctx, testChat, storage.User{ID: 2}, "london")
	require.NoError(t, err)
	assert.False(t, won)
	assert.Len(t, f.sender.messages(), 1)

	_, ok, err := f.active.Get(ctx, testChat)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubmitCandidateNormalizesAnswer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	q := f.addQuestion(t, "Capital of France?", "paris")
	require.NoError(t, f.session.StartQuiz(ctx, testChat, storage.User{ID: 1}))

	winner := storage.User{ID: 2, FirstName: "Marie"}
	won, err := f.session.SubmitCandidate(ctx, testChat, winner, "  PARIS  ")
	require.NoError(t, err)
	require.True(t, won)

	msgs := f.sender.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, correctAnswerText("Marie", 1), msgs[1].Text)

	_, ok, err := f.active.Get(ctx, testChat)
	require.NoError(t, err)
	assert.False(t, ok)

	unanswered, err := f.store.FetchUnansweredQuestions(ctx)
	require.NoError(t, err)
	for _, u := range unanswered {
		assert.NotEqual(t, q.ID, u.ID)
	}

	score, err := f.session.Score(ctx, winner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, score)
}

func TestSubmitCandidateFirstCorrectAnswerWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addQuestion(t, "Capital of France?", "paris")
	require.NoError(t, f.session.StartQuiz(ctx, testChat, storage.User{ID: 1}))

	players := []storage.User{{ID: 10, FirstName: "A"}, {ID: 20, FirstName: "B"}}
	results := make([]bool, len(players))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, p := range players {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			won, err := f.session.SubmitCandidate(ctx, testChat, p, "Paris")
			assert.NoError(t, err)
			results[i] = won
		}()
	}
	close(start)
	wg.Wait()

	assert.NotEqual(t, results[0], results[1], "exactly one submission must win")

	total := 0
	for _, p := range players {
		score, err := f.ledger.CurrentScore(ctx, p.ID)
		require.NoError(t, err)
		total += score
	}
	assert.Equal(t, 1, total)
	assert.Len(t, f.sender.messages(), 2)
}

func TestStartQuizOverwritesActiveQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.addQuestion(t, "q1", "one")
	second := f.addQuestion(t, "q2", "two")

	f.bank.intn = func(int) int { return 0 }
	require.NoError(t, f.session.StartQuiz(ctx, testChat, storage.User{ID: 1}))
	f.bank.intn = func(n int) int { return n - 1 }
	require.NoError(t, f.session.StartQuiz(ctx, testChat, storage.User{ID: 1}))

	active, ok, err := f.active.Get(ctx, testChat)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.ID, active.QuestionID)

	won, err := f.session.SubmitCandidate(ctx, testChat, storage.User{ID: 2}, "one")
	require.NoError(t, err)
	assert.False(t, won)

	unanswered, err := f.store.FetchUnansweredQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, unanswered, 2)
	assert.Equal(t, first.ID, unanswered[0].ID)
}

func TestChatsAreIndependent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addQuestion(t, "q", "answer")

	require.NoError(t, f.session.StartQuiz(ctx, 1, storage.User{ID: 1}))

	won, err := f.session.SubmitCandidate(ctx, 2, storage.User{ID: 2}, "answer")
	require.NoError(t, err)
	assert.False(t, won)

	won, err = f.session.SubmitCandidate(ctx, 1, storage.User{ID: 2}, "answer")
	require.NoError(t, err)
	assert.True(t, won)
}

func TestAddQuestionRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.session.AddQuestion(ctx, testAdminID+1, "q", "a")
	require.ErrorIs(t, err, ErrNotAdmin)
	n, err := f.bank.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.session.AddQuestion(ctx, testAdminID, "q", "")
	require.ErrorIs(t, err, ErrInvalidQuestion)

	q, err := f.session.AddQuestion(ctx, testAdminID, "q", "a")
	require.NoError(t, err)
	assert.Equal(t, "q", q.Text)
	n, err = f.bank.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLeaderboardText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	text, err := f.session.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, msgEmptyBoard, text)

	require.NoError(t, f.ledger.Award(ctx, storage.User{ID: 1, Username: "alice"}))
	text, err = f.session.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, msgLeaderboardHead+"1. alice: 1 баллов\n", text)
}

func TestStorageFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Close())

	err := f.session.StartQuiz(ctx, testChat, storage.User{ID: 1})
	require.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Empty(t, f.sender.messages())
}

// gatedSender blocks the gateAt-th send until release is closed. Messages are
// recorded in the order they reach the chat.
type gatedSender struct {
	recordingSender
	gateAt  int
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func newGatedSender(gateAt int) *gatedSender {
	return &gatedSender{
		gateAt:  gateAt,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedSender) SendText(chatID int64, text string) error {
	if int(g.calls.Add(1)) == g.gateAt {
		close(g.entered)
		<-g.release
	}
	return g.recordingSender.SendText(chatID, text)
}

func (f *fixture) useSender(sender Sender) {
	f.session = NewSession(f.bank, f.ledger, f.active, sender, SessionConfig{AdminID: testAdminID}, nil)
}

func TestOverlappingStartsShowActiveQuestionLast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addQuestion(t, "Q1?", "one")
	f.addQuestion(t, "Q2?", "two")

	var picks atomic.Int32
	f.bank.intn = func(n int) int {
		if picks.Add(1) == 1 {
			return 0
		}
		return n - 1
	}
	sender := newGatedSender(1)
	f.useSender(sender)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, f.session.StartQuiz(ctx, testChat, storage.User{ID: 1}))
	}()
	<-sender.entered
	go func() {
		defer wg.Done()
		assert.NoError(t, f.session.StartQuiz(ctx, testChat, storage.User{ID: 2}))
	}()
	time.Sleep(50 * time.Millisecond)
	close(sender.release)
	wg.Wait()

	msgs := sender.messages()
	require.Len(t, msgs, 2)
	active, ok, err := f.active.Get(ctx, testChat)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "two", active.Answer)
	assert.Equal(t, questionText("Q2?"), msgs[1].Text)

	won, err := f.session.SubmitCandidate(ctx, testChat, storage.User{ID: 3, FirstName: "C"}, "two")
	require.NoError(t, err)
	assert.True(t, won)
}

func TestConfirmationPrecedesNextQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addQuestion(t, "Q1?", "one")
	f.addQuestion(t, "Q2?", "two")
	f.bank.intn = func(int) int { return 0 }

	sender := newGatedSender(2)
	f.useSender(sender)
	require.NoError(t, f.session.StartQuiz(ctx, testChat, storage.User{ID: 1}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		won, err := f.session.SubmitCandidate(ctx, testChat, storage.User{ID: 2, FirstName: "Bob"}, "one")
		assert.NoError(t, err)
		assert.True(t, won)
	}()
	<-sender.entered
	go func() {
		defer wg.Done()
		assert.NoError(t, f.session.StartQuiz(ctx, testChat, storage.User{ID: 1}))
	}()
	time.Sleep(50 * time.Millisecond)
	close(sender.release)
	wg.Wait()

	texts := make([]string, 0, 3)
	for _, m := range sender.messages() {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{
		questionText("Q1?"),
		correctAnswerText("Bob", 1),
		questionText("Q2?"),
	}, texts)
}

func TestChatLockIsStableAndBounded(t *testing.T) {
	f := newFixture(t)

	assert.Same(t, f.session.chatLock(testChat), f.session.chatLock(testChat))
	assert.Same(t, f.session.chatLock(1), f.session.chatLock(1+chatLockStripes))
	assert.NotSame(t, f.session.chatLock(1), f.session.chatLock(2))
}
