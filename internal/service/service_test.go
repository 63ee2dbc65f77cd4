package service

import (
	"context"
	"sync"
	"testing"

	"github.com/PoluyanbIch/quizbot/internal/storage"
	"github.com/PoluyanbIch/quizbot/internal/storage/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (r *recordingSender) SendText(chatID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (r *recordingSender) messages() []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMessage(nil), r.sent...)
}

type fixture struct {
	store   *sqlite.Store
	bank    *QuestionBank
	ledger  *ScoreLedger
	active  *MemoryActiveStore
	sender  *recordingSender
	session *Session
}

const testAdminID = 100

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(t.TempDir() + "/quiz.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := zaptest.NewLogger(t)
	f := &fixture{
		store:  store,
		bank:   NewQuestionBank(store, logger),
		ledger: NewScoreLedger(store, logger),
		active: NewMemoryActiveStore(),
		sender: &recordingSender{},
	}
	f.session = NewSession(f.bank, f.ledger, f.active, f.sender, SessionConfig{AdminID: testAdminID}, logger)
	return f
}

func (f *fixture) addQuestion(t *testing.T, text, answer string) storage.Question {
	t.Helper()
	q, err := f.bank.Add(context.Background(), text, answer)
	require.NoError(t, err)
	return q
}
