// Package sqlite persists quiz questions and users in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PoluyanbIch/quizbot/internal/storage"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for questions and users.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the quiz SQLite store at the provided path and ensures the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// sqlite has a single writer; one connection keeps score updates from hitting SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// EnsureSchema creates the questions and users tables if they are absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			answered BOOLEAN NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			score INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_answered ON questions(answered);`,
		`CREATE INDEX IF NOT EXISTS idx_users_score ON users(score DESC, user_id);`,
	}
	for _, stmt := range statements {
		if _, err := s.sqlDB.ExecContext(ctx, stmt); err != nil {
			return unavailable("ensure schema", err)
		}
	}
	return nil
}

// UpsertUser inserts the user with a zero score; existing rows are left untouched.
func (s *Store) UpsertUser(ctx context.Context, user storage.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT OR IGNORE INTO users (user_id, username, first_name, last_name, score)
VALUES (?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), 0)
`, user.ID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		return unavailable("upsert user", err)
	}
	return nil
}

// InsertQuestion appends a new unanswered question and returns its id.
func (s *Store) InsertQuestion(ctx context.Context, text, answer string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	res, err := s.sqlDB.ExecContext(ctx, `INSERT INTO questions (question, answer) VALUES (?, ?)`, text, answer)
	if err != nil {
		return 0, unavailable("insert question", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, unavailable("insert question id", err)
	}
	return id, nil
}

// FetchUnansweredQuestions returns every question that has not been answered yet.
func (s *Store) FetchUnansweredQuestions(ctx context.Context) ([]storage.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, question, answer, answered
FROM questions
WHERE answered = 0
ORDER BY id
`)
	if err != nil {
		return nil, unavailable("fetch unanswered questions", err)
	}
	defer rows.Close()

	var questions []storage.Question
	for rows.Next() {
		var q storage.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Answer, &q.Answered); err != nil {
			return nil, unavailable("scan question", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate questions", err)
	}
	return questions, nil
}

// CountQuestions returns the number of stored questions, answered or not.
func (s *Store) CountQuestions(ctx context.Context) (int, error) {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, unavailable("count questions", err)
	}
	return n, nil
}

// MarkAnswered flags the question as answered. Unknown ids are ignored.
func (s *Store) MarkAnswered(ctx context.Context, questionID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `UPDATE questions SET answered = 1 WHERE id = ?`, questionID); err != nil {
		return unavailable("mark answered", err)
	}
	return nil
}

// IncrementScore adds one point to the user. Unknown users are ignored.
func (s *Store) IncrementScore(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `UPDATE users SET score = score + 1 WHERE user_id = ?`, userID); err != nil {
		return unavailable("increment score", err)
	}
	return nil
}

// FetchScore returns the user's score or storage.ErrNotFound.
func (s *Store) FetchScore(ctx context.Context, userID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var score int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT score FROM users WHERE user_id = ?`, userID).Scan(&score)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, unavailable("fetch score", err)
	}
	return score, nil
}

// FetchTopScores lists up to limit users by score, highest first. Equal
// scores keep user id order.
func (s *Store) FetchTopScores(ctx context.Context, limit int) ([]storage.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT user_id, username, first_name, last_name, score
FROM users
ORDER BY score DESC, user_id ASC
LIMIT ?
`, limit)
	if err != nil {
		return nil, unavailable("fetch top scores", err)
	}
	defer rows.Close()

	users := make([]storage.User, 0, limit)
	for rows.Next() {
		var (
			u                     storage.User
			username, first, last sql.NullString
		)
		if err := rows.Scan(&u.ID, &username, &first, &last, &u.Score); err != nil {
			return nil, unavailable("scan user", err)
		}
		u.Username = username.String
		u.FirstName = first.String
		u.LastName = last.String
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate users", err)
	}
	return users, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
}
