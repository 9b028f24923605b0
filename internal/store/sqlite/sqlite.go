// Package sqlite stores quizzes, scores and the admin credential as JSON
// documents in libSQL tables created by the migrations package.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/myquiz/backend/internal/quiz"
)

// sortableTime is fixed width so TEXT columns order chronologically.
const sortableTime = "2006-01-02T15:04:05.000000000Z"

type Store struct {
	db *sql.DB
}

var _ quiz.Store = (*Store)(nil)

// New wraps a migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type adminDoc struct {
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close(context.Context) error { return s.db.Close() }

func (s *Store) get(ctx context.Context, q queryer, table, id string, dest any) error {
	var data string
	err := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT json(data) FROM %s WHERE id = ?`, table), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Admin credential

func (s *Store) AdminCredential(ctx context.Context) (quiz.AdminCredential, error) {
	var doc adminDoc
	if err := s.get(ctx, s.db, "admin", quiz.AdminCredentialID, &doc); err != nil {
		return quiz.AdminCredential{}, err
	}
	return quiz.AdminCredential{
		Email:     doc.Email,
		Password:  quiz.DecodePassword(doc.Password),
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (s *Store) SaveAdminCredential(ctx context.Context, cred quiz.AdminCredential) error {
	data, err := json.Marshal(adminDoc{
		Email:     cred.Email,
		Password:  cred.Password.Encode(),
		UpdatedAt: cred.UpdatedAt,
	})
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO admin (id, data) VALUES (?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		quiz.AdminCredentialID, string(data),
	)
	return err
}

// Quizzes

func (s *Store) ListQuizzes(ctx context.Context) ([]quiz.QuizSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM quizzes ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []quiz.QuizSummary{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var q quiz.Quiz
		if err := json.Unmarshal([]byte(data), &q); err != nil {
			return nil, err
		}
		out = append(out, q.Summary())
	}
	return out, rows.Err()
}

func (s *Store) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	var q quiz.Quiz
	err := s.get(ctx, s.db, "quizzes", id, &q)
	return q, err
}

func (s *Store) InsertQuiz(ctx context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	q = q.Clone()
	q.ID = uuid.NewString()
	if q.Questions == nil {
		q.Questions = []quiz.Question{}
	}
	data, err := json.Marshal(q)
	if err != nil {
		return quiz.Quiz{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quizzes (id, created_at, data) VALUES (?, ?, jsonb(?))`,
		q.ID, q.CreatedAt.UTC().Format(sortableTime), string(data),
	)
	if err != nil {
		return quiz.Quiz{}, err
	}
	return q, nil
}

func (s *Store) ReplaceQuiz(ctx context.Context, q quiz.Quiz) error {
	if q.Questions == nil {
		q.Questions = []quiz.Question{}
	}
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE quizzes SET data = jsonb(?) WHERE id = ?`,
		string(data), q.ID,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return quiz.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return quiz.ErrNotFound
	}
	return nil
}

func (s *Store) PushQuestions(ctx context.Context, quizID string, qs []quiz.Question, updatedAt time.Time) error {
	return s.modifyQuiz(ctx, quizID, func(q *quiz.Quiz) error {
		for _, qq := range qs {
			q.Questions = append(q.Questions, qq.Clone())
		}
		q.UpdatedAt = updatedAt
		return nil
	})
}

func (s *Store) PullQuestion(ctx context.Context, quizID, questionID string, updatedAt time.Time) error {
	return s.modifyQuiz(ctx, quizID, func(q *quiz.Quiz) error {
		kept := q.Questions[:0]
		for _, qq := range q.Questions {
			if qq.ID != questionID {
				kept = append(kept, qq)
			}
		}
		if len(kept) == len(q.Questions) {
			return quiz.ErrNotFound
		}
		q.Questions = kept
		q.UpdatedAt = updatedAt
		return nil
	})
}

// modifyQuiz loads a quiz, applies fn, and saves it in a transaction.
func (s *Store) modifyQuiz(ctx context.Context, id string, fn func(*quiz.Quiz) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var q quiz.Quiz
	if err := s.get(ctx, tx, "quizzes", id, &q); err != nil {
		return err
	}
	if err := fn(&q); err != nil {
		return err
	}

	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE quizzes SET data = jsonb(?) WHERE id = ?`, string(data), id,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Scores

func (s *Store) InsertScore(ctx context.Context, sc quiz.Score) (quiz.Score, error) {
	sc.ID = uuid.NewString()
	data, err := json.Marshal(sc)
	if err != nil {
		return quiz.Score{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scores (id, email_key, date, data) VALUES (?, ?, ?, jsonb(?))`,
		sc.ID, emailKey(sc.Email), sc.Date.UTC().Format(sortableTime), string(data),
	)
	if err != nil {
		return quiz.Score{}, err
	}
	return sc, nil
}

func (s *Store) ListScores(ctx context.Context) ([]quiz.Score, error) {
	return s.scores(ctx, `SELECT json(data) FROM scores ORDER BY date DESC, rowid DESC`)
}

func (s *Store) ListScoresByEmail(ctx context.Context, email string) ([]quiz.Score, error) {
	return s.scores(ctx,
		`SELECT json(data) FROM scores WHERE email_key = ? ORDER BY date DESC, rowid DESC`,
		emailKey(email),
	)
}

func (s *Store) scores(ctx context.Context, query string, args ...any) ([]quiz.Score, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []quiz.Score{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var sc quiz.Score
		if err := json.Unmarshal([]byte(data), &sc); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
