package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/quizme/quizme-bot/internal/domain/entities"
	"github.com/quizme/quizme-bot/internal/infra/postgres"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists complete session snapshots. The snapshot is a
// JSON encoding sufficient to resume the session identically; a few columns
// are lifted out of it for querying, and the answer history is mirrored into
// its own table in the same transaction.
type SessionRepository struct {
	db postgres.DBTX
	tr *postgres.Transactor
}

// NewSessionRepository creates a new SessionRepository over the provided
// pool and transactor.
func NewSessionRepository(db postgres.DBTX, tr *postgres.Transactor) *SessionRepository {
	return &SessionRepository{db: db, tr: tr}
}

// Save upserts the session snapshot and its answer rows atomically.
func (r *SessionRepository) Save(ctx context.Context, s *entities.Session) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	return r.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		query := `
			INSERT INTO quiz_sessions (
				session_id, phase, topic, quiz_mode, total_score, total_answered,
				correct_count, active, completed, state, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (session_id) DO UPDATE SET
				phase = EXCLUDED.phase,
				topic = EXCLUDED.topic,
				quiz_mode = EXCLUDED.quiz_mode,
				total_score = EXCLUDED.total_score,
				total_answered = EXCLUDED.total_answered,
				correct_count = EXCLUDED.correct_count,
				active = EXCLUDED.active,
				completed = EXCLUDED.completed,
				state = EXCLUDED.state,
				updated_at = EXCLUDED.updated_at
		`

		_, err := tx.Exec(
			ctx,
			query,
			s.SessionID,
			string(s.Phase),
			s.Topic,
			string(s.QuizMode),
			s.TotalScore,
			s.TotalAnswered,
			s.CorrectCount,
			s.Active,
			s.Completed,
			state,
			s.CreatedAt,
			s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}

		for _, rec := range s.AnswerHistory {
			query := `
				INSERT INTO quiz_answers (
					session_id, question_index, question, kind,
					user_answer, is_correct, answered_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (session_id, question_index) DO NOTHING
			`

			_, err := tx.Exec(
				ctx,
				query,
				s.SessionID,
				rec.QuestionIndex,
				rec.Question,
				string(rec.Kind),
				rec.UserAnswer,
				rec.IsCorrect,
				rec.AnsweredAt,
			)
			if err != nil {
				return fmt.Errorf("insert answer record: %w", err)
			}
		}

		return nil
	})
}

// Load restores a session from its snapshot.
func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*entities.Session, error) {
	query := `SELECT state FROM quiz_sessions WHERE session_id = $1`

	var raw []byte
	if err := r.db.QueryRow(ctx, query, sessionID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s entities.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}

	return &s, nil
}

// ActiveSessions counts sessions that have not finished.
func (r *SessionRepository) ActiveSessions(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM quiz_sessions WHERE active = TRUE`

	var count int
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}

	return count, nil
}
