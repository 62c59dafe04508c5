package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository provides curated question access and the answer vault.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository constructs a question repository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// PickRandomIDs draws up to limit question ids uniformly at random, optionally
// restricted to a category tag.
func (r *QuestionRepository) PickRandomIDs(ctx context.Context, category string, limit int) ([]uuid.UUID, error) {
	var rows pgx.Rows
	var err error
	if category == "" {
		rows, err = r.pool.Query(ctx,
			`SELECT question_id FROM questions ORDER BY random() LIMIT $1`, limit)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT q.question_id
			 FROM questions q
			 JOIN question_categories qc ON qc.question_id = q.question_id
			 WHERE qc.category = $1
			 ORDER BY random() LIMIT $2`, category, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("pick questions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetByIDs loads question content for the given ids, preserving input order.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, media_url, prompt, option_1, option_2, option_3, option_4,
		        time_limit_seconds, difficulty, created_at
		 FROM questions WHERE question_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]Question, len(ids))
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.QuestionID, &q.MediaURL, &q.Prompt,
			&q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3],
			&q.TimeLimitSeconds, &q.Difficulty, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		byID[q.QuestionID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]Question, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
		}
		ordered = append(ordered, q)
	}
	return ordered, nil
}

// CorrectOption reads the vaulted correct option (1-4) for a question.
func (r *QuestionRepository) CorrectOption(ctx context.Context, questionID uuid.UUID) (int16, error) {
	var option int16
	err := r.pool.QueryRow(ctx,
		`SELECT correct_option FROM question_answers WHERE question_id = $1`, questionID).
		Scan(&option)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get correct option: %w", err)
	}
	return option, nil
}

// SetCorrectOption upserts the vault record for a question.
func (r *QuestionRepository) SetCorrectOption(ctx context.Context, questionID uuid.UUID, option int16) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO question_answers (question_id, correct_option)
		 VALUES ($1, $2)
		 ON CONFLICT (question_id) DO UPDATE SET correct_option = EXCLUDED.correct_option`,
		questionID, option)
	if err != nil {
		return fmt.Errorf("set correct option: %w", err)
	}
	return nil
}

// Insert stores a new question together with its vault record.
func (r *QuestionRepository) Insert(ctx context.Context, q Question, correctOption int16) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO questions (question_id, media_url, prompt, option_1, option_2, option_3, option_4,
		                        time_limit_seconds, difficulty)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		q.QuestionID, q.MediaURL, q.Prompt,
		q.Options[0], q.Options[1], q.Options[2], q.Options[3],
		q.TimeLimitSeconds, q.Difficulty)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}

	for _, category := range q.Categories {
		if _, err := tx.Exec(ctx,
			`INSERT INTO question_categories (question_id, category) VALUES ($1, $2)`,
			q.QuestionID, category); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO question_answers (question_id, correct_option) VALUES ($1, $2)`,
		q.QuestionID, correctOption); err != nil {
		return fmt.Errorf("insert answer record: %w", err)
	}

	return tx.Commit(ctx)
}
