package questions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/questhub/questhub/internal/auth"
	"github.com/questhub/questhub/internal/shared"
)

// Repository persists questions.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Question, error)
	// List returns questions ordered by id. A nil page.Limit means no limit.
	List(ctx context.Context, page shared.Pagination) ([]Question, error)
	// Delete removes the question only when owned by accountID. Fails with
	// shared.ErrNotFound otherwise.
	Delete(ctx context.Context, id QuestionID, accountID auth.AccountID) error
}

// Querier is the subset of pgxpool.Pool used by PGRepository.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	db Querier
}

// NewPGRepository constructs a PostgreSQL repository.
func NewPGRepository(db Querier) *PGRepository {
	return &PGRepository{db: db}
}

const createQuestionSQL = `INSERT INTO questions (title, content, tags, account_id)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`

func (r *PGRepository) Create(ctx context.Context, params CreateParams) (Question, error) {
	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}
	q := Question{Title: params.Title, Content: params.Content, Tags: tags, AccountID: params.AccountID}
	var id int32
	if err := r.db.QueryRow(ctx, createQuestionSQL, q.Title, q.Content, tags, int32(q.AccountID)).Scan(&id, &q.CreatedAt); err != nil {
		return Question{}, fmt.Errorf("%w: create question: %v", shared.ErrDatabaseQuery, err)
	}
	q.ID = QuestionID(id)
	return q, nil
}

// LIMIT NULL is unbounded in PostgreSQL.
const listQuestionsSQL = `SELECT id, title, content, tags, account_id, created_at
FROM questions
ORDER BY id
LIMIT $1 OFFSET $2`

func (r *PGRepository) List(ctx context.Context, page shared.Pagination) ([]Question, error) {
	rows, err := r.db.Query(ctx, listQuestionsSQL, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list questions: %v", shared.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		var (
			q         Question
			id        int32
			accountID int32
		)
		if err := rows.Scan(&id, &q.Title, &q.Content, &q.Tags, &accountID, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan question: %v", shared.ErrDatabaseQuery, err)
		}
		q.ID = QuestionID(id)
		q.AccountID = auth.AccountID(accountID)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list questions: %v", shared.ErrDatabaseQuery, err)
	}
	return out, nil
}

const deleteQuestionSQL = `DELETE FROM questions WHERE id = $1 AND account_id = $2`

func (r *PGRepository) Delete(ctx context.Context, id QuestionID, accountID auth.AccountID) error {
	tag, err := r.db.Exec(ctx, deleteQuestionSQL, int32(id), int32(accountID))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: delete question: %v", shared.ErrDatabaseQuery, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
