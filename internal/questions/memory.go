package questions

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/questhub/questhub/internal/auth"
	"github.com/questhub/questhub/internal/shared"
)

// MemoryRepository keeps questions in insertion order.
type MemoryRepository struct {
	mu        sync.RWMutex
	questions []Question
	nextID    QuestionID
	now       func() time.Time
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1, now: time.Now}
}

func (m *MemoryRepository) Create(ctx context.Context, params CreateParams) (Question, error) {
	if err := ctx.Err(); err != nil {
		return Question{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tags := slices.Clone(params.Tags)
	if tags == nil {
		tags = []string{}
	}
	q := Question{
		ID:        m.nextID,
		Title:     params.Title,
		Content:   params.Content,
		Tags:      tags,
		AccountID: params.AccountID,
		CreatedAt: m.now().UTC(),
	}
	m.questions = append(m.questions, q)
	m.nextID++
	return q, nil
}

func (m *MemoryRepository) List(ctx context.Context, page shared.Pagination) ([]Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := min(max(int(page.Offset), 0), len(m.questions))
	end := len(m.questions)
	if page.Limit != nil {
		end = min(start+max(int(*page.Limit), 0), end)
	}
	out := make([]Question, 0, end-start)
	for _, q := range m.questions[start:end] {
		q.Tags = slices.Clone(q.Tags)
		out = append(out, q)
	}
	return out, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id QuestionID, accountID auth.AccountID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := slices.IndexFunc(m.questions, func(q Question) bool {
		return q.ID == id && q.AccountID == accountID
	})
	if idx < 0 {
		return shared.ErrNotFound
	}
	m.questions = slices.Delete(m.questions, idx, idx+1)
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
