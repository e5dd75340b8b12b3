package questions

import (
	"context"
	"fmt"
	"strings"

	"github.com/questhub/questhub/internal/auth"
	"github.com/questhub/questhub/internal/moderation"
	"github.com/questhub/questhub/internal/shared"
)

// Service applies moderation before questions reach the Repository.
type Service struct {
	repo    Repository
	checker moderation.Checker
}

// NewService builds a Service. A nil checker disables moderation.
func NewService(repo Repository, checker moderation.Checker) *Service {
	if checker == nil {
		checker = moderation.Passthrough{}
	}
	return &Service{repo: repo, checker: checker}
}

// List returns a page of questions. Negative bounds are rejected.
func (s *Service) List(ctx context.Context, page shared.Pagination) ([]Question, error) {
	if page.Offset < 0 || (page.Limit != nil && *page.Limit < 0) {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", shared.ErrValidation)
	}
	return s.repo.List(ctx, page)
}

// Create moderates title and content and stores the question for owner.
func (s *Service) Create(ctx context.Context, owner auth.AccountID, in NewQuestion) (Question, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return Question{}, fmt.Errorf("%w: title and content are required", shared.ErrValidation)
	}

	title, err := s.checker.Check(ctx, title)
	if err != nil {
		return Question{}, fmt.Errorf("questions: moderate title: %w", err)
	}
	content, err = s.checker.Check(ctx, content)
	if err != nil {
		return Question{}, fmt.Errorf("questions: moderate content: %w", err)
	}

	q, err := s.repo.Create(ctx, CreateParams{Title: title, Content: content, Tags: in.Tags, AccountID: owner})
	if err != nil {
		return Question{}, fmt.Errorf("questions: create: %w", err)
	}
	return q, nil
}

// Delete removes a question owned by owner.
func (s *Service) Delete(ctx context.Context, owner auth.AccountID, id QuestionID) error {
	if err := s.repo.Delete(ctx, id, owner); err != nil {
		return fmt.Errorf("questions: delete %d: %w", id, err)
	}
	return nil
}
