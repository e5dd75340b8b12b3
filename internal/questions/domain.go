package questions

import (
	"time"

	"github.com/questhub/questhub/internal/auth"
)

// QuestionID identifies a stored question.
type QuestionID int32

// NewQuestion is the client payload for creating a question.
type NewQuestion struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Content string   `json:"content" validate:"required,max=10000"`
	Tags    []string `json:"tags" validate:"max=10,dive,required,max=32"`
}

// Question is the stored form. Title and Content are already moderated.
type Question struct {
	ID        QuestionID     `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Tags      []string       `json:"tags"`
	AccountID auth.AccountID `json:"account_id"`
	CreatedAt time.Time      `json:"created_at"`
}

// CreateParams is the Repository input for inserting a question.
type CreateParams struct {
	Title     string
	Content   string
	Tags      []string
	AccountID auth.AccountID
}
