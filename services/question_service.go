// Package services holds the application logic between the HTTP handlers
// and the Store. The partner of a role is always the other of the two
// fixed roles.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/pairplay/gameserver/models"
	"github.com/pairplay/gameserver/persistence"
)

var (
	ErrEmptyQuestion = errors.New("question text is required")
	ErrEmptyAnswer   = errors.New("answer text is required")
	ErrNotFound      = errors.New("not found")
)

func partnerOf(role string) string {
	if role == "he" {
		return "she"
	}
	return "he"
}

type QuestionService struct {
	store persistence.Store
}

func NewQuestionService(store persistence.Store) *QuestionService {
	return &QuestionService{store: store}
}

// Ask records a new question from role.
func (s *QuestionService) Ask(ctx context.Context, role, text string) (*models.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyQuestion
	}
	q := &models.Question{Text: text, AskedBy: role}
	if err := s.store.SaveQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Mine lists the questions role has asked, newest first.
func (s *QuestionService) Mine(ctx context.Context, role string) ([]models.Question, error) {
	return s.store.QuestionsByRole(ctx, role)
}

// Theirs lists the partner's questions still waiting for role's answer.
func (s *QuestionService) Theirs(ctx context.Context, role string) ([]models.Question, error) {
	return s.store.UnansweredQuestions(ctx, partnerOf(role))
}

// Answer records role's answer to a question.
func (s *QuestionService) Answer(ctx context.Context, role string, id uint, answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ErrEmptyAnswer
	}
	err := s.store.AnswerQuestion(ctx, id, answer, role)
	if errors.Is(err, persistence.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
