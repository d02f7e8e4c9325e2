// Package persistence stores questions and mood entries. Two
// implementations exist, one on GORM and one on database/sql with lib/pq;
// the config picks which driver backs the Store.
package persistence

import (
	"context"
	"fmt"

	"github.com/pairplay/gameserver/models"
)

// Store is the persistence surface the services depend on.
type Store interface {
	SaveQuestion(ctx context.Context, q *models.Question) error
	QuestionsByRole(ctx context.Context, role string) ([]models.Question, error)
	UnansweredQuestions(ctx context.Context, askedBy string) ([]models.Question, error)
	AnswerQuestion(ctx context.Context, id uint, answer, answeredBy string) error

	UpsertMood(ctx context.Context, m *models.Mood) error
	MoodFor(ctx context.Context, role, date string) (*models.Mood, error)
	MoodHistory(ctx context.Context, role string, limit int) ([]models.Mood, error)

	Close() error
}

var ErrRecordNotFound = fmt.Errorf("record not found")
