package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pairplay/gameserver/models"
	"github.com/pairplay/gameserver/persistence"
)

// mockStore is an in-memory test double for the persistence.Store interface.
type mockStore struct {
	questions []models.Question
	moods     map[string]models.Mood // role+date
	nextID    uint
}

func newMockStore() *mockStore {
	return &mockStore{moods: make(map[string]models.Mood), nextID: 1}
}

func (s *mockStore) SaveQuestion(ctx context.Context, q *models.Question) error {
	q.ID = s.nextID
	s.nextID++
	s.questions = append(s.questions, *q)
	return nil
}

func (s *mockStore) QuestionsByRole(ctx context.Context, role string) ([]models.Question, error) {
	var result []models.Question
	for _, q := range s.questions {
		if q.AskedBy == role {
			result = append(result, q)
		}
	}
	return result, nil
}

func (s *mockStore) UnansweredQuestions(ctx context.Context, askedBy string) ([]models.Question, error) {
	var result []models.Question
	for _, q := range s.questions {
		if q.AskedBy == askedBy && !q.Answered() {
			result = append(result, q)
		}
	}
	return result, nil
}

func (s *mockStore) AnswerQuestion(ctx context.Context, id uint, answer, answeredBy string) error {
	for i := range s.questions {
		if s.questions[i].ID == id {
			s.questions[i].Answer = answer
			s.questions[i].AnsweredBy = answeredBy
			return nil
		}
	}
	return persistence.ErrRecordNotFound
}

func (s *mockStore) UpsertMood(ctx context.Context, m *models.Mood) error {
	s.moods[m.Role+m.Date] = *m
	return nil
}

func (s *mockStore) MoodFor(ctx context.Context, role, date string) (*models.Mood, error) {
	m, ok := s.moods[role+date]
	if !ok {
		return nil, persistence.ErrRecordNotFound
	}
	return &m, nil
}

func (s *mockStore) MoodHistory(ctx context.Context, role string, limit int) ([]models.Mood, error) {
	var result []models.Mood
	for _, m := range s.moods {
		if m.Role == role {
			result = append(result, m)
		}
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *mockStore) Close() error { return nil }

func TestQuestionService_AskAndList(t *testing.T) {
	store := newMockStore()
	svc := NewQuestionService(store)
	ctx := context.Background()

	q, err := svc.Ask(ctx, "he", "  What is your favorite color?  ")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if q.Text != "What is your favorite color?" {
		t.Errorf("Text should be trimmed, got %q", q.Text)
	}

	if _, err := svc.Ask(ctx, "he", "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("Blank question should be rejected, got %v", err)
	}

	mine, err := svc.Mine(ctx, "he")
	if err != nil || len(mine) != 1 {
		t.Fatalf("Expected 1 question of mine, got %d (%v)", len(mine), err)
	}
}

func TestQuestionService_TheirsIsPartnersUnanswered(t *testing.T) {
	store := newMockStore()
	svc := NewQuestionService(store)
	ctx := context.Background()

	svc.Ask(ctx, "he", "his question")
	asked, _ := svc.Ask(ctx, "she", "her question")

	// From he's perspective, "theirs" is she's open question.
	theirs, err := svc.Theirs(ctx, "he")
	if err != nil || len(theirs) != 1 || theirs[0].Text != "her question" {
		t.Fatalf("Expected her open question, got %v (%v)", theirs, err)
	}

	if err := svc.Answer(ctx, "he", asked.ID, "blue"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	theirs, _ = svc.Theirs(ctx, "he")
	if len(theirs) != 0 {
		t.Errorf("Answered question should leave the open list, got %d", len(theirs))
	}

	if err := svc.Answer(ctx, "he", 999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Unknown question should yield ErrNotFound, got %v", err)
	}
	if err := svc.Answer(ctx, "he", asked.ID, " "); !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("Blank answer should be rejected, got %v", err)
	}
}

func TestMoodService_SaveAndPartnerView(t *testing.T) {
	store := newMockStore()
	svc := NewMoodService(store)
	ctx := context.Background()

	if _, err := svc.Save(ctx, "she", " ", ""); !errors.Is(err, ErrEmptyMood) {
		t.Errorf("Blank mood should be rejected, got %v", err)
	}

	m, err := svc.Save(ctx, "she", "happy", "good day")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if m.Date != time.Now().Format("2006-01-02") {
		t.Errorf("Mood should be dated today, got %q", m.Date)
	}

	// Saving again the same day replaces the entry.
	svc.Save(ctx, "she", "tired", "")
	today, err := svc.Today(ctx, "she")
	if err != nil || today.Mood != "tired" {
		t.Fatalf("Expected the replaced entry, got %v (%v)", today, err)
	}

	partner, err := svc.PartnerToday(ctx, "he")
	if err != nil || partner.Mood != "tired" {
		t.Fatalf("He should see her entry, got %v (%v)", partner, err)
	}

	if _, err := svc.PartnerToday(ctx, "she"); !errors.Is(err, ErrNotFound) {
		t.Errorf("No entry for he yet, expected ErrNotFound, got %v", err)
	}
}

func TestMoodService_HistoryLimitClamped(t *testing.T) {
	store := newMockStore()
	svc := NewMoodService(store)

	if _, err := svc.History(context.Background(), "he", -5); err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if _, err := svc.History(context.Background(), "he", 1000); err != nil {
		t.Fatalf("History failed: %v", err)
	}
}
