package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pairplay/gameserver/models"
	"github.com/pairplay/gameserver/persistence"
)

var ErrEmptyMood = errors.New("mood is required")

const dateLayout = "2006-01-02"

type MoodService struct {
	store persistence.Store
}

func NewMoodService(store persistence.Store) *MoodService {
	return &MoodService{store: store}
}

// Save records today's mood for role, replacing an earlier entry for the
// same day.
func (s *MoodService) Save(ctx context.Context, role, mood, note string) (*models.Mood, error) {
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return nil, ErrEmptyMood
	}
	m := &models.Mood{
		Role: role,
		Date: time.Now().Format(dateLayout),
		Mood: mood,
		Note: strings.TrimSpace(note),
	}
	if err := s.store.UpsertMood(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Today returns role's mood entry for today, or ErrNotFound.
func (s *MoodService) Today(ctx context.Context, role string) (*models.Mood, error) {
	m, err := s.store.MoodFor(ctx, role, time.Now().Format(dateLayout))
	if errors.Is(err, persistence.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return m, err
}

// PartnerToday returns the partner's mood entry for today, or ErrNotFound.
func (s *MoodService) PartnerToday(ctx context.Context, role string) (*models.Mood, error) {
	m, err := s.store.MoodFor(ctx, partnerOf(role), time.Now().Format(dateLayout))
	if errors.Is(err, persistence.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return m, err
}

// History returns role's recent mood entries, newest first.
func (s *MoodService) History(ctx context.Context, role string, limit int) ([]models.Mood, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	return s.store.MoodHistory(ctx, role, limit)
}
