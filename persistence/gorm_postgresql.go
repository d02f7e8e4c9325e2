package persistence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/pairplay/gameserver/models"
)

// GormPostgreSQL implements Store on GORM.
type GormPostgreSQL struct {
	db *gorm.DB
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.Question{}, &models.Mood{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) SaveQuestion(ctx context.Context, q *models.Question) error {
	return p.db.WithContext(ctx).Create(q).Error
}

func (p *GormPostgreSQL) QuestionsByRole(ctx context.Context, role string) ([]models.Question, error) {
	var questions []models.Question
	err := p.db.WithContext(ctx).
		Where("asked_by = ?", role).
		Order("created_at DESC").
		Find(&questions).Error
	return questions, err
}

func (p *GormPostgreSQL) UnansweredQuestions(ctx context.Context, askedBy string) ([]models.Question, error) {
	var questions []models.Question
	err := p.db.WithContext(ctx).
		Where("asked_by = ? AND answer = ''", askedBy).
		Order("created_at ASC").
		Find(&questions).Error
	return questions, err
}

func (p *GormPostgreSQL) AnswerQuestion(ctx context.Context, id uint, answer, answeredBy string) error {
	result := p.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"answer": answer, "answered_by": answeredBy})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (p *GormPostgreSQL) UpsertMood(ctx context.Context, m *models.Mood) error {
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "role"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"mood", "note", "updated_at"}),
		}).
		Create(m).Error
}

func (p *GormPostgreSQL) MoodFor(ctx context.Context, role, date string) (*models.Mood, error) {
	var mood models.Mood
	err := p.db.WithContext(ctx).
		Where("role = ? AND date = ?", role, date).
		First(&mood).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &mood, nil
}

func (p *GormPostgreSQL) MoodHistory(ctx context.Context, role string, limit int) ([]models.Mood, error) {
	var moods []models.Mood
	err := p.db.WithContext(ctx).
		Where("role = ?", role).
		Order("date DESC").
		Limit(limit).
		Find(&moods).Error
	return moods, err
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
