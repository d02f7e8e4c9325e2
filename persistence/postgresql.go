package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pairplay/gameserver/models"
)

// PostgreSQL implements Store on database/sql with lib/pq.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS questions (
            id SERIAL PRIMARY KEY,
            text TEXT NOT NULL,
            asked_by VARCHAR(16) NOT NULL,
            answer TEXT NOT NULL DEFAULT '',
            answered_by VARCHAR(16) NOT NULL DEFAULT '',
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS moods (
            id SERIAL PRIMARY KEY,
            role VARCHAR(16) NOT NULL,
            date VARCHAR(10) NOT NULL,
            mood VARCHAR(64) NOT NULL,
            note TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (role, date)
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_questions_asked_by ON questions(asked_by);
        CREATE INDEX IF NOT EXISTS idx_moods_role ON moods(role);
    `)
	return err
}

func (p *PostgreSQL) SaveQuestion(ctx context.Context, q *models.Question) error {
	return p.db.QueryRowContext(ctx, `
        INSERT INTO questions (text, asked_by, answer, answered_by)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `, q.Text, q.AskedBy, q.Answer, q.AnsweredBy).Scan(&q.ID)
}

func (p *PostgreSQL) QuestionsByRole(ctx context.Context, role string) ([]models.Question, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT id, text, asked_by, answer, answered_by, created_at
        FROM questions
        WHERE asked_by = $1
        ORDER BY created_at DESC
    `, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (p *PostgreSQL) UnansweredQuestions(ctx context.Context, askedBy string) ([]models.Question, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT id, text, asked_by, answer, answered_by, created_at
        FROM questions
        WHERE asked_by = $1 AND answer = ''
        ORDER BY created_at ASC
    `, askedBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func scanQuestions(rows *sql.Rows) ([]models.Question, error) {
	var questions []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.AskedBy, &q.Answer, &q.AnsweredBy, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (p *PostgreSQL) AnswerQuestion(ctx context.Context, id uint, answer, answeredBy string) error {
	result, err := p.db.ExecContext(ctx, `
        UPDATE questions
        SET answer = $1, answered_by = $2, updated_at = CURRENT_TIMESTAMP
        WHERE id = $3
    `, answer, answeredBy, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (p *PostgreSQL) UpsertMood(ctx context.Context, m *models.Mood) error {
	_, err := p.db.ExecContext(ctx, `
        INSERT INTO moods (role, date, mood, note)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (role, date)
        DO UPDATE SET mood = EXCLUDED.mood, note = EXCLUDED.note, updated_at = CURRENT_TIMESTAMP
    `, m.Role, m.Date, m.Mood, m.Note)
	return err
}

func (p *PostgreSQL) MoodFor(ctx context.Context, role, date string) (*models.Mood, error) {
	var mood models.Mood
	err := p.db.QueryRowContext(ctx, `
        SELECT id, role, date, mood, note, created_at
        FROM moods
        WHERE role = $1 AND date = $2
    `, role, date).Scan(&mood.ID, &mood.Role, &mood.Date, &mood.Mood, &mood.Note, &mood.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &mood, nil
}

func (p *PostgreSQL) MoodHistory(ctx context.Context, role string, limit int) ([]models.Mood, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT id, role, date, mood, note, created_at
        FROM moods
        WHERE role = $1
        ORDER BY date DESC
        LIMIT $2
    `, role, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moods []models.Mood
	for rows.Next() {
		var m models.Mood
		if err := rows.Scan(&m.ID, &m.Role, &m.Date, &m.Mood, &m.Note, &m.CreatedAt); err != nil {
			return nil, err
		}
		moods = append(moods, m)
	}
	return moods, rows.Err()
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
