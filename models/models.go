// Package models holds the persisted record types shared by both database
// drivers.
package models

import (
	"gorm.io/gorm"
)

// Question is a question one partner asked the other.
type Question struct {
	gorm.Model
	Text       string `gorm:"not null" json:"text"`
	AskedBy    string `gorm:"index;not null" json:"askedBy"`
	Answer     string `json:"answer"`
	AnsweredBy string `json:"answeredBy"`
}

// Answered reports whether the question has received an answer.
func (q *Question) Answered() bool {
	return q.Answer != ""
}

// Mood is one partner's mood entry for a calendar day. Date is stored as
// YYYY-MM-DD so the uniqueness constraint is per role per day.
type Mood struct {
	gorm.Model
	Role string `gorm:"uniqueIndex:idx_role_date;not null" json:"role"`
	Date string `gorm:"uniqueIndex:idx_role_date;not null" json:"date"`
	Mood string `gorm:"not null" json:"mood"`
	Note string `json:"note"`
}
