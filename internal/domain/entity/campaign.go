package entity

import (
	"time"
)

// Политики выбора подарка
const (
	GiftPolicyDeterministic = "deterministic"
	GiftPolicyProbabilistic = "probabilistic"
)

// Campaign представляет кампанию викторины: набор вопросов, порог прохождения и подарки
type Campaign struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	Slug             string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description      string    `gorm:"type:text" json:"description"`
	StartDate        time.Time `gorm:"not null;index" json:"start_date"`
	EndDate          time.Time `gorm:"not null;index" json:"end_date"`
	IsActive         bool      `gorm:"not null;default:true;index" json:"is_active"`
	QuestionsPerQuiz int       `gorm:"not null;default:5" json:"questions_per_quiz"`
	TimeLimitSec     int       `gorm:"not null;default:600" json:"time_limit_sec"`
	PassScore        int       `gorm:"not null;default:3" json:"pass_score"`
	MaxParticipants  int       `gorm:"not null;default:0" json:"max_participants"` // 0 = без ограничений
	WeightedScoring  bool      `gorm:"not null;default:false" json:"weighted_scoring"`
	GiftPolicy       string    `gorm:"size:20;not null;default:''" json:"gift_policy"` // пусто = политика из конфигурации
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Campaign) TableName() string {
	return "campaigns"
}

// IsOpen проверяет, принимает ли кампания участников в момент now
func (c *Campaign) IsOpen(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// HasCapacity проверяет, есть ли свободные места при текущем количестве участников
func (c *Campaign) HasCapacity(registered int64) bool {
	if c.MaxParticipants <= 0 {
		return true
	}
	return registered < int64(c.MaxParticipants)
}

// IsPassed сообщает, достаточно ли баллов для прохождения
func (c *Campaign) IsPassed(score int) bool {
	return score >= c.PassScore
}
