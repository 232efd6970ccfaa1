package entity

import (
	"time"
)

// Типы вопросов
const (
	QuestionTypeSingleSelect   = "single_select"
	QuestionTypeMultipleSelect = "multiple_select"
	QuestionTypeTrueFalse      = "true_false"
	QuestionTypeText           = "text"
)

// Question представляет вопрос кампании
type Question struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	CampaignID  uint             `gorm:"not null;index" json:"campaign_id"`
	Text        string           `gorm:"type:text;not null" json:"text"`
	Type        string           `gorm:"size:20;not null;default:'single_select'" json:"type"`
	Category    string           `gorm:"size:100;not null;default:''" json:"category"`
	Difficulty  string           `gorm:"size:20;not null;default:'medium'" json:"difficulty"`
	Points      int              `gorm:"not null;default:1" json:"points"`
	Explanation string           `gorm:"type:text" json:"explanation"`
	OrderIndex  int              `gorm:"not null;default:0" json:"order_index"`
	IsActive    bool             `gorm:"not null;default:true;index" json:"is_active"`
	Options     []QuestionOption `gorm:"foreignKey:QuestionID;constraint:-" json:"options"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// QuestionOption представляет вариант ответа
type QuestionOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
	OrderIndex int    `gorm:"not null;default:0" json:"order_index"`
}

// TableName определяет имя таблицы для GORM
func (QuestionOption) TableName() string {
	return "question_options"
}

// IsChoiceType сообщает, выбирается ли ответ из вариантов
func (q *Question) IsChoiceType() bool {
	return q.Type != QuestionTypeText
}

// RequiresSingleAnswer сообщает, допускает ли тип ровно один правильный вариант
func (q *Question) RequiresSingleAnswer() bool {
	return q.Type == QuestionTypeSingleSelect || q.Type == QuestionTypeTrueFalse
}

// CorrectOptionIDs возвращает ID вариантов, помеченных правильными
func (q *Question) CorrectOptionIDs() []uint {
	ids := make([]uint, 0, 1)
	for _, opt := range q.Options {
		if opt.IsCorrect {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

// CorrectCount возвращает количество правильных вариантов
func (q *Question) CorrectCount() int {
	n := 0
	for _, opt := range q.Options {
		if opt.IsCorrect {
			n++
		}
	}
	return n
}

// HasOption проверяет, принадлежит ли вариант вопросу
func (q *Question) HasOption(optionID uint) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// IsValidQuestionType проверяет тип вопроса
func IsValidQuestionType(t string) bool {
	switch t {
	case QuestionTypeSingleSelect, QuestionTypeMultipleSelect, QuestionTypeTrueFalse, QuestionTypeText:
		return true
	}
	return false
}
