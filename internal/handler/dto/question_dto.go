package dto

import "github.com/yourusername/vefify-quiz/internal/domain/entity"

// OptionRequest: вариант ответа в запросе
type OptionRequest struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionRequest: тело создания и обновления вопроса
type QuestionRequest struct {
	Text        string          `json:"text" binding:"required"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Difficulty  string          `json:"difficulty"`
	Points      int             `json:"points"`
	Explanation string          `json:"explanation"`
	OrderIndex  int             `json:"order_index"`
	IsActive    *bool           `json:"is_active"`
	Options     []OptionRequest `json:"options"`
}

// ToEntity переводит запрос в сущность вопроса кампании
func (r *QuestionRequest) ToEntity(campaignID uint) *entity.Question {
	q := &entity.Question{
		CampaignID:  campaignID,
		Text:        r.Text,
		Type:        r.Type,
		Category:    r.Category,
		Difficulty:  r.Difficulty,
		Points:      r.Points,
		Explanation: r.Explanation,
		OrderIndex:  r.OrderIndex,
		IsActive:    true,
		Options:     make([]entity.QuestionOption, 0, len(r.Options)),
	}
	if r.IsActive != nil {
		q.IsActive = *r.IsActive
	}
	if q.Points == 0 {
		q.Points = 1
	}
	for _, o := range r.Options {
		q.Options = append(q.Options, entity.QuestionOption{Text: o.Text, IsCorrect: o.IsCorrect})
	}
	return q
}

// ReorderRequest: новый порядок вопросов кампании
type ReorderRequest struct {
	QuestionIDs []uint `json:"question_ids" binding:"required,min=1"`
}
