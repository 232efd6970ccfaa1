package dto

import (
	"time"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
)

const defaultQuestionsPerQuiz = 5

// CampaignRequest: тело создания и обновления кампании
type CampaignRequest struct {
	Name             string    `json:"name" binding:"required"`
	Slug             string    `json:"slug"`
	Description      string    `json:"description"`
	StartDate        time.Time `json:"start_date" binding:"required"`
	EndDate          time.Time `json:"end_date" binding:"required"`
	IsActive         *bool     `json:"is_active"`
	QuestionsPerQuiz int       `json:"questions_per_quiz"`
	TimeLimitSec     int       `json:"time_limit_sec"`
	PassScore        int       `json:"pass_score"`
	MaxParticipants  int       `json:"max_participants"`
	WeightedScoring  bool      `json:"weighted_scoring"`
	GiftPolicy       string    `json:"gift_policy"`
}

// ToEntity переводит запрос в сущность; отсутствующий is_active означает активную кампанию
func (r *CampaignRequest) ToEntity() *entity.Campaign {
	c := &entity.Campaign{
		Name:             r.Name,
		Slug:             r.Slug,
		Description:      r.Description,
		StartDate:        r.StartDate.UTC(),
		EndDate:          r.EndDate.UTC(),
		IsActive:         true,
		QuestionsPerQuiz: r.QuestionsPerQuiz,
		TimeLimitSec:     r.TimeLimitSec,
		PassScore:        r.PassScore,
		MaxParticipants:  r.MaxParticipants,
		WeightedScoring:  r.WeightedScoring,
		GiftPolicy:       r.GiftPolicy,
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	if c.QuestionsPerQuiz == 0 {
		c.QuestionsPerQuiz = defaultQuestionsPerQuiz
	}
	return c
}

// PublicCampaignResponse: кампания в том виде, в котором её видит участник
type PublicCampaignResponse struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	Description      string    `json:"description"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	IsOpen           bool      `json:"is_open"`
	QuestionsPerQuiz int       `json:"questions_per_quiz"`
	TimeLimitSec     int       `json:"time_limit_sec"`
	PassScore        int       `json:"pass_score"`
}

// NewPublicCampaignResponse создает DTO кампании для участника
func NewPublicCampaignResponse(c *entity.Campaign, now time.Time) *PublicCampaignResponse {
	return &PublicCampaignResponse{
		ID:               c.ID,
		Name:             c.Name,
		Slug:             c.Slug,
		Description:      c.Description,
		StartDate:        c.StartDate,
		EndDate:          c.EndDate,
		IsOpen:           c.IsOpen(now),
		QuestionsPerQuiz: c.QuestionsPerQuiz,
		TimeLimitSec:     c.TimeLimitSec,
		PassScore:        c.PassScore,
	}
}
