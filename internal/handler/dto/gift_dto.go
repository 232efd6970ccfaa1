package dto

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
)

const defaultProbability = 100

// GiftRequest: тело создания и обновления подарка
type GiftRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Description string                 `json:"description"`
	Type        string                 `json:"type"`
	Value       decimal.Decimal        `json:"value"`
	CodePrefix  string                 `json:"code_prefix"`
	MinScore    int                    `json:"min_score"`
	MaxScore    *int                   `json:"max_score"`
	MaxQuantity *int                   `json:"max_quantity"`
	Probability *int                   `json:"probability"`
	IsActive    *bool                  `json:"is_active"`
	APIEndpoint string                 `json:"api_endpoint"`
	APIParams   map[string]interface{} `json:"api_params"`
}

// ToEntity переводит запрос в сущность подарка кампании
func (r *GiftRequest) ToEntity(campaignID uint) *entity.Gift {
	g := &entity.Gift{
		CampaignID:  campaignID,
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		Value:       r.Value,
		CodePrefix:  r.CodePrefix,
		MinScore:    r.MinScore,
		MaxScore:    r.MaxScore,
		MaxQuantity: r.MaxQuantity,
		Probability: defaultProbability,
		IsActive:    true,
		APIEndpoint: r.APIEndpoint,
	}
	if g.Type == "" {
		g.Type = entity.GiftTypeVoucher
	}
	if r.Probability != nil {
		g.Probability = *r.Probability
	}
	if r.IsActive != nil {
		g.IsActive = *r.IsActive
	}
	if len(r.APIParams) > 0 {
		g.APIParams = datatypes.JSONMap(r.APIParams)
	}
	return g
}

// ClaimRequest: код подарка для погашения
type ClaimRequest struct {
	Code string `json:"code" binding:"required"`
}
