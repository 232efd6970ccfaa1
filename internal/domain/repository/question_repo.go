package repository

import (
	"context"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"gorm.io/gorm"
)

// QuestionFilters определяет фильтры для списка вопросов
type QuestionFilters struct {
	Search     string
	Type       string
	Category   string
	OnlyActive bool
}

// QuestionRepository определяет методы для работы с вопросами и вариантами ответов
type QuestionRepository interface {
	// Create сохраняет вопрос вместе с вариантами
	Create(ctx context.Context, tx *gorm.DB, question *entity.Question) error
	GetByID(ctx context.Context, id uint) (*entity.Question, error)
	// Update обновляет вопрос и полностью заменяет его варианты
	Update(ctx context.Context, question *entity.Question) error
	Delete(ctx context.Context, id uint) error
	ListByCampaign(ctx context.Context, campaignID uint, filters QuestionFilters, limit, offset int) ([]entity.Question, int64, error)
	// GetActiveByCampaign возвращает все активные вопросы кампании с вариантами
	GetActiveByCampaign(ctx context.Context, campaignID uint) ([]entity.Question, error)
	// GetByIDs возвращает вопросы с вариантами по списку ID
	GetByIDs(ctx context.Context, ids []uint) ([]entity.Question, error)
	// UpdateOrder выставляет order_index по позиции ID в списке
	UpdateOrder(ctx context.Context, campaignID uint, orderedIDs []uint) error
	CountActiveByCampaign(ctx context.Context, campaignID uint) (int64, error)
}
