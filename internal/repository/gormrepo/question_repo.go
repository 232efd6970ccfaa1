package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

func preloadOptions(db *gorm.DB) *gorm.DB {
	return db.Order("order_index ASC, id ASC")
}

// Create создает вопрос вместе с вариантами ответов
func (r *QuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *entity.Question) error {
	return conn(ctx, r.db, tx).Create(question).Error
}

// GetByID возвращает вопрос с вариантами
func (r *QuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.WithContext(ctx).Preload("Options", preloadOptions).First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// Update обновляет вопрос и заменяет набор вариантов
func (r *QuestionRepo) Update(ctx context.Context, question *entity.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(question).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&entity.QuestionOption{}).Error; err != nil {
			return fmt.Errorf("delete options of question #%d: %w", question.ID, err)
		}
		if len(question.Options) == 0 {
			return nil
		}
		for i := range question.Options {
			question.Options[i].ID = 0
			question.Options[i].QuestionID = question.ID
		}
		return tx.Create(&question.Options).Error
	})
}

// Delete удаляет вопрос и его варианты
func (r *QuestionRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&entity.QuestionOption{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.Question{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// ListByCampaign возвращает вопросы кампании с фильтрами и total count
func (r *QuestionRepo) ListByCampaign(ctx context.Context, campaignID uint, filters repository.QuestionFilters, limit, offset int) ([]entity.Question, int64, error) {
	var questions []entity.Question
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Question{}).Where("campaign_id = ?", campaignID)
	if filters.Search != "" {
		query = query.Where("LOWER(text) LIKE ?", likePattern(filters.Search))
	}
	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Options", preloadOptions).
		Order("order_index ASC, id ASC").
		Limit(limit).Offset(offset).
		Find(&questions).Error
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

// GetActiveByCampaign возвращает активные вопросы кампании
func (r *QuestionRepo) GetActiveByCampaign(ctx context.Context, campaignID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.WithContext(ctx).
		Preload("Options", preloadOptions).
		Where("campaign_id = ? AND is_active = ?", campaignID, true).
		Order("order_index ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

// GetByIDs возвращает вопросы по списку ID в порядке order_index
func (r *QuestionRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.Question, error) {
	if len(ids) == 0 {
		return []entity.Question{}, nil
	}
	var questions []entity.Question
	err := r.db.WithContext(ctx).
		Preload("Options", preloadOptions).
		Where("id IN ?", ids).
		Order("order_index ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

// UpdateOrder выставляет order_index по позиции в списке.
// Все ID должны принадлежать кампании, иначе ErrNotFound.
func (r *QuestionRepo) UpdateOrder(ctx context.Context, campaignID uint, orderedIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&entity.Question{}).
			Where("id IN ? AND campaign_id = ?", orderedIDs, campaignID).
			Count(&owned).Error; err != nil {
			return err
		}
		if owned != int64(len(orderedIDs)) {
			return fmt.Errorf("%w: some questions do not belong to campaign #%d", apperrors.ErrNotFound, campaignID)
		}
		for i, id := range orderedIDs {
			if err := tx.Model(&entity.Question{}).
				Where("id = ? AND campaign_id = ?", id, campaignID).
				Update("order_index", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CountActiveByCampaign возвращает количество активных вопросов
func (r *QuestionRepo) CountActiveByCampaign(ctx context.Context, campaignID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Question{}).
		Where("campaign_id = ? AND is_active = ?", campaignID, true).
		Count(&count).Error
	return count, err
}
