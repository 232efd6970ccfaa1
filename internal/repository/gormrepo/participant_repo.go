package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
	"github.com/yourusername/vefify-quiz/pkg/database"
)

// ParticipantRepo реализует repository.ParticipantRepository
type ParticipantRepo struct {
	db *gorm.DB
}

// NewParticipantRepo создает новый репозиторий участников
func NewParticipantRepo(db *gorm.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Create регистрирует участника. Уникальность (campaign_id, phone) и (campaign_id, email)
// обеспечивается индексами, поэтому конкурентные регистрации не создают дубликатов.
func (r *ParticipantRepo) Create(ctx context.Context, participant *entity.Participant) error {
	if err := r.db.WithContext(ctx).Create(participant).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: campaign #%d", repository.ErrDuplicateRegistration, participant.CampaignID)
		}
		return err
	}
	return nil
}

// GetByID возвращает участника по ID
func (r *ParticipantRepo) GetByID(ctx context.Context, id uint) (*entity.Participant, error) {
	var participant entity.Participant
	err := r.db.WithContext(ctx).First(&participant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// GetBySessionToken возвращает участника по токену сессии
func (r *ParticipantRepo) GetBySessionToken(ctx context.Context, token string) (*entity.Participant, error) {
	var participant entity.Participant
	err := r.db.WithContext(ctx).Where("session_token = ?", token).First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// PhoneExists проверяет, зарегистрирован ли телефон в кампании
func (r *ParticipantRepo) PhoneExists(ctx context.Context, campaignID uint, phone string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Participant{}).
		Where("campaign_id = ? AND phone = ?", campaignID, phone).
		Count(&count).Error
	return count > 0, err
}

// CountByCampaign возвращает число зарегистрированных участников кампании
func (r *ParticipantRepo) CountByCampaign(ctx context.Context, campaignID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Participant{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error
	return count, err
}

// MarkInProgress фиксирует набор выданных вопросов и время старта
func (r *ParticipantRepo) MarkInProgress(ctx context.Context, id uint, questionIDs []uint, startedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&entity.Participant{}).
		Where("id = ? AND status IN ?", id, openStatuses).
		Updates(map[string]interface{}{
			"status":          entity.ParticipantStatusInProgress,
			"question_ids":    datatypes.JSONSlice[uint](questionIDs),
			"total_questions": len(questionIDs),
			"started_at":      startedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("mark participant #%d in progress: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: participant #%d", repository.ErrAlreadyCompleted, id)
	}
	return nil
}

// openStatuses: статусы попытки, которую еще можно завершить
var openStatuses = []string{entity.ParticipantStatusStarted, entity.ParticipantStatusInProgress}

// MarkCompleted атомарно переводит открытую попытку в completed.
// Если UPDATE не затронул строк, причина определяется по текущему статусу:
// completed → ErrAlreadyCompleted, abandoned → ErrAttemptAbandoned, записи нет → ErrNotFound.
func (r *ParticipantRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, id uint, res entity.CompletionResult) error {
	db := conn(ctx, r.db, tx)
	result := db.Model(&entity.Participant{}).
		Where("id = ? AND status IN ?", id, openStatuses).
		Updates(completionUpdates(res))
	if result.Error != nil {
		return fmt.Errorf("complete participant #%d: %w", id, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var statuses []string
	if err := db.Model(&entity.Participant{}).Where("id = ?", id).Pluck("status", &statuses).Error; err != nil {
		return err
	}
	switch {
	case len(statuses) == 0:
		return apperrors.ErrNotFound
	case statuses[0] == entity.ParticipantStatusAbandoned:
		return fmt.Errorf("%w: participant #%d", repository.ErrAttemptAbandoned, id)
	default:
		return fmt.Errorf("%w: participant #%d", repository.ErrAlreadyCompleted, id)
	}
}

// Rescore перезаписывает результат уже завершённого участника
func (r *ParticipantRepo) Rescore(ctx context.Context, id uint, res entity.CompletionResult) error {
	result := r.db.WithContext(ctx).Model(&entity.Participant{}).
		Where("id = ? AND status = ?", id, entity.ParticipantStatusCompleted).
		Updates(completionUpdates(res))
	if result.Error != nil {
		return fmt.Errorf("rescore participant #%d: %w", id, result.Error)
	}
	return nil
}

func completionUpdates(res entity.CompletionResult) map[string]interface{} {
	return map[string]interface{}{
		"status":          entity.ParticipantStatusCompleted,
		"final_score":     res.FinalScore,
		"max_score":       res.MaxScore,
		"total_questions": res.TotalQuestions,
		"passed":          res.Passed,
		"answers":         res.Answers,
		"completion_time": res.CompletionTime,
		"completed_at":    res.CompletedAt,
	}
}

// AssignGift записывает выданный подарок на участника
func (r *ParticipantRepo) AssignGift(ctx context.Context, tx *gorm.DB, id uint, giftID uint, code string) error {
	return conn(ctx, r.db, tx).Model(&entity.Participant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"gift_id":   giftID,
			"gift_code": code,
		}).Error
}

func (r *ParticipantRepo) filtered(ctx context.Context, campaignID uint, filters repository.ParticipantFilters) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entity.Participant{}).Where("campaign_id = ?", campaignID)

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Search != "" {
		search := likePattern(filters.Search)
		query = query.Where("LOWER(full_name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", search, search, search)
	}
	if filters.Province != "" {
		query = query.Where("province = ?", filters.Province)
	}
	if filters.HasGift != nil {
		if *filters.HasGift {
			query = query.Where("gift_id IS NOT NULL")
		} else {
			query = query.Where("gift_id IS NULL")
		}
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// List возвращает участников кампании с фильтрами и total count
func (r *ParticipantRepo) List(ctx context.Context, campaignID uint, filters repository.ParticipantFilters, limit, offset int) ([]entity.Participant, int64, error) {
	var participants []entity.Participant
	var total int64

	query := r.filtered(ctx, campaignID, filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&participants).Error
	if err != nil {
		return nil, 0, err
	}
	return participants, total, nil
}

// ListAll возвращает всех участников по фильтрам (для экспорта)
func (r *ParticipantRepo) ListAll(ctx context.Context, campaignID uint, filters repository.ParticipantFilters) ([]entity.Participant, error) {
	var participants []entity.Participant
	err := r.filtered(ctx, campaignID, filters).Order("id ASC").Find(&participants).Error
	return participants, err
}

// BulkDelete удаляет участников по списку ID
func (r *ParticipantRepo) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&entity.Participant{})
	return result.RowsAffected, result.Error
}

// MarkAbandoned помечает брошенные попытки. Возраст считается от старта викторины,
// а для не начатых попыток от регистрации.
func (r *ParticipantRepo) MarkAbandoned(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.Participant{}).
		Where("status IN ? AND COALESCE(started_at, created_at) < ?", openStatuses, cutoff).
		Update("status", entity.ParticipantStatusAbandoned)
	return result.RowsAffected, result.Error
}

// CountByStatus возвращает количество участников по статусам
func (r *ParticipantRepo) CountByStatus(ctx context.Context, campaignID uint) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Participant{}).
		Select("status, COUNT(*) AS count").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ScoreStats возвращает средний балл завершивших и число прошедших
func (r *ParticipantRepo) ScoreStats(ctx context.Context, campaignID uint, passScore int) (float64, int64, error) {
	var row struct {
		AvgScore float64
		Passed   int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Participant{}).
		Select("COALESCE(AVG(final_score), 0) AS avg_score, COALESCE(SUM(CASE WHEN final_score >= ? THEN 1 ELSE 0 END), 0) AS passed", passScore).
		Where("campaign_id = ? AND status = ?", campaignID, entity.ParticipantStatusCompleted).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.AvgScore, row.Passed, nil
}
