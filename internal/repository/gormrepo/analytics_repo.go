package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
)

// AnalyticsRepo реализует repository.AnalyticsRepository
type AnalyticsRepo struct {
	db *gorm.DB
}

// NewAnalyticsRepo создает новый репозиторий событий аналитики
func NewAnalyticsRepo(db *gorm.DB) *AnalyticsRepo {
	return &AnalyticsRepo{db: db}
}

// Create сохраняет событие
func (r *AnalyticsRepo) Create(ctx context.Context, event *entity.AnalyticsEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// CountByType возвращает количество событий кампании по типам
func (r *AnalyticsRepo) CountByType(ctx context.Context, campaignID uint) (map[string]int64, error) {
	var rows []struct {
		EventType string
		Count     int64
	}
	err := r.db.WithContext(ctx).Model(&entity.AnalyticsEvent{}).
		Select("event_type, COUNT(*) AS count").
		Where("campaign_id = ?", campaignID).
		Group("event_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.EventType] = row.Count
	}
	return counts, nil
}
