package repository

import (
	"context"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
)

// AnalyticsRepository хранит события аналитики
type AnalyticsRepository interface {
	Create(ctx context.Context, event *entity.AnalyticsEvent) error
	CountByType(ctx context.Context, campaignID uint) (map[string]int64, error)
}
