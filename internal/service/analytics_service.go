package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	"github.com/yourusername/vefify-quiz/internal/event"
)

// AnalyticsSummary: сводка по кампании для панели администратора
type AnalyticsSummary struct {
	CampaignID     uint             `json:"campaign_id"`
	ByStatus       map[string]int64 `json:"participants_by_status"`
	Participants   int64            `json:"participants"`
	Completed      int64            `json:"completed"`
	CompletionRate float64          `json:"completion_rate"` // 0..100
	AverageScore   float64          `json:"average_score"`
	PassRate       float64          `json:"pass_rate"` // 0..100
	GiftsAwarded   int64            `json:"gifts_awarded"`
	Inventory      []GiftInventory  `json:"inventory"`
	Events         map[string]int64 `json:"events"`
}

// AnalyticsService записывает события и строит сводки
type AnalyticsService struct {
	analyticsRepo   repository.AnalyticsRepository
	campaignRepo    repository.CampaignRepository
	participantRepo repository.ParticipantRepository
	giftRepo        repository.GiftRepository
	logger          *zap.Logger
}

// NewAnalyticsService создает сервис аналитики
func NewAnalyticsService(
	analyticsRepo repository.AnalyticsRepository,
	campaignRepo repository.CampaignRepository,
	participantRepo repository.ParticipantRepository,
	giftRepo repository.GiftRepository,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		analyticsRepo:   analyticsRepo,
		campaignRepo:    campaignRepo,
		participantRepo: participantRepo,
		giftRepo:        giftRepo,
		logger:          logger,
	}
}

// HandleEvent сохраняет доменное событие; подписчик шины событий
func (s *AnalyticsService) HandleEvent(ctx context.Context, e event.Event) error {
	// изменения настроек кампании не относятся к поведению участников
	if e.Type == event.CampaignChanged {
		return nil
	}

	var data datatypes.JSON
	if len(e.Data) > 0 {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("encode event data: %w", err)
		}
		data = raw
	}

	record := &entity.AnalyticsEvent{
		CampaignID:    e.CampaignID,
		ParticipantID: e.ParticipantID,
		EventType:     string(e.Type),
		Data:          data,
		CreatedAt:     e.OccurredAt,
	}
	return s.analyticsRepo.Create(ctx, record)
}

// Summary собирает статистику кампании
func (s *AnalyticsService) Summary(ctx context.Context, campaignID uint) (*AnalyticsSummary, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.participantRepo.CountByStatus(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	avg, passed, err := s.participantRepo.ScoreStats(ctx, campaignID, campaign.PassScore)
	if err != nil {
		return nil, err
	}
	awards, err := s.giftRepo.CountAwards(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	gifts, err := s.giftRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	events, err := s.analyticsRepo.CountByType(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	summary := &AnalyticsSummary{
		CampaignID:   campaignID,
		ByStatus:     byStatus,
		Completed:    byStatus[entity.ParticipantStatusCompleted],
		AverageScore: avg,
		GiftsAwarded: awards,
		Inventory:    inventoryOf(gifts),
		Events:       events,
	}
	for _, n := range byStatus {
		summary.Participants += n
	}
	if summary.Participants > 0 {
		summary.CompletionRate = float64(summary.Completed) * 100 / float64(summary.Participants)
	}
	if summary.Completed > 0 {
		summary.PassRate = float64(passed) * 100 / float64(summary.Completed)
	}
	return summary, nil
}
