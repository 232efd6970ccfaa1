package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	"github.com/yourusername/vefify-quiz/internal/event"
	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
)

const (
	campaignCachePrefix = "campaigns:"
	maxSlugAttempts     = 20
	maxCampaignName     = 255
)

// CampaignStats: краткая статистика кампании
type CampaignStats struct {
	CampaignID        uint    `json:"campaign_id"`
	TotalParticipants int64   `json:"total_participants"`
	Completed         int64   `json:"completed"`
	Passed            int64   `json:"passed"`
	AverageScore      float64 `json:"average_score"`
	PassRate          float64 `json:"pass_rate"` // 0..100
	ActiveQuestions   int64   `json:"active_questions"`
	GiftsAwarded      int64   `json:"gifts_awarded"`
}

// CampaignList: страница списка кампаний (кешируется)
type CampaignList struct {
	Items []entity.Campaign `json:"items"`
	Total int64             `json:"total"`
}

// CampaignService управляет кампаниями
type CampaignService struct {
	campaignRepo    repository.CampaignRepository
	questionRepo    repository.QuestionRepository
	giftRepo        repository.GiftRepository
	participantRepo repository.ParticipantRepository
	cache           repository.CacheRepository
	cacheTTL        time.Duration
	tx              TxRunner
	events          event.Publisher
	logger          *zap.Logger
}

// NewCampaignService создает сервис кампаний
func NewCampaignService(
	campaignRepo repository.CampaignRepository,
	questionRepo repository.QuestionRepository,
	giftRepo repository.GiftRepository,
	participantRepo repository.ParticipantRepository,
	cache repository.CacheRepository,
	cacheTTL time.Duration,
	tx TxRunner,
	events event.Publisher,
	logger *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaignRepo:    campaignRepo,
		questionRepo:    questionRepo,
		giftRepo:        giftRepo,
		participantRepo: participantRepo,
		cache:           cache,
		cacheTTL:        cacheTTL,
		tx:              tx,
		events:          events,
		logger:          logger,
	}
}

func validateCampaign(c *entity.Campaign) error {
	ve := &apperrors.ValidationError{}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		ve.Add("campaign name is required")
	}
	if len([]rune(c.Name)) > maxCampaignName {
		ve.Add("campaign name is too long")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		ve.Add("start_date and end_date are required")
	} else if !c.EndDate.After(c.StartDate) {
		ve.Add("end_date must be after start_date")
	}
	if c.PassScore < 0 {
		ve.Add("pass_score must not be negative")
	}
	if c.QuestionsPerQuiz < 1 {
		ve.Add("questions_per_quiz must be at least 1")
	}
	if c.MaxParticipants < 0 {
		ve.Add("max_participants must not be negative (0 = unlimited)")
	}
	if c.TimeLimitSec < 0 {
		ve.Add("time_limit_sec must not be negative")
	}
	if c.GiftPolicy != "" && c.GiftPolicy != entity.GiftPolicyDeterministic && c.GiftPolicy != entity.GiftPolicyProbabilistic {
		ve.Add(fmt.Sprintf("unsupported gift_policy %q", c.GiftPolicy))
	}
	return ve.OrNil()
}

// uniqueSlug подбирает свободный slug, добавляя числовой суффикс
func (s *CampaignService) uniqueSlug(ctx context.Context, base string, selfID uint) (string, error) {
	if base == "" {
		base = "campaign"
	}
	candidate := base
	for i := 2; i < maxSlugAttempts+2; i++ {
		existing, err := s.campaignRepo.GetBySlug(ctx, candidate)
		if errors.Is(err, apperrors.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if existing.ID == selfID && selfID != 0 {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
	return "", fmt.Errorf("%w: slug %q is taken", apperrors.ErrConflict, base)
}

// CreateCampaign создает кампанию; slug генерируется из названия, если не задан
func (s *CampaignService) CreateCampaign(ctx context.Context, c *entity.Campaign) error {
	c.ID = 0
	if err := validateCampaign(c); err != nil {
		return err
	}

	base := Slugify(c.Slug)
	if base == "" {
		base = Slugify(c.Name)
	}
	slug, err := s.uniqueSlug(ctx, base, 0)
	if err != nil {
		return err
	}
	c.Slug = slug

	if err := s.campaignRepo.Create(ctx, nil, c); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
		}
		s.logger.Error("[CampaignService] Ошибка создания кампании", zap.Error(err))
		return err
	}

	s.logger.Info("[CampaignService] Кампания создана", zap.Uint("campaign_id", c.ID), zap.String("slug", c.Slug))
	s.afterChange(ctx, c.ID, "created")
	return nil
}

// UpdateCampaign обновляет настройки кампании
func (s *CampaignService) UpdateCampaign(ctx context.Context, id uint, input *entity.Campaign) (*entity.Campaign, error) {
	c, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Name = input.Name
	c.Description = input.Description
	c.StartDate = input.StartDate
	c.EndDate = input.EndDate
	c.IsActive = input.IsActive
	c.QuestionsPerQuiz = input.QuestionsPerQuiz
	c.TimeLimitSec = input.TimeLimitSec
	c.PassScore = input.PassScore
	c.MaxParticipants = input.MaxParticipants
	c.WeightedScoring = input.WeightedScoring
	c.GiftPolicy = input.GiftPolicy

	if err := validateCampaign(c); err != nil {
		return nil, err
	}
	if slug := Slugify(input.Slug); slug != "" && slug != c.Slug {
		unique, err := s.uniqueSlug(ctx, slug, c.ID)
		if err != nil {
			return nil, err
		}
		c.Slug = unique
	}

	if err := s.campaignRepo.Update(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
		}
		s.logger.Error("[CampaignService] Ошибка обновления кампании", zap.Uint("campaign_id", id), zap.Error(err))
		return nil, err
	}

	s.afterChange(ctx, c.ID, "updated")
	return c, nil
}

// GetCampaign возвращает кампанию по ID (через кеш)
func (s *CampaignService) GetCampaign(ctx context.Context, id uint) (*entity.Campaign, error) {
	key := fmt.Sprintf("%sid:%d", campaignCachePrefix, id)
	var cached entity.Campaign
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	c, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.storeCache(ctx, key, c)
	return c, nil
}

// GetCampaignBySlug возвращает кампанию по slug (через кеш)
func (s *CampaignService) GetCampaignBySlug(ctx context.Context, slug string) (*entity.Campaign, error) {
	key := campaignCachePrefix + "slug:" + slug
	var cached entity.Campaign
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	c, err := s.campaignRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.storeCache(ctx, key, c)
	return c, nil
}

// ListCampaigns возвращает страницу кампаний; результат кешируется на cacheTTL
func (s *CampaignService) ListCampaigns(ctx context.Context, filters repository.CampaignFilters, page, pageSize int) ([]entity.Campaign, int64, error) {
	limit, offset := pageBounds(page, pageSize)
	key := fmt.Sprintf("%slist:%s:%d:%d", campaignCachePrefix, filtersKey(filters), limit, offset)

	var cached CampaignList
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached.Items, cached.Total, nil
	}

	items, total, err := s.campaignRepo.List(ctx, filters, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	s.storeCache(ctx, key, CampaignList{Items: items, Total: total})
	return items, total, nil
}

func filtersKey(f repository.CampaignFilters) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(f.Search)))
	b.WriteByte('|')
	if f.IsActive != nil {
		b.WriteString(strconv.FormatBool(*f.IsActive))
	}
	b.WriteByte('|')
	if f.DateFrom != nil {
		b.WriteString(strconv.FormatInt(f.DateFrom.Unix(), 10))
	}
	b.WriteByte('|')
	if f.DateTo != nil {
		b.WriteString(strconv.FormatInt(f.DateTo.Unix(), 10))
	}
	return b.String()
}

// DeleteCampaign удаляет кампанию со всеми вопросами, подарками и участниками в одной транзакции
func (s *CampaignService) DeleteCampaign(ctx context.Context, id uint) error {
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		return s.campaignRepo.DeleteCascade(ctx, tx, id)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("[CampaignService] Ошибка удаления кампании", zap.Uint("campaign_id", id), zap.Error(err))
		}
		return err
	}
	s.logger.Info("[CampaignService] Кампания удалена", zap.Uint("campaign_id", id))
	s.afterChange(ctx, id, "deleted")
	return nil
}

// DuplicateCampaign копирует кампанию с вопросами, вариантами и подарками.
// Копия создается неактивной, к названию добавляется " (Copy)", участники не копируются.
func (s *CampaignService) DuplicateCampaign(ctx context.Context, id uint) (*entity.Campaign, error) {
	s.logger.Info("[CampaignService] Запрос на дублирование кампании", zap.Uint("campaign_id", id))

	original, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, _, err := s.questionRepo.ListByCampaign(ctx, id, repository.QuestionFilters{}, -1, 0)
	if err != nil {
		return nil, err
	}
	gifts, err := s.giftRepo.ListByCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	copyCampaign := *original
	copyCampaign.ID = 0
	copyCampaign.Name = duplicateName(original.Name, maxCampaignName)
	copyCampaign.IsActive = false
	copyCampaign.CreatedAt = time.Time{}
	copyCampaign.UpdatedAt = time.Time{}
	copyCampaign.Slug, err = s.uniqueSlug(ctx, original.Slug+"-copy", 0)
	if err != nil {
		return nil, err
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.campaignRepo.Create(ctx, tx, &copyCampaign); err != nil {
			return err
		}
		for i := range questions {
			q := cloneQuestion(&questions[i], copyCampaign.ID)
			if err := s.questionRepo.Create(ctx, tx, q); err != nil {
				return fmt.Errorf("copy question #%d: %w", questions[i].ID, err)
			}
		}
		for i := range gifts {
			g := gifts[i]
			g.ID = 0
			g.CampaignID = copyCampaign.ID
			g.UsedCount = 0
			g.CreatedAt = time.Time{}
			g.UpdatedAt = time.Time{}
			if err := s.giftRepo.Create(ctx, tx, &g); err != nil {
				return fmt.Errorf("copy gift #%d: %w", gifts[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("[CampaignService] Ошибка дублирования кампании", zap.Uint("campaign_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("[CampaignService] Кампания дублирована",
		zap.Uint("campaign_id", id), zap.Uint("copy_id", copyCampaign.ID),
		zap.Int("questions", len(questions)), zap.Int("gifts", len(gifts)))
	s.afterChange(ctx, copyCampaign.ID, "duplicated")
	return &copyCampaign, nil
}

// Stats возвращает статистику кампании
func (s *CampaignService) Stats(ctx context.Context, id uint) (*CampaignStats, error) {
	c, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.participantRepo.CountByStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	avg, passed, err := s.participantRepo.ScoreStats(ctx, id, c.PassScore)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.CountActiveByCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	awards, err := s.giftRepo.CountAwards(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &CampaignStats{
		CampaignID:      id,
		Completed:       byStatus[entity.ParticipantStatusCompleted],
		Passed:          passed,
		AverageScore:    avg,
		ActiveQuestions: questions,
		GiftsAwarded:    awards,
	}
	for _, n := range byStatus {
		stats.TotalParticipants += n
	}
	if stats.Completed > 0 {
		stats.PassRate = float64(passed) * 100 / float64(stats.Completed)
	}
	return stats, nil
}

func (s *CampaignService) storeCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.SetJSON(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Debug("[CampaignService] Не удалось записать кеш", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateCache сбрасывает кеш кампаний
func (s *CampaignService) InvalidateCache(ctx context.Context) {
	if err := s.cache.DeleteByPrefix(ctx, campaignCachePrefix); err != nil {
		s.logger.Warn("[CampaignService] Не удалось сбросить кеш", zap.Error(err))
	}
}

func (s *CampaignService) afterChange(ctx context.Context, id uint, action string) {
	s.InvalidateCache(ctx)
	s.events.Publish(ctx, event.New(event.CampaignChanged, id, nil, map[string]interface{}{"action": action}))
}

// cloneQuestion копирует вопрос с вариантами для другой кампании
func cloneQuestion(q *entity.Question, campaignID uint) *entity.Question {
	clone := *q
	clone.ID = 0
	clone.CampaignID = campaignID
	clone.CreatedAt = time.Time{}
	clone.UpdatedAt = time.Time{}
	clone.Options = make([]entity.QuestionOption, len(q.Options))
	for i, opt := range q.Options {
		opt.ID = 0
		opt.QuestionID = 0
		clone.Options[i] = opt
	}
	return &clone
}
