package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	"github.com/yourusername/vefify-quiz/internal/event"
	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
)

const (
	giftQRSize        = 256
	maxCodePrefixLen  = 10
	giftAPICallBudget = 30 * time.Second
)

var codePrefixPattern = regexp.MustCompile(`^[A-Z0-9]*$`)

// errReservationFailed откатывает транзакцию выдачи, когда запас подарка закончился
var errReservationFailed = errors.New("gift reservation failed")

// GiftServiceConfig содержит параметры выдачи подарков
type GiftServiceConfig struct {
	DefaultPolicy   string
	CodeLength      int
	MaxCodeAttempts int
}

// GiftInventory: сводка по остатку подарка
type GiftInventory struct {
	GiftID      uint   `json:"gift_id"`
	Name        string `json:"name"`
	MaxQuantity *int   `json:"max_quantity"`
	UsedCount   int    `json:"used_count"`
	Remaining   int    `json:"remaining"` // -1 = без ограничений
	IsActive    bool   `json:"is_active"`
}

// GiftService управляет подарками и их выдачей
type GiftService struct {
	giftRepo        repository.GiftRepository
	participantRepo repository.ParticipantRepository
	campaignRepo    repository.CampaignRepository
	tx              TxRunner
	cfg             GiftServiceConfig
	selectors       map[string]GiftSelector
	generate        CodeGenerator
	fulfiller       GiftFulfiller
	notifier        GiftNotifier
	events          event.Publisher
	logger          *zap.Logger
	// runAsync запускает пост-обработку выдачи (внешний API, письмо) вне запроса
	runAsync func(func())
	inflight sync.WaitGroup
}

// NewGiftService создает сервис подарков
func NewGiftService(
	giftRepo repository.GiftRepository,
	participantRepo repository.ParticipantRepository,
	campaignRepo repository.CampaignRepository,
	tx TxRunner,
	cfg GiftServiceConfig,
	fulfiller GiftFulfiller,
	notifier GiftNotifier,
	events event.Publisher,
	logger *zap.Logger,
) *GiftService {
	if cfg.DefaultPolicy == "" {
		cfg.DefaultPolicy = entity.GiftPolicyDeterministic
	}
	if cfg.MaxCodeAttempts < 1 {
		cfg.MaxCodeAttempts = 1
	}
	s := &GiftService{
		giftRepo:        giftRepo,
		participantRepo: participantRepo,
		campaignRepo:    campaignRepo,
		tx:              tx,
		cfg:             cfg,
		selectors: map[string]GiftSelector{
			entity.GiftPolicyDeterministic: DeterministicSelector{},
			entity.GiftPolicyProbabilistic: NewProbabilisticSelector(),
		},
		generate:  RandomCode,
		fulfiller: fulfiller,
		notifier:  notifier,
		events:    events,
		logger:    logger,
	}
	s.runAsync = s.track
	return s
}

// track запускает f в горутине, которую дожидается Wait
func (s *GiftService) track(f func()) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		f()
	}()
}

// Wait дожидается завершения пост-обработки выданных подарков или отмены ctx
func (s *GiftService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// selectorFor возвращает селектор политики кампании или политики по умолчанию
func (s *GiftService) selectorFor(campaign *entity.Campaign) GiftSelector {
	if sel, ok := s.selectors[campaign.GiftPolicy]; ok {
		return sel
	}
	return s.selectors[s.cfg.DefaultPolicy]
}

// AwardGift подбирает подарок по баллу и выдает его участнику.
// Кандидаты перебираются в порядке политики; если резервирование не удалось
// (запас закончился конкурентно), пробуется следующий. Нет подходящего → (nil, nil).
func (s *GiftService) AwardGift(ctx context.Context, campaign *entity.Campaign, participant *entity.Participant, score int) (*entity.GiftAward, error) {
	if participant.HasGift() {
		return s.giftRepo.GetAwardByParticipant(ctx, participant.ID)
	}

	candidates, err := s.giftRepo.ListCandidates(ctx, campaign.ID, score)
	if err != nil {
		return nil, fmt.Errorf("list gift candidates: %w", err)
	}
	if len(candidates) == 0 {
		s.logger.Info("[GiftService] Нет подходящих подарков",
			zap.Uint("campaign_id", campaign.ID), zap.Uint("participant_id", participant.ID), zap.Int("score", score))
		return nil, nil
	}

	selector := s.selectorFor(campaign)
	for _, candidate := range selector.Order(candidates) {
		gift := candidate
		if !gift.IsEligible(campaign.ID, score) {
			continue
		}
		if !selector.Accept(&gift) {
			s.logger.Debug("[GiftService] Розыгрыш подарка не выигран",
				zap.Uint("gift_id", gift.ID), zap.Int("probability", gift.Probability))
			continue
		}

		award, err := s.reserveAndIssue(ctx, &gift, participant)
		if errors.Is(err, repository.ErrAlreadyAwarded) {
			// Конкурентная выдача уже записала подарок; транзакция откатила резерв
			s.logger.Warn("[GiftService] Участнику уже выдан подарок", zap.Uint("participant_id", participant.ID))
			return s.giftRepo.GetAwardByParticipant(ctx, participant.ID)
		}
		if errors.Is(err, errReservationFailed) {
			s.logger.Info("[GiftService] Подарок закончился во время выдачи, пробуем следующий",
				zap.Uint("gift_id", gift.ID))
			continue
		}
		if err != nil {
			return nil, err
		}

		award.Gift = &gift
		participant.GiftID = &gift.ID
		participant.GiftCode = &award.Code

		s.logger.Info("[GiftService] Подарок выдан",
			zap.Uint("gift_id", gift.ID), zap.Uint("participant_id", participant.ID),
			zap.String("policy", selector.Policy()))
		s.events.Publish(ctx, event.New(event.GiftAwarded, campaign.ID, &participant.ID, map[string]interface{}{
			"gift_id":   gift.ID,
			"gift_name": gift.Name,
			"code":      award.Code,
		}))

		p := *participant
		a := *award
		s.runAsync(func() { s.afterAward(context.WithoutCancel(ctx), campaign, &p, &gift, &a) })
		return award, nil
	}

	return nil, nil
}

// reserveAndIssue в одной транзакции резервирует единицу подарка, сохраняет код
// и записывает подарок на участника. Коллизия кода повторяет попытку с новым кодом.
func (s *GiftService) reserveAndIssue(ctx context.Context, gift *entity.Gift, participant *entity.Participant) (*entity.GiftAward, error) {
	for attempt := 0; attempt < s.cfg.MaxCodeAttempts; attempt++ {
		code, err := s.uniqueCode(ctx, gift.CodePrefix)
		if err != nil {
			return nil, err
		}

		award := &entity.GiftAward{
			GiftID:        gift.ID,
			CampaignID:    gift.CampaignID,
			ParticipantID: participant.ID,
			Code:          code,
			Status:        entity.GiftAwardStatusUnclaimed,
		}

		err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			reserved, err := s.giftRepo.ReserveUnit(ctx, tx, gift.ID)
			if err != nil {
				return err
			}
			if !reserved {
				return errReservationFailed
			}
			if err := s.giftRepo.CreateAward(ctx, tx, award); err != nil {
				return err
			}
			return s.participantRepo.AssignGift(ctx, tx, participant.ID, gift.ID, code)
		})
		if errors.Is(err, repository.ErrDuplicateGiftCode) {
			s.logger.Warn("[GiftService] Коллизия кода при вставке, повтор", zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, err
		}

		gift.UsedCount++
		return award, nil
	}
	return nil, ErrGiftCodeExhausted
}

// uniqueCode генерирует код prefix+random и проверяет его отсутствие в gift_awards
func (s *GiftService) uniqueCode(ctx context.Context, prefix string) (string, error) {
	for attempt := 0; attempt < s.cfg.MaxCodeAttempts; attempt++ {
		random, err := s.generate(s.cfg.CodeLength)
		if err != nil {
			return "", err
		}
		code := strings.ToUpper(prefix) + random

		exists, err := s.giftRepo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check gift code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	s.logger.Error("[GiftService] Не удалось сгенерировать уникальный код", zap.String("prefix", prefix))
	return "", ErrGiftCodeExhausted
}

// afterAward вызывает внешний API подарка и отправляет письмо. Ошибки не отменяют выдачу.
func (s *GiftService) afterAward(ctx context.Context, campaign *entity.Campaign, participant *entity.Participant, gift *entity.Gift, award *entity.GiftAward) {
	ctx, cancel := context.WithTimeout(ctx, giftAPICallBudget)
	defer cancel()

	if gift.APIEndpoint != "" && s.fulfiller != nil {
		req := GiftFulfillmentRequest{
			GiftCode:      award.Code,
			GiftID:        gift.ID,
			ParticipantID: participant.ID,
			FullName:      participant.FullName,
			Phone:         participant.Phone,
			CampaignID:    campaign.ID,
			Params:        gift.APIParams,
		}
		if participant.Email != nil {
			req.Email = *participant.Email
		}

		status := entity.GiftAPIStatusSent
		resp, err := s.fulfiller.Fulfill(ctx, gift.APIEndpoint, req)
		if err != nil {
			status = entity.GiftAPIStatusFailed
			s.logger.Error("[GiftService] Ошибка вызова внешнего API подарка",
				zap.Uint("award_id", award.ID), zap.String("endpoint", gift.APIEndpoint), zap.Error(err))
		}
		if err := s.giftRepo.UpdateAwardAPIResult(ctx, award.ID, status, resp); err != nil {
			s.logger.Error("[GiftService] Не удалось сохранить ответ внешнего API", zap.Uint("award_id", award.ID), zap.Error(err))
		}
	}

	if participant.Email != nil && *participant.Email != "" && s.notifier != nil {
		err := s.notifier.SendGiftCode(ctx, GiftNotification{
			To:           *participant.Email,
			FullName:     participant.FullName,
			CampaignName: campaign.Name,
			GiftName:     gift.Name,
			Code:         award.Code,
		})
		if err != nil {
			s.logger.Error("[GiftService] Не удалось отправить письмо с кодом", zap.Uint("award_id", award.ID), zap.Error(err))
		}
	}
}

// ---------------------------------------------------------------------------
// Администрирование подарков
// ---------------------------------------------------------------------------

func validateGift(g *entity.Gift) error {
	ve := &apperrors.ValidationError{}
	if strings.TrimSpace(g.Name) == "" {
		ve.Add("gift name is required")
	}
	if g.Type == "" {
		g.Type = entity.GiftTypeVoucher
	}
	if !entity.IsValidGiftType(g.Type) {
		ve.Add(fmt.Sprintf("unsupported gift type %q", g.Type))
	}
	if g.Value.IsNegative() {
		ve.Add("gift value must not be negative")
	}
	if g.MinScore < 0 {
		ve.Add("min_score must not be negative")
	}
	if g.MaxScore != nil && *g.MaxScore < g.MinScore {
		ve.Add("max_score must be greater than or equal to min_score")
	}
	if g.MaxQuantity != nil && *g.MaxQuantity < 0 {
		ve.Add("max_quantity must not be negative")
	}
	if g.MaxQuantity != nil && *g.MaxQuantity < g.UsedCount {
		ve.Add(fmt.Sprintf("max_quantity cannot be lower than already issued (%d)", g.UsedCount))
	}
	if g.Probability < 0 || g.Probability > 100 {
		ve.Add("probability must be between 0 and 100")
	}
	g.CodePrefix = strings.ToUpper(strings.TrimSpace(g.CodePrefix))
	if len(g.CodePrefix) > maxCodePrefixLen || !codePrefixPattern.MatchString(g.CodePrefix) {
		ve.Add("code_prefix must be up to 10 latin letters or digits")
	}
	if g.APIEndpoint != "" {
		u, err := url.Parse(g.APIEndpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			ve.Add("api_endpoint must be an absolute http(s) URL")
		}
	}
	return ve.OrNil()
}

// CreateGift создает подарок в существующей кампании
func (s *GiftService) CreateGift(ctx context.Context, gift *entity.Gift) error {
	if _, err := s.campaignRepo.GetByID(ctx, gift.CampaignID); err != nil {
		return err
	}
	gift.ID = 0
	gift.UsedCount = 0
	if err := validateGift(gift); err != nil {
		return err
	}
	if err := s.giftRepo.Create(ctx, nil, gift); err != nil {
		s.logger.Error("[GiftService] Ошибка создания подарка", zap.Uint("campaign_id", gift.CampaignID), zap.Error(err))
		return err
	}
	s.logger.Info("[GiftService] Подарок создан", zap.Uint("gift_id", gift.ID), zap.Uint("campaign_id", gift.CampaignID))
	return nil
}

// GetGift возвращает подарок
func (s *GiftService) GetGift(ctx context.Context, id uint) (*entity.Gift, error) {
	return s.giftRepo.GetByID(ctx, id)
}

// UpdateGift заменяет редактируемые поля подарка; кампания и used_count не меняются
func (s *GiftService) UpdateGift(ctx context.Context, id uint, input *entity.Gift) (*entity.Gift, error) {
	gift, err := s.giftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	gift.Name = input.Name
	gift.Description = input.Description
	gift.Type = input.Type
	gift.Value = input.Value
	gift.CodePrefix = input.CodePrefix
	gift.MinScore = input.MinScore
	gift.MaxScore = input.MaxScore
	gift.MaxQuantity = input.MaxQuantity
	gift.Probability = input.Probability
	gift.IsActive = input.IsActive
	gift.APIEndpoint = input.APIEndpoint
	gift.APIParams = input.APIParams

	if err := validateGift(gift); err != nil {
		return nil, err
	}
	if err := s.giftRepo.Update(ctx, gift); err != nil {
		s.logger.Error("[GiftService] Ошибка обновления подарка", zap.Uint("gift_id", id), zap.Error(err))
		return nil, err
	}
	return gift, nil
}

// DeleteGift удаляет подарок без выданных кодов
func (s *GiftService) DeleteGift(ctx context.Context, id uint) error {
	return s.giftRepo.Delete(ctx, id)
}

// ListGifts возвращает подарки кампании
func (s *GiftService) ListGifts(ctx context.Context, campaignID uint) ([]entity.Gift, error) {
	return s.giftRepo.ListByCampaign(ctx, campaignID)
}

// DuplicateGift создает неактивную копию подарка с обнуленным счетчиком выдачи
func (s *GiftService) DuplicateGift(ctx context.Context, id uint) (*entity.Gift, error) {
	original, err := s.giftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	copyGift := *original
	copyGift.ID = 0
	copyGift.Name = duplicateName(original.Name, 255)
	copyGift.UsedCount = 0
	copyGift.IsActive = false
	copyGift.CreatedAt = time.Time{}
	copyGift.UpdatedAt = time.Time{}
	if original.APIParams != nil {
		copyGift.APIParams = make(datatypes.JSONMap, len(original.APIParams))
		for k, v := range original.APIParams {
			copyGift.APIParams[k] = v
		}
	}

	if err := s.giftRepo.Create(ctx, nil, &copyGift); err != nil {
		s.logger.Error("[GiftService] Ошибка дублирования подарка", zap.Uint("gift_id", id), zap.Error(err))
		return nil, err
	}
	return &copyGift, nil
}

// Inventory возвращает остатки подарков кампании
func (s *GiftService) Inventory(ctx context.Context, campaignID uint) ([]GiftInventory, error) {
	gifts, err := s.giftRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return inventoryOf(gifts), nil
}

func inventoryOf(gifts []entity.Gift) []GiftInventory {
	out := make([]GiftInventory, 0, len(gifts))
	for i := range gifts {
		g := &gifts[i]
		out = append(out, GiftInventory{
			GiftID:      g.ID,
			Name:        g.Name,
			MaxQuantity: g.MaxQuantity,
			UsedCount:   g.UsedCount,
			Remaining:   g.Remaining(),
			IsActive:    g.IsActive,
		})
	}
	return out
}

// ListAwards возвращает выданные коды кампании
func (s *GiftService) ListAwards(ctx context.Context, campaignID uint, page, pageSize int) ([]entity.GiftAward, int64, error) {
	limit, offset := pageBounds(page, pageSize)
	return s.giftRepo.ListAwards(ctx, campaignID, limit, offset)
}

// GetAwardByCode возвращает выдачу по коду
func (s *GiftService) GetAwardByCode(ctx context.Context, code string) (*entity.GiftAward, error) {
	return s.giftRepo.GetAwardByCode(ctx, normalizeCode(code))
}

// GetAwardForParticipant возвращает выдачу участника (ErrNotFound, если подарка нет)
func (s *GiftService) GetAwardForParticipant(ctx context.Context, participantID uint) (*entity.GiftAward, error) {
	return s.giftRepo.GetAwardByParticipant(ctx, participantID)
}

// ClaimCode погашает код; повторное погашение → конфликт
func (s *GiftService) ClaimCode(ctx context.Context, code string) (*entity.GiftAward, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, apperrors.NewValidationError("gift code is required")
	}

	award, err := s.giftRepo.ClaimAward(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyClaimed) {
			return award, fmt.Errorf("%w: gift code already claimed", apperrors.ErrConflict)
		}
		return nil, err
	}

	participantID := award.ParticipantID
	s.events.Publish(ctx, event.New(event.GiftClaimed, award.CampaignID, &participantID, map[string]interface{}{
		"gift_id": award.GiftID,
		"code":    award.Code,
	}))
	s.logger.Info("[GiftService] Код подарка погашен", zap.Uint("award_id", award.ID))
	return award, nil
}

// QRCode возвращает PNG с QR-кодом для выданного кода
func (s *GiftService) QRCode(ctx context.Context, code string) ([]byte, error) {
	award, err := s.giftRepo.GetAwardByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(award.Code, qrcode.Medium, giftQRSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
