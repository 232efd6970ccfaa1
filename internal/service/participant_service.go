package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	"github.com/yourusername/vefify-quiz/internal/event"
	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
)

const (
	maxFullNameLen     = 255
	maxPharmacyCodeLen = 50
	maxBulkDelete      = 500
)

// Мобильный номер Вьетнама после нормализации: 0 + 3/5/7/8/9 + 8 цифр
var vnMobilePattern = regexp.MustCompile(`^0[35789]\d{8}$`)

// GiftAwarder выдает подарки по итогам викторины
type GiftAwarder interface {
	AwardGift(ctx context.Context, campaign *entity.Campaign, participant *entity.Participant, score int) (*entity.GiftAward, error)
	GetAwardForParticipant(ctx context.Context, participantID uint) (*entity.GiftAward, error)
}

// ParticipantServiceConfig содержит параметры попыток
type ParticipantServiceConfig struct {
	// AbandonAfter: через сколько незавершенная попытка считается брошенной
	AbandonAfter time.Duration
}

// RegistrationInput: данные регистрационной формы
type RegistrationInput struct {
	CampaignID   uint
	FullName     string
	Phone        string
	Email        string
	Province     string
	District     string
	PharmacyCode string
	IPAddress    string
	UserAgent    string
}

// PublicOption: вариант ответа без признака правильности
type PublicOption struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// PublicQuestion: вопрос в том виде, в котором его видит участник
type PublicQuestion struct {
	ID       uint           `json:"id"`
	Text     string         `json:"text"`
	Type     string         `json:"type"`
	Category string         `json:"category,omitempty"`
	Points   int            `json:"points"`
	Options  []PublicOption `json:"options"`
}

// QuizSession: выданный участнику набор вопросов
type QuizSession struct {
	ParticipantID uint             `json:"participant_id"`
	CampaignID    uint             `json:"campaign_id"`
	TimeLimitSec  int              `json:"time_limit_sec"`
	StartedAt     time.Time        `json:"started_at"`
	Questions     []PublicQuestion `json:"questions"`
}

// GiftResult: подарок в результате участника
type GiftResult struct {
	GiftID      uint            `json:"gift_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type,omitempty"`
	Value       decimal.Decimal `json:"value"`
	Code        string          `json:"code"`
	Status      string          `json:"status"`
}

// QuizResult: итог участника
type QuizResult struct {
	ParticipantID  uint            `json:"participant_id"`
	CampaignID     uint            `json:"campaign_id"`
	FullName       string          `json:"full_name"`
	Status         string          `json:"status"`
	FinalScore     int             `json:"final_score"`
	MaxScore       int             `json:"max_score"`
	TotalQuestions int             `json:"total_questions"`
	PassScore      int             `json:"pass_score"`
	Passed         bool            `json:"passed"`
	CompletionTime int             `json:"completion_time"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	Details        []QuestionScore `json:"details,omitempty"`
	Gift           *GiftResult     `json:"gift,omitempty"`
}

// ParticipantService обслуживает регистрацию, прохождение викторины и администрирование участников
type ParticipantService struct {
	participantRepo repository.ParticipantRepository
	campaignRepo    repository.CampaignRepository
	questionRepo    repository.QuestionRepository
	gifts           GiftAwarder
	events          event.Publisher
	cfg             ParticipantServiceConfig
	logger          *zap.Logger

	now      func() time.Time
	newToken func() string
	shuffle  func(n int, swap func(i, j int))
}

// NewParticipantService создает сервис участников
func NewParticipantService(
	participantRepo repository.ParticipantRepository,
	campaignRepo repository.CampaignRepository,
	questionRepo repository.QuestionRepository,
	gifts GiftAwarder,
	events event.Publisher,
	cfg ParticipantServiceConfig,
	logger *zap.Logger,
) *ParticipantService {
	return &ParticipantService{
		participantRepo: participantRepo,
		campaignRepo:    campaignRepo,
		questionRepo:    questionRepo,
		gifts:           gifts,
		events:          events,
		cfg:             cfg,
		logger:          logger,
		now:             time.Now,
		newToken:        func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
		shuffle:         rand.Shuffle,
	}
}

// NormalizePhone убирает разделители и приводит +84/84 к ведущему 0
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if (r >= '0' && r <= '9') || (r == '+' && b.Len() == 0) {
			b.WriteRune(r)
		}
	}
	phone := b.String()
	switch {
	case strings.HasPrefix(phone, "+84"):
		phone = "0" + phone[3:]
	case strings.HasPrefix(phone, "84") && len(phone) == 11:
		phone = "0" + phone[2:]
	}
	return strings.TrimPrefix(phone, "+")
}

// IsValidPhone проверяет нормализованный мобильный номер
func IsValidPhone(phone string) bool {
	return vnMobilePattern.MatchString(phone)
}

func normalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", true
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return email, false
	}
	return email, true
}

func validateRegistration(in *RegistrationInput) (phone, email string, err error) {
	ve := &apperrors.ValidationError{}

	in.FullName = strings.Join(strings.Fields(in.FullName), " ")
	if in.FullName == "" {
		ve.Add("full name is required")
	} else if len([]rune(in.FullName)) > maxFullNameLen {
		ve.Add("full name is too long")
	}

	phone = NormalizePhone(in.Phone)
	if !IsValidPhone(phone) {
		ve.Add("invalid phone number")
	}

	email, ok := normalizeEmail(in.Email)
	if !ok {
		ve.Add("invalid email address")
	}

	in.Province = strings.TrimSpace(in.Province)
	in.District = strings.TrimSpace(in.District)
	in.PharmacyCode = strings.TrimSpace(in.PharmacyCode)
	if len(in.PharmacyCode) > maxPharmacyCodeLen {
		ve.Add("pharmacy code is too long")
	}

	return phone, email, ve.OrNil()
}

// openCampaign возвращает кампанию, если она принимает участников
func (s *ParticipantService) openCampaign(ctx context.Context, id uint) (*entity.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !campaign.IsOpen(s.now()) {
		return nil, ErrCampaignClosed
	}
	return campaign, nil
}

// Register регистрирует участника в кампании.
// Уникальность телефона и email гарантируют уникальные индексы, предварительная проверка не нужна.
func (s *ParticipantService) Register(ctx context.Context, in RegistrationInput) (*entity.Participant, error) {
	phone, email, err := validateRegistration(&in)
	if err != nil {
		return nil, err
	}

	campaign, err := s.openCampaign(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign.MaxParticipants > 0 {
		registered, err := s.participantRepo.CountByCampaign(ctx, campaign.ID)
		if err != nil {
			return nil, err
		}
		if !campaign.HasCapacity(registered) {
			return nil, ErrCampaignFull
		}
	}

	p := &entity.Participant{
		CampaignID:   campaign.ID,
		SessionToken: s.newToken(),
		FullName:     in.FullName,
		Phone:        phone,
		Province:     in.Province,
		District:     in.District,
		PharmacyCode: in.PharmacyCode,
		Status:       entity.ParticipantStatusStarted,
		IPAddress:    in.IPAddress,
		UserAgent:    in.UserAgent,
	}
	if email != "" {
		p.Email = &email
	}

	if err := s.participantRepo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicateRegistration) {
			s.logger.Info("[ParticipantService] Повторная регистрация отклонена",
				zap.Uint("campaign_id", campaign.ID), zap.String("phone", phone))
			return nil, err
		}
		s.logger.Error("[ParticipantService] Ошибка регистрации", zap.Uint("campaign_id", campaign.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("[ParticipantService] Участник зарегистрирован",
		zap.Uint("participant_id", p.ID), zap.Uint("campaign_id", campaign.ID))
	s.events.Publish(ctx, event.New(event.ParticipantRegistered, campaign.ID, &p.ID, map[string]interface{}{
		"province": p.Province,
	}))
	return p, nil
}

// CheckPhone сообщает, зарегистрирован ли номер в кампании. Результат носит справочный характер.
func (s *ParticipantService) CheckPhone(ctx context.Context, campaignID uint, raw string) (bool, error) {
	phone := NormalizePhone(raw)
	if !IsValidPhone(phone) {
		return false, apperrors.NewValidationError("invalid phone number")
	}
	return s.participantRepo.PhoneExists(ctx, campaignID, phone)
}

// StartQuiz выдает участнику случайный набор вопросов.
// Повторный вызов для начатой попытки возвращает тот же набор.
func (s *ParticipantService) StartQuiz(ctx context.Context, token string) (*QuizSession, error) {
	p, err := s.participantRepo.GetBySessionToken(ctx, token)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case entity.ParticipantStatusCompleted:
		return nil, repository.ErrAlreadyCompleted
	case entity.ParticipantStatusAbandoned:
		return nil, ErrAttemptExpired
	}

	campaign, err := s.openCampaign(ctx, p.CampaignID)
	if err != nil {
		return nil, err
	}

	if p.Status == entity.ParticipantStatusInProgress && len(p.QuestionIDs) > 0 && p.StartedAt != nil {
		questions, err := s.assignedQuestions(ctx, p)
		if err != nil {
			return nil, err
		}
		return newQuizSession(p, campaign, *p.StartedAt, questions), nil
	}

	pool, err := s.questionRepo.GetActiveByCampaign(ctx, campaign.ID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, ErrNoQuestions
	}
	s.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if campaign.QuestionsPerQuiz > 0 && len(pool) > campaign.QuestionsPerQuiz {
		pool = pool[:campaign.QuestionsPerQuiz]
	}

	ids := make([]uint, len(pool))
	for i := range pool {
		ids[i] = pool[i].ID
	}
	startedAt := s.now().UTC()
	if err := s.participantRepo.MarkInProgress(ctx, p.ID, ids, startedAt); err != nil {
		return nil, err
	}

	s.logger.Info("[ParticipantService] Викторина начата",
		zap.Uint("participant_id", p.ID), zap.Int("questions", len(ids)))
	s.events.Publish(ctx, event.New(event.QuizStarted, campaign.ID, &p.ID, map[string]interface{}{
		"questions": len(ids),
	}))
	return newQuizSession(p, campaign, startedAt, pool), nil
}

// assignedQuestions возвращает выданные вопросы в порядке выдачи;
// если набор не зафиксирован, используются все активные вопросы кампании
func (s *ParticipantService) assignedQuestions(ctx context.Context, p *entity.Participant) ([]entity.Question, error) {
	if len(p.QuestionIDs) == 0 {
		return s.questionRepo.GetActiveByCampaign(ctx, p.CampaignID)
	}
	found, err := s.questionRepo.GetByIDs(ctx, p.QuestionIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]entity.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	ordered := make([]entity.Question, 0, len(found))
	for _, id := range p.QuestionIDs {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

func newQuizSession(p *entity.Participant, c *entity.Campaign, startedAt time.Time, questions []entity.Question) *QuizSession {
	return &QuizSession{
		ParticipantID: p.ID,
		CampaignID:    c.ID,
		TimeLimitSec:  c.TimeLimitSec,
		StartedAt:     startedAt,
		Questions:     PublicQuestions(questions),
	}
}

// PublicQuestions убирает из вопросов признаки правильности и пояснения
func PublicQuestions(questions []entity.Question) []PublicQuestion {
	out := make([]PublicQuestion, len(questions))
	for i, q := range questions {
		pq := PublicQuestion{ID: q.ID, Text: q.Text, Type: q.Type, Category: q.Category, Points: q.Points}
		if q.IsChoiceType() {
			pq.Options = make([]PublicOption, len(q.Options))
			for j, opt := range q.Options {
				pq.Options[j] = PublicOption{ID: opt.ID, Text: opt.Text}
			}
		} else {
			pq.Options = []PublicOption{}
		}
		out[i] = pq
	}
	return out
}

// SubmitQuiz проверяет ответы, фиксирует результат и выдает подарок.
// Результат фиксируется ровно один раз: повторная отправка возвращает ErrAlreadyCompleted.
// Ошибка выдачи подарка не отменяет зафиксированный результат.
func (s *ParticipantService) SubmitQuiz(ctx context.Context, token string, answers map[uint]SubmittedAnswer) (*QuizResult, error) {
	p, err := s.participantRepo.GetBySessionToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if p.IsCompleted() {
		return nil, repository.ErrAlreadyCompleted
	}
	if !p.CanSubmit() {
		return nil, ErrAttemptExpired
	}

	campaign, err := s.campaignRepo.GetByID(ctx, p.CampaignID)
	if err != nil {
		return nil, err
	}
	questions, err := s.assignedQuestions(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	score := ScoreAnswers(questions, answers, campaign.WeightedScoring, campaign.PassScore)
	details, err := json.Marshal(score.Details)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	now := s.now().UTC()
	startedAt := p.CreatedAt
	if p.StartedAt != nil {
		startedAt = *p.StartedAt
	}
	elapsed := 0
	if !startedAt.IsZero() && now.After(startedAt) {
		elapsed = int(now.Sub(startedAt).Seconds())
	}

	completion := entity.CompletionResult{
		FinalScore:     score.FinalScore,
		MaxScore:       score.MaxScore,
		TotalQuestions: score.Total,
		Passed:         score.Passed,
		Answers:        datatypes.JSON(details),
		CompletionTime: elapsed,
		CompletedAt:    now,
	}
	if err := s.participantRepo.MarkCompleted(ctx, nil, p.ID, completion); err != nil {
		if errors.Is(err, repository.ErrAlreadyCompleted) {
			s.logger.Info("[ParticipantService] Повторная отправка ответов отклонена", zap.Uint("participant_id", p.ID))
		}
		if errors.Is(err, repository.ErrAttemptAbandoned) {
			// Попытку пометили брошенной между проверкой статуса и записью результата
			s.logger.Info("[ParticipantService] Ответы на брошенную попытку отклонены", zap.Uint("participant_id", p.ID))
			return nil, ErrAttemptExpired
		}
		return nil, err
	}
	applyCompletion(p, completion)

	s.logger.Info("[ParticipantService] Викторина завершена",
		zap.Uint("participant_id", p.ID), zap.Int("score", score.FinalScore), zap.Bool("passed", score.Passed))

	award, err := s.gifts.AwardGift(ctx, campaign, p, score.FinalScore)
	if err != nil {
		s.logger.Error("[ParticipantService] Ошибка выдачи подарка", zap.Uint("participant_id", p.ID), zap.Error(err))
		award = nil
	}

	s.events.Publish(ctx, event.New(event.QuizCompleted, campaign.ID, &p.ID, map[string]interface{}{
		"final_score":  score.FinalScore,
		"max_score":    score.MaxScore,
		"passed":       score.Passed,
		"gift_awarded": award != nil,
	}))

	result := buildResult(p, campaign, award)
	result.Details = score.Details
	return result, nil
}

func applyCompletion(p *entity.Participant, c entity.CompletionResult) {
	p.Status = entity.ParticipantStatusCompleted
	p.FinalScore = c.FinalScore
	p.MaxScore = c.MaxScore
	p.TotalQuestions = c.TotalQuestions
	p.Passed = c.Passed
	p.Answers = c.Answers
	p.CompletionTime = c.CompletionTime
	completedAt := c.CompletedAt
	p.CompletedAt = &completedAt
}

func buildResult(p *entity.Participant, c *entity.Campaign, award *entity.GiftAward) *QuizResult {
	r := &QuizResult{
		ParticipantID:  p.ID,
		CampaignID:     p.CampaignID,
		FullName:       p.FullName,
		Status:         p.Status,
		FinalScore:     p.FinalScore,
		MaxScore:       p.MaxScore,
		TotalQuestions: p.TotalQuestions,
		PassScore:      c.PassScore,
		Passed:         p.Passed,
		CompletionTime: p.CompletionTime,
		CompletedAt:    p.CompletedAt,
	}
	if award != nil {
		g := &GiftResult{GiftID: award.GiftID, Code: award.Code, Status: award.Status}
		if award.Gift != nil {
			g.Name = award.Gift.Name
			g.Description = award.Gift.Description
			g.Type = award.Gift.Type
			g.Value = award.Gift.Value
		}
		r.Gift = g
	}
	return r
}

// Result возвращает результат участника по токену сессии
func (s *ParticipantService) Result(ctx context.Context, token string) (*QuizResult, error) {
	p, err := s.participantRepo.GetBySessionToken(ctx, token)
	if err != nil {
		return nil, err
	}
	campaign, err := s.campaignRepo.GetByID(ctx, p.CampaignID)
	if err != nil {
		return nil, err
	}

	var award *entity.GiftAward
	if p.HasGift() {
		award, err = s.gifts.GetAwardForParticipant(ctx, p.ID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}
	return buildResult(p, campaign, award), nil
}

// ListParticipants возвращает страницу участников кампании
func (s *ParticipantService) ListParticipants(ctx context.Context, campaignID uint, filters repository.ParticipantFilters, page, pageSize int) ([]entity.Participant, int64, error) {
	limit, offset := pageBounds(page, pageSize)
	filters.Search = strings.TrimSpace(filters.Search)
	return s.participantRepo.List(ctx, campaignID, filters, limit, offset)
}

// GetParticipant возвращает участника по ID
func (s *ParticipantService) GetParticipant(ctx context.Context, id uint) (*entity.Participant, error) {
	return s.participantRepo.GetByID(ctx, id)
}

// BulkDelete удаляет участников по списку ID; выданные коды подарков сохраняются
func (s *ParticipantService) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return 0, apperrors.NewValidationError("no participants selected")
	}
	if len(ids) > maxBulkDelete {
		return 0, apperrors.NewValidationError(fmt.Sprintf("at most %d participants can be deleted at once", maxBulkDelete))
	}

	deleted, err := s.participantRepo.BulkDelete(ctx, ids)
	if err != nil {
		s.logger.Error("[ParticipantService] Ошибка массового удаления", zap.Int("count", len(ids)), zap.Error(err))
		return 0, err
	}
	s.logger.Info("[ParticipantService] Участники удалены", zap.Int64("deleted", deleted))
	return deleted, nil
}

// Rescore пересчитывает балл завершенного участника по сохраненным ответам.
// Выданный подарок не меняется.
func (s *ParticipantService) Rescore(ctx context.Context, id uint) (*QuizResult, error) {
	p, err := s.participantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsCompleted() {
		return nil, fmt.Errorf("%w: participant #%d has not completed the quiz", apperrors.ErrConflict, id)
	}
	campaign, err := s.campaignRepo.GetByID(ctx, p.CampaignID)
	if err != nil {
		return nil, err
	}
	questions, err := s.assignedQuestions(ctx, p)
	if err != nil {
		return nil, err
	}

	var stored []QuestionScore
	if len(p.Answers) > 0 {
		if err := json.Unmarshal(p.Answers, &stored); err != nil {
			return nil, fmt.Errorf("decode stored answers of participant #%d: %w", id, err)
		}
	}
	answers := make(map[uint]SubmittedAnswer, len(stored))
	for _, a := range stored {
		answers[a.QuestionID] = SubmittedAnswer{OptionIDs: a.OptionIDs, Text: a.Text}
	}

	score := ScoreAnswers(questions, answers, campaign.WeightedScoring, campaign.PassScore)
	details, err := json.Marshal(score.Details)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	completion := entity.CompletionResult{
		FinalScore:     score.FinalScore,
		MaxScore:       score.MaxScore,
		TotalQuestions: score.Total,
		Passed:         score.Passed,
		Answers:        datatypes.JSON(details),
		CompletionTime: p.CompletionTime,
	}
	if p.CompletedAt != nil {
		completion.CompletedAt = *p.CompletedAt
	}
	if err := s.participantRepo.Rescore(ctx, id, completion); err != nil {
		return nil, err
	}

	s.logger.Info("[ParticipantService] Результат пересчитан",
		zap.Uint("participant_id", id), zap.Int("old_score", p.FinalScore), zap.Int("new_score", score.FinalScore))
	applyCompletion(p, completion)

	result := buildResult(p, campaign, nil)
	result.Details = score.Details
	return result, nil
}

// MarkAbandoned переводит зависшие попытки в abandoned
func (s *ParticipantService) MarkAbandoned(ctx context.Context) (int64, error) {
	if s.cfg.AbandonAfter <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.cfg.AbandonAfter)
	n, err := s.participantRepo.MarkAbandoned(ctx, cutoff)
	if err != nil {
		s.logger.Error("[ParticipantService] Ошибка пометки брошенных попыток", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.logger.Info("[ParticipantService] Брошенные попытки помечены", zap.Int64("count", n))
	}
	return n, nil
}
