package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	"github.com/yourusername/vefify-quiz/internal/event"
	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
)

const maxQuestionText = 5000

var validDifficulties = map[string]bool{"easy": true, "medium": true, "hard": true}

// QuestionService управляет вопросами кампаний
type QuestionService struct {
	questionRepo repository.QuestionRepository
	campaignRepo repository.CampaignRepository
	events       event.Publisher
	logger       *zap.Logger
}

// NewQuestionService создает сервис вопросов
func NewQuestionService(questionRepo repository.QuestionRepository, campaignRepo repository.CampaignRepository, events event.Publisher, logger *zap.Logger) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		campaignRepo: campaignRepo,
		events:       events,
		logger:       logger,
	}
}

func validateQuestion(q *entity.Question) error {
	ve := &apperrors.ValidationError{}

	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		ve.Add("question text is required")
	} else if len([]rune(q.Text)) > maxQuestionText {
		ve.Add("question text is too long")
	}
	if q.Type == "" {
		q.Type = entity.QuestionTypeSingleSelect
	}
	if !entity.IsValidQuestionType(q.Type) {
		ve.Add(fmt.Sprintf("unsupported question type %q", q.Type))
	}
	if q.Difficulty == "" {
		q.Difficulty = "medium"
	}
	if !validDifficulties[q.Difficulty] {
		ve.Add(fmt.Sprintf("unsupported difficulty %q", q.Difficulty))
	}
	if q.Points < 1 {
		ve.Add("points must be at least 1")
	}

	for i := range q.Options {
		q.Options[i].Text = strings.TrimSpace(q.Options[i].Text)
		if q.Options[i].Text == "" {
			ve.Add(fmt.Sprintf("option #%d text is required", i+1))
		}
	}

	correct := q.CorrectCount()
	switch {
	case q.Type == entity.QuestionTypeText:
		if correct < 1 {
			ve.Add("text question needs at least one accepted answer")
		}
	case entity.IsValidQuestionType(q.Type):
		if len(q.Options) < 2 {
			ve.Add("at least 2 options are required")
		}
		if correct < 1 {
			ve.Add("at least one option must be correct")
		}
		if q.RequiresSingleAnswer() && correct > 1 {
			ve.Add(fmt.Sprintf("%s question must have exactly one correct option", q.Type))
		}
		if q.Type == entity.QuestionTypeTrueFalse && len(q.Options) != 2 {
			ve.Add("true_false question must have exactly 2 options")
		}
	}

	return ve.OrNil()
}

// normalizeOptions выставляет порядок вариантов по позиции
func normalizeOptions(q *entity.Question) {
	for i := range q.Options {
		q.Options[i].ID = 0
		q.Options[i].QuestionID = 0
		q.Options[i].OrderIndex = i + 1
	}
}

// CreateQuestion добавляет вопрос с вариантами в кампанию
func (s *QuestionService) CreateQuestion(ctx context.Context, q *entity.Question) error {
	q.ID = 0
	if err := validateQuestion(q); err != nil {
		return err
	}
	if _, err := s.campaignRepo.GetByID(ctx, q.CampaignID); err != nil {
		return err
	}
	normalizeOptions(q)

	if err := s.questionRepo.Create(ctx, nil, q); err != nil {
		s.logger.Error("[QuestionService] Ошибка создания вопроса", zap.Uint("campaign_id", q.CampaignID), zap.Error(err))
		return err
	}
	s.logger.Info("[QuestionService] Вопрос создан", zap.Uint("question_id", q.ID), zap.Uint("campaign_id", q.CampaignID))
	s.changed(ctx, q.CampaignID, "question_created")
	return nil
}

// GetQuestion возвращает вопрос с вариантами
func (s *QuestionService) GetQuestion(ctx context.Context, id uint) (*entity.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// UpdateQuestion обновляет вопрос; варианты заменяются целиком
func (s *QuestionService) UpdateQuestion(ctx context.Context, id uint, input *entity.Question) (*entity.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	q.Text = input.Text
	q.Type = input.Type
	q.Category = input.Category
	q.Difficulty = input.Difficulty
	q.Points = input.Points
	q.Explanation = input.Explanation
	q.IsActive = input.IsActive
	q.Options = input.Options

	if err := validateQuestion(q); err != nil {
		return nil, err
	}
	normalizeOptions(q)

	if err := s.questionRepo.Update(ctx, q); err != nil {
		s.logger.Error("[QuestionService] Ошибка обновления вопроса", zap.Uint("question_id", id), zap.Error(err))
		return nil, err
	}
	s.changed(ctx, q.CampaignID, "question_updated")
	return q, nil
}

// DeleteQuestion удаляет вопрос вместе с вариантами
func (s *QuestionService) DeleteQuestion(ctx context.Context, id uint) error {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		s.logger.Error("[QuestionService] Ошибка удаления вопроса", zap.Uint("question_id", id), zap.Error(err))
		return err
	}
	s.changed(ctx, q.CampaignID, "question_deleted")
	return nil
}

// ListQuestions возвращает страницу вопросов кампании
func (s *QuestionService) ListQuestions(ctx context.Context, campaignID uint, filters repository.QuestionFilters, page, pageSize int) ([]entity.Question, int64, error) {
	limit, offset := pageBounds(page, pageSize)
	return s.questionRepo.ListByCampaign(ctx, campaignID, filters, limit, offset)
}

// DuplicateQuestion копирует вопрос в ту же кампанию, копия неактивна и стоит последней
func (s *QuestionService) DuplicateQuestion(ctx context.Context, id uint) (*entity.Question, error) {
	original, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dup := cloneQuestion(original, original.CampaignID)
	dup.Text = duplicateName(original.Text, maxQuestionText)
	dup.IsActive = false

	_, total, err := s.questionRepo.ListByCampaign(ctx, original.CampaignID, repository.QuestionFilters{}, 1, 0)
	if err != nil {
		return nil, err
	}
	dup.OrderIndex = int(total) + 1

	if err := s.questionRepo.Create(ctx, nil, dup); err != nil {
		s.logger.Error("[QuestionService] Ошибка дублирования вопроса", zap.Uint("question_id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("[QuestionService] Вопрос дублирован", zap.Uint("question_id", id), zap.Uint("copy_id", dup.ID))
	s.changed(ctx, dup.CampaignID, "question_duplicated")
	return dup, nil
}

// ReorderQuestions выставляет порядок вопросов кампании по списку ID
func (s *QuestionService) ReorderQuestions(ctx context.Context, campaignID uint, orderedIDs []uint) error {
	ids := dedupeIDs(orderedIDs)
	if len(ids) == 0 {
		return apperrors.NewValidationError("question order must not be empty")
	}
	if err := s.questionRepo.UpdateOrder(ctx, campaignID, ids); err != nil {
		if !errors.Is(err, apperrors.ErrValidation) && !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("[QuestionService] Ошибка сортировки вопросов", zap.Uint("campaign_id", campaignID), zap.Error(err))
		}
		return err
	}
	s.changed(ctx, campaignID, "questions_reordered")
	return nil
}

func (s *QuestionService) changed(ctx context.Context, campaignID uint, action string) {
	s.events.Publish(ctx, event.New(event.CampaignChanged, campaignID, nil, map[string]interface{}{"action": action}))
}
