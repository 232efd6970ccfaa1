package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	"github.com/yourusername/vefify-quiz/internal/handler/dto"
	"github.com/yourusername/vefify-quiz/internal/pkg/response"
)

// QuestionIDKey: ключ контекста для ID вопроса из URL
const QuestionIDKey = "questionID"

// QuestionHandler обрабатывает запросы администратора к вопросам
type QuestionHandler struct {
	questions QuestionManager
	logger    *zap.Logger
}

// NewQuestionHandler создает обработчик вопросов
func NewQuestionHandler(questions QuestionManager, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{questions: questions, logger: logger}
}

// ListQuestions возвращает вопросы кампании: ?search=&type=&category=&active=true
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	page, pageSize := pageParams(c)
	onlyActive, _ := strconv.ParseBool(c.Query("active"))
	filters := repository.QuestionFilters{
		Search:     c.Query("search"),
		Type:       c.Query("type"),
		Category:   c.Query("category"),
		OnlyActive: onlyActive,
	}

	items, total, err := h.questions.ListQuestions(c.Request.Context(), uintParam(c, CampaignIDKey), filters, page, pageSize)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, response.Page{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// CreateQuestion добавляет вопрос в кампанию
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	question := req.ToEntity(uintParam(c, CampaignIDKey))
	if err := h.questions.CreateQuestion(c.Request.Context(), question); err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.Created(c, question)
}

// GetQuestion возвращает вопрос с вариантами и признаками правильности
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	question, err := h.questions.GetQuestion(c.Request.Context(), uintParam(c, QuestionIDKey))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, question)
}

// UpdateQuestion заменяет вопрос и его варианты
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	question, err := h.questions.UpdateQuestion(c.Request.Context(), uintParam(c, QuestionIDKey), req.ToEntity(0))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, question)
}

// DeleteQuestion удаляет вопрос
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id := uintParam(c, QuestionIDKey)
	if err := h.questions.DeleteQuestion(c.Request.Context(), id); err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, gin.H{"deleted": id})
}

// DuplicateQuestion копирует вопрос в конец списка
func (h *QuestionHandler) DuplicateQuestion(c *gin.Context) {
	question, err := h.questions.DuplicateQuestion(c.Request.Context(), uintParam(c, QuestionIDKey))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.Created(c, question)
}

// ReorderQuestions задает порядок вопросов кампании
func (h *QuestionHandler) ReorderQuestions(c *gin.Context) {
	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.questions.ReorderQuestions(c.Request.Context(), uintParam(c, CampaignIDKey), req.QuestionIDs); err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, gin.H{"reordered": len(req.QuestionIDs)})
}
