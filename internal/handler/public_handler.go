package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/handler/dto"
	"github.com/yourusername/vefify-quiz/internal/pkg/response"
	"github.com/yourusername/vefify-quiz/internal/service"
)

// SessionTokenHeader: заголовок с токеном сессии участника, выданным при регистрации
const SessionTokenHeader = "X-Session-Token"

// PublicHandler обслуживает фронтенд викторины
type PublicHandler struct {
	campaigns    CampaignManager
	participants ParticipantManager
	gifts        GiftManager
	locations    LocationLookup
	logger       *zap.Logger
	now          func() time.Time
}

// NewPublicHandler создает обработчик публичного API
func NewPublicHandler(
	campaigns CampaignManager,
	participants ParticipantManager,
	gifts GiftManager,
	locations LocationLookup,
	logger *zap.Logger,
) *PublicHandler {
	return &PublicHandler{
		campaigns:    campaigns,
		participants: participants,
		gifts:        gifts,
		locations:    locations,
		logger:       logger,
		now:          time.Now,
	}
}

func sessionToken(c *gin.Context) (string, bool) {
	token := strings.TrimSpace(c.GetHeader(SessionTokenHeader))
	if token == "" {
		response.BadRequest(c, "session token is required", SessionTokenHeader+" header is missing")
		return "", false
	}
	return token, true
}

// GetCampaign возвращает описание кампании по ID
func (h *PublicHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.campaigns.GetCampaign(c.Request.Context(), uintParam(c, CampaignIDKey))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, dto.NewPublicCampaignResponse(campaign, h.now()))
}

// GetCampaignBySlug возвращает описание кампании по slug
func (h *PublicHandler) GetCampaignBySlug(c *gin.Context) {
	campaign, err := h.campaigns.GetCampaignBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, dto.NewPublicCampaignResponse(campaign, h.now()))
}

// CheckPhone сообщает, зарегистрирован ли номер в кампании
func (h *PublicHandler) CheckPhone(c *gin.Context) {
	var req dto.CheckPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	exists, err := h.participants.CheckPhone(c.Request.Context(), uintParam(c, CampaignIDKey), req.Phone)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, gin.H{"registered": exists})
}

// Register регистрирует участника и возвращает токен сессии
func (h *PublicHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	p, err := h.participants.Register(c.Request.Context(), service.RegistrationInput{
		CampaignID:   uintParam(c, CampaignIDKey),
		FullName:     req.FullName,
		Phone:        req.Phone,
		Email:        req.Email,
		Province:     req.Province,
		District:     req.District,
		PharmacyCode: req.PharmacyCode,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.Created(c, dto.RegisterResponse{
		ParticipantID: p.ID,
		CampaignID:    p.CampaignID,
		SessionToken:  p.SessionToken,
		Status:        p.Status,
	})
}

// StartQuiz выдает вопросы без признаков правильности
func (h *PublicHandler) StartQuiz(c *gin.Context) {
	token, ok := sessionToken(c)
	if !ok {
		return
	}
	session, err := h.participants.StartQuiz(c.Request.Context(), token)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, session)
}

// SubmitQuiz принимает ответы и возвращает результат с подарком
func (h *PublicHandler) SubmitQuiz(c *gin.Context) {
	token, ok := sessionToken(c)
	if !ok {
		return
	}
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.participants.SubmitQuiz(c.Request.Context(), token, req.ToAnswers())
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, result)
}

// Result возвращает сохраненный результат участника
func (h *PublicHandler) Result(c *gin.Context) {
	token, ok := sessionToken(c)
	if !ok {
		return
	}
	result, err := h.participants.Result(c.Request.Context(), token)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, result)
}

// Provinces возвращает список провинций
func (h *PublicHandler) Provinces(c *gin.Context) {
	response.OK(c, h.locations.Provinces())
}

// Districts возвращает районы провинции
func (h *PublicHandler) Districts(c *gin.Context) {
	districts, err := h.locations.Districts(c.Param("province"))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, districts)
}

// GiftQR отдает PNG с QR-кодом выданного подарка
func (h *PublicHandler) GiftQR(c *gin.Context) {
	png, err := h.gifts.QRCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
