package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/handler/dto"
	"github.com/yourusername/vefify-quiz/internal/pkg/response"
)

// GiftIDKey: ключ контекста для ID подарка из URL
const GiftIDKey = "giftID"

// GiftHandler обрабатывает запросы администратора к подаркам и выданным кодам
type GiftHandler struct {
	gifts  GiftManager
	logger *zap.Logger
}

// NewGiftHandler создает обработчик подарков
func NewGiftHandler(gifts GiftManager, logger *zap.Logger) *GiftHandler {
	return &GiftHandler{gifts: gifts, logger: logger}
}

// ListGifts возвращает подарки кампании
func (h *GiftHandler) ListGifts(c *gin.Context) {
	gifts, err := h.gifts.ListGifts(c.Request.Context(), uintParam(c, CampaignIDKey))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, gifts)
}

// CreateGift добавляет подарок в кампанию
func (h *GiftHandler) CreateGift(c *gin.Context) {
	var req dto.GiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	gift := req.ToEntity(uintParam(c, CampaignIDKey))
	if err := h.gifts.CreateGift(c.Request.Context(), gift); err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.Created(c, gift)
}

// GetGift возвращает подарок
func (h *GiftHandler) GetGift(c *gin.Context) {
	gift, err := h.gifts.GetGift(c.Request.Context(), uintParam(c, GiftIDKey))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, gift)
}

// UpdateGift заменяет редактируемые поля подарка
func (h *GiftHandler) UpdateGift(c *gin.Context) {
	var req dto.GiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	gift, err := h.gifts.UpdateGift(c.Request.Context(), uintParam(c, GiftIDKey), req.ToEntity(0))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, gift)
}

// DeleteGift удаляет подарок, по которому ещё нет выдач
func (h *GiftHandler) DeleteGift(c *gin.Context) {
	id := uintParam(c, GiftIDKey)
	if err := h.gifts.DeleteGift(c.Request.Context(), id); err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, gin.H{"deleted": id})
}

// DuplicateGift создает неактивную копию подарка
func (h *GiftHandler) DuplicateGift(c *gin.Context) {
	gift, err := h.gifts.DuplicateGift(c.Request.Context(), uintParam(c, GiftIDKey))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.Created(c, gift)
}

// Inventory возвращает остатки подарков кампании
func (h *GiftHandler) Inventory(c *gin.Context) {
	inventory, err := h.gifts.Inventory(c.Request.Context(), uintParam(c, CampaignIDKey))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, inventory)
}

// ListAwards возвращает выданные коды кампании
func (h *GiftHandler) ListAwards(c *gin.Context) {
	page, pageSize := pageParams(c)
	awards, total, err := h.gifts.ListAwards(c.Request.Context(), uintParam(c, CampaignIDKey), page, pageSize)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, response.Page{Items: awards, Total: total, Page: page, PageSize: pageSize})
}

// GetAward ищет выдачу по коду
func (h *GiftHandler) GetAward(c *gin.Context) {
	award, err := h.gifts.GetAwardByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, award)
}

// ClaimAward погашает код подарка
func (h *GiftHandler) ClaimAward(c *gin.Context) {
	var req dto.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	award, err := h.gifts.ClaimCode(c.Request.Context(), req.Code)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, award)
}
