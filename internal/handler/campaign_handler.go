package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	"github.com/yourusername/vefify-quiz/internal/handler/dto"
	"github.com/yourusername/vefify-quiz/internal/pkg/response"
)

// CampaignIDKey: ключ контекста для ID кампании из URL
const CampaignIDKey = "campaignID"

// CampaignHandler обрабатывает запросы администратора к кампаниям
type CampaignHandler struct {
	campaigns CampaignManager
	logger    *zap.Logger
}

// NewCampaignHandler создает обработчик кампаний
func NewCampaignHandler(campaigns CampaignManager, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, logger: logger}
}

// campaignFilters читает фильтры списка: ?search=&is_active=&date_from=&date_to= (RFC3339 или YYYY-MM-DD)
func campaignFilters(c *gin.Context) repository.CampaignFilters {
	f := repository.CampaignFilters{Search: c.Query("search")}
	if v, err := strconv.ParseBool(c.Query("is_active")); err == nil {
		f.IsActive = &v
	}
	if t, ok := parseDate(c.Query("date_from")); ok {
		f.DateFrom = &t
	}
	if t, ok := parseDate(c.Query("date_to")); ok {
		f.DateTo = &t
	}
	return f
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ListCampaigns возвращает страницу кампаний
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	page, pageSize := pageParams(c)
	items, total, err := h.campaigns.ListCampaigns(c.Request.Context(), campaignFilters(c), page, pageSize)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, response.Page{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// CreateCampaign создает кампанию
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req dto.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	campaign := req.ToEntity()
	if err := h.campaigns.CreateCampaign(c.Request.Context(), campaign); err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.Created(c, campaign)
}

// GetCampaign возвращает кампанию
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.campaigns.GetCampaign(c.Request.Context(), uintParam(c, CampaignIDKey))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, campaign)
}

// UpdateCampaign полностью заменяет настройки кампании
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	var req dto.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	campaign, err := h.campaigns.UpdateCampaign(c.Request.Context(), uintParam(c, CampaignIDKey), req.ToEntity())
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, campaign)
}

// DeleteCampaign удаляет кампанию вместе с её данными
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	id := uintParam(c, CampaignIDKey)
	if err := h.campaigns.DeleteCampaign(c.Request.Context(), id); err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, gin.H{"deleted": id})
}

// DuplicateCampaign копирует кампанию с вопросами и подарками
func (h *CampaignHandler) DuplicateCampaign(c *gin.Context) {
	campaign, err := h.campaigns.DuplicateCampaign(c.Request.Context(), uintParam(c, CampaignIDKey))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.Created(c, campaign)
}

// Stats возвращает статистику кампании
func (h *CampaignHandler) Stats(c *gin.Context) {
	stats, err := h.campaigns.Stats(c.Request.Context(), uintParam(c, CampaignIDKey))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, stats)
}
