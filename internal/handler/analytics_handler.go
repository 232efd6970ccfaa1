package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/pkg/response"
)

// AnalyticsHandler отдает сводку по кампании
type AnalyticsHandler struct {
	analytics AnalyticsReporter
	logger    *zap.Logger
}

func NewAnalyticsHandler(analytics AnalyticsReporter, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, logger: logger}
}

// Summary возвращает статистику участников, баллов и подарков кампании
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	summary, err := h.analytics.Summary(c.Request.Context(), uintParam(c, CampaignIDKey))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, summary)
}
