package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	"github.com/yourusername/vefify-quiz/internal/handler/dto"
	"github.com/yourusername/vefify-quiz/internal/pkg/response"
	"github.com/yourusername/vefify-quiz/internal/service"
)

// ParticipantIDKey: ключ контекста для ID участника из URL
const ParticipantIDKey = "participantID"

var exportContentTypes = map[string]string{
	service.ExportFormatCSV:  "text/csv; charset=utf-8",
	service.ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ParticipantHandler обрабатывает запросы администратора к участникам
type ParticipantHandler struct {
	participants ParticipantManager
	logger       *zap.Logger
}

// NewParticipantHandler создает обработчик участников
func NewParticipantHandler(participants ParticipantManager, logger *zap.Logger) *ParticipantHandler {
	return &ParticipantHandler{participants: participants, logger: logger}
}

// participantFilters читает ?status=&search=&province=&has_gift=&date_from=&date_to=
func participantFilters(c *gin.Context) repository.ParticipantFilters {
	f := repository.ParticipantFilters{
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Province: c.Query("province"),
	}
	if v, err := strconv.ParseBool(c.Query("has_gift")); err == nil {
		f.HasGift = &v
	}
	if t, ok := parseDate(c.Query("date_from")); ok {
		f.DateFrom = &t
	}
	if t, ok := parseDate(c.Query("date_to")); ok {
		f.DateTo = &t
	}
	return f
}

// ListParticipants возвращает страницу участников кампании
func (h *ParticipantHandler) ListParticipants(c *gin.Context) {
	page, pageSize := pageParams(c)
	items, total, err := h.participants.ListParticipants(c.Request.Context(), uintParam(c, CampaignIDKey), participantFilters(c), page, pageSize)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, response.Page{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// GetParticipant возвращает участника
func (h *ParticipantHandler) GetParticipant(c *gin.Context) {
	p, err := h.participants.GetParticipant(c.Request.Context(), uintParam(c, ParticipantIDKey))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, p)
}

// BulkDelete удаляет выбранных участников
func (h *ParticipantHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	deleted, err := h.participants.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}

// Rescore пересчитывает результат завершенного участника
func (h *ParticipantHandler) Rescore(c *gin.Context) {
	result, err := h.participants.Rescore(c.Request.Context(), uintParam(c, ParticipantIDKey))
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, result)
}

// Export выгружает участников кампании файлом: ?format=csv|xlsx плюс фильтры списка.
// Файл собирается в памяти, чтобы ошибка выгрузки не оборвала уже начатый ответ.
func (h *ParticipantHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", service.ExportFormatCSV))
	contentType, ok := exportContentTypes[format]
	if !ok {
		response.BadRequest(c, "unsupported export format", "format must be csv or xlsx")
		return
	}

	campaignID := uintParam(c, CampaignIDKey)
	var buf bytes.Buffer
	if err := h.participants.Export(c.Request.Context(), campaignID, participantFilters(c), format, &buf); err != nil {
		handleError(c, err, h.logger)
		return
	}

	filename := fmt.Sprintf("participants-campaign-%d-%s.%s", campaignID, time.Now().UTC().Format("20060102-150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
