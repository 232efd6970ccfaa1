package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
	"github.com/yourusername/vefify-quiz/internal/pkg/response"
	"github.com/yourusername/vefify-quiz/internal/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// handleError переводит ошибку сервиса в HTTP-ответ.
// Текст внутренних ошибок наружу не отдается.
func handleError(c *gin.Context, err error, logger *zap.Logger) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		response.Error(c, http.StatusBadRequest, "validation failed", apperrors.ValidationMessages(err)...)
	case errors.Is(err, apperrors.ErrNotFound):
		response.NotFound(c)
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, apperrors.ErrForbidden):
		response.Error(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, repository.ErrDuplicateRegistration):
		response.Error(c, http.StatusConflict, "this phone number or email is already registered for the campaign")
	case errors.Is(err, repository.ErrAlreadyCompleted):
		response.Error(c, http.StatusConflict, "quiz has already been completed")
	case errors.Is(err, repository.ErrAlreadyClaimed):
		response.Error(c, http.StatusConflict, "gift code has already been claimed")
	case errors.Is(err, repository.ErrDuplicateSlug):
		response.Error(c, http.StatusConflict, "campaign slug is already taken")
	case errors.Is(err, apperrors.ErrConflict):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCampaignClosed):
		response.Error(c, http.StatusForbidden, "campaign is not open for participation")
	case errors.Is(err, service.ErrCampaignFull):
		response.Error(c, http.StatusConflict, "campaign has reached its participant limit")
	case errors.Is(err, service.ErrAttemptExpired):
		response.Error(c, http.StatusGone, "quiz attempt has expired")
	case errors.Is(err, service.ErrNoQuestions):
		response.Error(c, http.StatusConflict, "campaign has no active questions")
	default:
		logger.Error("[Handler] Внутренняя ошибка",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "internal server error")
	}
}

// pageParams читает ?page= и ?page_size= с ограничениями по умолчанию
func pageParams(c *gin.Context) (page, pageSize int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// bindError отвечает 400 на ошибку разбора тела запроса
func bindError(c *gin.Context, err error) {
	response.BadRequest(c, "invalid request body", err.Error())
}

// uintParam берет ID, извлеченный middleware.ExtractUintParam
func uintParam(c *gin.Context, key string) uint {
	return c.MustGet(key).(uint)
}
