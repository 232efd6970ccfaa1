// Package response формирует JSON-конверт ответов API:
// {"success": true, "data": ...} или {"success": false, "data": {"message": ..., "errors": [...]}}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope: общий формат ответа
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// ErrorBody: тело ответа с ошибкой
type ErrorBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// Page: страница списка
type Page struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Error отвечает ошибкой со статусом code
func Error(c *gin.Context, code int, message string, details ...string) {
	c.JSON(code, Envelope{Success: false, Data: ErrorBody{Message: message, Errors: details}})
}

// Abort отвечает ошибкой и прерывает цепочку обработчиков
func Abort(c *gin.Context, code int, message string, details ...string) {
	c.AbortWithStatusJSON(code, Envelope{Success: false, Data: ErrorBody{Message: message, Errors: details}})
}

func Unauthorized(c *gin.Context) {
	Abort(c, http.StatusUnauthorized, "unauthorized")
}

func Forbidden(c *gin.Context) {
	Abort(c, http.StatusForbidden, "forbidden")
}

func BadRequest(c *gin.Context, message string, details ...string) {
	Error(c, http.StatusBadRequest, message, details...)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "resource not found")
}
