package response

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
)

const (
	msgUnauthorized = "Необхідна авторизація."
	msgForbidden    = "Доступ заборонено."
	msgNotFound     = "Не знайдено."
	msgInternal     = "Внутрішня помилка сервера."
	msgTooMany      = "Забагато запитів, спробуйте пізніше."
)

// Pagination metadata returned with paginated responses.
type Pagination struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	TotalPage   int   `json:"total_page"`
	Size        int   `json:"size"`
	HasNextPage bool  `json:"has_next_page"`
}

type pagedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": 0, "code": status, "message": message})
}

// OK sends a 200 response. Arrays/slices are wrapped in {data: [...]}.
func OK(c *gin.Context, data interface{}) {
	if data != nil {
		v := reflect.ValueOf(data)
		if v.Kind() == reflect.Slice {
			c.JSON(http.StatusOK, gin.H{"data": data})
			return
		}
	}
	c.JSON(http.StatusOK, data)
}

// Paged sends a paginated response.
func Paged(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, pagedResponse{
		Data:       data,
		Pagination: pagination,
	})
}

// Created sends a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Accepted sends a 202 response.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, data)
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context) {
	fail(c, http.StatusUnauthorized, msgUnauthorized)
}

// Forbidden sends a 403 error response.
func Forbidden(c *gin.Context) {
	fail(c, http.StatusForbidden, msgForbidden)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	fail(c, http.StatusNotFound, msgNotFound)
}

// NotFoundMsg sends a 404 error with a custom message.
func NotFoundMsg(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, message)
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, message string) {
	fail(c, http.StatusConflict, message)
}

// TooManyRequests sends a 429 error response.
func TooManyRequests(c *gin.Context) {
	fail(c, http.StatusTooManyRequests, msgTooMany)
}

// InternalError sends a 500 error response. The error itself is not exposed.
func InternalError(c *gin.Context, err error) {
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, msgInternal)
}

// BadGateway sends a 502 error response, used when an upstream such as the
// mail server fails.
func BadGateway(c *gin.Context, message string) {
	fail(c, http.StatusBadGateway, message)
}
