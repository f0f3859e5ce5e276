// Package response renders the JSON envelope shared by every endpoint and
// maps domain errors to HTTP statuses.
package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskapi/internal/domain"
)

// Meta carries the envelope metadata attached to every response.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
	Total     *int64    `json:"total,omitempty"`
	Page      *int      `json:"page,omitempty"`
	Limit     *int      `json:"limit,omitempty"`
}

// Envelope is the success payload wrapper.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
	Meta    Meta        `json:"meta"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorEnvelope is the failure payload wrapper.
type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
	Meta    Meta      `json:"meta"`
}

// Success sends data wrapped in the envelope with status 200.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Meta:    Meta{Timestamp: time.Now()},
	})
}

// SuccessWithMessage sends data plus a human-readable message.
func SuccessWithMessage(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Message: message,
		Meta:    Meta{Timestamp: time.Now()},
	})
}

// Created sends data wrapped in the envelope with status 201.
func Created(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, Envelope{
		Success: true,
		Data:    data,
		Message: message,
		Meta:    Meta{Timestamp: time.Now()},
	})
}

// Paginated sends one page of results with the list metadata filled in.
func Paginated(c *gin.Context, data interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Meta: Meta{
			Timestamp: time.Now(),
			Total:     &total,
			Page:      &page,
			Limit:     &limit,
		},
	})
}

// Collection sends an unpaginated list with its total count.
func Collection(c *gin.Context, data interface{}, total int64) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Meta: Meta{
			Timestamp: time.Now(),
			Total:     &total,
		},
	})
}

// Error maps err to an HTTP status via the domain sentinels and sends the
// error envelope. Unrecognized errors become 500 with a generic message so
// internal details never leak to clients.
func Error(c *gin.Context, err error) {
	status, code, message := classify(err)
	c.JSON(status, ErrorEnvelope{
		Success: false,
		Error:   ErrorBody{Code: code, Message: message},
		Meta:    Meta{Timestamp: time.Now()},
	})
}

// ValidationError sends a 400 with the supplied message and optional details.
func ValidationError(c *gin.Context, message string, details interface{}) {
	c.JSON(http.StatusBadRequest, ErrorEnvelope{
		Success: false,
		Error:   ErrorBody{Code: "VALIDATION_ERROR", Message: message, Details: details},
		Meta:    Meta{Timestamp: time.Now()},
	})
}

// NotFound sends a 404 with the supplied message.
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorEnvelope{
		Success: false,
		Error:   ErrorBody{Code: "NOT_FOUND", Message: message},
		Meta:    Meta{Timestamp: time.Now()},
	})
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Task not found"
	case errors.Is(err, domain.ErrDuplicateTitle):
		return http.StatusConflict, "DUPLICATE_TITLE", "A task with this title already exists"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrBulkLimitExceeded):
		return http.StatusBadRequest, "BULK_LIMIT_EXCEEDED", err.Error()
	case errors.Is(err, domain.ErrInternal):
		fallthrough
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
