// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/roomdesk/service-booking/internal/domain/apperr"
)

// Body is the response envelope.
type Body struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// BadRequest writes a 400 validation failure.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, apperr.CodeValidationFailed, message, nil)
}

// Unauthorized writes 401.
func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, apperr.CodeUnauthorized, message, nil)
}

// Forbidden writes 403.
func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, apperr.CodeForbidden, message, nil)
}

// BindError translates a gin binding failure into a 400, listing failing
// fields when the validator produced them.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]any, len(verrs))
		for _, fe := range verrs {
			fields[toSnake(fe.Field())] = fe.Tag()
		}
		abort(c, http.StatusBadRequest, apperr.CodeValidationFailed, "request validation failed", map[string]any{"fields": fields})
		return
	}
	abort(c, http.StatusBadRequest, apperr.CodeValidationFailed, "invalid request body", nil)
}

// Error maps err to a status code. Unknown errors become an opaque 500 and
// are attached to the gin context for the logging middleware.
func Error(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		_ = c.Error(err)
		abort(c, http.StatusInternalServerError, apperr.CodeInternal, "internal server error", nil)
		return
	}
	abort(c, StatusFor(appErr), appErr.Code, appErr.Message, appErr.Details)
}

// StatusFor returns the HTTP status for a domain error.
func StatusFor(e *apperr.Error) int {
	switch e.Kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, code apperr.Code, message string, details map[string]any) {
	c.AbortWithStatusJSON(status, Body{
		Success: false,
		Error: &ErrorBody{
			Code:    string(code),
			Message: message,
			Details: details,
		},
	})
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
