package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweepgoat/backend/pkg/apperror"
	"github.com/sweepgoat/backend/pkg/validator"
)

// ContextLogger is the gin context key holding the request-scoped *zap.Logger.
const ContextLogger = "logger"

// ErrorBody is the error envelope returned for every non-2xx response.
type ErrorBody struct {
	Timestamp   time.Time         `json:"timestamp"`
	Status      int               `json:"status"`
	Error       string            `json:"error"`
	Message     string            `json:"message"`
	Path        string            `json:"path"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// MessageBody is a plain acknowledgement.
type MessageBody struct {
	Message string `json:"message"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Message sends 200 with {"message": msg}.
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MessageBody{Message: msg})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail writes an ErrorBody with the given status and aborts the chain.
func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, newBody(c, status, msg))
}

// BadRequest sends 400.
func BadRequest(c *gin.Context, msg string) { Fail(c, http.StatusBadRequest, msg) }

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, msg string) { Fail(c, http.StatusUnauthorized, msg) }

// Forbidden sends 403.
func Forbidden(c *gin.Context, msg string) { Fail(c, http.StatusForbidden, msg) }

// NotFound sends 404.
func NotFound(c *gin.Context, msg string) { Fail(c, http.StatusNotFound, msg) }

// Conflict sends 409.
func Conflict(c *gin.Context, msg string) { Fail(c, http.StatusConflict, msg) }

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, msg string) { Fail(c, http.StatusServiceUnavailable, msg) }

// Internal sends 500.
func Internal(c *gin.Context, msg string) { Fail(c, http.StatusInternalServerError, msg) }

// Invalid sends 400 with per-field messages.
func Invalid(c *gin.Context, fieldErrors map[string]string) {
	body := newBody(c, http.StatusBadRequest, "Invalid input data")
	body.Error = "Validation Failed"
	body.FieldErrors = fieldErrors
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

// BindError answers a failed ShouldBind* call.
func BindError(c *gin.Context, err error) {
	if fields := validator.FieldErrors(err); len(fields) > 0 {
		Invalid(c, fields)
		return
	}
	BadRequest(c, "Malformed request body")
}

// Error translates a service error into its HTTP response.
// Anything that is not an *apperror.Error becomes a generic 500 and is logged.
func Error(c *gin.Context, err error) {
	status := StatusFor(apperror.KindOf(err))
	if status == http.StatusInternalServerError {
		loggerFrom(c).Error("unhandled error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		Internal(c, "An unexpected error occurred")
		return
	}
	var ae *apperror.Error
	msg := http.StatusText(status)
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	if status == http.StatusServiceUnavailable {
		loggerFrom(c).Error("dependency unavailable", zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	Fail(c, status, msg)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindDuplicate:
		return http.StatusConflict
	case apperror.KindInvalidCredentials:
		return http.StatusUnauthorized
	case apperror.KindInvalidVerificationCode,
		apperror.KindGiveawayEntry,
		apperror.KindFileUpload,
		apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindInvalidDomain, apperror.KindSubdomainMismatch:
		return http.StatusForbidden
	case apperror.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newBody(c *gin.Context, status int, msg string) ErrorBody {
	return ErrorBody{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   msg,
		Path:      c.Request.URL.Path,
	}
}

func loggerFrom(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(ContextLogger); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
