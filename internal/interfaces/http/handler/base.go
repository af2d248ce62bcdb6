package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/datapadi/web/internal/application/identity"
	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/infrastructure/logger"
	"github.com/datapadi/web/internal/interfaces/http/dto"
	"github.com/datapadi/web/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler carries the envelope helpers shared by every handler
type BaseHandler struct{}

var errNoUser = errors.New("user ID not found in context")

// getOwnerID returns the signed-in user the session middleware stored
func getOwnerID(c *gin.Context) (string, error) {
	if id := middleware.GetUserID(c); id != "" {
		return id, nil
	}
	return "", errNoUser
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta answers a paged listing
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes the error envelope stamped with the request id
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindError answers a failed ShouldBind call with field details
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError maps a service error onto the envelope. Domain errors keep
// their message; session errors use the session middleware's codes. 5xx
// answers are logged and attached to the gin context for the span.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	switch {
	case errors.As(err, &domainErr):
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			h.record(c, err, "request failed", zap.String("code", domainErr.Code))
		}
		h.Error(c, status, code, domainErr.Message)

	case identity.IsAuthError(err):
		code, message := middleware.SessionError(err)
		h.Error(c, dto.GetHTTPStatus(code), code, message)

	case errors.Is(err, context.Canceled) && c.Request.Context().Err() != nil:
		// the caller went away; nobody reads the body
		logger.L(c.Request.Context()).Debug("request canceled by client")
		c.Status(499)

	default:
		h.record(c, err, "unexpected error")
		h.InternalError(c, "An unexpected error occurred")
	}
}

func (h *BaseHandler) record(c *gin.Context, err error, msg string, fields ...zap.Field) {
	_ = c.Error(err)
	logger.L(c.Request.Context()).Error(msg, append(fields, zap.Error(err))...)
}
