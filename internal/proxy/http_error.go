package proxy

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quran-player/internal/apperrors"
)

// statusFor maps an application error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeNoMatch:
		return http.StatusNotFound
	case apperrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.CodeNetwork:
		return http.StatusBadGateway
	case apperrors.CodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// errorHandler renders the last handler error as
// {"error":{"code":...,"message":...}} unless a body was already written.
func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		code := apperrors.CodeOf(err)
		message := "something went wrong"
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
		if code == "" {
			code = "internal_error"
		}

		c.JSON(statusFor(code), gin.H{
			"error": gin.H{
				"code":    code,
				"message": message,
			},
		})
	}
}
