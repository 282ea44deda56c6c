package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/packing-service/internal/domain/dto"
	"github.com/guttosm/packing-service/internal/i18n"
	"github.com/guttosm/packing-service/internal/logger"
)

// ErrorHandler returns a middleware that handles gin context errors.
// Handlers that attach an error without writing a response get a generic 500,
// or a 400 when the error came from request binding.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		status := http.StatusInternalServerError
		messageKey := i18n.ErrKeyInternalError
		if err.IsType(gin.ErrorTypeBind) {
			status = http.StatusBadRequest
			messageKey = i18n.ErrKeyInvalidRequest
		}

		log := logger.FromContext(c.Request.Context())
		event := log.Error()
		if status < http.StatusInternalServerError {
			event = log.Warn()
		}
		event.
			Str("error", c.Errors.String()).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Int("status", c.Writer.Status()).
			Msg("Request error")

		if !c.Writer.Written() {
			message := i18n.GetTranslator().Translate(messageKey, i18n.GetLocale(c))
			c.JSON(status, dto.NewError(dto.ErrCodeFromStatus(status), message).
				WithRequestID(GetRequestID(c)))
		}
	}
}
