package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/packing-service/internal/domain/dto"
	"github.com/guttosm/packing-service/internal/i18n"
	"github.com/guttosm/packing-service/internal/logger"
)

// Recovery returns a middleware that turns a panic into a 500 error body.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			log := logger.FromContext(c.Request.Context())
			log.Error().
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("PANIC recovered")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			message := i18n.GetTranslator().Translate(i18n.ErrKeyInternalError, i18n.GetLocale(c))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewError(dto.ErrCodeInternal, message).WithRequestID(GetRequestID(c)))
		}()
		c.Next()
	}
}
