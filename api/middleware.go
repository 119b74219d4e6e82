package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// RequestIDMiddleware tags every request with an id for log correlation. An
// inbound X-Request-ID header is honored so ids survive proxies.
func RequestIDMiddleware(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.Set(requestIDKey, id)
			if logger != nil && logger.IsLevelEnabled(log.DebugLevel) {
				logger.WithFields(log.Fields{
					"request_id": id,
					"method":     c.Request().Method,
					"path":       c.Request().URL.Path,
				}).Debug("request.received")
			}
			return next(c)
		}
	}
}

const requestIDKey = "request_id"

// RequestID returns the id assigned by RequestIDMiddleware, or "" when the
// middleware is not installed.
func RequestID(c echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}
