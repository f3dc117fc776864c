package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger logs one line per request with the global zerolog logger
func RequestLogger() echo.MiddlewareFunc {
	return RequestLoggerWith(log.Logger)
}

// RequestLoggerWith logs one line per request with the given logger
func RequestLoggerWith(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := logger.Info()
			if res.Status >= 500 {
				event = logger.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Int32("branch_id", GetBranchID(c)).
				Msg("request")

			return nil
		}
	}
}
