package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Recovery turns a handler panic into a 500 carrying the request id. The log
// event names the matched route and its parameters, so a panic during a
// dataset regeneration is logged with the dataset name.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				var stack [4096]byte
				n := runtime.Stack(stack[:], false)
				rid := requestID(c)

				params := zerolog.Dict()
				for i, name := range c.ParamNames() {
					if i < len(c.ParamValues()) {
						params.Str(name, c.ParamValues()[i])
					}
				}
				logger.Error().
					Str("request_id", rid).
					Str("method", c.Request().Method).
					Str("route", c.Path()).
					Str("path", c.Request().URL.Path).
					Dict("params", params).
					Str("panic", fmt.Sprint(r)).
					Str("stack", string(stack[:n])).
					Msg("panic recovered")

				msg := "internal server error"
				if rid != "" {
					msg += " (request " + rid + ")"
				}
				err = echo.NewHTTPError(http.StatusInternalServerError, msg)
			}()
			return next(c)
		}
	}
}
