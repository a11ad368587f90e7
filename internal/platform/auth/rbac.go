package auth

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequireRole admits callers holding any of roles. Admin satisfies every
// check. A request with no identity at all answers 401; an identified caller
// without a matching role answers 403 and the refusal is logged.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := append([]string{RoleAdmin}, roles...)
	denied := "required role: " + strings.Join(roles, " or ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			userID, held := UserIDFromContext(ctx), RolesFromContext(ctx)
			if userID == "" && len(held) == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			for _, r := range held {
				if slices.Contains(allowed, r) {
					return next(c)
				}
			}
			zerolog.Ctx(ctx).Warn().
				Str("user_id", userID).
				Strs("roles", held).
				Str("route", c.Path()).
				Msg("role check refused")
			return echo.NewHTTPError(http.StatusForbidden, denied)
		}
	}
}
