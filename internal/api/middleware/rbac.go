package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/malina/auth-service/internal/core/domain"
)

// RequireRole lets the request through only when the authenticated caller's
// role satisfies required. It must run after Authenticate.
func RequireRole(required domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := domain.PrincipalFromContext(c.Request().Context())
			if !ok {
				return domain.ErrUnauthorized
			}
			if !principal.Role.Satisfies(required) {
				return fmt.Errorf("%w: %s role required", domain.ErrForbidden, required)
			}
			return next(c)
		}
	}
}
