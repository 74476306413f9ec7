package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/malina/auth-service/internal/api/metrics"
	"github.com/malina/auth-service/internal/core/domain"
	"github.com/malina/auth-service/internal/core/ports"
)

// PrincipalKey is the echo context key holding the *domain.Principal of an
// authenticated request.
const PrincipalKey = "principal"

var errBadAuthorizationHeader = errors.New("authorization header must be \"Bearer <token>\"")

// Authenticate validates the bearer token and stores the resulting principal
// in the request context and under PrincipalKey. Requests without a usable
// token fail with domain.ErrUnauthorized.
func Authenticate(tokens ports.TokenCodec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				metrics.TokenValidationsTotal.WithLabelValues("missing").Inc()
				return fmt.Errorf("%w: missing authorization header", domain.ErrUnauthorized)
			}

			raw, err := bearerToken(header)
			if err != nil {
				metrics.TokenValidationsTotal.WithLabelValues("malformed").Inc()
				return fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
			}

			principal, err := tokens.Validate(raw)
			if err != nil {
				metrics.TokenValidationsTotal.WithLabelValues(validationResult(err)).Inc()
				return fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
			}
			metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()

			req := c.Request()
			c.SetRequest(req.WithContext(domain.ContextWithPrincipal(req.Context(), principal)))
			c.Set(PrincipalKey, principal)

			return next(c)
		}
	}
}

func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", errBadAuthorizationHeader
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errBadAuthorizationHeader
	}
	return token, nil
}

func validationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenSignature):
		return "signature"
	default:
		return "malformed"
	}
}
