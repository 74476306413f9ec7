package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/malina/auth-service/internal/api/metrics"
	"github.com/malina/auth-service/internal/core/domain"
	"github.com/malina/auth-service/internal/core/ports"
)

// ExampleHandler serves the demo routes that exercise the authorization gate.
type ExampleHandler struct {
	users ports.UserDirectory
	log   zerolog.Logger
}

func NewExampleHandler(users ports.UserDirectory, log zerolog.Logger) *ExampleHandler {
	return &ExampleHandler{users: users, log: log}
}

// caller returns the authenticated subject, or "" when there is none.
func caller(c echo.Context) string {
	if p, ok := domain.PrincipalFromContext(c.Request().Context()); ok {
		return p.Subject
	}
	return ""
}

// Example is reachable by any authenticated caller.
//
// @Summary      Greeting for authenticated callers
// @Tags         example
// @Produce      plain
// @Security     BearerAuth
// @Success      200  {string}  string
// @Failure      401  {object}  map[string]string
// @Router       /example [get]
func (h *ExampleHandler) Example(c echo.Context) error {
	h.log.Debug().Str("username", caller(c)).Msg("open example requested")
	return c.String(http.StatusOK, "Hello, world!")
}

// Admin is reachable by ADMIN callers only.
//
// @Summary      Greeting for administrators
// @Tags         example
// @Produce      plain
// @Security     BearerAuth
// @Success      200  {string}  string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /example/admin [get]
func (h *ExampleHandler) Admin(c echo.Context) error {
	h.log.Info().Str("username", caller(c)).Msg("admin resource requested")
	return c.String(http.StatusOK, "Hello, admin!")
}

// GetAdmin promotes the caller to ADMIN. Demo only; tokens issued before the
// promotion keep their USER role until they expire.
//
// @Summary      Promote the caller to ADMIN (demo)
// @Tags         example
// @Security     BearerAuth
// @Success      200
// @Failure      401  {object}  map[string]string
// @Router       /example/get-admin [get]
func (h *ExampleHandler) GetAdmin(c echo.Context) error {
	h.log.Warn().Str("username", caller(c)).Msg("assigning ADMIN role to current user")
	if err := h.users.GrantAdmin(c.Request().Context()); err != nil {
		return err
	}
	metrics.RoleGrantsTotal.Inc()
	return c.NoContent(http.StatusOK)
}
