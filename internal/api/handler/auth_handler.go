package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/malina/auth-service/internal/api/metrics"
	"github.com/malina/auth-service/internal/core/domain"
	"github.com/malina/auth-service/internal/core/ports"
)

type AuthHandler struct {
	auth ports.AuthService
	log  zerolog.Logger
}

func NewAuthHandler(auth ports.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type signUpRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type signInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// SignUp registers a new USER identity and returns a bearer token for it.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "New identity"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		metrics.SignUpsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		metrics.SignUpsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return err
	}

	h.log.Info().Str("username", req.Username).Msg("sign-up requested")

	token, err := h.auth.SignUp(c.Request().Context(), ports.SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		metrics.SignUpsTotal.WithLabelValues(signUpResult(err)).Inc()
		return err
	}

	metrics.SignUpsTotal.WithLabelValues(metrics.ResultOK).Inc()
	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// SignIn exchanges a username and password for a bearer token.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		metrics.SignInsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		metrics.SignInsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return err
	}

	h.log.Info().Str("username", req.Username).Msg("sign-in requested")

	token, err := h.auth.SignIn(c.Request().Context(), ports.SignInInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAuthenticationFailed) {
			metrics.SignInsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		} else {
			metrics.SignInsTotal.WithLabelValues(metrics.ResultError).Inc()
		}
		return err
	}

	metrics.SignInsTotal.WithLabelValues(metrics.ResultOK).Inc()
	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func signUpResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail), errors.Is(err, domain.ErrDuplicateUsername):
		return metrics.ResultDuplicate
	case errors.Is(err, domain.ErrInvalidInput):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
