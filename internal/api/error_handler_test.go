package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/malina/auth-service/internal/core/domain"
)

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{name: "duplicate username", err: domain.ErrDuplicateUsername, wantCode: http.StatusConflict, wantMsg: "user with this username already exists"},
		{name: "duplicate email", err: domain.ErrDuplicateEmail, wantCode: http.StatusConflict, wantMsg: "user with this email already exists"},
		{name: "auth failed", err: domain.ErrAuthenticationFailed, wantCode: http.StatusUnauthorized, wantMsg: "invalid username or password"},
		{name: "unauthorized hides token detail", err: fmt.Errorf("%w: %w", domain.ErrUnauthorized, domain.ErrTokenExpired), wantCode: http.StatusUnauthorized, wantMsg: "unauthorized"},
		{name: "bare token error", err: domain.ErrTokenSignature, wantCode: http.StatusUnauthorized, wantMsg: "unauthorized"},
		{name: "unauthenticated", err: domain.ErrUnauthenticated, wantCode: http.StatusUnauthorized, wantMsg: "current user is not authenticated"},
		{name: "forbidden", err: fmt.Errorf("%w: ADMIN role required", domain.ErrForbidden), wantCode: http.StatusForbidden, wantMsg: "access forbidden"},
		{name: "not found", err: domain.ErrUserNotFound, wantCode: http.StatusNotFound, wantMsg: "user not found"},
		{name: "invalid input", err: fmt.Errorf("%w: email is required", domain.ErrInvalidInput), wantCode: http.StatusBadRequest, wantMsg: "invalid input: email is required"},
		{name: "echo error", err: echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"), wantCode: http.StatusMethodNotAllowed, wantMsg: "method not allowed"},
		{name: "unexpected", err: errors.New("mongo: connection reset"), wantCode: http.StatusInternalServerError, wantMsg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Error != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, body.Error)
			}
		})
	}
}

func TestHTTPErrorHandler_SkipsCommittedResponses(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.String(http.StatusOK, "done")

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late"), c)

	if rec.Body.String() != "done" {
		t.Fatalf("committed response was rewritten: %q", rec.Body.String())
	}
}
