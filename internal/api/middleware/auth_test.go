package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/malina/auth-service/internal/core/domain"
	"github.com/malina/auth-service/internal/infrastructure/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newCodec(t *testing.T, opts ...security.CodecOption) *security.JWTCodec {
	t.Helper()
	codec, err := security.NewJWTCodec([]byte(testSecret), time.Hour, opts...)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	return codec
}

func issue(t *testing.T, codec *security.JWTCodec, username string, role domain.Role) string {
	t.Helper()
	token, err := codec.Issue(&domain.User{Username: username, Role: role})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func TestAuthenticate_ValidToken(t *testing.T) {
	codec := newCodec(t)
	token := issue(t, codec, "alice", domain.RoleAdmin)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Authenticate(codec)(func(c echo.Context) error {
		called = true
		p, ok := domain.PrincipalFromContext(c.Request().Context())
		if !ok {
			t.Fatalf("principal missing from request context")
		}
		if p.Subject != "alice" || p.Role != domain.RoleAdmin {
			t.Fatalf("unexpected principal: %+v", p)
		}
		if fromEcho, _ := c.Get(PrincipalKey).(*domain.Principal); fromEcho != p {
			t.Fatalf("principal not stored in echo context")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthenticate_SchemeIsCaseInsensitive(t *testing.T) {
	codec := newCodec(t)
	token := issue(t, codec, "alice", domain.RoleUser)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "bearer "+token)
	c := e.NewContext(req, httptest.NewRecorder())

	err := Authenticate(codec)(func(c echo.Context) error { return nil })(c)
	if err != nil {
		t.Fatalf("expected lowercase scheme to be accepted, got %v", err)
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	codec := newCodec(t)
	other, err := security.NewJWTCodec([]byte("fedcba9876543210fedcba9876543210"), time.Hour)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	past := time.Now().Add(-2 * time.Hour)
	expired := issue(t, newCodec(t, security.WithClock(func() time.Time { return past })), "alice", domain.RoleUser)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic YWxpY2U6cHc="},
		{name: "no token", header: "Bearer "},
		{name: "garbage token", header: "Bearer not.a.jwt", wantErr: domain.ErrTokenMalformed},
		{name: "foreign signature", header: "Bearer " + issue(t, other, "alice", domain.RoleAdmin), wantErr: domain.ErrTokenSignature},
		{name: "expired", header: "Bearer " + expired, wantErr: domain.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			err := Authenticate(codec)(func(c echo.Context) error {
				t.Fatalf("should not reach next handler")
				return nil
			})(c)

			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v in chain, got %v", tt.wantErr, err)
			}
		})
	}
}
