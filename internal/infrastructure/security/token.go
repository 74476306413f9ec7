package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/malina/auth-service/internal/core/domain"
)

const defaultTokenTTL = 24 * time.Hour

// tokenClaims is the payload carried by every issued token. The subject is
// the username. Role is a pointer so a missing or null claim is detectable.
type tokenClaims struct {
	Role *domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTCodec implements ports.TokenCodec with HS256-signed JWTs.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// CodecOption overrides a JWTCodec default at construction time.
type CodecOption func(*JWTCodec)

// WithIssuer sets the iss claim on issued tokens and requires it on validation.
func WithIssuer(issuer string) CodecOption {
	return func(c *JWTCodec) {
		c.issuer = issuer
	}
}

// WithClock replaces time.Now for both signing and validation.
func WithClock(now func() time.Time) CodecOption {
	return func(c *JWTCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewJWTCodec builds a codec signing with secret. A non-positive ttl falls
// back to 24h.
func NewJWTCodec(secret []byte, ttl time.Duration, opts ...CodecOption) (*JWTCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt codec: signing secret is empty")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	c := &JWTCodec{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the validity period applied to issued tokens.
func (c *JWTCodec) TTL() time.Duration { return c.ttl }

func (c *JWTCodec) Issue(user *domain.User) (string, error) {
	if user == nil || user.Username == "" {
		return "", fmt.Errorf("%w: token subject is empty", domain.ErrInvalidInput)
	}
	if !user.Role.Valid() {
		return "", fmt.Errorf("%w: %d", domain.ErrInvalidRole, uint8(user.Role))
	}

	role := user.Role
	now := c.now().UTC()
	claims := tokenClaims{
		Role: &role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (c *JWTCodec) Validate(token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrTokenMalformed
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrTokenMalformed
	}
	if claims.Role == nil {
		return nil, fmt.Errorf("%w: role claim is missing", domain.ErrTokenMalformed)
	}

	p := &domain.Principal{
		Subject: claims.Subject,
		Role:    *claims.Role,
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.ErrTokenSignature
	default:
		return fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}
}
