package domain

import "errors"

var (
	ErrDuplicateUsername    = errors.New("user with this username already exists")
	ErrDuplicateEmail       = errors.New("user with this email already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrAuthenticationFailed = errors.New("invalid username or password")
	ErrUnauthenticated      = errors.New("current user is not authenticated")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("access forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidRole          = errors.New("invalid role")
)

// ErrInvalidToken is the parent of every token validation failure. The more
// specific errors below wrap it, so errors.Is(err, ErrInvalidToken) matches
// all of them.
var ErrInvalidToken = errors.New("invalid token")

var (
	ErrTokenMalformed = tokenError("token is malformed")
	ErrTokenSignature = tokenError("token signature is invalid")
	ErrTokenExpired   = tokenError("token has expired")
)

type tokenErr struct{ msg string }

func tokenError(msg string) error { return &tokenErr{msg: msg} }

func (e *tokenErr) Error() string { return e.msg }
func (e *tokenErr) Unwrap() error { return ErrInvalidToken }
