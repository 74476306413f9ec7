package ports

import "context"

// SignUpInput carries the registration fields from the transport layer.
type SignUpInput struct {
	Username string
	Email    string
	Password string
}

// SignInInput carries login credentials from the transport layer.
type SignInInput struct {
	Username string
	Password string
}

type AuthService interface {
	SignUp(ctx context.Context, input SignUpInput) (string, error)
	SignIn(ctx context.Context, input SignInInput) (string, error)
}
