package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of authorization levels an identity can hold.
// The zero value is RoleUser, so an identity without an explicit role is a
// plain user.
type Role uint8

const (
	RoleUser Role = iota
	RoleAdmin
)

// String returns the wire name of the role as it appears in tokens and storage.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "USER"
	case RoleAdmin:
		return "ADMIN"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// Satisfies reports whether a caller holding r may access a resource that
// requires the given role.
func (r Role) Satisfies(required Role) bool {
	if !r.Valid() {
		return false
	}
	switch required {
	case RoleUser:
		return true
	case RoleAdmin:
		return r == RoleAdmin
	default:
		return false
	}
}

// ParseRole converts a wire name into a Role. Matching ignores case and an
// optional "ROLE_" prefix.
func ParseRole(s string) (Role, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "ROLE_")
	switch name {
	case "USER":
		return RoleUser, nil
	case "ADMIN":
		return RoleAdmin, nil
	default:
		return RoleUser, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRole, uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User models a registered identity.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a copy of u that shares no state with it.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
