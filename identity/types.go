package identity

import (
	"github.com/MrEthical07/goSession/session"
)

// User is a profile as returned by the Identity Service.
type User struct {
	ID       session.ID
	Username string
	Email    string
	Role     session.Role
}

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is a successful POST /auth/login.
type LoginResult struct {
	User  User
	Token string
}

// RegisterResult is a successful POST /auth/register. Any field may be empty.
type RegisterResult struct {
	User    *User
	Token   string
	Message string
}

// ApplyTo copies the profile fields of u onto s, leaving Token and ExpiresAt.
func (u User) ApplyTo(s *session.Session) {
	s.Identity = u.ID
	s.Username = u.Username
	s.Email = u.Email
	s.Role = u.Role
}

// empty reports whether u carries no profile field at all.
func (u User) empty() bool {
	return u == User{}
}
