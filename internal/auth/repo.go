package auth

import "context"

// AuthRepository persists and authenticates service users.
type AuthRepository interface {
	CreateUser(ctx context.Context, user *User) error
	AuthenticateUser(ctx context.Context, username, password string) (bool, error)
	GetUserInfo(ctx context.Context, username string) (*User, error)
}
